package ops

import (
	"context"

	"github.com/hpungsan/thoughts/internal/autosave"
	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/lifecycle"
	"github.com/hpungsan/thoughts/internal/thought"
)

// RecordInput contains parameters for the Record operation.
type RecordInput struct {
	Ref    string // "new" or a record id
	Patch  thought.Patch
	Submit bool
}

// RecordOutput contains the result of the Record operation.
type RecordOutput struct {
	ID      int64           `json:"id,omitempty"`
	IsDraft bool            `json:"isDraft"`
	Route   string          `json:"route"`
	Result  autosave.Result `json:"result,omitempty"`
	State   lifecycle.State `json:"state"`
}

// Record edits an entry in one step: open it, apply the patch, then either
// checkpoint it as a draft or submit it.
func Record(ctx context.Context, store lifecycle.Store, input RecordInput, opts lifecycle.Options) (*RecordOutput, error) {
	opts.DisableTimer = true
	c, err := lifecycle.Open(ctx, store, input.Ref, opts)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	if c.State() == lifecycle.StateNotFound {
		return nil, errors.NewNotFound(c.ID())
	}
	if err := c.Edit(input.Patch); err != nil {
		return nil, err
	}

	out := &RecordOutput{}
	if input.Submit {
		rec, err := c.Finalize(ctx)
		if err != nil {
			return nil, err
		}
		out.IsDraft = rec.IsDraft
	} else {
		res, err := c.Checkpoint(ctx)
		if err != nil {
			return nil, err
		}
		out.Result = res
		out.IsDraft = c.Status().IsDraft
	}

	out.ID = c.ID()
	out.Route = c.Route()
	out.State = c.State()
	return out, nil
}
