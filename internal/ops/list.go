package ops

import (
	"context"

	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/thought"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Drafts *bool // nil: all; true: drafts only; false: finalized only
	Limit  int   // default: 20, max: 100
	Offset int   // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []thought.Summary `json:"items"`
	Pagination Pagination        `json:"pagination"`
	Sort       string            `json:"sort"`
}

// List returns record summaries, most recently updated first.
func List(ctx context.Context, store Reader, input ListInput) (*ListOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	filter := db.ScanFilter{Drafts: input.Drafts, Limit: limit, Offset: offset}
	rows, err := store.Scan(ctx, filter)
	if err != nil {
		return nil, err
	}
	total, err := store.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]thought.Summary, 0, len(rows))
	for i := range rows {
		// Field problems fall back to defaults; the summary is still listed.
		rec, problems := rows[i].Decode()
		logProblems(rec.ID, problems)
		items = append(items, rec.ToSummary())
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "updated_at_desc",
	}, nil
}
