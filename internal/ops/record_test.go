package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/thoughts/internal/autosave"
	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/lifecycle"
	"github.com/hpungsan/thoughts/internal/thought"
)

func TestRecord_NewDraft(t *testing.T) {
	store := setupStore(t)

	output, err := Record(context.Background(), store, RecordInput{
		Ref:   "new",
		Patch: thought.Patch{Thought: stringPtr("I always fail")},
	}, lifecycle.Options{})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if output.ID != 1 {
		t.Errorf("ID = %d, want 1", output.ID)
	}
	if output.Result != autosave.ResultCreated {
		t.Errorf("Result = %q, want created", output.Result)
	}
	if !output.IsDraft {
		t.Error("IsDraft = false, want true")
	}
	if output.Route != "/form/1" {
		t.Errorf("Route = %q, want /form/1", output.Route)
	}
}

func TestRecord_EmptyDraftIsSkipped(t *testing.T) {
	store := setupStore(t)

	output, err := Record(context.Background(), store, RecordInput{Ref: "new"}, lifecycle.Options{})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if output.Result != autosave.ResultSkipped {
		t.Errorf("Result = %q, want skipped", output.Result)
	}
	if output.ID != 0 {
		t.Errorf("ID = %d, want 0", output.ID)
	}
	if n, _ := store.Count(context.Background(), db.ScanFilter{}); n != 0 {
		t.Errorf("records = %d, want 0", n)
	}
}

func TestRecord_SubmitExisting(t *testing.T) {
	store := setupStore(t)
	ids := seed(t, store, true, "draft")

	output, err := Record(context.Background(), store, RecordInput{
		Ref:    "1",
		Patch:  thought.Patch{Situation: stringPtr("at work")},
		Submit: true,
	}, lifecycle.Options{})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if output.ID != ids[0] || output.IsDraft {
		t.Errorf("output = %+v, want id %d final", output, ids[0])
	}
	if output.State != lifecycle.StateSubmitted || output.Route != "/view/1" {
		t.Errorf("State = %q Route = %q", output.State, output.Route)
	}

	view, err := View(context.Background(), store, ids[0])
	if err != nil {
		t.Fatalf("View failed: %v", err)
	}
	if view.Record.Fields.Situation != "at work" || view.Record.Fields.Thought != "draft" {
		t.Errorf("fields = %+v", view.Record.Fields)
	}
}

func TestRecord_NotFound(t *testing.T) {
	store := setupStore(t)

	_, err := Record(context.Background(), store, RecordInput{Ref: "9", Submit: true}, lifecycle.Options{})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("err = %v, want NOT_FOUND", err)
	}
}

func TestRecord_InvalidPatch(t *testing.T) {
	store := setupStore(t)
	level := 11

	_, err := Record(context.Background(), store, RecordInput{
		Ref:   "new",
		Patch: thought.Patch{DistressLevel: &level},
	}, lifecycle.Options{})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("err = %v, want INVALID_REQUEST", err)
	}
}
