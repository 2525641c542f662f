package ops

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/thought"
)

func setupStore(t *testing.T) *db.Store {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return db.NewStore(database)
}

var base = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

// seed creates one record per text, each updated a minute after the last.
func seed(t *testing.T, store *db.Store, draft bool, texts ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(texts))
	for _, text := range texts {
		f := thought.Defaults()
		f.Thought = text
		at := base.Add(time.Duration(len(ids)) * time.Minute)
		if !draft {
			at = at.Add(time.Hour)
		}
		id, err := store.Create(context.Background(), &thought.Record{
			Fields: f, IsDraft: draft, CreatedAt: at, UpdatedAt: at,
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		ids = append(ids, id)
	}
	return ids
}

func stringPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

// captureLog routes the default logger into a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func insertBadRecord(t *testing.T, store *db.Store) {
	t.Helper()
	_, err := store.DB().Exec(`
		INSERT INTO thoughts (fields_json, situation, thought, is_draft, schema_revision, created_at, updated_at)
		VALUES ('{"thought":"x","distressLevel":"high"}', '', 'x', 0, 1, '2026-05-01T09:00:00.000Z', '2026-05-01T09:00:00.000Z')
	`)
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
}
