// Package ops implements the operations shared by the CLI, web, and MCP
// surfaces.
package ops

import (
	"context"
	"log/slog"

	"github.com/hpungsan/thoughts/internal/db"
	"github.com/hpungsan/thoughts/internal/errors"
	"github.com/hpungsan/thoughts/internal/thought"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Reader is the read side of the record store.
type Reader interface {
	Get(ctx context.Context, id int64) (*thought.Stored, error)
	Scan(ctx context.Context, f db.ScanFilter) ([]thought.Stored, error)
	Count(ctx context.Context, f db.ScanFilter) (int, error)
}

// logProblems reports stored fields that were replaced by their defaults.
func logProblems(id int64, problems []*errors.ThoughtsError) {
	for _, p := range problems {
		slog.Warn("stored field invalid; using default",
			"id", id,
			"field", p.Details["field"],
			"error", p.Message,
		)
	}
}
