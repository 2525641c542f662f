package ops

import (
	"context"

	"github.com/hpungsan/thoughts/internal/thought"
)

// ViewOutput contains the result of the View operation.
type ViewOutput struct {
	Record   *thought.Record `json:"record"`
	Title    string          `json:"title"`
	Markdown string          `json:"markdown"`
	Problems []string        `json:"problems,omitempty"`
}

// View loads a record for reading. Stored fields with the wrong shape are
// shown with their defaults and reported in Problems.
func View(ctx context.Context, store Reader, id int64) (*ViewOutput, error) {
	st, err := store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	rec, problems := st.Decode()
	logProblems(id, problems)
	out := &ViewOutput{
		Record:   rec,
		Title:    rec.Title(),
		Markdown: thought.Markdown(rec),
	}
	for _, p := range problems {
		out.Problems = append(out.Problems, p.Message)
	}
	return out, nil
}
