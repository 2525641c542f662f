package thought

import (
	"strings"
	"time"

	"github.com/hpungsan/thoughts/internal/errors"
)

// Fields holds the schema-defined values of a thought record.
// JSON names match the keys of the persisted fields object.
type Fields struct {
	// Situation describes what prompted the thought
	Situation string `json:"situation"`

	// Thought is the thought the user is distancing from
	Thought string `json:"thought"`

	// DistressLevel is the current distress on a 0..10 scale
	DistressLevel int `json:"distressLevel"`

	// Emotions is a set of selected emotion labels (first-seen order, no duplicates)
	Emotions []string `json:"emotions"`

	// OtherEmotion is free text for emotions not in the option list
	OtherEmotion string `json:"otherEmotion"`

	// Fields below were added in schema revision 2.

	BodySensations                   string `json:"bodySensations"`
	ValuesInterference               int    `json:"valuesInterference"`
	BeliefStrength                   int    `json:"beliefStrength"`
	PostDistancingValuesInterference int    `json:"postDistancingValuesInterference"`
	PostDistancingBeliefStrength     int    `json:"postDistancingBeliefStrength"`
	WhatFeelsPossible                string `json:"whatFeelsPossible"`
	PostDistancingDistressLevel      int    `json:"postDistancingDistressLevel"`
}

// Clone returns a deep copy of f.
func (f Fields) Clone() Fields {
	out := f
	out.Emotions = append([]string{}, f.Emotions...)
	return out
}

// Substantive reports whether the situation or thought text is filled in.
// Entries with neither are not worth checkpointing.
func (f Fields) Substantive() bool {
	return strings.TrimSpace(f.Situation) != "" || strings.TrimSpace(f.Thought) != ""
}

// HasEmotion reports whether the emotion set contains e.
func (f Fields) HasEmotion(e string) bool {
	for _, have := range f.Emotions {
		if have == e {
			return true
		}
	}
	return false
}

// ToggleEmotion adds e to the emotion set, or removes it if already present.
func (f *Fields) ToggleEmotion(e string) {
	e = strings.TrimSpace(e)
	if e == "" {
		return
	}
	if !f.HasEmotion(e) {
		f.Emotions = append(f.Emotions, e)
		return
	}
	kept := f.Emotions[:0]
	for _, have := range f.Emotions {
		if have != e {
			kept = append(kept, have)
		}
	}
	f.Emotions = kept
}

// Record is a persisted thought record.
type Record struct {
	ID        int64     `json:"id"`
	Fields    Fields    `json:"fields"`
	IsDraft   bool      `json:"isDraft"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Title returns the thought text, or a placeholder for untitled entries.
func (r *Record) Title() string {
	if t := strings.TrimSpace(r.Fields.Thought); t != "" {
		return t
	}
	return "Untitled Thought"
}

// WorkingCopy is the in-memory edit buffer of an open session.
// IsDraft mirrors the backing record: true for new entries and drafts,
// false when a finalized record was loaded back for editing.
type WorkingCopy struct {
	Fields  Fields
	IsDraft bool
}

// NewWorkingCopy returns an empty working copy for a brand-new entry.
func NewWorkingCopy() WorkingCopy {
	return WorkingCopy{Fields: Defaults(), IsDraft: true}
}

// Clone returns a deep copy of w.
func (w WorkingCopy) Clone() WorkingCopy {
	return WorkingCopy{Fields: w.Fields.Clone(), IsDraft: w.IsDraft}
}

// EmotionOptions is the emotion vocabulary offered by edit surfaces.
// Stored records may carry labels outside this list.
var EmotionOptions = []string{
	"Anger", "Frustration", "Upset", "Sadness", "Hurt", "Rage", "Envy",
	"Jealousy", "Resentment", "Fear", "Worry", "Shame", "Guilt", "Hopelessness",
}

// Stored is a record as read from the store, before field decoding.
type Stored struct {
	ID        int64
	Fields    []byte // stored fields object (JSON)
	IsDraft   bool
	Revision  int // schema revision the row was last written with
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Decode converts a stored row into a Record. Problems with individual
// fields are returned alongside a record that carries their defaults.
func (s *Stored) Decode() (*Record, []*errors.ThoughtsError) {
	fields, problems := DecodeJSON(s.Fields)
	return &Record{
		ID:        s.ID,
		Fields:    fields,
		IsDraft:   s.IsDraft,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}, problems
}
