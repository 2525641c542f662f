package thought

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/hpungsan/thoughts/internal/errors"
)

// CurrentRevision is the latest schema revision written by this build.
const CurrentRevision = 2

// Kind is the value type of a schema field.
type Kind int

const (
	KindText Kind = iota
	KindScale
	KindSet
)

// FieldSpec describes one schema field. Every field is optional and
// falls back to the zero value of its kind.
type FieldSpec struct {
	Name     string
	Kind     Kind
	Max      int // inclusive upper bound for KindScale; lower bound is 0
	Revision int // schema revision that introduced the field

	text  func(*Fields) *string
	scale func(*Fields) *int
	set   func(*Fields) *[]string
}

// Schema lists all known fields in display order.
var Schema = []FieldSpec{
	{Name: "situation", Kind: KindText, Revision: 1, text: func(f *Fields) *string { return &f.Situation }},
	{Name: "thought", Kind: KindText, Revision: 1, text: func(f *Fields) *string { return &f.Thought }},
	{Name: "distressLevel", Kind: KindScale, Max: 10, Revision: 1, scale: func(f *Fields) *int { return &f.DistressLevel }},
	{Name: "emotions", Kind: KindSet, Revision: 1, set: func(f *Fields) *[]string { return &f.Emotions }},
	{Name: "otherEmotion", Kind: KindText, Revision: 1, text: func(f *Fields) *string { return &f.OtherEmotion }},
	{Name: "bodySensations", Kind: KindText, Revision: 2, text: func(f *Fields) *string { return &f.BodySensations }},
	{Name: "valuesInterference", Kind: KindScale, Max: 10, Revision: 2, scale: func(f *Fields) *int { return &f.ValuesInterference }},
	{Name: "beliefStrength", Kind: KindScale, Max: 100, Revision: 2, scale: func(f *Fields) *int { return &f.BeliefStrength }},
	{Name: "postDistancingValuesInterference", Kind: KindScale, Max: 10, Revision: 2, scale: func(f *Fields) *int { return &f.PostDistancingValuesInterference }},
	{Name: "postDistancingBeliefStrength", Kind: KindScale, Max: 100, Revision: 2, scale: func(f *Fields) *int { return &f.PostDistancingBeliefStrength }},
	{Name: "whatFeelsPossible", Kind: KindText, Revision: 2, text: func(f *Fields) *string { return &f.WhatFeelsPossible }},
	{Name: "postDistancingDistressLevel", Kind: KindScale, Max: 10, Revision: 2, scale: func(f *Fields) *int { return &f.PostDistancingDistressLevel }},
}

// Lookup returns the spec for a field name.
func Lookup(name string) (FieldSpec, bool) {
	for _, spec := range Schema {
		if spec.Name == name {
			return spec, true
		}
	}
	return FieldSpec{}, false
}

// Defaults returns a Fields value with every field at its default.
func Defaults() Fields {
	return Fields{Emotions: []string{}}
}

// Decode builds Fields from stored data, which may predate later schema
// revisions. Missing or null fields take their default. A value with the
// wrong shape is reported as a VALIDATION error and replaced by the default;
// decoding never fails as a whole. Unknown keys are ignored.
func Decode(raw map[string]json.RawMessage) (Fields, []*errors.ThoughtsError) {
	f := Defaults()
	var problems []*errors.ThoughtsError

	for _, spec := range Schema {
		val, ok := raw[spec.Name]
		if !ok || isNull(val) {
			continue
		}
		if err := spec.decode(&f, val); err != nil {
			problems = append(problems, err)
		}
	}

	return f, problems
}

// DecodeJSON decodes a stored fields object. A blob that is not a JSON
// object yields all defaults and a single VALIDATION error.
func DecodeJSON(data []byte) (Fields, []*errors.ThoughtsError) {
	if len(data) == 0 {
		return Defaults(), nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Defaults(), []*errors.ThoughtsError{errors.NewValidation("fields", "stored fields are not a JSON object")}
	}
	return Decode(raw)
}

// Encode serialises f as the stored fields object.
func (f Fields) Encode() ([]byte, error) {
	out := f.Clone()
	out.Emotions = NormalizeSet(out.Emotions)
	return json.Marshal(out)
}

func (spec FieldSpec) decode(f *Fields, val json.RawMessage) *errors.ThoughtsError {
	switch spec.Kind {
	case KindText:
		var s string
		if err := json.Unmarshal(val, &s); err != nil {
			return errors.NewValidation(spec.Name, "expected a string")
		}
		*spec.text(f) = s

	case KindScale:
		var n float64
		if err := json.Unmarshal(val, &n); err != nil {
			return errors.NewValidation(spec.Name, "expected an integer")
		}
		if n != math.Trunc(n) {
			return errors.NewValidation(spec.Name, "expected an integer")
		}
		v, err := spec.clamp(n)
		*spec.scale(f) = v
		if err != nil {
			return err
		}

	case KindSet:
		var items []string
		if err := json.Unmarshal(val, &items); err != nil {
			return errors.NewValidation(spec.Name, "expected a list of strings")
		}
		*spec.set(f) = NormalizeSet(items)
	}
	return nil
}

// clamp bounds n to [0, Max], reporting when a value was out of range.
// The comparison happens before conversion so huge values cannot wrap.
func (spec FieldSpec) clamp(n float64) (int, *errors.ThoughtsError) {
	switch {
	case n < 0:
		return 0, errors.NewValidation(spec.Name, fmt.Sprintf("value %g below 0", n))
	case n > float64(spec.Max):
		return spec.Max, errors.NewValidation(spec.Name, fmt.Sprintf("value %g above %d", n, spec.Max))
	}
	return int(n), nil
}

// NormalizeSet trims entries, drops empties, and removes duplicates while
// keeping first-seen order.
func NormalizeSet(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

func isNull(val json.RawMessage) bool {
	return strings.TrimSpace(string(val)) == "null"
}
