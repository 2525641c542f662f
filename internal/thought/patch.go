package thought

import (
	"fmt"

	"github.com/hpungsan/thoughts/internal/errors"
)

// Patch is a partial edit of a working copy. Nil fields are left unchanged.
type Patch struct {
	Situation                        *string   `json:"situation,omitempty"`
	Thought                          *string   `json:"thought,omitempty"`
	DistressLevel                    *int      `json:"distressLevel,omitempty"`
	Emotions                         *[]string `json:"emotions,omitempty"`
	ToggleEmotions                   []string  `json:"toggleEmotions,omitempty"`
	OtherEmotion                     *string   `json:"otherEmotion,omitempty"`
	BodySensations                   *string   `json:"bodySensations,omitempty"`
	ValuesInterference               *int      `json:"valuesInterference,omitempty"`
	BeliefStrength                   *int      `json:"beliefStrength,omitempty"`
	PostDistancingValuesInterference *int      `json:"postDistancingValuesInterference,omitempty"`
	PostDistancingBeliefStrength     *int      `json:"postDistancingBeliefStrength,omitempty"`
	WhatFeelsPossible                *string   `json:"whatFeelsPossible,omitempty"`
	PostDistancingDistressLevel      *int      `json:"postDistancingDistressLevel,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Situation == nil && p.Thought == nil && p.DistressLevel == nil &&
		p.Emotions == nil && len(p.ToggleEmotions) == 0 && p.OtherEmotion == nil &&
		p.BodySensations == nil && p.ValuesInterference == nil && p.BeliefStrength == nil &&
		p.PostDistancingValuesInterference == nil && p.PostDistancingBeliefStrength == nil &&
		p.WhatFeelsPossible == nil && p.PostDistancingDistressLevel == nil
}

// Validate checks scale bounds. User input comes from bounded controls, so
// out-of-range values are rejected rather than clamped.
func (p Patch) Validate() error {
	scales := map[string]*int{
		"distressLevel":                    p.DistressLevel,
		"valuesInterference":               p.ValuesInterference,
		"beliefStrength":                   p.BeliefStrength,
		"postDistancingValuesInterference": p.PostDistancingValuesInterference,
		"postDistancingBeliefStrength":     p.PostDistancingBeliefStrength,
		"postDistancingDistressLevel":      p.PostDistancingDistressLevel,
	}
	for name, v := range scales {
		if v == nil {
			continue
		}
		spec, _ := Lookup(name)
		if *v < 0 || *v > spec.Max {
			return errors.NewInvalidRequest(fmt.Sprintf("%s must be between 0 and %d", name, spec.Max))
		}
	}
	return nil
}

// Apply validates p and applies it to f. f is unchanged on error.
func (p Patch) Apply(f *Fields) error {
	if err := p.Validate(); err != nil {
		return err
	}

	setString(&f.Situation, p.Situation)
	setString(&f.Thought, p.Thought)
	setString(&f.OtherEmotion, p.OtherEmotion)
	setString(&f.BodySensations, p.BodySensations)
	setString(&f.WhatFeelsPossible, p.WhatFeelsPossible)

	setInt(&f.DistressLevel, p.DistressLevel)
	setInt(&f.ValuesInterference, p.ValuesInterference)
	setInt(&f.BeliefStrength, p.BeliefStrength)
	setInt(&f.PostDistancingValuesInterference, p.PostDistancingValuesInterference)
	setInt(&f.PostDistancingBeliefStrength, p.PostDistancingBeliefStrength)
	setInt(&f.PostDistancingDistressLevel, p.PostDistancingDistressLevel)

	if p.Emotions != nil {
		f.Emotions = NormalizeSet(*p.Emotions)
	}
	for _, e := range p.ToggleEmotions {
		f.ToggleEmotion(e)
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
