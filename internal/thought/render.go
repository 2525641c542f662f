package thought

import (
	"fmt"
	"strings"
)

// Markdown renders the read view of a record.
func Markdown(r *Record) string {
	var b strings.Builder
	f := r.Fields

	if r.IsDraft {
		b.WriteString("*In progress*\n\n")
	}

	section(&b, "Situation", orDefault(f.Situation, "No situation described"))
	section(&b, "Thought", quote(orDefault(f.Thought, "No thought recorded")))
	section(&b, "Distress Level", fmt.Sprintf("%d/10", f.DistressLevel))

	b.WriteString("## Emotions\n\n")
	if len(f.Emotions) == 0 {
		b.WriteString("No emotions recorded\n\n")
	} else {
		for _, e := range f.Emotions {
			fmt.Fprintf(&b, "- %s\n", escape(e))
		}
		b.WriteString("\n")
	}
	if strings.TrimSpace(f.OtherEmotion) != "" {
		fmt.Fprintf(&b, "**Other:** %s\n\n", escape(f.OtherEmotion))
	}

	// Later-revision fields only appear once filled in.
	if s := strings.TrimSpace(f.BodySensations); s != "" {
		section(&b, "Body Sensations", escape(s))
	}
	if f.ValuesInterference > 0 || f.PostDistancingValuesInterference > 0 {
		section(&b, "Values Interference",
			fmt.Sprintf("%d/10 before, %d/10 after distancing", f.ValuesInterference, f.PostDistancingValuesInterference))
	}
	if f.BeliefStrength > 0 || f.PostDistancingBeliefStrength > 0 {
		section(&b, "Belief Strength",
			fmt.Sprintf("%d%% before, %d%% after distancing", f.BeliefStrength, f.PostDistancingBeliefStrength))
	}
	if f.PostDistancingDistressLevel > 0 {
		section(&b, "Distress After Distancing", fmt.Sprintf("%d/10", f.PostDistancingDistressLevel))
	}
	if s := strings.TrimSpace(f.WhatFeelsPossible); s != "" {
		section(&b, "What Feels Possible", escape(s))
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func section(b *strings.Builder, heading, body string) {
	fmt.Fprintf(b, "## %s\n\n%s\n\n", heading, body)
}

func quote(s string) string {
	return "> \"" + s + "\""
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return escape(s)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "#", `\#`, "`", "\\`", "[", `\[`, "]", `\]`, "<", `\<`, ">", `\>`,
)

// escape neutralises markdown control characters in user text.
func escape(s string) string {
	return markdownEscaper.Replace(s)
}
