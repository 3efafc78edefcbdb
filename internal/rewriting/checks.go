package rewriting

import (
	"strings"
	"unicode/utf8"
)

const (
	// maxGrowth caps how much longer than the input a rewrite may be
	maxGrowth = 3.0
	// minShrink is the smallest accepted output length relative to the input
	minShrink = 0.25
)

// metaPhrases betray a model talking about the task instead of answering it
var metaPhrases = []string{
	"en tant qu'ia",
	"en tant que modèle",
	"voici le texte",
	"voici une version",
	"as an ai",
	"here is the rewritten",
	"{{.text}}",
}

// findMetaPhrases returns the meta phrases found in text, case-insensitively
func findMetaPhrases(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, phrase := range metaPhrases {
		if strings.Contains(lower, phrase) {
			found = append(found, phrase)
		}
	}
	return found
}

// checkOutput validates a cleaned model answer against the original text
func checkOutput(field, original, rewritten string) error {
	if strings.TrimSpace(rewritten) == "" {
		return &RejectedError{Field: field, Reason: "empty answer"}
	}
	if found := findMetaPhrases(rewritten); len(found) > 0 {
		return &RejectedError{Field: field, Reason: "meta commentary: " + strings.Join(found, ", ")}
	}

	in := utf8.RuneCountInString(original)
	out := utf8.RuneCountInString(rewritten)
	// very short inputs may legitimately grow a lot
	if in >= 40 {
		ratio := float64(out) / float64(in)
		if ratio > maxGrowth {
			return &RejectedError{Field: field, Reason: "answer too long"}
		}
		if ratio < minShrink {
			return &RejectedError{Field: field, Reason: "answer too short"}
		}
	}
	return nil
}
