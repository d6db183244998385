package issuance

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// ReferenceToken is one normalized cross-reference value
type ReferenceToken struct {
	// Raw is the trimmed token as the user typed it
	Raw string
	// Key is the case-folded comparison key
	Key string
}

func isReferenceSeparator(r rune) bool {
	return r == ',' || r == ';' || unicode.IsSpace(r)
}

// ParseReferences splits reference text on commas, semicolons and whitespace,
// trims and case-folds each token, and drops repeats while keeping first-seen order.
func ParseReferences(input string) []ReferenceToken {
	// cases.Caser is stateful; one per call
	folder := cases.Fold()
	fields := strings.FieldsFunc(input, isReferenceSeparator)

	seen := make(map[string]struct{}, len(fields))
	tokens := make([]ReferenceToken, 0, len(fields))
	for _, f := range fields {
		raw := strings.TrimSpace(f)
		if raw == "" {
			continue
		}
		key := folder.String(raw)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tokens = append(tokens, ReferenceToken{Raw: raw, Key: key})
	}
	return tokens
}

// MatchReferences returns the wanted tokens that also occur in stored
func MatchReferences(wanted []ReferenceToken, stored string) []ReferenceToken {
	if len(wanted) == 0 {
		return nil
	}
	have := make(map[string]struct{})
	for _, t := range ParseReferences(stored) {
		have[t.Key] = struct{}{}
	}
	var out []ReferenceToken
	for _, w := range wanted {
		if _, ok := have[w.Key]; ok {
			out = append(out, w)
		}
	}
	return out
}

// FormatDuplicate renders one collision description using the status display name
func FormatDuplicate(token, requestNo string, status ItemStatus) string {
	return fmt.Sprintf("reference '%s' found in %s [%s]", token, requestNo, status.DisplayName())
}
