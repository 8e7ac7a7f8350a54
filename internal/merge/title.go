// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package merge

import "strings"

var braceStripper = strings.NewReplacer("{", "", "}", "")

// StripBraces removes every brace character from s.
func StripBraces(s string) string {
	return braceStripper.Replace(s)
}

func hasBraces(s string) bool {
	return strings.Contains(s, "{") && strings.Contains(s, "}")
}

// ReconcileTitle picks the merged value of two title-like strings. When they
// differ after stripping braces and case, incoming wins. When they match,
// the brace-quoted variant is kept, existing first.
func ReconcileTitle(existing, incoming string) string {
	if !strings.EqualFold(StripBraces(existing), StripBraces(incoming)) {
		return incoming
	}
	if hasBraces(existing) {
		return existing
	}
	return incoming
}
