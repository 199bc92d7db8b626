// Package output defines the canonical normalization rule used everywhere
// program output is compared against an expected answer.
package output

import "strings"

// Normalize trims leading/trailing whitespace and canonicalizes CRLF line
// terminators to LF. Judging and local testing must both compare through
// this single rule.
func Normalize(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
}

// Equal reports whether two outputs are equal after normalization.
func Equal(got, want string) bool {
	return Normalize(got) == Normalize(want)
}
