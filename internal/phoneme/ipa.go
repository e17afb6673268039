package phoneme

import "strings"

// Well-known IPA marker symbols the pipeline must recognize. Break markers
// separate words and sentences in phoneme sequences; stress markers prefix
// the phoneme they apply to and are emitted as standalone symbols.
const (
	BreakMajor = "‖" // sentence boundary
	BreakMinor = "|" // clause boundary
	BreakWord  = "#" // word boundary

	StressPrimary   = "ˈ"
	StressSecondary = "ˌ"
)

// IsStress reports whether s is a stress marker symbol.
func IsStress(s string) bool {
	return s == StressPrimary || s == StressSecondary
}

// HasStress reports whether the phoneme starts with a stress marker.
func HasStress(p string) bool {
	return strings.HasPrefix(p, StressPrimary) || strings.HasPrefix(p, StressSecondary)
}

// IsBreak reports whether s is a word, minor, or major break marker.
func IsBreak(s string) bool {
	return s == BreakMajor || s == BreakMinor || s == BreakWord
}
