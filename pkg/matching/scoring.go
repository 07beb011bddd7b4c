package matching

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Scorer provides the string comparison used by every tier
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Similarity returns a normalized edit-distance score in [0,1] between a and b.
// Both values are trimmed and lowercased first. Two empty values score 1, a
// single empty value scores 0 regardless of argument order.
func (s *Scorer) Similarity(a, b string) float64 {
	a = normalizers.Canonical(a)
	b = normalizers.Canonical(b)

	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	distance := levenshtein.ComputeDistance(a, b)
	return float64(maxLen-distance) / float64(maxLen)
}

// Distance returns the edit distance between the normalized forms of a and b
func (s *Scorer) Distance(a, b string) int {
	return levenshtein.ComputeDistance(normalizers.Canonical(a), normalizers.Canonical(b))
}

var defaultScorer = NewScorer()

// Similarity scores a against b with the default Scorer
func Similarity(a, b string) float64 {
	return defaultScorer.Similarity(a, b)
}
