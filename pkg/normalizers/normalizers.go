// Package normalizers provides the field normalization functions shared by
// hashing, matching and search.
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

const (
	NameTrim              = "trim"
	NameLowercase         = "lowercase"
	NameDigitsOnly        = "digits_only"
	NameRemovePunctuation = "remove_punctuation"
	NameFold              = "fold"
)

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	Register(NameTrim, Trim)
	Register(NameLowercase, Lowercase)
	Register(NameDigitsOnly, DigitsOnly)
	Register(NameRemovePunctuation, RemovePunctuation)
	Register(NameFold, Fold)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names leave the value unchanged.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Canonical trims surrounding whitespace and lowercases. This is the
// normalization every comparison and hash in the service agrees on.
func Canonical(s string) string {
	return ApplyChain(s, NameTrim, NameLowercase)
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// RemovePunctuation removes all punctuation characters
func RemovePunctuation(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsPunct(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Fold lowercases, strips accents and turns every run of non letter/digit
// characters into a single space. "  José-María, TX " -> "jose maria tx"
func Fold(s string) string {
	stripped, _, err := transform.String(stripAccents(), strings.ToLower(s))
	if err != nil {
		stripped = strings.ToLower(s)
	}

	var result strings.Builder
	pendingSpace := false
	for _, r := range stripped {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingSpace && result.Len() > 0 {
				result.WriteRune(' ')
			}
			pendingSpace = false
			result.WriteRune(r)
			continue
		}
		pendingSpace = true
	}
	return result.String()
}

// Tokens folds s and splits it into words
func Tokens(s string) []string {
	return strings.Fields(Fold(s))
}

// transform.Chain keeps state, so each call gets its own transformer.
func stripAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeSSN removes all non-digits and returns the value only when it is a
// full nine digit SSN
func NormalizeSSN(s string) string {
	digits := DigitsOnly(s)
	if len(digits) == 9 {
		return digits
	}
	return ""
}
