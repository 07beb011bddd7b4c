// Package dob parses the date of birth layouts accepted by report forms.
package dob

import (
	"errors"
	"strings"
	"time"
)

// CanonicalLayout is the layout every recognized date of birth is rewritten to before hashing.
const CanonicalLayout = "2006-01-02"

// MaxAge is the oldest age accepted when deriving an age from a date of birth.
const MaxAge = 150

var ErrUnrecognizedDate = errors.New("unrecognized date of birth")

var layouts = []string{
	CanonicalLayout,
	"01/02/2006",
	"1/2/2006",
	time.RFC3339,
}

// Parse reads value in any of the accepted layouts.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, ErrUnrecognizedDate
	}
	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnrecognizedDate
}

// Canonical rewrites a recognized date to YYYY-MM-DD. ok is false when the
// value could not be parsed.
func Canonical(value string) (string, bool) {
	t, err := Parse(value)
	if err != nil {
		return value, false
	}
	return t.Format(CanonicalLayout), true
}

// Age returns the age in whole years at now, or nil when the date cannot be
// parsed or the result falls outside 0..MaxAge.
func Age(value string, now time.Time) *int {
	born, err := Parse(value)
	if err != nil {
		return nil
	}

	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}

	if age < 0 || age > MaxAge {
		return nil
	}
	return &age
}
