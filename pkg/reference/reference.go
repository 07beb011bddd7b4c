// Package reference derives the short display reference shown to people
// looking up a report, e.g. "JS-4821". References are not unique and are
// never used as keys or for matching.
package reference

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// MakeRef builds a reference from the name initials and the last four digits
// of createdAt in epoch milliseconds. An empty name contributes "X".
func MakeRef(firstName, lastName string, createdAt time.Time) string {
	suffix := createdAt.UnixMilli() % 10000
	if suffix < 0 {
		suffix = -suffix
	}
	return fmt.Sprintf("%s%s-%04d", initial(firstName), initial(lastName), suffix)
}

// Matches reports whether query appears in ref, ignoring case and
// surrounding whitespace. An empty query matches everything.
func Matches(ref, query string) bool {
	query = strings.ToUpper(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToUpper(ref), query)
}

func initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return string(unicode.ToUpper(r))
	}
	return "X"
}
