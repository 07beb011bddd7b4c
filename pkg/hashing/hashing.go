// Package hashing turns sensitive fields into one-way comparison tokens so
// dates of birth and SSN digits are never stored or compared in plaintext.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/Ramsey-B/fern/pkg/dob"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// EmptyToken is the token for a missing value. It is a valid token; callers
// decide whether it is meaningful to compare.
var EmptyToken = Hash("")

// Normalize trims surrounding whitespace and lowercases.
func Normalize(value string) string {
	return normalizers.Canonical(value)
}

// Hash returns the lowercase hex SHA-256 digest of Normalize(value).
func Hash(value string) string {
	sum := sha256.Sum256([]byte(Normalize(value)))
	return hex.EncodeToString(sum[:])
}

// HashDOB rewrites recognized date layouts to YYYY-MM-DD before hashing so
// "04/12/1990" and "1990-04-12" produce the same token. Unrecognized values
// are hashed as given.
func HashDOB(value string) string {
	canonical, _ := dob.Canonical(value)
	return Hash(canonical)
}

// LastFour returns the last four digits of an SSN, or every digit when fewer
// than four are present.
func LastFour(ssn string) string {
	digits := normalizers.DigitsOnly(ssn)
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// HashSSN4 hashes the last four digits of ssn. An empty ssn yields EmptyToken.
func HashSSN4(ssn string) string {
	return Hash(LastFour(ssn))
}
