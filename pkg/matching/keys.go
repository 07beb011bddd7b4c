package matching

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// comparisonKeys holds everything the tiers compare, derived once per record.
type comparisonKeys struct {
	scopeID   string
	firstName string
	lastName  string
	fullName  string
	location  string
	dobHash   string
	ssn4Hash  string
}

func keysFor(r models.Record) comparisonKeys {
	first := normalizers.Canonical(r.FirstName)
	last := normalizers.Canonical(r.LastName)
	return comparisonKeys{
		scopeID:   r.ScopeID,
		firstName: first,
		lastName:  last,
		fullName:  strings.TrimSpace(first + " " + last),
		location:  normalizers.Canonical(r.Location),
		dobHash:   r.DOBHash,
		ssn4Hash:  r.SSN4Hash,
	}
}

// identityEligible reports whether the record can take part in tiers 1 and 2.
func (k comparisonKeys) identityEligible() bool {
	return k.lastName != "" && k.dobHash != ""
}

func (k comparisonKeys) sameIdentity(other comparisonKeys) bool {
	return k.dobHash == other.dobHash &&
		k.ssn4Hash == other.ssn4Hash &&
		k.lastName == other.lastName
}

func (k comparisonKeys) samePartial(other comparisonKeys) bool {
	return k.dobHash == other.dobHash &&
		k.location == other.location &&
		k.lastName == other.lastName
}
