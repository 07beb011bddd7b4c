package report

import "errors"

var (
	// ErrDuplicate means the insert hit the per-scope identity constraint on
	// (scope, dob hash, ssn4 hash, lowercased last name).
	ErrDuplicate = errors.New("report already exists for this person")
	ErrNotFound  = errors.New("report not found")
)

func identityKey(scopeID, dobHash, ssn4Hash, lastName string) string {
	return scopeID + "\x00" + dobHash + "\x00" + ssn4Hash + "\x00" + normalizeLastName(lastName)
}
