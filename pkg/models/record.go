package models

import "time"

// RecordStatus is the reported state of a person
type RecordStatus string

const (
	RecordStatusMissing RecordStatus = "missing"
	RecordStatusSafe    RecordStatus = "safe"
)

// Valid reports whether the status is one of the known values
func (s RecordStatus) Valid() bool {
	return s == RecordStatusMissing || s == RecordStatusSafe
}

const (
	ReportedByAnon = "anon"
	ReportedBySelf = "self"
)

// Record is a person report scoped to one disaster event.
// DOBHash and SSN4Hash are tokens produced by the hashing package; plaintext
// values are never stored.
type Record struct {
	ID         string       `json:"id" db:"id"`
	ScopeID    string       `json:"scope_id" db:"scope_id"`
	FirstName  string       `json:"first_name" db:"first_name"`
	LastName   string       `json:"last_name" db:"last_name"`
	DOBHash    string       `json:"dob_hash" db:"dob_hash"`
	SSN4Hash   string       `json:"ssn4_hash" db:"ssn4_hash"`
	Age        *int         `json:"age,omitempty" db:"age"`
	Location   string       `json:"location" db:"location"`
	Status     RecordStatus `json:"status" db:"status"`
	RecordRef  string       `json:"record_ref" db:"record_ref"`
	ReportedBy string       `json:"reported_by" db:"reported_by"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
}

// IsSafe reports whether the person has been marked safe
func (r Record) IsSafe() bool {
	return r.Status == RecordStatusSafe
}

// CloneRecords returns a shallow copy of the slice so callers can reorder or
// filter without touching the original snapshot.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return []Record{}
	}
	out := make([]Record, len(records))
	copy(out, records)
	return out
}
