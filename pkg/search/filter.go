package search

import (
	"sort"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
)

// StatusFilter restricts results by record status
type StatusFilter string

const (
	StatusAll     StatusFilter = "all"
	StatusMissing StatusFilter = "missing"
	StatusSafe    StatusFilter = "safe"
)

// Valid reports whether the filter is known. Empty means all.
func (s StatusFilter) Valid() bool {
	switch s {
	case "", StatusAll, StatusMissing, StatusSafe:
		return true
	}
	return false
}

// SortBy orders search results
type SortBy string

const (
	SortRelevance SortBy = "relevance"
	SortRecent    SortBy = "recent"
	SortLocation  SortBy = "location"
	SortStatus    SortBy = "status"
)

// Valid reports whether the sort is known. Empty picks a default.
func (s SortBy) Valid() bool {
	switch s {
	case "", SortRelevance, SortRecent, SortLocation, SortStatus:
		return true
	}
	return false
}

// FilterByRef keeps the records whose reference contains query, ignoring case.
func FilterByRef(records []models.Record, query string) []models.Record {
	return ectolinq.Filter(records, func(r models.Record) bool {
		return reference.Matches(r.RecordRef, query)
	})
}

// FilterByStatus keeps the records with the requested status
func FilterByStatus(records []models.Record, status StatusFilter) []models.Record {
	if status == "" || status == StatusAll {
		return records
	}
	return ectolinq.Filter(records, func(r models.Record) bool {
		return string(r.Status) == string(status)
	})
}

// Sort returns a sorted copy of records. Relevance keeps the incoming order.
func Sort(records []models.Record, by SortBy) []models.Record {
	out := models.CloneRecords(records)

	switch by {
	case SortRecent:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	case SortLocation:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Location) < strings.ToLower(out[j].Location)
		})
	case SortStatus:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Status < out[j].Status
		})
	}

	return out
}
