package reports

import (
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/search"
)

// ClassifyRequest asks how a candidate relates to a scope without writing anything
type ClassifyRequest struct {
	ScopeID   string `json:"-" param:"scope_id" validate:"required"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`
	SSN4      string `json:"ssn4" validate:"omitempty,number,len=4"`
	Location  string `json:"location"`
}

// ReportRequest submits a missing person report
type ReportRequest struct {
	ScopeID            string `json:"-" param:"scope_id" validate:"required"`
	FirstName          string `json:"first_name" validate:"required,notblank,max=100"`
	LastName           string `json:"last_name" validate:"required,notblank,max=100"`
	DOB                string `json:"dob" validate:"required"`
	SSN4               string `json:"ssn4" validate:"omitempty,number,len=4"`
	Location           string `json:"location" validate:"required,notblank,max=500"`
	ReportedBy         string `json:"reported_by" validate:"omitempty,oneof=anon self"`
	AcknowledgeWarning bool   `json:"acknowledge_warning"`
}

// CheckInRequest marks a person safe. The full SSN is required and only its
// last four digits are kept, as a hash.
type CheckInRequest struct {
	ScopeID   string `json:"-" param:"scope_id" validate:"required"`
	FirstName string `json:"first_name" validate:"required,notblank,max=100"`
	LastName  string `json:"last_name" validate:"required,notblank,max=100"`
	DOB       string `json:"dob" validate:"required"`
	SSN       string `json:"ssn" validate:"required,number,len=9"`
	Location  string `json:"location" validate:"required,notblank,max=500"`
}

// SearchRequest filters a scope's records. Ref takes precedence over Name and Location.
type SearchRequest struct {
	ScopeID  string              `param:"scope_id" query:"-" validate:"required"`
	Name     string              `query:"name"`
	Location string              `query:"location"`
	Ref      string              `query:"ref"`
	Status   search.StatusFilter `query:"status" validate:"omitempty,oneof=all missing safe"`
	Sort     search.SortBy       `query:"sort" validate:"omitempty,oneof=relevance recent location status"`
	Limit    int                 `query:"limit" validate:"omitempty,min=1,max=500"`
}

// SubmitStatus describes what happened to a submission
type SubmitStatus string

const (
	SubmitCreated              SubmitStatus = "created"
	SubmitCreatedWithWarning   SubmitStatus = "created_with_warning"
	SubmitDuplicate            SubmitStatus = "duplicate"
	SubmitNeedsConfirmation    SubmitStatus = "needs_confirmation"
	SubmitNeedsAcknowledgement SubmitStatus = "needs_acknowledgement"
)

// SubmitOutcome is the result of SubmitReport. Record is set only when a
// report was stored.
type SubmitOutcome struct {
	Status      SubmitStatus        `json:"status"`
	Record      *models.Record      `json:"record,omitempty"`
	Match       *models.MatchResult `json:"match,omitempty"`
	AlreadySafe bool                `json:"already_safe"`
}

// Created reports whether the submission was stored
func (o SubmitOutcome) Created() bool {
	return o.Record != nil
}

// CheckInOutcome is the result of CheckIn
type CheckInOutcome struct {
	Record  models.Record `json:"record"`
	Created bool          `json:"created"`
}

// Stats summarizes a scope
type Stats struct {
	ScopeID string `json:"scope_id"`
	Total   int    `json:"total"`
	Missing int    `json:"missing"`
	Safe    int    `json:"safe"`
}
