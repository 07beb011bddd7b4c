package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ramsey-B/fern/pkg/dob"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// CheckIn marks a person safe. An existing report for the same person is
// flipped to safe with the new location and time; otherwise a safe record
// is created.
func (s *Service) CheckIn(ctx context.Context, req CheckInRequest) (*CheckInOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "reports.Service.CheckIn")
	defer span.End()

	req, err := utils.Validate(req)
	if err != nil {
		return nil, invalidInput(err)
	}
	if _, err := dob.Parse(req.DOB); err != nil {
		return nil, invalidInput(err)
	}

	now := s.clock.Now()
	candidate := candidateRecord(req.ScopeID, req.FirstName, req.LastName, req.DOB, req.SSN, req.Location)
	candidate.Age = dob.Age(req.DOB, now)
	candidate.Status = models.RecordStatusSafe
	candidate.ReportedBy = models.ReportedBySelf
	candidate.RecordRef = reference.MakeRef(candidate.FirstName, candidate.LastName, now)
	candidate.CreatedAt = now

	outcome, err := s.checkInLocked(ctx, candidate)
	if err != nil {
		metrics.RecordCheckIn("error")
		return nil, err
	}

	label := "updated"
	if outcome.Created {
		label = "created"
	}
	metrics.RecordCheckIn(label)

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"scope_id":  req.ScopeID,
		"record_id": outcome.Record.ID,
		"created":   outcome.Created,
	}).Info("Person checked in safe")
	_ = s.publisher.EmitCheckedIn(ctx, outcome.Record)

	return outcome, nil
}

func (s *Service) checkInLocked(ctx context.Context, candidate models.Record) (*CheckInOutcome, error) {
	unlock, err := s.lockScope(ctx, candidate.ScopeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	snapshot, err := s.snapshot(ctx, candidate.ScopeID)
	if err != nil {
		return nil, err
	}

	if existing := findSamePerson(candidate, snapshot); existing != nil {
		return s.markSafe(ctx, *existing, candidate)
	}

	stored, err := s.store.Insert(ctx, candidate)
	if err == nil {
		return &CheckInOutcome{Record: stored, Created: true}, nil
	}
	if !errors.Is(err, ErrDuplicate) {
		s.logger.WithContext(ctx).WithError(err).WithField("scope_id", candidate.ScopeID).Error("Failed to store check-in")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	metrics.RecordStoreConflict()
	existing, err := s.store.FindIdentity(ctx, candidate.ScopeID, candidate.DOBHash, candidate.SSN4Hash, candidate.LastName)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return s.markSafe(ctx, *existing, candidate)
}

func (s *Service) markSafe(ctx context.Context, existing, candidate models.Record) (*CheckInOutcome, error) {
	err := s.store.UpdateStatus(ctx, existing.ScopeID, existing.ID, models.RecordStatusSafe, candidate.Location, candidate.CreatedAt)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("record_id", existing.ID).Error("Failed to mark report safe")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	existing.Status = models.RecordStatusSafe
	existing.Location = candidate.Location
	existing.CreatedAt = candidate.CreatedAt
	return &CheckInOutcome{Record: existing, Created: false}, nil
}

// findSamePerson returns the first record with the same names, ignoring
// case, and the same DOB and SSN4 tokens.
func findSamePerson(candidate models.Record, snapshot []models.Record) *models.Record {
	for i := range snapshot {
		r := snapshot[i]
		if r.ScopeID != candidate.ScopeID {
			continue
		}
		if r.DOBHash == candidate.DOBHash &&
			r.SSN4Hash == candidate.SSN4Hash &&
			strings.EqualFold(strings.TrimSpace(r.FirstName), candidate.FirstName) &&
			strings.EqualFold(strings.TrimSpace(r.LastName), candidate.LastName) {
			return &r
		}
	}
	return nil
}
