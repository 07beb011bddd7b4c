package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ramsey-B/fern/pkg/dob"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// SubmitReport classifies a missing person report against its scope and
// stores it unless the person is already on file. Classification and insert
// run under the scope lock; the store identity constraint has the final say
// on exact duplicates.
func (s *Service) SubmitReport(ctx context.Context, req ReportRequest) (*SubmitOutcome, error) {
	ctx, span := tracing.StartSpan(ctx, "reports.Service.SubmitReport")
	defer span.End()

	req, err := utils.Validate(req)
	if err != nil {
		return nil, invalidInput(err)
	}
	if _, err := dob.Parse(req.DOB); err != nil {
		return nil, invalidInput(err)
	}

	now := s.clock.Now()
	candidate := candidateRecord(req.ScopeID, req.FirstName, req.LastName, req.DOB, req.SSN4, req.Location)
	candidate.Age = dob.Age(req.DOB, now)
	candidate.Status = models.RecordStatusMissing
	candidate.ReportedBy = req.ReportedBy
	if candidate.ReportedBy == "" {
		candidate.ReportedBy = models.ReportedByAnon
	}
	candidate.RecordRef = reference.MakeRef(candidate.FirstName, candidate.LastName, now)
	candidate.CreatedAt = now

	logger := s.logger.WithContext(ctx).WithField("scope_id", req.ScopeID)

	outcome, err := s.submitLocked(ctx, candidate, req.AcknowledgeWarning)
	if err != nil {
		metrics.RecordSubmission("error")
		return nil, err
	}
	metrics.RecordSubmission(string(outcome.Status))

	switch outcome.Status {
	case SubmitDuplicate:
		logger.WithField("record_id", outcome.Match.MatchedRecord.ID).Info("Blocked duplicate report")
		_ = s.publisher.EmitDuplicateBlocked(ctx, *outcome.Match)
	case SubmitCreated, SubmitCreatedWithWarning:
		logger.WithField("record_id", outcome.Record.ID).Info("Stored report")
		_ = s.publisher.EmitReportCreated(ctx, *outcome.Record, outcome.Match)
	default:
		logger.WithField("status", outcome.Status).Info("Report held for caller decision")
	}

	return outcome, nil
}

func (s *Service) submitLocked(ctx context.Context, candidate models.Record, acknowledged bool) (*SubmitOutcome, error) {
	unlock, err := s.lockScope(ctx, candidate.ScopeID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	snapshot, err := s.snapshot(ctx, candidate.ScopeID)
	if err != nil {
		return nil, err
	}

	match := s.classify(candidate, snapshot)
	if match != nil {
		switch match.Tier {
		case models.MatchTierExact:
			return duplicateOutcome(*match), nil
		case models.MatchTierStrongPartial:
			return &SubmitOutcome{Status: SubmitNeedsConfirmation, Match: match}, nil
		case models.MatchTierLooseFuzzy:
			if s.config.RequireAcknowledgement && !acknowledged {
				return &SubmitOutcome{Status: SubmitNeedsAcknowledgement, Match: match}, nil
			}
		}
	}

	stored, err := s.store.Insert(ctx, candidate)
	if errors.Is(err, ErrDuplicate) {
		metrics.RecordStoreConflict()
		return duplicateOutcome(s.conflictMatch(ctx, candidate)), nil
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("scope_id", candidate.ScopeID).Error("Failed to store report")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	outcome := &SubmitOutcome{Status: SubmitCreated, Record: &stored}
	if match != nil {
		outcome.Status = SubmitCreatedWithWarning
		outcome.Match = match
	}
	return outcome, nil
}

// conflictMatch builds the Tier 1 result for an insert the store rejected.
// The existing record is looked up; if that fails the candidate stands in.
func (s *Service) conflictMatch(ctx context.Context, candidate models.Record) models.MatchResult {
	matched := candidate
	existing, err := s.store.FindIdentity(ctx, candidate.ScopeID, candidate.DOBHash, candidate.SSN4Hash, candidate.LastName)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("scope_id", candidate.ScopeID).Warn("Failed to load conflicting report")
	} else {
		matched = *existing
	}

	return models.MatchResult{
		Tier:          models.MatchTierExact,
		MatchedRecord: matched,
		Confidence:    1.0,
		Action:        models.ActionForTier(models.MatchTierExact),
	}
}

func duplicateOutcome(match models.MatchResult) *SubmitOutcome {
	return &SubmitOutcome{
		Status:      SubmitDuplicate,
		Match:       &match,
		AlreadySafe: match.MatchedRecord.IsSafe(),
	}
}
