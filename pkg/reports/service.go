// Package reports runs the report workflow for one disaster event at a time:
// classify a candidate against the scope's records, store it when allowed,
// handle self check-ins, and search.
package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/hashing"
	"github.com/Ramsey-B/fern/pkg/lock"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Store is the scoped record store
type Store interface {
	SelectByScope(ctx context.Context, scopeID string) ([]models.Record, error)
	Get(ctx context.Context, scopeID, id string) (*models.Record, error)
	FindIdentity(ctx context.Context, scopeID, dobHash, ssn4Hash, lastName string) (*models.Record, error)
	Insert(ctx context.Context, record models.Record) (models.Record, error)
	UpdateStatus(ctx context.Context, scopeID, id string, status models.RecordStatus, location string, ts time.Time) error
}

// Publisher emits report lifecycle events
type Publisher interface {
	EmitReportCreated(ctx context.Context, record models.Record, warning *models.MatchResult) error
	EmitCheckedIn(ctx context.Context, record models.Record) error
	EmitDuplicateBlocked(ctx context.Context, match models.MatchResult) error
}

// Clock returns the current time
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Config controls optional service behavior
type Config struct {
	Matching matching.Config
	// RequireAcknowledgement refuses Tier 3 submissions until the caller
	// resubmits with AcknowledgeWarning set.
	RequireAcknowledgement bool
}

type Service struct {
	store      Store
	locker     lock.ScopeLocker
	publisher  Publisher
	clock      Clock
	classifier *matching.Classifier
	config     Config
	logger     ectologger.Logger
}

// Option customizes a Service
type Option func(*Service)

func WithLocker(locker lock.ScopeLocker) Option {
	return func(s *Service) { s.locker = locker }
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

func WithClock(clock Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// NewService creates the report service. Without options it serializes
// writes with an in-process scope lock and drops events.
func NewService(store Store, config Config, logger ectologger.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		locker:     lock.NewLocalLocker(0),
		publisher:  events.NewEmitter(nil, logger),
		clock:      systemClock{},
		classifier: matching.NewClassifier(config.Matching),
		config:     config,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Classify reports how the candidate relates to the records already in its
// scope. It never writes.
func (s *Service) Classify(ctx context.Context, req ClassifyRequest) (*models.MatchResult, error) {
	ctx, span := tracing.StartSpan(ctx, "reports.Service.Classify")
	defer span.End()

	req, err := utils.Validate(req)
	if err != nil {
		return nil, invalidInput(err)
	}

	candidate := candidateRecord(req.ScopeID, req.FirstName, req.LastName, req.DOB, req.SSN4, req.Location)

	snapshot, err := s.snapshot(ctx, req.ScopeID)
	if err != nil {
		return nil, err
	}

	return s.classify(candidate, snapshot), nil
}

// Stats counts the scope's records by status
func (s *Service) Stats(ctx context.Context, scopeID string) (Stats, error) {
	ctx, span := tracing.StartSpan(ctx, "reports.Service.Stats")
	defer span.End()

	if strings.TrimSpace(scopeID) == "" {
		return Stats{}, fmt.Errorf("%w: scope id is required", ErrInvalidInput)
	}

	snapshot, err := s.snapshot(ctx, scopeID)
	if err != nil {
		return Stats{}, err
	}

	safe := ectolinq.Count(snapshot, models.Record.IsSafe)
	return Stats{
		ScopeID: scopeID,
		Total:   len(snapshot),
		Safe:    safe,
		Missing: len(snapshot) - safe,
	}, nil
}

func (s *Service) classify(candidate models.Record, snapshot []models.Record) *models.MatchResult {
	result := s.classifier.Classify(candidate, snapshot)
	if result == nil {
		metrics.RecordClassification(0)
	} else {
		metrics.RecordClassification(int(result.Tier))
	}
	return result
}

func (s *Service) snapshot(ctx context.Context, scopeID string) ([]models.Record, error) {
	records, err := s.store.SelectByScope(ctx, scopeID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("scope_id", scopeID).Error("Failed to load scope snapshot")
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return records, nil
}

func (s *Service) lockScope(ctx context.Context, scopeID string) (lock.Unlock, error) {
	unlock, err := s.locker.Lock(ctx, scopeID)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("scope_id", scopeID).Warn("Failed to acquire scope lock")
		return nil, fmt.Errorf("failed to lock scope %s: %w", scopeID, err)
	}
	return unlock, nil
}

// candidateRecord builds the hashed comparison form of a person. Names are
// trimmed; DOB and SSN digits only survive as tokens.
func candidateRecord(scopeID, firstName, lastName, dateOfBirth, ssn, location string) models.Record {
	return models.Record{
		ScopeID:   scopeID,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		DOBHash:   hashing.HashDOB(dateOfBirth),
		SSN4Hash:  hashing.HashSSN4(ssn),
		Location:  strings.TrimSpace(location),
	}
}

func invalidInput(err error) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
}
