// Package events emits report lifecycle events. Payloads carry hashed
// tokens only; plaintext dates of birth and SSNs never leave the service.
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

const (
	EventReportCreated    = "report.created"
	EventReportCheckedIn  = "report.checked_in"
	EventDuplicateBlocked = "report.duplicate_blocked"
)

// Publisher writes a message to the event stream
type Publisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

// NoopPublisher drops every message. Used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	return nil
}

// ReportEvent is the payload of every report event
type ReportEvent struct {
	SchemaVersion string              `json:"schema_version"`
	EventType     string              `json:"event_type"`
	ScopeID       string              `json:"scope_id"`
	RecordID      string              `json:"record_id"`
	RecordRef     string              `json:"record_ref"`
	Status        models.RecordStatus `json:"status"`
	ReportedBy    string              `json:"reported_by,omitempty"`
	DOBHash       string              `json:"dob_hash"`
	SSN4Hash      string              `json:"ssn4_hash"`
	MatchTier     models.MatchTier    `json:"match_tier,omitempty"`
	Timestamp     time.Time           `json:"timestamp"`
}

// Emitter handles event emission for fern
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates a new event emitter. A nil publisher disables emission.
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// EmitReportCreated emits an event for a newly stored report
func (e *Emitter) EmitReportCreated(ctx context.Context, record models.Record, warning *models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReportCreated")
	defer span.End()

	event := newReportEvent(EventReportCreated, record)
	if warning != nil {
		event.MatchTier = warning.Tier
	}
	return e.emit(ctx, event)
}

// EmitCheckedIn emits an event when a person marks themselves safe
func (e *Emitter) EmitCheckedIn(ctx context.Context, record models.Record) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitCheckedIn")
	defer span.End()

	return e.emit(ctx, newReportEvent(EventReportCheckedIn, record))
}

// EmitDuplicateBlocked emits an event when a submission was refused because
// the person is already on file. The event refers to the existing record.
func (e *Emitter) EmitDuplicateBlocked(ctx context.Context, match models.MatchResult) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitDuplicateBlocked")
	defer span.End()

	event := newReportEvent(EventDuplicateBlocked, match.MatchedRecord)
	event.MatchTier = match.Tier
	return e.emit(ctx, event)
}

func (e *Emitter) emit(ctx context.Context, event ReportEvent) error {
	err := e.publisher.Publish(ctx, kafka.Message{
		Key:   event.RecordID,
		Value: event,
		Headers: map[string]string{
			"event_type":     event.EventType,
			"scope_id":       event.ScopeID,
			"schema_version": SchemaVersion,
		},
	})
	if err != nil {
		metrics.RecordEventPublish(event.EventType, "error")
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"event_type": event.EventType,
			"record_id":  event.RecordID,
		}).Error("Failed to emit event")
		return err
	}

	metrics.RecordEventPublish(event.EventType, "ok")
	return nil
}

func newReportEvent(eventType string, record models.Record) ReportEvent {
	return ReportEvent{
		SchemaVersion: SchemaVersion,
		EventType:     eventType,
		ScopeID:       record.ScopeID,
		RecordID:      record.ID,
		RecordRef:     record.RecordRef,
		Status:        record.Status,
		ReportedBy:    record.ReportedBy,
		DOBHash:       record.DOBHash,
		SSN4Hash:      record.SSN4Hash,
		Timestamp:     time.Now().UTC(),
	}
}
