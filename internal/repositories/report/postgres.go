// Package report persists person reports scoped to a disaster event.
package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const (
	table = "reports"

	uniqueViolation = "23505"
	identityIndex   = "reports_tier1_identity"
)

var columns = []string{
	"id", "scope_id", "first_name", "last_name", "dob_hash", "ssn4_hash",
	"age", "location", "status", "record_ref", "reported_by", "created_at",
}

// lastNameKey holds normalizeLastName(last_name). The identity index is built
// on it rather than on lower(last_name) so that postgres and the memory store
// agree on casing whatever the database collation is.
const lastNameKey = "last_name_key"

var insertColumns = slices.Concat(columns, []string{lastNameKey})

// PostgresRepository stores reports in postgres
type PostgresRepository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewPostgresRepository creates a new report repository
func NewPostgresRepository(db database.DB, logger ectologger.Logger) *PostgresRepository {
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}
}

// SelectByScope returns every report in the scope ordered by created_at, id
func (r *PostgresRepository) SelectByScope(ctx context.Context, scopeID string) ([]models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "report.PostgresRepository.SelectByScope")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(sb.Equal("scope_id", scopeID))
	sb.OrderBy("created_at", "id")

	query, args := sb.Build()
	records := []models.Record{}
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("scope_id", scopeID).Error("Failed to select reports")
		return nil, fmt.Errorf("failed to select reports: %w", err)
	}

	return records, nil
}

// Get returns one report
func (r *PostgresRepository) Get(ctx context.Context, scopeID, id string) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "report.PostgresRepository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(
		sb.Equal("scope_id", scopeID),
		sb.Equal("id", id),
	)

	return r.getOne(ctx, sb)
}

// FindIdentity returns the report holding the identity slot for the given
// hashes and last name, if any
func (r *PostgresRepository) FindIdentity(ctx context.Context, scopeID, dobHash, ssn4Hash, lastName string) (*models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "report.PostgresRepository.FindIdentity")
	defer span.End()

	return r.getOne(ctx, identityQuery(scopeID, dobHash, ssn4Hash, lastName))
}

func identityQuery(scopeID, dobHash, ssn4Hash, lastName string) *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From(table)
	sb.Where(
		sb.Equal("scope_id", scopeID),
		sb.Equal("dob_hash", dobHash),
		sb.Equal("ssn4_hash", ssn4Hash),
		sb.Equal(lastNameKey, normalizeLastName(lastName)),
	)
	return sb
}

func (r *PostgresRepository) getOne(ctx context.Context, sb *sqlbuilder.SelectBuilder) (*models.Record, error) {
	query, args := sb.Build()
	var record models.Record
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get report")
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &record, nil
}

// Insert stores a new report. ID and CreatedAt are assigned when empty.
// A clash on the identity index returns ErrDuplicate.
func (r *PostgresRepository) Insert(ctx context.Context, record models.Record) (models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "report.PostgresRepository.Insert")
	defer span.End()

	record = prepareInsert(record)
	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"scope_id":   record.ScopeID,
		"id":         record.ID,
		"record_ref": record.RecordRef,
	})

	query, args := insertQuery(record)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isIdentityViolation(err) {
			log.Warn("Report insert hit identity constraint")
			return models.Record{}, ErrDuplicate
		}
		log.WithError(err).Error("Failed to insert report")
		return models.Record{}, fmt.Errorf("failed to insert report: %w", err)
	}

	log.Info("Inserted report")
	return record, nil
}

func insertQuery(record models.Record) (string, []any) {
	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(table)
	ib.Cols(insertColumns...)
	ib.Values(
		record.ID, record.ScopeID, record.FirstName, record.LastName, record.DOBHash, record.SSN4Hash,
		record.Age, record.Location, record.Status, record.RecordRef, record.ReportedBy, record.CreatedAt,
		normalizeLastName(record.LastName),
	)
	return ib.Build()
}

// UpdateStatus sets status and location and moves the change timestamp
func (r *PostgresRepository) UpdateStatus(ctx context.Context, scopeID, id string, status models.RecordStatus, location string, ts time.Time) error {
	ctx, span := tracing.StartSpan(ctx, "report.PostgresRepository.UpdateStatus")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"scope_id": scopeID,
		"id":       id,
		"status":   status,
	})

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(table)
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("location", location),
		ub.Assign("created_at", ts.UTC()),
	)
	ub.Where(
		ub.Equal("scope_id", scopeID),
		ub.Equal("id", id),
	)

	query, args := ub.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.WithError(err).Error("Failed to update report status")
		return fmt.Errorf("failed to update report status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		log.WithError(err).Error("Failed to read affected rows")
		return fmt.Errorf("failed to update report status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	log.Info("Updated report status")
	return nil
}

func isIdentityViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == uniqueViolation && (pqErr.Constraint == "" || pqErr.Constraint == identityIndex)
}

func prepareInsert(record models.Record) models.Record {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.CreatedAt = record.CreatedAt.UTC()
	if record.Status == "" {
		record.Status = models.RecordStatusMissing
	}
	return record
}

func normalizeLastName(lastName string) string {
	return strings.ToLower(strings.TrimSpace(lastName))
}
