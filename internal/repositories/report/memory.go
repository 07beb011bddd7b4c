package report

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// MemoryRepository keeps reports in process with the same identity
// constraint as the postgres table. Used for local runs and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	records  map[string][]models.Record // scope id -> reports
	identity map[string]string          // identity key -> report id
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:  make(map[string][]models.Record),
		identity: make(map[string]string),
	}
}

func (r *MemoryRepository) SelectByScope(ctx context.Context, scopeID string) ([]models.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := models.CloneRecords(r.records[scopeID])
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryRepository) Get(ctx context.Context, scopeID, id string) (*models.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, rec := range r.records[scopeID] {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) FindIdentity(ctx context.Context, scopeID, dobHash, ssn4Hash, lastName string) (*models.Record, error) {
	r.mu.RLock()
	id, ok := r.identity[identityKey(scopeID, dobHash, ssn4Hash, lastName)]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return r.Get(ctx, scopeID, id)
}

func (r *MemoryRepository) Insert(ctx context.Context, record models.Record) (models.Record, error) {
	if err := ctx.Err(); err != nil {
		return models.Record{}, err
	}

	record = prepareInsert(record)
	key := identityKey(record.ScopeID, record.DOBHash, record.SSN4Hash, record.LastName)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.identity[key]; exists {
		return models.Record{}, ErrDuplicate
	}
	r.identity[key] = record.ID
	r.records[record.ScopeID] = append(r.records[record.ScopeID], record)
	return record, nil
}

func (r *MemoryRepository) UpdateStatus(ctx context.Context, scopeID, id string, status models.RecordStatus, location string, ts time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records := r.records[scopeID]
	for i := range records {
		if records[i].ID != id {
			continue
		}
		records[i].Status = status
		records[i].Location = location
		records[i].CreatedAt = ts.UTC()
		return nil
	}
	return ErrNotFound
}
