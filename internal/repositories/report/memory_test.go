package report

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/pkg/models"
)

func newRecord(scopeID, first, last, dobHash, ssnHash string) models.Record {
	return models.Record{
		ScopeID:    scopeID,
		FirstName:  first,
		LastName:   last,
		DOBHash:    dobHash,
		SSN4Hash:   ssnHash,
		Location:   "Austin, TX",
		Status:     models.RecordStatusMissing,
		RecordRef:  "XX-0000",
		ReportedBy: models.ReportedByAnon,
	}
}

func TestMemoryRepository_InsertAndSelect(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	first, err := repo.Insert(ctx, newRecord("e1", "John", "Smith", "d1", "s1"))
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	_, err = repo.Insert(ctx, newRecord("e1", "Jane", "Doe", "d2", "s2"))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, newRecord("e2", "John", "Smith", "d1", "s1"))
	require.NoError(t, err, "identity is per scope")

	records, err := repo.SelectByScope(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, records, 2)

	empty, err := repo.SelectByScope(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMemoryRepository_Duplicate(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Insert(ctx, newRecord("e1", "John", "Smith", "d1", "s1"))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newRecord("e1", "Johnny", " SMITH ", "d1", "s1"))
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindIdentity(ctx, "e1", "d1", "s1", "smith")
	require.NoError(t, err)
	assert.Equal(t, "John", found.FirstName)
}

func TestMemoryRepository_DuplicateNonASCIILastName(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	_, err := repo.Insert(ctx, newRecord("e1", "María", "Ñúñez", "d1", "s1"))
	require.NoError(t, err)

	_, err = repo.Insert(ctx, newRecord("e1", "Maria", "ÑÚÑEZ", "d1", "s1"))
	assert.ErrorIs(t, err, ErrDuplicate)

	found, err := repo.FindIdentity(ctx, "e1", "d1", "s1", "ñúñez")
	require.NoError(t, err)
	assert.Equal(t, "María", found.FirstName)
}

func TestMemoryRepository_ConcurrentInsertsKeepOne(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	var wg sync.WaitGroup
	var mu sync.Mutex
	var duplicates int
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Insert(ctx, newRecord("e1", "John", "Smith", "d1", "s1"))
			if err == ErrDuplicate {
				mu.Lock()
				duplicates++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	records, err := repo.SelectByScope(ctx, "e1")
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 19, duplicates)
}

func TestMemoryRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()

	created, err := repo.Insert(ctx, newRecord("e1", "John", "Smith", "d1", "s1"))
	require.NoError(t, err)

	ts := created.CreatedAt.Add(time.Hour)
	require.NoError(t, repo.UpdateStatus(ctx, "e1", created.ID, models.RecordStatusSafe, "Shelter 4", ts))

	got, err := repo.Get(ctx, "e1", created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RecordStatusSafe, got.Status)
	assert.Equal(t, "Shelter 4", got.Location)
	assert.True(t, ts.Equal(got.CreatedAt))

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "e2", created.ID, models.RecordStatusSafe, "", ts), ErrNotFound)
}

func TestMemoryRepository_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepository()
	_, err := repo.Insert(ctx, newRecord("e1", "John", "Smith", "d1", "s1"))
	require.NoError(t, err)

	records, err := repo.SelectByScope(ctx, "e1")
	require.NoError(t, err)
	records[0].FirstName = "changed"

	again, err := repo.SelectByScope(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "John", again[0].FirstName)
}

func TestMemoryRepository_GetNotFound(t *testing.T) {
	_, err := NewMemoryRepository().Get(context.Background(), "e1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
