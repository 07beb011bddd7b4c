package reports

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/repositories/report"
	"github.com/Ramsey-B/fern/pkg/lock"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/reference"
	"github.com/Ramsey-B/fern/pkg/search"
)

const scope = "event-1"

type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), step: 1237 * time.Millisecond}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(c.step)
	return c.now
}

type recordingPublisher struct {
	mu         sync.Mutex
	created    []models.Record
	checkedIn  []models.Record
	duplicates []models.MatchResult
}

func (p *recordingPublisher) EmitReportCreated(ctx context.Context, record models.Record, warning *models.MatchResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, record)
	return nil
}

func (p *recordingPublisher) EmitCheckedIn(ctx context.Context, record models.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkedIn = append(p.checkedIn, record)
	return nil
}

func (p *recordingPublisher) EmitDuplicateBlocked(ctx context.Context, match models.MatchResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.duplicates = append(p.duplicates, match)
	return nil
}

// staleStore hides every existing record from snapshots, as a replica that
// has not caught up would.
type staleStore struct {
	*report.MemoryRepository
}

func (s staleStore) SelectByScope(ctx context.Context, scopeID string) ([]models.Record, error) {
	return []models.Record{}, nil
}

type failingStore struct {
	*report.MemoryRepository
}

func (s failingStore) SelectByScope(ctx context.Context, scopeID string) ([]models.Record, error) {
	return nil, errors.New("connection refused")
}

type timeoutLocker struct{}

func (timeoutLocker) Lock(ctx context.Context, scopeID string) (lock.Unlock, error) {
	return nil, lock.ErrTimeout
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func newTestService(t *testing.T, config Config) (*Service, *report.MemoryRepository, *recordingPublisher) {
	t.Helper()
	store := report.NewMemoryRepository()
	pub := &recordingPublisher{}
	svc := NewService(store, config, testLogger(), WithPublisher(pub), WithClock(newStepClock()))
	return svc, store, pub
}

func johnSmith() ReportRequest {
	return ReportRequest{
		ScopeID:   scope,
		FirstName: "John",
		LastName:  "Smith",
		DOB:       "1990-04-12",
		SSN4:      "6789",
		Location:  "123 Main St, Travis County",
	}
}

func mustSubmit(t *testing.T, svc *Service, req ReportRequest) *SubmitOutcome {
	t.Helper()
	outcome, err := svc.SubmitReport(context.Background(), req)
	require.NoError(t, err)
	return outcome
}

func scopeRecords(t *testing.T, store *report.MemoryRepository) []models.Record {
	t.Helper()
	records, err := store.SelectByScope(context.Background(), scope)
	require.NoError(t, err)
	return records
}

func TestSubmitReport_Created(t *testing.T) {
	svc, store, pub := newTestService(t, Config{})

	outcome := mustSubmit(t, svc, johnSmith())
	assert.Equal(t, SubmitCreated, outcome.Status)
	require.True(t, outcome.Created())
	assert.Nil(t, outcome.Match)

	rec := outcome.Record
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, models.RecordStatusMissing, rec.Status)
	assert.Equal(t, models.ReportedByAnon, rec.ReportedBy)
	assert.Regexp(t, `^JS-\d{4}$`, rec.RecordRef)
	require.NotNil(t, rec.Age)
	assert.Equal(t, 35, *rec.Age)
	assert.NotEqual(t, "1990-04-12", rec.DOBHash)
	assert.NotEqual(t, "6789", rec.SSN4Hash)

	assert.Len(t, scopeRecords(t, store), 1)
	assert.Len(t, pub.created, 1)
}

func TestSubmitReport_Tier1Blocks(t *testing.T) {
	svc, store, pub := newTestService(t, Config{})
	first := mustSubmit(t, svc, johnSmith())

	again := johnSmith()
	again.FirstName = "  JOHN "
	again.LastName = "smith"
	again.DOB = "04/12/1990"
	again.Location = "somewhere else"

	outcome := mustSubmit(t, svc, again)
	assert.Equal(t, SubmitDuplicate, outcome.Status)
	assert.False(t, outcome.Created())
	require.NotNil(t, outcome.Match)
	assert.Equal(t, models.MatchTierExact, outcome.Match.Tier)
	assert.Equal(t, models.MatchActionBlock, outcome.Match.Action)
	assert.Equal(t, first.Record.ID, outcome.Match.MatchedRecord.ID)
	assert.False(t, outcome.AlreadySafe)

	assert.Len(t, scopeRecords(t, store), 1)
	assert.Len(t, pub.duplicates, 1)
}

func TestSubmitReport_Tier2NeedsConfirmation(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})

	existing := johnSmith()
	existing.FirstName = "Christopher"
	existing.LastName = "Jones"
	existing.Location = "Austin"
	mustSubmit(t, svc, existing)

	candidate := existing
	candidate.FirstName = "Cristopher"
	candidate.SSN4 = "1111"
	candidate.Location = " austin "

	outcome := mustSubmit(t, svc, candidate)
	assert.Equal(t, SubmitNeedsConfirmation, outcome.Status)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, models.MatchTierStrongPartial, outcome.Match.Tier)
	assert.Equal(t, models.MatchActionConfirm, outcome.Match.Action)
	assert.InDelta(t, 10.0/11.0, outcome.Match.Confidence, 1e-9)

	assert.Len(t, scopeRecords(t, store), 1)
}

func TestSubmitReport_Tier3WarnsAndStores(t *testing.T) {
	svc, store, pub := newTestService(t, Config{})

	existing := johnSmith()
	existing.FirstName = "Jon"
	mustSubmit(t, svc, existing)

	candidate := johnSmith()
	candidate.FirstName = "Jon"
	candidate.LastName = "Smyth"
	candidate.DOB = "1985-01-01"

	outcome := mustSubmit(t, svc, candidate)
	assert.Equal(t, SubmitCreatedWithWarning, outcome.Status)
	require.True(t, outcome.Created())
	require.NotNil(t, outcome.Match)
	assert.Equal(t, models.MatchTierLooseFuzzy, outcome.Match.Tier)
	assert.Equal(t, models.MatchActionWarn, outcome.Match.Action)
	assert.InDelta(t, 8.0/9.0, outcome.Match.Confidence, 1e-9)

	assert.Len(t, scopeRecords(t, store), 2)
	assert.Len(t, pub.created, 2)
}

func TestSubmitReport_Tier3RequiresAcknowledgement(t *testing.T) {
	svc, store, _ := newTestService(t, Config{RequireAcknowledgement: true})

	existing := johnSmith()
	existing.FirstName = "Jon"
	mustSubmit(t, svc, existing)

	candidate := johnSmith()
	candidate.FirstName = "Jon"
	candidate.LastName = "Smyth"
	candidate.DOB = "1985-01-01"

	outcome := mustSubmit(t, svc, candidate)
	assert.Equal(t, SubmitNeedsAcknowledgement, outcome.Status)
	assert.False(t, outcome.Created())
	assert.Len(t, scopeRecords(t, store), 1)

	candidate.AcknowledgeWarning = true
	outcome = mustSubmit(t, svc, candidate)
	assert.Equal(t, SubmitCreatedWithWarning, outcome.Status)
	assert.Len(t, scopeRecords(t, store), 2)
}

func TestSubmitReport_ScopesAreIsolated(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})
	mustSubmit(t, svc, johnSmith())

	other := johnSmith()
	other.ScopeID = "event-2"
	outcome := mustSubmit(t, svc, other)
	assert.Equal(t, SubmitCreated, outcome.Status)

	assert.Len(t, scopeRecords(t, store), 1)
}

func TestSubmitReport_ConcurrentIdenticalSubmissions(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})

	const workers = 20
	statuses := make(chan SubmitStatus, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := svc.SubmitReport(context.Background(), johnSmith())
			if assert.NoError(t, err) {
				statuses <- outcome.Status
			}
		}()
	}
	wg.Wait()
	close(statuses)

	counts := map[SubmitStatus]int{}
	for s := range statuses {
		counts[s]++
	}
	assert.Equal(t, 1, counts[SubmitCreated])
	assert.Equal(t, workers-1, counts[SubmitDuplicate])
	assert.Len(t, scopeRecords(t, store), 1)
}

func TestSubmitReport_StoreConflictIsDuplicate(t *testing.T) {
	mem := report.NewMemoryRepository()
	pub := &recordingPublisher{}
	svc := NewService(staleStore{mem}, Config{}, testLogger(),
		WithLocker(lock.Noop{}), WithPublisher(pub), WithClock(newStepClock()))

	first := mustSubmit(t, svc, johnSmith())
	require.Equal(t, SubmitCreated, first.Status)

	outcome := mustSubmit(t, svc, johnSmith())
	assert.Equal(t, SubmitDuplicate, outcome.Status)
	require.NotNil(t, outcome.Match)
	assert.Equal(t, models.MatchTierExact, outcome.Match.Tier)
	assert.Equal(t, first.Record.ID, outcome.Match.MatchedRecord.ID)
	assert.Len(t, scopeRecords(t, mem), 1)
	assert.Len(t, pub.duplicates, 1)
}

func TestSubmitReport_InvalidInput(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})

	missingName := johnSmith()
	missingName.FirstName = ""
	_, err := svc.SubmitReport(context.Background(), missingName)
	assert.ErrorIs(t, err, ErrInvalidInput)

	badDOB := johnSmith()
	badDOB.DOB = "last spring"
	_, err = svc.SubmitReport(context.Background(), badDOB)
	assert.ErrorIs(t, err, ErrInvalidInput)

	badSSN := johnSmith()
	badSSN.SSN4 = "12a4"
	_, err = svc.SubmitReport(context.Background(), badSSN)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotContains(t, err.Error(), "12a4")

	for _, ssn4 := range []string{"1.23", "-123", "+123"} {
		decimalSSN := johnSmith()
		decimalSSN.SSN4 = ssn4
		_, err = svc.SubmitReport(context.Background(), decimalSSN)
		assert.ErrorIs(t, err, ErrInvalidInput, ssn4)
	}

	assert.Empty(t, scopeRecords(t, store))
}

func TestSubmitReport_BlankNames(t *testing.T) {
	svc, store, pub := newTestService(t, Config{})

	blank := johnSmith()
	blank.FirstName = "   "
	blank.LastName = "\t"
	_, err := svc.SubmitReport(context.Background(), blank)
	assert.ErrorIs(t, err, ErrInvalidInput)

	blankLocation := johnSmith()
	blankLocation.Location = " \n "
	_, err = svc.SubmitReport(context.Background(), blankLocation)
	assert.ErrorIs(t, err, ErrInvalidInput)

	assert.Empty(t, scopeRecords(t, store))
	assert.Empty(t, pub.created)
}

func TestSubmitReport_WithoutSSN(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})

	req := johnSmith()
	req.SSN4 = ""
	assert.Equal(t, SubmitCreated, mustSubmit(t, svc, req).Status)
	assert.Equal(t, SubmitDuplicate, mustSubmit(t, svc, req).Status)
	assert.Len(t, scopeRecords(t, store), 1)
}

func TestSubmitReport_StoreUnavailable(t *testing.T) {
	svc := NewService(failingStore{report.NewMemoryRepository()}, Config{}, testLogger())

	_, err := svc.SubmitReport(context.Background(), johnSmith())
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestSubmitReport_LockTimeout(t *testing.T) {
	svc := NewService(report.NewMemoryRepository(), Config{}, testLogger(), WithLocker(timeoutLocker{}))

	_, err := svc.SubmitReport(context.Background(), johnSmith())
	assert.ErrorIs(t, err, ErrLockTimeout)
}

func TestClassify_NoWrites(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})
	mustSubmit(t, svc, johnSmith())

	match, err := svc.Classify(context.Background(), ClassifyRequest{
		ScopeID:   scope,
		FirstName: "john",
		LastName:  "SMITH",
		DOB:       "1990-04-12",
		SSN4:      "6789",
	})
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, models.MatchTierExact, match.Tier)

	match, err = svc.Classify(context.Background(), ClassifyRequest{ScopeID: scope, FirstName: "Maria", LastName: "Garcia"})
	require.NoError(t, err)
	assert.Nil(t, match)

	assert.Len(t, scopeRecords(t, store), 1)
}

func TestClassify_RequiresScope(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})

	_, err := svc.Classify(context.Background(), ClassifyRequest{FirstName: "John"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func checkInJohn() CheckInRequest {
	return CheckInRequest{
		ScopeID:   scope,
		FirstName: "john",
		LastName:  "SMITH",
		DOB:       "1990-04-12",
		SSN:       "123456789",
		Location:  "Red Cross shelter, Austin",
	}
}

func TestCheckIn_FlipsExistingReport(t *testing.T) {
	svc, store, pub := newTestService(t, Config{})
	reported := mustSubmit(t, svc, johnSmith())

	outcome, err := svc.CheckIn(context.Background(), checkInJohn())
	require.NoError(t, err)
	assert.False(t, outcome.Created)
	assert.Equal(t, reported.Record.ID, outcome.Record.ID)
	assert.Equal(t, models.RecordStatusSafe, outcome.Record.Status)
	assert.Equal(t, "Red Cross shelter, Austin", outcome.Record.Location)
	assert.True(t, outcome.Record.CreatedAt.After(reported.Record.CreatedAt))

	records := scopeRecords(t, store)
	require.Len(t, records, 1)
	assert.Equal(t, models.RecordStatusSafe, records[0].Status)
	assert.Len(t, pub.checkedIn, 1)

	again := mustSubmit(t, svc, johnSmith())
	assert.Equal(t, SubmitDuplicate, again.Status)
	assert.True(t, again.AlreadySafe)
}

func TestCheckIn_CreatesSafeRecord(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})

	outcome, err := svc.CheckIn(context.Background(), checkInJohn())
	require.NoError(t, err)
	assert.True(t, outcome.Created)
	assert.Equal(t, models.RecordStatusSafe, outcome.Record.Status)
	assert.Equal(t, models.ReportedBySelf, outcome.Record.ReportedBy)
	assert.Len(t, scopeRecords(t, store), 1)
}

func TestCheckIn_ConflictFallsBackToUpdate(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})
	reported := mustSubmit(t, svc, johnSmith())

	req := checkInJohn()
	req.FirstName = "Jonathan"

	outcome, err := svc.CheckIn(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, outcome.Created)
	assert.Equal(t, reported.Record.ID, outcome.Record.ID)

	records := scopeRecords(t, store)
	require.Len(t, records, 1)
	assert.Equal(t, models.RecordStatusSafe, records[0].Status)
}

func TestCheckIn_RequiresFullSSN(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})

	req := checkInJohn()
	req.SSN = "6789"
	_, err := svc.CheckIn(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)

	req.SSN = "1234.5678"
	_, err = svc.CheckIn(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.NotContains(t, err.Error(), "1234.5678")
}

func TestCheckIn_BlankNames(t *testing.T) {
	svc, store, _ := newTestService(t, Config{})

	req := checkInJohn()
	req.FirstName = " "
	req.LastName = "  "
	_, err := svc.CheckIn(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, scopeRecords(t, store))
}

func seedSearch(t *testing.T, svc *Service) []*SubmitOutcome {
	t.Helper()
	people := []ReportRequest{
		{ScopeID: scope, FirstName: "John", LastName: "Smith", DOB: "1990-04-12", Location: "Austin, TX"},
		{ScopeID: scope, FirstName: "Maria", LastName: "Garcia", DOB: "1975-09-30", Location: "Houston, TX"},
		{ScopeID: scope, FirstName: "José", LastName: "Álvarez", DOB: "2001-02-03", Location: "Austin, TX"},
	}
	out := make([]*SubmitOutcome, 0, len(people))
	for _, p := range people {
		out = append(out, mustSubmit(t, svc, p))
	}
	return out
}

func recordIDs(records []models.Record) []string {
	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestSearch_DefaultsToRecent(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	seeded := seedSearch(t, svc)

	results, err := svc.Search(context.Background(), SearchRequest{ScopeID: scope})
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[2].Record.ID, seeded[1].Record.ID, seeded[0].Record.ID}, recordIDs(results))
}

func TestSearch_ByName(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	seeded := seedSearch(t, svc)

	results, err := svc.Search(context.Background(), SearchRequest{ScopeID: scope, Name: "jon"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, seeded[0].Record.ID, results[0].ID)

	results, err = svc.Search(context.Background(), SearchRequest{ScopeID: scope, Name: "jose alvarez"})
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, seeded[2].Record.ID, results[0].ID)
}

func TestSearch_PunctuationOnlyName(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	seedSearch(t, svc)

	results, err := svc.Search(context.Background(), SearchRequest{ScopeID: scope, Name: "!!!"})
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	results, err = svc.Search(context.Background(), SearchRequest{ScopeID: scope, Location: "--"})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ByLocationAndStatus(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	seeded := seedSearch(t, svc)

	results, err := svc.Search(context.Background(), SearchRequest{ScopeID: scope, Location: "houston"})
	require.NoError(t, err)
	assert.Equal(t, []string{seeded[1].Record.ID}, recordIDs(results))

	results, err = svc.Search(context.Background(), SearchRequest{ScopeID: scope, Status: search.StatusSafe})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RefOverridesName(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	seeded := seedSearch(t, svc)

	maria := seeded[1].Record
	assert.Equal(t, reference.MakeRef("Maria", "Garcia", maria.CreatedAt), maria.RecordRef)

	results, err := svc.Search(context.Background(), SearchRequest{
		ScopeID: scope,
		Ref:     maria.RecordRef,
		Name:    "John Smith",
	})
	require.NoError(t, err)
	assert.Contains(t, recordIDs(results), maria.ID)
	assert.NotContains(t, recordIDs(results), seeded[0].Record.ID)
}

func TestSearch_Limit(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	seedSearch(t, svc)

	results, err := svc.Search(context.Background(), SearchRequest{ScopeID: scope, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_InvalidSort(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})

	_, err := svc.Search(context.Background(), SearchRequest{ScopeID: scope, Sort: "alphabetical"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestStats(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	seedSearch(t, svc)

	_, err := svc.CheckIn(context.Background(), checkInJohn())
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), scope)
	require.NoError(t, err)
	assert.Equal(t, Stats{ScopeID: scope, Total: 4, Missing: 3, Safe: 1}, stats)

	_, err = svc.Stats(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
