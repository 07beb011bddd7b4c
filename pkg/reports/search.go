package reports

import (
	"context"
	"strings"
	"time"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/search"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/utils"
)

// Search looks up records in a scope. A reference query replaces the name
// and location queries. Results default to relevance order when a query ran
// and most recent first otherwise.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]models.Record, error) {
	ctx, span := tracing.StartSpan(ctx, "reports.Service.Search")
	defer span.End()

	start := time.Now()
	defer func() { metrics.RecordSearch(time.Since(start).Seconds()) }()

	req, err := utils.Validate(req)
	if err != nil {
		return nil, invalidInput(err)
	}

	snapshot, err := s.snapshot(ctx, req.ScopeID)
	if err != nil {
		return nil, err
	}

	results, queried := query(snapshot, req)
	results = search.FilterByStatus(results, req.Status)

	sortBy := req.Sort
	if sortBy == "" {
		sortBy = search.SortRecent
		if queried {
			sortBy = search.SortRelevance
		}
	}
	results = search.Sort(results, sortBy)

	if req.Limit > 0 {
		results = ectolinq.Take(results, req.Limit)
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"scope_id": req.ScopeID,
		"results":  len(results),
		"sort":     sortBy,
	}).Debug("Searched reports")

	return results, nil
}

func query(snapshot []models.Record, req SearchRequest) ([]models.Record, bool) {
	if ref := strings.TrimSpace(req.Ref); ref != "" {
		return search.FilterByRef(snapshot, ref), true
	}

	results := models.CloneRecords(snapshot)
	queried := false

	if name := strings.TrimSpace(req.Name); name != "" {
		results = search.Build(results, search.NameFields...).Query(name)
		queried = true
	}
	if location := strings.TrimSpace(req.Location); location != "" {
		results = search.Build(results, search.LocationFields...).Query(location)
		queried = true
	}

	return results, queried
}
