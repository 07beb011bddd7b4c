// Package search provides the approximate text index used to look people up
// by name or location within one event.
package search

import (
	"sort"
	"strings"

	"github.com/Gobusters/ectolinq"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Field names an indexed record field
type Field string

const (
	FieldFirstName Field = "first_name"
	FieldLastName  Field = "last_name"
	FieldLocation  Field = "location"
)

// MinScore is the fixed tolerance a record must reach to be returned.
const MinScore = 0.70

var (
	NameFields     = []Field{FieldFirstName, FieldLastName}
	LocationFields = []Field{FieldLocation}
)

// Valid reports whether the field can be indexed
func (f Field) Valid() bool {
	switch f {
	case FieldFirstName, FieldLastName, FieldLocation:
		return true
	}
	return false
}

func (f Field) value(r models.Record) string {
	switch f {
	case FieldFirstName:
		return r.FirstName
	case FieldLastName:
		return r.LastName
	case FieldLocation:
		return r.Location
	}
	return ""
}

// Hit is a scored query result
type Hit struct {
	Record models.Record
	Score  float64
}

type entry struct {
	record models.Record
	// folded text per field plus the folded concatenation of all fields
	texts  []string
	tokens []string
}

// Index is an immutable approximate index over a snapshot. Rebuild it when
// the snapshot changes.
type Index struct {
	fields  []Field
	entries []entry
	scorer  *matching.Scorer
}

// Build indexes records on fields. Unknown fields are ignored and no fields
// means NameFields. The records are copied.
func Build(records []models.Record, fields ...Field) *Index {
	selected := make([]Field, 0, len(fields))
	for _, f := range fields {
		if f.Valid() {
			selected = append(selected, f)
		}
	}
	if len(selected) == 0 {
		selected = append(selected, NameFields...)
	}

	idx := &Index{
		fields:  selected,
		entries: make([]entry, 0, len(records)),
		scorer:  matching.NewScorer(),
	}

	for _, r := range models.CloneRecords(records) {
		e := entry{record: r}
		parts := make([]string, 0, len(selected))
		for _, f := range selected {
			folded := normalizers.Fold(f.value(r))
			if folded == "" {
				continue
			}
			parts = append(parts, folded)
			e.texts = append(e.texts, folded)
			e.tokens = append(e.tokens, strings.Fields(folded)...)
		}
		if len(parts) > 1 {
			e.texts = append(e.texts, strings.Join(parts, " "))
		}
		idx.entries = append(idx.entries, e)
	}

	return idx
}

// Len returns the number of indexed records
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Fields returns the indexed fields
func (idx *Index) Fields() []Field {
	return append([]Field(nil), idx.fields...)
}

// Query returns the records matching text, best first. A blank query
// returns every record in snapshot order.
func (idx *Index) Query(text string) []models.Record {
	return ectolinq.Map(idx.Hits(text), func(h Hit) models.Record {
		return h.Record
	})
}

// Hits is Query with scores. Ties keep snapshot order. Text with nothing
// left after folding, such as "!!!", matches no record.
func (idx *Index) Hits(text string) []Hit {
	if strings.TrimSpace(text) == "" {
		return ectolinq.Map(idx.entries, func(e entry) Hit {
			return Hit{Record: e.record, Score: 1}
		})
	}

	query := normalizers.Fold(text)
	if query == "" {
		return []Hit{}
	}

	queryTokens := strings.Fields(query)
	hits := make([]Hit, 0)
	for _, e := range idx.entries {
		score := idx.score(query, queryTokens, e)
		if score >= MinScore {
			hits = append(hits, Hit{Record: e.record, Score: score})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	return hits
}

func (idx *Index) score(query string, queryTokens []string, e entry) float64 {
	if len(e.tokens) == 0 {
		return 0
	}

	var whole float64
	for _, text := range e.texts {
		whole = max(whole, idx.scorer.Similarity(query, text))
	}

	var total float64
	for _, qt := range queryTokens {
		var best float64
		for _, token := range e.tokens {
			if strings.HasPrefix(token, qt) {
				best = 1
				break
			}
			best = max(best, idx.scorer.Similarity(qt, token))
		}
		total += best
	}
	byToken := total / float64(len(queryTokens))

	return max(whole, byToken)
}
