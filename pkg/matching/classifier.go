// Package matching classifies a candidate person record against the records
// already on file for the same event.
package matching

import (
	"github.com/Ramsey-B/fern/pkg/models"
)

// Config holds the similarity thresholds. Both are exclusive lower bounds.
type Config struct {
	FirstNameThreshold float64 // tier 2, default 0.90
	FullNameThreshold  float64 // tier 3, default 0.85
}

// DefaultConfig returns the default classifier thresholds
func DefaultConfig() Config {
	return Config{
		FirstNameThreshold: 0.90,
		FullNameThreshold:  0.85,
	}
}

// Classifier applies the three tier matching policy. It holds no mutable
// state and is safe for concurrent use.
type Classifier struct {
	config Config
	scorer *Scorer
}

// NewClassifier creates a classifier. Zero thresholds fall back to the defaults.
func NewClassifier(config Config) *Classifier {
	defaults := DefaultConfig()
	if config.FirstNameThreshold <= 0 {
		config.FirstNameThreshold = defaults.FirstNameThreshold
	}
	if config.FullNameThreshold <= 0 {
		config.FullNameThreshold = defaults.FullNameThreshold
	}
	return &Classifier{
		config: config,
		scorer: NewScorer(),
	}
}

// Config returns the thresholds in use
func (c *Classifier) Config() Config {
	return c.config
}

// Classify compares candidate with snapshot and returns the first tier that
// matches, or nil. Records belonging to another scope are ignored. The
// snapshot is not modified and the returned record is a copy.
func (c *Classifier) Classify(candidate models.Record, snapshot []models.Record) *models.MatchResult {
	cand := keysFor(candidate)

	existing := make([]comparisonKeys, len(snapshot))
	for i, r := range snapshot {
		existing[i] = keysFor(r)
	}

	if cand.identityEligible() {
		if idx := c.exactIdentity(cand, existing); idx >= 0 {
			return newResult(models.MatchTierExact, snapshot[idx], 1.0)
		}
		if idx, score := c.strongPartial(cand, existing); idx >= 0 {
			return newResult(models.MatchTierStrongPartial, snapshot[idx], score)
		}
	}

	if cand.fullName != "" {
		if idx, score := c.looseFuzzy(cand, existing); idx >= 0 {
			return newResult(models.MatchTierLooseFuzzy, snapshot[idx], score)
		}
	}

	return nil
}

// exactIdentity returns the first record sharing DOB, SSN4 and last name.
func (c *Classifier) exactIdentity(cand comparisonKeys, existing []comparisonKeys) int {
	for i, k := range existing {
		if k.scopeID != cand.scopeID || !k.identityEligible() {
			continue
		}
		if cand.sameIdentity(k) {
			return i
		}
	}
	return -1
}

// strongPartial returns the first record in snapshot order that shares DOB,
// location and last name and whose first name clears the threshold.
func (c *Classifier) strongPartial(cand comparisonKeys, existing []comparisonKeys) (int, float64) {
	for i, k := range existing {
		if k.scopeID != cand.scopeID || !k.identityEligible() {
			continue
		}
		if !cand.samePartial(k) {
			continue
		}
		score := c.scorer.Similarity(cand.firstName, k.firstName)
		if score > c.config.FirstNameThreshold {
			return i, score
		}
	}
	return -1, 0
}

// looseFuzzy returns the record with the strictly highest full name
// similarity above the threshold. Ties keep the earliest record.
func (c *Classifier) looseFuzzy(cand comparisonKeys, existing []comparisonKeys) (int, float64) {
	best := -1
	bestScore := c.config.FullNameThreshold
	for i, k := range existing {
		if k.scopeID != cand.scopeID || k.fullName == "" {
			continue
		}
		score := c.scorer.Similarity(cand.fullName, k.fullName)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return -1, 0
	}
	return best, bestScore
}

func newResult(tier models.MatchTier, matched models.Record, confidence float64) *models.MatchResult {
	if matched.Age != nil {
		age := *matched.Age
		matched.Age = &age
	}
	return &models.MatchResult{
		Tier:          tier,
		MatchedRecord: matched,
		Confidence:    confidence,
		Action:        models.ActionForTier(tier),
	}
}
