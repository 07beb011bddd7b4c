package models

// MatchTier is one of the three decreasing-confidence match classes
type MatchTier int

const (
	MatchTierExact         MatchTier = 1 // identical dob, ssn4 and last name
	MatchTierStrongPartial MatchTier = 2 // same dob, location and last name, near-identical first name
	MatchTierLooseFuzzy    MatchTier = 3 // similar full name
)

// MatchAction tells the caller what to do with a submission
type MatchAction string

const (
	MatchActionBlock   MatchAction = "block"
	MatchActionConfirm MatchAction = "confirm"
	MatchActionWarn    MatchAction = "warn"
)

// ActionForTier returns the action bound to a tier
func ActionForTier(tier MatchTier) MatchAction {
	switch tier {
	case MatchTierExact:
		return MatchActionBlock
	case MatchTierStrongPartial:
		return MatchActionConfirm
	default:
		return MatchActionWarn
	}
}

// MatchResult is the outcome of classifying a candidate against a scope snapshot.
// A nil *MatchResult means no match.
type MatchResult struct {
	Tier          MatchTier   `json:"tier"`
	MatchedRecord Record      `json:"matched_record"`
	Confidence    float64     `json:"confidence"`
	Action        MatchAction `json:"action"`
}

// AllowsSubmission reports whether the caller may still persist the candidate
func (m *MatchResult) AllowsSubmission() bool {
	return m == nil || m.Action == MatchActionWarn
}
