package model

// SignalStrength is a qualitative rating of how robust harvested evidence is.
type SignalStrength string

// Signal strength levels.
const (
	StrengthStrong   SignalStrength = "strong"
	StrengthModerate SignalStrength = "moderate"
	StrengthWeak     SignalStrength = "weak"
)

// FieldScore is one field's candidate value with its evidence statistics.
// Support counts independent matching rules; Margin is the ratio of the best
// score to the runner-up.
type FieldScore struct {
	Value   string
	Score   int
	Support int
	Margin  float64
}

// Signal is the harvested, per-product evidence summary. It is created fresh
// for each product on each run and discarded once the decision is made.
// Empty candidate values mean "no opinion", not an error.
type Signal struct {
	Category    FieldScore
	Subcategory FieldScore
	Gender      FieldScore

	// SubcategoryNameBacked is true when the winning subcategory is supported
	// by the product name alone, not just description/SEO text.
	SubcategoryNameBacked bool

	// SubcategoryDescOnly records a candidate that matched only in
	// description/SEO text. Tracked for diagnostics; it never authorizes a
	// move on its own when name backing is required.
	SubcategoryDescOnly string

	Strength SignalStrength

	// Evidence is the normalized evidence text the scores were computed from,
	// used later for gate checks.
	Evidence string

	// Reasons lists the rule identifiers that fired, in order.
	Reasons []string
}

// HasOpinion reports whether the harvester inferred anything at all.
func (s *Signal) HasOpinion() bool {
	return s.Category.Value != "" || s.Subcategory.Value != "" || s.Gender.Value != ""
}
