// Package decide turns harvested signals plus current taxonomy state into
// accept/reject decisions per field. It performs no I/O: Decide is a pure
// function of (current state, signal, taxonomy index), which keeps it
// independently unit-testable.
package decide

import (
	"strings"

	"github.com/tiendamoda/reclass/internal/model"
	"github.com/tiendamoda/reclass/internal/taxonomy"
)

// Base confidence per signal strength, with small downward adjustments for
// subcategory and gender relative to category.
const (
	confStrong   = 0.90
	confModerate = 0.80
	confWeak     = 0.62

	subcategoryPenalty = 0.02
	genderPenalty      = 0.03
)

// Policy holds the tunable decision thresholds. The name-backed requirement
// is policy, not law; deployments may relax it.
type Policy struct {
	RequireNameBacked  bool
	FillThreshold      float64
	OverwriteThreshold float64
	RiskThreshold      float64
}

// DefaultPolicy returns the standard thresholds: additive fills are cheap,
// overwrites are expensive, risky moves are near-impossible.
func DefaultPolicy() Policy {
	return Policy{
		RequireNameBacked:  true,
		FillThreshold:      0.60,
		OverwriteThreshold: 0.85,
		RiskThreshold:      0.97,
	}
}

// Engine applies gates and thresholds to produce a proposal or nil.
type Engine struct {
	idx    *taxonomy.Index
	policy Policy
}

// New creates a decision engine for a taxonomy index.
func New(idx *taxonomy.Index, policy Policy) *Engine {
	return &Engine{idx: idx, policy: policy}
}

// fieldOutcome is the result of deciding one field.
type fieldOutcome struct {
	value      string
	confidence float64
	support    int
	margin     float64
	accepted   bool
}

// Decide evaluates a product's signal and returns a pending proposal, or nil
// when no field clears its threshold.
func (e *Engine) Decide(p model.Product, sig model.Signal) *model.Proposal {
	base := baseConfidence(sig.Strength)
	evidence := strings.Fields(sig.Evidence)
	reasons := append([]string(nil), sig.Reasons...)

	cat := e.decideCategory(p, sig, base, evidence, &reasons)

	effectiveCategory := p.Category
	if cat.accepted {
		effectiveCategory = cat.value
	}

	sub := e.decideSubcategory(p, sig, base, evidence, effectiveCategory, &reasons)

	// Cross-field consistency: a subcategory must never dangle under a
	// category it does not belong to, even if its own move was rejected.
	clearSub := false
	if cat.accepted && !sub.accepted && p.Subcategory != "" &&
		!e.idx.IsValidSubcategory(cat.value, p.Subcategory) {
		clearSub = true
		reasons = append(reasons, "subcategory:cleared:invalid_under:"+cat.value)
	}

	gen := e.decideGender(p, sig, base, effectiveCategory, &reasons)

	if !cat.accepted && !sub.accepted && !clearSub && !gen.accepted {
		return nil
	}

	proposal := &model.Proposal{
		ProductID:        p.ID,
		FromCategory:     p.Category,
		FromSubcategory:  p.Subcategory,
		FromGender:       p.Gender,
		ClearSubcategory: clearSub,
		Reasons:          reasons,
		Status:           model.ProposalPending,
	}

	if cat.accepted {
		proposal.ToCategory = cat.value
		bumpStats(proposal, cat)
	}
	if sub.accepted {
		proposal.ToSubcategory = sub.value
		bumpStats(proposal, sub)
	}
	if gen.accepted {
		proposal.ToGender = gen.value
		bumpStats(proposal, gen)
	}

	return proposal
}

func (e *Engine) decideCategory(p model.Product, sig model.Signal, base float64, evidence []string, reasons *[]string) fieldOutcome {
	out := fieldOutcome{
		value:      sig.Category.Value,
		confidence: base,
		support:    sig.Category.Support,
		margin:     sig.Category.Margin,
	}
	if out.value == "" || out.value == p.Category {
		return out
	}

	if !e.idx.CategoryGatePasses(out.value, evidence) {
		*reasons = append(*reasons, "blocked:category:"+out.value)
		return out
	}

	threshold := e.policy.OverwriteThreshold
	if p.Category == "" {
		threshold = e.policy.FillThreshold
	}
	if out.confidence >= threshold {
		out.accepted = true
		*reasons = append(*reasons, "category:accepted:"+out.value)
	}
	return out
}

func (e *Engine) decideSubcategory(p model.Product, sig model.Signal, base float64, evidence []string, effectiveCategory string, reasons *[]string) fieldOutcome {
	out := fieldOutcome{
		value:      sig.Subcategory.Value,
		confidence: base - subcategoryPenalty,
		support:    sig.Subcategory.Support,
		margin:     sig.Subcategory.Margin,
	}
	if out.value == "" || out.value == p.Subcategory {
		return out
	}

	if e.policy.RequireNameBacked && !sig.SubcategoryNameBacked {
		*reasons = append(*reasons, "blocked:name_backing:"+out.value)
		return out
	}

	if !e.idx.IsValidSubcategory(effectiveCategory, out.value) {
		*reasons = append(*reasons, "blocked:subcategory_parent:"+out.value)
		return out
	}

	if !e.idx.SubcategoryGatePasses(out.value, evidence) {
		*reasons = append(*reasons, "blocked:subcategory:"+out.value)
		return out
	}

	threshold := e.policy.OverwriteThreshold
	if p.Subcategory == "" {
		threshold = e.policy.FillThreshold
	}
	if out.confidence >= threshold {
		out.accepted = true
		*reasons = append(*reasons, "subcategory:accepted:"+out.value)
	}
	return out
}

func (e *Engine) decideGender(p model.Product, sig model.Signal, base float64, effectiveCategory string, reasons *[]string) fieldOutcome {
	out := fieldOutcome{
		value:      sig.Gender.Value,
		confidence: base - genderPenalty,
		support:    sig.Gender.Support,
		margin:     sig.Gender.Margin,
	}
	if out.value == "" || out.value == p.Gender {
		return out
	}

	threshold := e.policy.OverwriteThreshold
	if p.Gender == "" {
		threshold = e.policy.FillThreshold
	}

	// Risk combinations require near-certain confidence: leaving a neutral
	// gender, an implausible child gender, or gender moves in categories that
	// are usually genderless.
	risky := p.Gender == taxonomy.NeutralGender ||
		(taxonomy.IsChildGender(out.value) && e.idx.IsChildImplausible(effectiveCategory)) ||
		e.idx.IsNeutralProne(effectiveCategory)
	if risky && e.policy.RiskThreshold > threshold {
		threshold = e.policy.RiskThreshold
	}

	if out.confidence >= threshold {
		out.accepted = true
		*reasons = append(*reasons, "gender:accepted:"+out.value)
	} else if risky {
		*reasons = append(*reasons, "blocked:gender_risk:"+out.value)
	}
	return out
}

// bumpStats raises the proposal's top-level confidence/support/margin to the
// maximum across accepted fields.
func bumpStats(p *model.Proposal, f fieldOutcome) {
	if f.confidence > p.Confidence {
		p.Confidence = f.confidence
	}
	if f.support > p.Support {
		p.Support = f.support
	}
	if f.margin > p.Margin {
		p.Margin = f.margin
	}
}

func baseConfidence(s model.SignalStrength) float64 {
	switch s {
	case model.StrengthStrong:
		return confStrong
	case model.StrengthModerate:
		return confModerate
	default:
		return confWeak
	}
}
