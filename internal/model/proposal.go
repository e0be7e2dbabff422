package model

import (
	"fmt"
	"time"
)

// ProposalStatus tracks the review state of a proposal.
type ProposalStatus string

// Proposal statuses.
const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// Proposal is a persisted, pending suggested change to a product's
// category/subcategory/gender. At most one pending proposal exists per
// product; the review UI flips it to accepted or rejected.
type Proposal struct {
	ID        int64
	ProductID string

	FromCategory    string
	ToCategory      string
	FromSubcategory string
	ToSubcategory   string
	FromGender      string
	ToGender        string

	// ClearSubcategory distinguishes "force subcategory to null" (the old
	// subcategory is invalid under the new category) from "no change".
	ClearSubcategory bool

	Confidence float64
	Support    int
	Margin     float64

	// Reasons is the ordered list of rule identifiers that fired, including
	// "blocked:*" entries for suppressed moves.
	Reasons []string

	Source string
	RunKey string

	Status    ProposalStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChangesCategory reports whether the proposal moves the category field.
func (p *Proposal) ChangesCategory() bool {
	return p.ToCategory != "" && p.ToCategory != p.FromCategory
}

// ChangesSubcategory reports whether the proposal moves or clears the
// subcategory field.
func (p *Proposal) ChangesSubcategory() bool {
	if p.ClearSubcategory {
		return p.FromSubcategory != ""
	}
	return p.ToSubcategory != "" && p.ToSubcategory != p.FromSubcategory
}

// ChangesGender reports whether the proposal moves the gender field.
func (p *Proposal) ChangesGender() bool {
	return p.ToGender != "" && p.ToGender != p.FromGender
}

// HasChanges reports whether any field actually moves.
func (p *Proposal) HasChanges() bool {
	return p.ChangesCategory() || p.ChangesSubcategory() || p.ChangesGender()
}

// Validate ensures the proposal has valid data before persistence.
func (p *Proposal) Validate() error {
	if p.ProductID == "" {
		return fmt.Errorf("proposal product ID is required")
	}
	if !p.HasChanges() {
		return fmt.Errorf("proposal for product %s changes nothing", p.ProductID)
	}
	if p.Confidence < 0.0 || p.Confidence > 1.0 {
		return fmt.Errorf("confidence must be between 0.0 and 1.0, got %.2f", p.Confidence)
	}
	switch p.Status {
	case ProposalPending, ProposalAccepted, ProposalRejected:
	default:
		return fmt.Errorf("invalid proposal status %q", p.Status)
	}
	return nil
}
