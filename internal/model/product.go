// Package model defines the core domain types for the reclassification engine.
package model

import (
	"strings"
	"time"
)

// Product is a catalog product row. The engine treats products as read-only
// input; only the enrichment pipeline and the storefront mutate them.
type Product struct {
	ID          string
	Name        string
	Description string

	// OriginalDescription preserves the pre-enrichment text when the current
	// description has already been rewritten by the enrichment pipeline.
	OriginalDescription string

	SEOTitle       string
	SEODescription string
	SEOTags        []string
	SourceURL      string

	Category    string
	Subcategory string
	Gender      string

	Metadata   map[string]string
	EnrichedAt *time.Time
	UpdatedAt  time.Time
}

// Candidate pairs a product selected for scoring with whether it already
// carries a pending proposal, which stale reconciliation needs.
type Candidate struct {
	Product    Product
	HasPending bool
}

// BestDescription prefers the preserved pre-enrichment description over a
// possibly-already-normalized current one.
func (p *Product) BestDescription() string {
	if strings.TrimSpace(p.OriginalDescription) != "" {
		return p.OriginalDescription
	}
	return p.Description
}

// Enriched reports whether the product went through upstream enrichment and
// is therefore eligible for reclassification.
func (p *Product) Enriched() bool {
	return p.EnrichedAt != nil && !p.EnrichedAt.IsZero()
}
