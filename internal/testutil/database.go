// Package testutil provides test fixtures: in-memory databases with the
// schema applied and product builders for seeding them.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/tiendamoda/reclass/internal/model"
	"github.com/tiendamoda/reclass/internal/storage"
)

// SetupTestDB creates an in-memory SQLite store with migrations applied and
// cleanup registered.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}

// ProductBuilder assembles a product row for tests with sensible defaults.
type ProductBuilder struct {
	p model.Product
}

// NewProduct starts a builder for an enriched product updated now.
func NewProduct(id, name string) *ProductBuilder {
	now := time.Now()
	enriched := now.Add(-time.Hour)
	return &ProductBuilder{p: model.Product{
		ID:         id,
		Name:       name,
		EnrichedAt: &enriched,
		UpdatedAt:  now,
	}}
}

// WithDescription sets the current description.
func (b *ProductBuilder) WithDescription(desc string) *ProductBuilder {
	b.p.Description = desc
	return b
}

// WithOriginalDescription sets the preserved pre-enrichment description.
func (b *ProductBuilder) WithOriginalDescription(desc string) *ProductBuilder {
	b.p.OriginalDescription = desc
	return b
}

// WithSEO sets the SEO title, description and tags.
func (b *ProductBuilder) WithSEO(title, desc string, tags ...string) *ProductBuilder {
	b.p.SEOTitle = title
	b.p.SEODescription = desc
	b.p.SEOTags = tags
	return b
}

// WithTaxonomy sets the current classification.
func (b *ProductBuilder) WithTaxonomy(category, subcategory, gender string) *ProductBuilder {
	b.p.Category = category
	b.p.Subcategory = subcategory
	b.p.Gender = gender
	return b
}

// WithSourceURL sets the source URL.
func (b *ProductBuilder) WithSourceURL(url string) *ProductBuilder {
	b.p.SourceURL = url
	return b
}

// NotEnriched clears the enrichment marker, making the product ineligible.
func (b *ProductBuilder) NotEnriched() *ProductBuilder {
	b.p.EnrichedAt = nil
	return b
}

// UpdatedAt overrides the update timestamp for ordering tests.
func (b *ProductBuilder) UpdatedAt(t time.Time) *ProductBuilder {
	b.p.UpdatedAt = t
	return b
}

// Build returns the product.
func (b *ProductBuilder) Build() model.Product {
	return b.p
}

// SeedProducts saves products into the store, failing the test on error.
func SeedProducts(t *testing.T, store *storage.SQLiteStorage, products ...model.Product) {
	t.Helper()
	if err := store.SaveProducts(context.Background(), products); err != nil {
		t.Fatalf("failed to seed products: %v", err)
	}
}
