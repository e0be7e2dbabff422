package decide

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tiendamoda/reclass/internal/harvest"
	"github.com/tiendamoda/reclass/internal/model"
	"github.com/tiendamoda/reclass/internal/taxonomy"
)

func newTestEngine(t *testing.T) (*Engine, *harvest.Harvester) {
	t.Helper()
	idx, err := taxonomy.NewIndex(taxonomy.Default())
	require.NoError(t, err)
	return New(idx, DefaultPolicy()), harvest.NewHarvester(idx)
}

func decideProduct(t *testing.T, p model.Product) *model.Proposal {
	t.Helper()
	engine, harvester := newTestEngine(t)
	return engine.Decide(p, harvester.Harvest(p))
}

func TestDecideLinenBlouseRecut(t *testing.T) {
	p := model.Product{
		ID:          "p1",
		Name:        "Blusa manga larga de lino",
		Description: "Blusa fresca de lino natural.",
		Category:    "camisas_y_blusas",
		Subcategory: "blusa_de_seda",
		Gender:      "femenino",
	}

	proposal := decideProduct(t, p)
	require.NotNil(t, proposal)

	assert.Empty(t, proposal.ToCategory)
	assert.Equal(t, "camisa_de_lino", proposal.ToSubcategory)
	assert.Empty(t, proposal.ToGender)
	assert.True(t, proposal.HasChanges())
	assert.GreaterOrEqual(t, proposal.Confidence, 0.85)
	assert.Contains(t, proposal.Reasons, "subcategory:accepted:camisa_de_lino")
}

func TestDecideMovesMiscategorizedBlouse(t *testing.T) {
	p := model.Product{
		ID:       "p1",
		Name:     "Blusa manga larga de lino",
		Category: "camisetas_y_tops",
	}

	proposal := decideProduct(t, p)
	require.NotNil(t, proposal)

	assert.Equal(t, "camisas_y_blusas", proposal.ToCategory)
	assert.Equal(t, "camisa_de_lino", proposal.ToSubcategory)
	assert.InDelta(t, 0.90, proposal.Confidence, 0.0001)
	assert.False(t, proposal.ClearSubcategory)
}

func TestDecidePalazzoStaysPut(t *testing.T) {
	// "palazzo" is not a known subcategory and the shared head noun
	// "pantalón" is category-generic, so nothing may move.
	p := model.Product{
		ID:          "p1",
		Name:        "Pantalón palazzo azul",
		Category:    "pantalones",
		Subcategory: "pantalon_chino",
		Gender:      "femenino",
	}

	proposal := decideProduct(t, p)
	assert.Nil(t, proposal)
}

func TestDecideNeutralGenderNeedsNearCertainty(t *testing.T) {
	// A single stray "hombre" mention must not flip a deliberately neutral
	// product.
	p := model.Product{
		ID:          "p1",
		Name:        "Camisa oversize",
		Description: "Corte relajado, inspirado en la camisería de hombre.",
		Category:    "camisas_y_blusas",
		Subcategory: "",
		Gender:      "no_binario_unisex",
	}

	proposal := decideProduct(t, p)
	assert.Nil(t, proposal)
}

func TestDecideFillEmptyCategoryOnWeakEvidence(t *testing.T) {
	p := model.Product{
		ID:          "p1",
		Name:        "Referencia 310",
		Description: "camiseta",
	}

	proposal := decideProduct(t, p)
	require.NotNil(t, proposal)

	assert.Equal(t, "camisetas_y_tops", proposal.ToCategory)
	assert.Empty(t, proposal.ToSubcategory)
	assert.InDelta(t, 0.62, proposal.Confidence, 0.0001)
	assert.Contains(t, proposal.Reasons, "category:accepted:camisetas_y_tops")
	assert.Contains(t, proposal.Reasons, "blocked:name_backing:camiseta_basica")
}

func TestDecideWeakEvidenceCannotOverwrite(t *testing.T) {
	p := model.Product{
		ID:          "p1",
		Name:        "Referencia 311",
		Description: "camiseta",
		Category:    "vestidos",
	}

	proposal := decideProduct(t, p)
	assert.Nil(t, proposal)
}

func TestDecideClearsSubcategoryInvalidUnderNewCategory(t *testing.T) {
	p := model.Product{
		ID:          "p1",
		Name:        "Camiseta de flores para mujer",
		Category:    "faldas",
		Subcategory: "falda_midi",
		Gender:      "femenino",
	}

	proposal := decideProduct(t, p)
	require.NotNil(t, proposal)

	assert.Equal(t, "camisetas_y_tops", proposal.ToCategory)
	assert.Empty(t, proposal.ToSubcategory)
	assert.True(t, proposal.ClearSubcategory)
	assert.True(t, proposal.ChangesSubcategory())
	assert.Contains(t, proposal.Reasons, "subcategory:cleared:invalid_under:camisetas_y_tops")
}

func TestDecideCategoryGateBlocksUnsupportedMove(t *testing.T) {
	idx, err := taxonomy.NewIndex(taxonomy.Default())
	require.NoError(t, err)
	engine := New(idx, DefaultPolicy())

	// A fabricated signal pointing at calzado without any footwear keyword
	// in the evidence must be vetoed by the gate.
	sig := model.Signal{
		Category: model.FieldScore{Value: "calzado", Score: 2, Support: 1, Margin: 2},
		Strength: model.StrengthStrong,
		Evidence: "prenda elegante de otono",
	}
	p := model.Product{ID: "p1", Category: "vestidos"}

	proposal := engine.Decide(p, sig)
	assert.Nil(t, proposal)
}

func TestDecideNameBackingPolicyCanBeRelaxed(t *testing.T) {
	idx, err := taxonomy.NewIndex(taxonomy.Default())
	require.NoError(t, err)
	harvester := harvest.NewHarvester(idx)

	policy := DefaultPolicy()
	policy.RequireNameBacked = false
	engine := New(idx, policy)

	p := model.Product{
		ID:          "p1",
		Name:        "Referencia 4413",
		Description: "Camisa de vestir formal con cuello italiano para hombre.",
		Category:    "camisas_y_blusas",
		Gender:      "masculino",
	}

	proposal := engine.Decide(p, harvester.Harvest(p))
	require.NotNil(t, proposal)
	assert.Equal(t, "camisa_de_vestir", proposal.ToSubcategory)

	strict := New(idx, DefaultPolicy())
	proposal = strict.Decide(p, harvester.Harvest(p))
	assert.Nil(t, proposal)
}

func TestDecideChildGenderImplausibleForJewelry(t *testing.T) {
	p := model.Product{
		ID:          "p1",
		Name:        "Collar de plata",
		Description: "Collar fino, ideal para niña.",
		Category:    "joyeria_y_bisuteria",
		Gender:      "femenino",
	}

	// The subcategory fill still goes through; only the gender move is
	// suppressed.
	proposal := decideProduct(t, p)
	require.NotNil(t, proposal)
	assert.Equal(t, "collares", proposal.ToSubcategory)
	assert.Empty(t, proposal.ToGender)
	assert.Contains(t, proposal.Reasons, "blocked:gender_risk:nina")
}

func TestDecideNoSignalNoProposal(t *testing.T) {
	p := model.Product{
		ID:       "p1",
		Name:     "Referencia 42",
		Category: "hogar",
	}

	proposal := decideProduct(t, p)
	assert.Nil(t, proposal)
}

func TestBaseConfidence(t *testing.T) {
	assert.InDelta(t, 0.90, baseConfidence(model.StrengthStrong), 0.0001)
	assert.InDelta(t, 0.80, baseConfidence(model.StrengthModerate), 0.0001)
	assert.InDelta(t, 0.62, baseConfidence(model.StrengthWeak), 0.0001)
}
