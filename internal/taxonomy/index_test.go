package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := NewIndex(Default())
	require.NoError(t, err)
	return idx
}

func TestNewIndexRejectsInvalidTaxonomy(t *testing.T) {
	_, err := NewIndex(Taxonomy{})
	require.Error(t, err)

	dual := Taxonomy{
		Categories: map[string][]string{
			"faldas":   {"minifalda"},
			"vestidos": {"minifalda"},
		},
		Genders: []string{"femenino"},
	}
	_, err = NewIndex(dual)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "minifalda")
}

func TestParentOf(t *testing.T) {
	idx := defaultIndex(t)

	cat, ok := idx.ParentOf("camisa_de_lino")
	require.True(t, ok)
	assert.Equal(t, "camisas_y_blusas", cat)

	_, ok = idx.ParentOf("no_such_subcategory")
	assert.False(t, ok)
}

func TestIsValidSubcategory(t *testing.T) {
	idx := defaultIndex(t)

	assert.True(t, idx.IsValidSubcategory("pantalones", "jeans"))
	assert.False(t, idx.IsValidSubcategory("faldas", "jeans"))
	assert.False(t, idx.IsValidSubcategory("pantalones", "unknown"))
}

func TestScoreCategory(t *testing.T) {
	idx := defaultIndex(t)

	toks := Tokens("Pantalón vaquero slim")
	assert.Equal(t, 2, idx.ScoreCategory("pantalones", toks))
	assert.Equal(t, 0, idx.ScoreCategory("faldas", toks))
}

func TestSubcategoryGateFiltersGenericTokens(t *testing.T) {
	idx := defaultIndex(t)

	// "pantalón" alone is category-generic evidence; it must never gate a
	// move between pant subcategories.
	generic := Tokens("pantalon palazzo de tiro alto")
	assert.False(t, idx.SubcategoryGatePasses("pantalon_chino", generic))
	assert.False(t, idx.SubcategoryGatePasses("pantalon_cargo", generic))

	specific := Tokens("pantalon chino beige")
	assert.True(t, idx.SubcategoryGatePasses("pantalon_chino", specific))

	// Scoring keeps the full set even though gating filtered it.
	assert.Positive(t, idx.ScoreSubcategory("pantalon_chino", generic))
}

func TestCategoryGateRequiresEvidence(t *testing.T) {
	idx := defaultIndex(t)

	assert.True(t, idx.CategoryGatePasses("calzado", Tokens("botas de cuero")))
	assert.False(t, idx.CategoryGatePasses("calzado", Tokens("prenda elegante de otoño")))
}

func TestMaterialPhraseHeuristic(t *testing.T) {
	idx := defaultIndex(t)

	// "de lino" counts as a phrase on top of the bare material word.
	toks := Tokens("blusa manga larga de lino")
	assert.Equal(t, 3, idx.ScoreSubcategory("camisa_de_lino", toks))
	assert.Equal(t, 1, idx.ScoreSubcategory("blusa_de_seda", toks))
}

func TestPlatingKeywordsReachEveryJewelrySubcategory(t *testing.T) {
	idx := defaultIndex(t)

	toks := Tokens("bañado en oro de 18k")
	for _, sub := range idx.SubcategoriesOf("joyeria_y_bisuteria") {
		assert.Positivef(t, idx.ScoreSubcategory(sub, toks), "subcategory %s", sub)
	}
}

func TestGenderScore(t *testing.T) {
	idx := defaultIndex(t)

	score, cues := idx.GenderScore("femenino", Tokens("vestido para mujer y dama"))
	assert.Equal(t, 2, score)
	assert.Equal(t, 2, cues)

	score, cues = idx.GenderScore("masculino", Tokens("vestido para mujer"))
	assert.Zero(t, score)
	assert.Zero(t, cues)
}

func TestRiskTables(t *testing.T) {
	idx := defaultIndex(t)

	assert.True(t, idx.IsNeutralProne("hogar"))
	assert.False(t, idx.IsNeutralProne("vestidos"))
	assert.True(t, idx.IsChildImplausible("joyeria_y_bisuteria"))
	assert.True(t, IsChildGender("bebe"))
	assert.False(t, IsChildGender("femenino"))
}
