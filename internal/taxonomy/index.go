package taxonomy

import (
	"fmt"
	"sort"
	"strings"
)

// Index is the evidence index built once from a Taxonomy and passed into the
// harvester and decision engine. It holds no mutable state after
// construction, so it is safe for concurrent use and swappable per taxonomy
// version in tests.
type Index struct {
	tax Taxonomy

	categoryKeywords    map[string]*KeywordSet
	subcategoryKeywords map[string]*KeywordSet
	subcategoryGate     map[string]*KeywordSet
	categoryGate        map[string]*KeywordSet
	genderKeywords      map[string]*KeywordSet

	parent map[string]string
}

// NewIndex builds the evidence index for a taxonomy.
func NewIndex(tax Taxonomy) (*Index, error) {
	if err := tax.Validate(); err != nil {
		return nil, fmt.Errorf("cannot index invalid taxonomy: %w", err)
	}

	idx := &Index{
		tax:                 tax,
		categoryKeywords:    make(map[string]*KeywordSet),
		subcategoryKeywords: make(map[string]*KeywordSet),
		subcategoryGate:     make(map[string]*KeywordSet),
		categoryGate:        make(map[string]*KeywordSet),
		genderKeywords:      make(map[string]*KeywordSet),
		parent:              make(map[string]string),
	}

	for cat, subs := range tax.Categories {
		catSet := newKeywordSet()
		for _, tok := range meaningfulLabelTokens(cat) {
			catSet.Add(tok)
		}
		catSet.AddAll(categorySynonyms[cat])
		idx.categoryKeywords[cat] = catSet

		gate := newKeywordSet()
		if required, ok := requiredCategoryEvidence[cat]; ok {
			gate.AddAll(required)
		} else {
			// Uncurated categories fall back to their own keyword set.
			gate = catSet.clone()
		}
		idx.categoryGate[cat] = gate

		for _, sub := range subs {
			idx.parent[sub] = cat
			idx.subcategoryKeywords[sub] = buildSubcategorySet(cat, sub)
		}
	}

	// The generic-token filter applies only to the gating sets; scoring keeps
	// the full sets.
	for sub, set := range idx.subcategoryKeywords {
		gate := set.clone()
		for _, generic := range genericCategoryTokens[idx.parent[sub]] {
			gate.RemoveWord(generic)
		}
		idx.subcategoryGate[sub] = gate
	}

	for _, g := range tax.Genders {
		set := newKeywordSet()
		set.AddAll(genderCues[g])
		idx.genderKeywords[g] = set
	}

	return idx, nil
}

// buildSubcategorySet assembles a subcategory's keyword set from its label
// tokens, curated synonyms and category-specific heuristics.
func buildSubcategorySet(cat, sub string) *KeywordSet {
	set := newKeywordSet()

	meaningful := meaningfulLabelTokens(sub)
	for _, tok := range meaningful {
		set.Add(tok)
	}
	if len(meaningful) > 1 {
		set.Add(strings.Join(labelTokens(sub), " "))
	}

	set.AddAll(subcategorySynonyms[sub])

	for _, tok := range meaningful {
		if _, isMaterial := materialPhraseWords[tok]; isMaterial {
			set.Add(tok)
			set.Add("de " + tok)
		}
	}

	if cat == "joyeria_y_bisuteria" {
		set.AddAll(platingKeywords)
	}
	if strings.Contains(sub, "calcetines") {
		set.AddAll(ankleKeywords)
	}

	return set
}

// Taxonomy returns the taxonomy the index was built from.
func (idx *Index) Taxonomy() Taxonomy {
	return idx.tax
}

// Categories returns all category names in sorted order.
func (idx *Index) Categories() []string {
	return idx.tax.CategoryNames()
}

// SubcategoriesOf returns the allowed subcategories for a category, sorted.
func (idx *Index) SubcategoriesOf(cat string) []string {
	subs := append([]string(nil), idx.tax.Categories[cat]...)
	sort.Strings(subs)
	return subs
}

// ParentOf returns the home category of a subcategory.
func (idx *Index) ParentOf(sub string) (string, bool) {
	cat, ok := idx.parent[sub]
	return cat, ok
}

// IsValidSubcategory reports whether sub belongs to cat's allowed set.
func (idx *Index) IsValidSubcategory(cat, sub string) bool {
	parent, ok := idx.parent[sub]
	return ok && parent == cat
}

// IsValidGender reports whether g is a known gender value.
func (idx *Index) IsValidGender(g string) bool {
	return idx.tax.IsValidGender(g)
}

// ScoreCategory scores normalized tokens against a category's keyword set.
func (idx *Index) ScoreCategory(cat string, toks []string) int {
	set, ok := idx.categoryKeywords[cat]
	if !ok {
		return 0
	}
	return set.Score(toks)
}

// ScoreSubcategory scores normalized tokens against a subcategory's full
// keyword set.
func (idx *Index) ScoreSubcategory(sub string, toks []string) int {
	set, ok := idx.subcategoryKeywords[sub]
	if !ok {
		return 0
	}
	return set.Score(toks)
}

// CategoryMatches returns the keywords of cat that hit in toks.
func (idx *Index) CategoryMatches(cat string, toks []string) []string {
	set, ok := idx.categoryKeywords[cat]
	if !ok {
		return nil
	}
	return set.Matches(toks)
}

// SubcategoryMatches returns the keywords of sub that hit in toks.
func (idx *Index) SubcategoryMatches(sub string, toks []string) []string {
	set, ok := idx.subcategoryKeywords[sub]
	if !ok {
		return nil
	}
	return set.Matches(toks)
}

// CategoryGatePasses reports whether the evidence contains at least one of
// the target category's required-evidence keywords.
func (idx *Index) CategoryGatePasses(cat string, toks []string) bool {
	gate, ok := idx.categoryGate[cat]
	if !ok {
		return false
	}
	return gate.AnyMatch(toks)
}

// SubcategoryGatePasses reports whether the evidence contains at least one
// keyword specific to the target subcategory, after generic category tokens
// have been filtered out.
func (idx *Index) SubcategoryGatePasses(sub string, toks []string) bool {
	gate, ok := idx.subcategoryGate[sub]
	if !ok {
		return false
	}
	if gate.Len() == 0 {
		// Every keyword was generic; nothing specific can ever gate this
		// subcategory in, so the move is always vetoed.
		return false
	}
	return gate.AnyMatch(toks)
}

// GenderScore scores normalized tokens against a gender's cue set and
// returns the score plus the count of distinct cues that hit.
func (idx *Index) GenderScore(g string, toks []string) (score, cues int) {
	set, ok := idx.genderKeywords[g]
	if !ok {
		return 0, 0
	}
	return set.Score(toks), len(set.Matches(toks))
}

// IsNeutralProne reports whether gender moves in cat require near-certain
// confidence.
func (idx *Index) IsNeutralProne(cat string) bool {
	_, ok := neutralProneCategories[cat]
	return ok
}

// IsChildImplausible reports whether a child/infant gender is implausible
// for cat.
func (idx *Index) IsChildImplausible(cat string) bool {
	_, ok := childImplausibleCategories[cat]
	return ok
}

// IsChildGender reports whether g is a child/infant gender value.
func IsChildGender(g string) bool {
	_, ok := childGenders[g]
	return ok
}
