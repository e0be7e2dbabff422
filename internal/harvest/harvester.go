// Package harvest extracts normalized textual evidence from product fields
// and turns it into category/subcategory/gender candidates.
package harvest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tiendamoda/reclass/internal/model"
	"github.com/tiendamoda/reclass/internal/taxonomy"
)

// Harvester computes a Signal for one product against a taxonomy index. It
// holds no per-product state and is safe for concurrent use.
type Harvester struct {
	idx *taxonomy.Index
}

// NewHarvester creates a harvester bound to a taxonomy index.
func NewHarvester(idx *taxonomy.Index) *Harvester {
	return &Harvester{idx: idx}
}

// pantContextTokens indicate the text is about pants, in which case
// "bota" describes a leg silhouette (bota ancha), not footwear.
var pantContextTokens = map[string]struct{}{
	"pantalon":   {},
	"pantalones": {},
	"jean":       {},
	"jeans":      {},
	"vaquero":    {},
	"vaqueros":   {},
	"palazzo":    {},
}

// botaTokens are the footwear tokens suppressed under pant context.
var botaTokens = map[string]struct{}{
	"bota":  {},
	"botas": {},
}

// Harvest builds the evidence Signal for a product. Absence of any evidence
// yields empty candidates with weak strength; that is the default "no
// opinion" state, not an error.
func (h *Harvester) Harvest(p model.Product) model.Signal {
	evidence := h.evidenceText(p)
	toks := strings.Fields(evidence)

	sig := model.Signal{
		Strength: model.StrengthWeak,
		Evidence: evidence,
	}
	if len(toks) == 0 {
		return sig
	}

	sig.Category = h.inferCategory(toks)
	if sig.Category.Value != "" {
		sig.Reasons = append(sig.Reasons, "category:keyword_match:"+sig.Category.Value)
	}

	h.inferSubcategory(&sig, p, toks)
	h.inferGender(&sig, toks)
	sig.Strength = h.classifyStrength(&sig)

	return sig
}

// evidenceText concatenates and normalizes every text field that may carry
// classification evidence.
func (h *Harvester) evidenceText(p model.Product) string {
	parts := []string{
		p.Name,
		p.BestDescription(),
		p.SEOTitle,
		p.SEODescription,
		strings.Join(p.SEOTags, " "),
		p.SourceURL,
	}
	return taxonomy.Normalize(strings.Join(parts, " "))
}

// inferCategory scores the evidence against every category's keyword set and
// picks the highest scorer, applying cross-category false-positive guards.
func (h *Harvester) inferCategory(toks []string) model.FieldScore {
	best := model.FieldScore{}
	runnerUp := 0

	for _, cat := range h.idx.Categories() {
		score := h.idx.ScoreCategory(cat, h.guardedTokens(cat, toks))
		switch {
		case score > best.Score:
			runnerUp = best.Score
			best = model.FieldScore{Value: cat, Score: score}
		case score > runnerUp:
			runnerUp = score
		}
	}

	if best.Score == 0 {
		return model.FieldScore{}
	}
	best.Support = len(h.idx.CategoryMatches(best.Value, h.guardedTokens(best.Value, toks)))
	best.Margin = margin(best.Score, runnerUp)
	return best
}

// guardedTokens removes tokens excluded from a category's evidence by
// cross-category guards.
func (h *Harvester) guardedTokens(cat string, toks []string) []string {
	if cat != "calzado" || !hasPantContext(toks) {
		return toks
	}
	out := make([]string, 0, len(toks))
	for _, t := range toks {
		if _, isBota := botaTokens[t]; isBota {
			continue
		}
		out = append(out, t)
	}
	return out
}

func hasPantContext(toks []string) bool {
	for _, t := range toks {
		if _, ok := pantContextTokens[t]; ok {
			return true
		}
	}
	return false
}

// inferSubcategory restricts scoring to subcategories of the
// current-or-inferred category and checks name backing for the winner.
func (h *Harvester) inferSubcategory(sig *model.Signal, p model.Product, toks []string) {
	cat := sig.Category.Value
	if cat == "" {
		cat = p.Category
	}
	if cat == "" {
		return
	}

	best := model.FieldScore{}
	runnerUp := 0
	for _, sub := range h.idx.SubcategoriesOf(cat) {
		score := h.idx.ScoreSubcategory(sub, toks)
		switch {
		case score > best.Score:
			runnerUp = best.Score
			best = model.FieldScore{Value: sub, Score: score}
		case score > runnerUp:
			runnerUp = score
		}
	}
	if best.Score == 0 {
		return
	}

	best.Support = len(h.idx.SubcategoryMatches(best.Value, toks))
	best.Margin = margin(best.Score, runnerUp)
	sig.Subcategory = best

	nameToks := taxonomy.Tokens(p.Name)
	if h.idx.ScoreSubcategory(best.Value, nameToks) > 0 {
		sig.SubcategoryNameBacked = true
		sig.Reasons = append(sig.Reasons, "subcategory:name_backed:"+best.Value)
	} else {
		sig.SubcategoryDescOnly = best.Value
		sig.Reasons = append(sig.Reasons, "subcategory:desc_only:"+best.Value)
	}
}

// inferGender applies the gender cue ruleset, tracking support (independent
// cue count) and margin (dominant score vs runner-up).
func (h *Harvester) inferGender(sig *model.Signal, toks []string) {
	type genderScore struct {
		gender string
		score  int
		cues   int
	}

	var scores []genderScore
	for _, g := range h.idx.Taxonomy().Genders {
		score, cues := h.idx.GenderScore(g, toks)
		if score > 0 {
			scores = append(scores, genderScore{gender: g, score: score, cues: cues})
		}
	}
	if len(scores) == 0 {
		return
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].score != scores[j].score {
			return scores[i].score > scores[j].score
		}
		return scores[i].gender < scores[j].gender
	})

	runnerUp := 0
	if len(scores) > 1 {
		runnerUp = scores[1].score
	}

	sig.Gender = model.FieldScore{
		Value:   scores[0].gender,
		Score:   scores[0].score,
		Support: scores[0].cues,
		Margin:  margin(scores[0].score, runnerUp),
	}
	sig.Reasons = append(sig.Reasons,
		fmt.Sprintf("gender:cue:%s:support=%d", scores[0].gender, scores[0].cues))
}

// classifyStrength rates the signal: strong when multiple independent rule
// families agree, moderate when a single strong rule fires, weak when only
// generic or low-specificity evidence matched.
func (h *Harvester) classifyStrength(sig *model.Signal) model.SignalStrength {
	families := 0
	if sig.Category.Value != "" {
		families++
	}
	if sig.Subcategory.Value != "" && sig.SubcategoryNameBacked {
		families++
	}
	if sig.Gender.Value != "" {
		families++
	}

	if families >= 2 {
		return model.StrengthStrong
	}
	if families == 1 {
		single := sig.Category.Score >= 2 ||
			(sig.SubcategoryNameBacked && sig.Subcategory.Score >= 3) ||
			sig.Gender.Support >= 2
		if single {
			return model.StrengthModerate
		}
	}
	return model.StrengthWeak
}

// margin computes best/runnerUp; with no runner-up the best score stands
// alone and is its own margin.
func margin(best, runnerUp int) float64 {
	if runnerUp <= 0 {
		return float64(best)
	}
	return float64(best) / float64(runnerUp)
}
