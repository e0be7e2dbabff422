package taxonomy

// Curated synonym and evidence tables. Everything here is normalized by
// KeywordSet.Add before matching, so accented spellings are fine.

// categorySynonyms supplements each category's label tokens with the
// vocabulary products actually use.
var categorySynonyms = map[string][]string{
	"camisetas_y_tops": {"camiseta", "camisetas", "playera", "top", "tops", "tank top"},
	"camisas_y_blusas": {"camisa", "camisas", "blusa", "blusas", "camisero", "camisera"},
	"pantalones":       {"pantalón", "pantalones", "jean", "jeans", "vaquero", "vaqueros", "chinos"},
	"faldas":           {"falda", "faldas"},
	"vestidos":         {"vestido", "vestidos"},
	"trajes_de_bano_y_playa": {
		"bañador", "bañadores", "bikini", "bikinis", "traje de baño",
		"pareo", "playa", "natación",
	},
	"calzado": {
		"calzado", "zapato", "zapatos", "bota", "botas", "botín", "botines",
		"sandalia", "sandalias", "zapatilla", "zapatillas", "tacón", "tacones",
	},
	"joyeria_y_bisuteria": {
		"joya", "joyas", "joyería", "bisutería", "collar", "collares",
		"anillo", "anillos", "pulsera", "pulseras", "pendiente", "pendientes",
	},
	"gafas_y_accesorios_opticos": {"gafas", "lentes", "montura", "monturas", "gafas de sol"},
	"bolsos_y_carteras":          {"bolso", "bolsos", "cartera", "carteras", "mochila", "bandolera", "tote"},
	"ropa_interior_y_calcetines": {
		"ropa interior", "calcetín", "calcetines", "medias",
		"boxer", "boxers", "bralette", "lencería",
	},
	"hogar": {"hogar", "manta", "mantas", "cojín", "cojines", "vela", "velas", "decoración"},
}

// subcategorySynonyms supplements specific subcategories.
var subcategorySynonyms = map[string][]string{
	"camiseta_basica":       {"básica", "lisa"},
	"camiseta_estampada":    {"estampada", "estampado", "gráfica"},
	"top_corto":             {"crop", "crop top"},
	"camiseta_de_tirantes":  {"tirantes", "tank"},
	"camisa_de_vestir":      {"de vestir", "formal"},
	"camisa_denim":          {"denim", "vaquera", "tejana"},
	"blusa_de_seda":         {"de seda", "satinada"},
	"pantalon_chino":        {"chino", "chinos"},
	"pantalon_cargo":        {"cargo", "bolsillos laterales"},
	"pantalon_de_dril":      {"dril", "de dril"},
	"jeans":                 {"jean", "vaquero", "vaqueros", "mezclilla"},
	"falda_midi":            {"midi"},
	"falda_plisada":         {"plisada", "plisado"},
	"minifalda":             {"mini"},
	"vestido_de_fiesta":     {"de fiesta", "cóctel", "gala"},
	"banador":               {"bañador", "una pieza"},
	"bikini":                {"dos piezas", "braguita"},
	"pareo":                 {"salida de playa"},
	"short_de_bano":         {"de baño", "bermuda de baño"},
	"botas":                 {"botín", "botines", "bota alta"},
	"sandalias":             {"chancla", "chanclas"},
	"zapatillas":            {"deportivas", "sneakers", "tenis"},
	"tacones":               {"stiletto", "salón"},
	"collares":              {"collar", "gargantilla", "colgante"},
	"anillos":               {"anillo", "sortija"},
	"pulseras":              {"pulsera", "brazalete"},
	"pendientes":            {"pendiente", "aretes", "aros"},
	"gafas_de_sol":          {"de sol", "polarizadas"},
	"monturas_opticas":      {"montura", "graduadas"},
	"bolso_tote":            {"tote", "shopper"},
	"bandolera":             {"crossbody", "riñonera"},
	"cartera":               {"billetera", "monedero"},
	"calcetines_tobilleros": {"tobillero", "tobilleros", "invisibles"},
	"calcetines_altos":      {"caña alta", "ejecutivos"},
	"boxers":                {"boxer", "calzoncillo", "calzoncillos"},
	"bralette":              {"sujetador", "sin aro"},
	"mantas":                {"manta", "plaid"},
	"cojines":               {"cojín", "funda de cojín"},
	"velas_aromaticas":      {"vela", "aromática", "vela perfumada"},
}

// materialPhraseWords drives the material heuristic: subcategories whose
// label names a material also get the bare material word and the
// "de <material>" phrase.
var materialPhraseWords = map[string]struct{}{
	"lino":  {},
	"seda":  {},
	"dril":  {},
	"denim": {},
}

// platingKeywords are added to every jewelry subcategory.
var platingKeywords = []string{"bañado en oro", "bañado en plata", "chapado en oro", "chapado en plata"}

// ankleKeywords disambiguate sock-like subcategories.
var ankleKeywords = []string{"tobillera", "tobillero"}

// genericCategoryTokens are category-generic head nouns stripped from the
// sets used for subcategory evidence gating. A shared head noun like
// "pantalón" must not justify moving between unrelated subcategories.
var genericCategoryTokens = map[string][]string{
	"camisetas_y_tops":           {"top", "tops", "camiseta", "camisetas"},
	"camisas_y_blusas":           {"camisa", "camisas", "blusa", "blusas"},
	"pantalones":                 {"pantalón", "pantalones"},
	"faldas":                     {"falda", "faldas"},
	"vestidos":                   {"vestido", "vestidos"},
	"trajes_de_bano_y_playa":     {"playa"},
	"calzado":                    {"calzado", "zapato", "zapatos"},
	"joyeria_y_bisuteria":        {"joya", "joyas", "joyería"},
	"gafas_y_accesorios_opticos": {"gafas"},
	"bolsos_y_carteras":          {"bolso", "bolsos"},
	"ropa_interior_y_calcetines": {"calcetín", "calcetines"},
	"hogar":                      {"hogar"},
}

// requiredCategoryEvidence gates moves into a category: without at least one
// of these keywords in the evidence text, the move is vetoed regardless of
// score.
var requiredCategoryEvidence = map[string][]string{
	"camisetas_y_tops": {"camiseta", "playera", "top", "tank top"},
	"camisas_y_blusas": {"camisa", "blusa", "camisero"},
	"pantalones":       {"pantalón", "jean", "vaquero", "chino", "mezclilla"},
	"faldas":           {"falda"},
	"vestidos":         {"vestido"},
	"trajes_de_bano_y_playa": {
		"bañador", "bikini", "traje de baño", "natación", "pareo", "short de baño",
	},
	"calzado": {
		"bota", "botas", "botín", "zapato", "zapatos", "sandalia", "sandalias",
		"zapatilla", "zapatillas", "tacón", "tacones",
	},
	"joyeria_y_bisuteria": {
		"collar", "anillo", "pulsera", "pendiente", "joya",
		"bañado en oro", "bañado en plata",
	},
	"gafas_y_accesorios_opticos": {"gafas", "montura", "lentes"},
	"bolsos_y_carteras":          {"bolso", "cartera", "mochila", "bandolera", "tote"},
	"ropa_interior_y_calcetines": {
		"calcetín", "calcetines", "boxer", "bralette", "ropa interior", "medias",
	},
	"hogar": {"manta", "cojín", "vela"},
}

// genderCues map each gender to its explicit cue words and phrases.
var genderCues = map[string][]string{
	"femenino":          {"mujer", "mujeres", "dama", "femenino", "femenina", "para ella"},
	"masculino":         {"hombre", "hombres", "caballero", "masculino", "masculina", "para él"},
	"nino":              {"niño", "niños", "para niño"},
	"nina":              {"niña", "niñas", "para niña"},
	"bebe":              {"bebé", "bebés", "recién nacido"},
	"no_binario_unisex": {"unisex", "sin género", "neutro"},
}

// neutralProneCategories are categories where gender moves need near-certain
// confidence because products are usually genderless.
var neutralProneCategories = map[string]struct{}{
	"hogar":                      {},
	"gafas_y_accesorios_opticos": {},
}

// childImplausibleCategories are categories where a child/infant gender is
// implausible and requires near-certain confidence.
var childImplausibleCategories = map[string]struct{}{
	"joyeria_y_bisuteria":        {},
	"gafas_y_accesorios_opticos": {},
}

// childGenders are the child/infant gender values.
var childGenders = map[string]struct{}{
	"nino": {},
	"nina": {},
	"bebe": {},
}

// NeutralGender is the gender value that is expensive to move away from.
const NeutralGender = "no_binario_unisex"
