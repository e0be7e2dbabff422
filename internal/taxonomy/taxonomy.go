package taxonomy

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Taxonomy maps each category to its allowed subcategories, plus the flat set
// of valid genders. It is immutable during a run.
type Taxonomy struct {
	Categories map[string][]string `yaml:"categories"`
	Genders    []string            `yaml:"genders"`
}

// Load parses a taxonomy definition from YAML.
func Load(data []byte) (Taxonomy, error) {
	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return Taxonomy{}, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	if err := tax.Validate(); err != nil {
		return Taxonomy{}, err
	}
	return tax, nil
}

// LoadFile reads and parses a taxonomy definition file.
func LoadFile(path string) (Taxonomy, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return Taxonomy{}, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	return Load(data)
}

// Validate checks structural invariants: non-empty categories, no
// subcategory owned by two categories, no duplicate genders.
func (t Taxonomy) Validate() error {
	if len(t.Categories) == 0 {
		return fmt.Errorf("taxonomy has no categories")
	}
	if len(t.Genders) == 0 {
		return fmt.Errorf("taxonomy has no genders")
	}

	owner := make(map[string]string)
	for cat, subs := range t.Categories {
		if cat == "" {
			return fmt.Errorf("taxonomy has an empty category name")
		}
		for _, sub := range subs {
			if sub == "" {
				return fmt.Errorf("category %q has an empty subcategory name", cat)
			}
			if prev, ok := owner[sub]; ok {
				return fmt.Errorf("subcategory %q belongs to both %q and %q", sub, prev, cat)
			}
			owner[sub] = cat
		}
	}

	seen := make(map[string]struct{}, len(t.Genders))
	for _, g := range t.Genders {
		if g == "" {
			return fmt.Errorf("taxonomy has an empty gender")
		}
		if _, dup := seen[g]; dup {
			return fmt.Errorf("duplicate gender %q", g)
		}
		seen[g] = struct{}{}
	}
	return nil
}

// CategoryNames returns the categories in sorted order for deterministic
// iteration.
func (t Taxonomy) CategoryNames() []string {
	names := make([]string, 0, len(t.Categories))
	for cat := range t.Categories {
		names = append(names, cat)
	}
	sort.Strings(names)
	return names
}

// IsValidGender reports whether g is in the taxonomy's gender set.
func (t Taxonomy) IsValidGender(g string) bool {
	for _, valid := range t.Genders {
		if valid == g {
			return true
		}
	}
	return false
}

// Default returns the built-in catalog taxonomy. Deployments can override it
// with a YAML file via LoadFile.
func Default() Taxonomy {
	return Taxonomy{
		Categories: map[string][]string{
			"camisetas_y_tops":           {"camiseta_basica", "camiseta_estampada", "top_corto", "camiseta_de_tirantes"},
			"camisas_y_blusas":           {"camisa_de_lino", "camisa_de_vestir", "camisa_denim", "blusa_de_seda"},
			"pantalones":                 {"pantalon_chino", "pantalon_cargo", "pantalon_de_dril", "jeans"},
			"faldas":                     {"falda_midi", "falda_plisada", "minifalda"},
			"vestidos":                   {"vestido_casual", "vestido_de_fiesta", "vestido_midi"},
			"trajes_de_bano_y_playa":     {"banador", "bikini", "pareo", "short_de_bano"},
			"calzado":                    {"botas", "sandalias", "zapatillas", "tacones"},
			"joyeria_y_bisuteria":        {"collares", "anillos", "pulseras", "pendientes"},
			"gafas_y_accesorios_opticos": {"gafas_de_sol", "monturas_opticas"},
			"bolsos_y_carteras":          {"bolso_tote", "bandolera", "mochila", "cartera"},
			"ropa_interior_y_calcetines": {"calcetines_tobilleros", "calcetines_altos", "boxers", "bralette"},
			"hogar":                      {"mantas", "cojines", "velas_aromaticas"},
		},
		Genders: []string{
			"femenino",
			"masculino",
			"nino",
			"nina",
			"bebe",
			"no_binario_unisex",
		},
	}
}
