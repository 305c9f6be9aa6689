package defs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/talgya/mini-realm/internal/errx"
)

func TestDefaultPrepares(t *testing.T) {
	db := Default()
	c, ok := db.Commodity("gold")
	if !ok || !c.ConvertibleToWealth || c.WealthRate != 20 {
		t.Fatalf("gold = %+v, %v", c, ok)
	}
	cul, ok := db.Culture("lowlander")
	if !ok {
		t.Fatal("lowlander culture missing")
	}
	if pt, ok := db.PopType(cul.PopTypes["peasant"]); !ok || pt.Output != "grain" {
		t.Fatalf("lowlander peasant = %+v, %v", pt, ok)
	}
	if _, ok := db.UnitType("cart"); !ok {
		t.Fatal("cart unit type missing")
	}
	if _, ok := db.Technology("sailing"); !ok {
		t.Fatal("sailing missing")
	}
}

func TestPrepareRejectsInvalidContent(t *testing.T) {
	tests := []struct {
		name string
		db   Database
	}{
		{"pop output", Database{
			PopTypes: []PopType{{ID: "p", Output: "nope"}},
			Rules:    Rules{GrowthThreshold: 1, OpinionMax: 1},
		}},
		{"culture pop type", Database{
			Cultures: []Culture{{ID: "c", PopTypes: map[string]string{"x": "missing"}}},
			Rules:    Rules{GrowthThreshold: 1, OpinionMax: 1},
		}},
		{"derivation target", Database{
			Cultures: []Culture{{ID: "c", Derivations: []Derivation{{Target: "ghost"}}}},
			Rules:    Rules{GrowthThreshold: 1, OpinionMax: 1},
		}},
		{"rules commodity", Database{
			Rules: Rules{GrowthThreshold: 1, OpinionMax: 1, PrestigeCommodity: "fame"},
		}},
		{"threshold", Database{Rules: Rules{OpinionMax: 1}}},
		{"opinion range", Database{Rules: Rules{GrowthThreshold: 1}}},
		{"vassal tax above 100", Database{Rules: Rules{GrowthThreshold: 1, OpinionMax: 1, VassalTaxRate: 101}}},
		{"negative vassal tax", Database{Rules: Rules{GrowthThreshold: 1, OpinionMax: 1, VassalTaxRate: -5}}},
		{"negative province tax", Database{Rules: Rules{GrowthThreshold: 1, OpinionMax: 1, ProvinceTaxRate: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.db.Prepare()
			if !errors.Is(err, errx.ErrContent) {
				t.Fatalf("got %v, want content error", err)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "content.yml")
	content := `
commodities:
  - id: grain
    price: 2
    storable: true
    tradeable: true
    food: true
    enabled: true
pop_types:
  - id: farmer
    class: peasant
    output: grain
    output_amount: 3
    food_consumption: 1
cultures:
  - id: plains
    pop_types:
      peasant: farmer
unit_types:
  - id: levy
    kind: military
    upkeep: 1
    cost:
      grain: 5
rules:
  vassal_tax_rate: 10
  growth_threshold: 50
  spawn_size: 2
  opinion_min: -10
  opinion_max: 10
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}
	db, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if db.Rules.VassalTaxRate != 10 || db.Rules.SpawnSize != 2 {
		t.Fatalf("rules = %+v", db.Rules)
	}
	c, ok := db.Culture("plains")
	if !ok || c.PopTypes["peasant"] != "farmer" {
		t.Fatalf("plains = %+v, %v", c, ok)
	}
	u, _ := db.UnitType("levy")
	if u.Kind != UnitMilitary || u.Cost["grain"] != 5 {
		t.Fatalf("levy = %+v", u)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
