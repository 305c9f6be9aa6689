// Package defs is the read-only definition database: commodity flags and
// prices, population types, cultures, unit types, technologies and game rules.
// The simulation reads it and never writes to it after Prepare.
package defs

import (
	"github.com/talgya/mini-realm/internal/errx"
)

// Commodity is an immutable commodity definition.
type Commodity struct {
	ID                  string `yaml:"id" mapstructure:"id"`
	Name                string `yaml:"name" mapstructure:"name"`
	Price               int64  `yaml:"price" mapstructure:"price"`
	Storable            bool   `yaml:"storable" mapstructure:"storable"`
	Tradeable           bool   `yaml:"tradeable" mapstructure:"tradeable"`
	Food                bool   `yaml:"food" mapstructure:"food"`
	Abstract            bool   `yaml:"abstract" mapstructure:"abstract"`
	NegativeAllowed     bool   `yaml:"negative_allowed" mapstructure:"negative_allowed"`
	ConvertibleToWealth bool   `yaml:"convertible_to_wealth" mapstructure:"convertible_to_wealth"`
	WealthRate          int64  `yaml:"wealth_rate" mapstructure:"wealth_rate"`
	Enabled             bool   `yaml:"enabled" mapstructure:"enabled"`
}

// PopType describes what one population unit of this type produces and eats.
// OutputAmount and FoodConsumption are per point of unit size.
type PopType struct {
	ID              string `yaml:"id" mapstructure:"id"`
	Class           string `yaml:"class" mapstructure:"class"`
	Output          string `yaml:"output" mapstructure:"output"`
	OutputAmount    int64  `yaml:"output_amount" mapstructure:"output_amount"`
	Labor           bool   `yaml:"labor" mapstructure:"labor"` // Output is an instantaneous labor commodity
	FoodConsumption int64  `yaml:"food_consumption" mapstructure:"food_consumption"`
}

// Derivation lets units of a culture drift into Target when Condition (a Lua
// expression over the unit) holds. An empty condition always holds.
type Derivation struct {
	Target    string `yaml:"target" mapstructure:"target"`
	Condition string `yaml:"condition" mapstructure:"condition"`
}

type Culture struct {
	ID          string            `yaml:"id" mapstructure:"id"`
	Name        string            `yaml:"name" mapstructure:"name"`
	PopTypes    map[string]string `yaml:"pop_types" mapstructure:"pop_types"` // class → pop type
	Derivations []Derivation      `yaml:"derivations" mapstructure:"derivations"`
}

// UnitKind separates the three recruitment queues.
type UnitKind string

const (
	UnitMilitary    UnitKind = "military"
	UnitCivilian    UnitKind = "civilian"
	UnitTransporter UnitKind = "transporter"
)

type UnitType struct {
	ID     string           `yaml:"id" mapstructure:"id"`
	Kind   UnitKind         `yaml:"kind" mapstructure:"kind"`
	Upkeep int64            `yaml:"upkeep" mapstructure:"upkeep"` // Wealth per turn
	Cost   map[string]int64 `yaml:"cost" mapstructure:"cost"`
	Speed  int              `yaml:"speed" mapstructure:"speed"`
}

type Technology struct {
	ID   string `yaml:"id" mapstructure:"id"`
	Name string `yaml:"name" mapstructure:"name"`
	Cost int64  `yaml:"cost" mapstructure:"cost"`
}

// Rules are the game-rule constants.
type Rules struct {
	VassalTaxRate     int64  `yaml:"vassal_tax_rate" mapstructure:"vassal_tax_rate"` // percent
	GrowthThreshold   int64  `yaml:"growth_threshold" mapstructure:"growth_threshold"`
	SpawnSize         int64  `yaml:"spawn_size" mapstructure:"spawn_size"`
	OpinionMin        int64  `yaml:"opinion_min" mapstructure:"opinion_min"`
	OpinionMax        int64  `yaml:"opinion_max" mapstructure:"opinion_max"`
	PrestigeCommodity string `yaml:"prestige_commodity" mapstructure:"prestige_commodity"`
	ResearchCommodity string `yaml:"research_commodity" mapstructure:"research_commodity"`
	ProvinceTaxRate   int64  `yaml:"province_tax_rate" mapstructure:"province_tax_rate"` // percent of pop size
	MortalityAge      int    `yaml:"mortality_age" mapstructure:"mortality_age"`
	DefaultCapacity   int64  `yaml:"default_capacity" mapstructure:"default_capacity"`
}

// Database holds every definition. Call Prepare before use.
type Database struct {
	Commodities  []Commodity  `yaml:"commodities" mapstructure:"commodities"`
	PopTypes     []PopType    `yaml:"pop_types" mapstructure:"pop_types"`
	Cultures     []Culture    `yaml:"cultures" mapstructure:"cultures"`
	Religions    []string     `yaml:"religions" mapstructure:"religions"`
	Phenotypes   []string     `yaml:"phenotypes" mapstructure:"phenotypes"`
	UnitTypes    []UnitType   `yaml:"unit_types" mapstructure:"unit_types"`
	Technologies []Technology `yaml:"technologies" mapstructure:"technologies"`
	Rules        Rules        `yaml:"rules" mapstructure:"rules"`

	commodityIdx map[string]int
	popTypeIdx   map[string]int
	cultureIdx   map[string]int
	unitTypeIdx  map[string]int
	techIdx      map[string]int
}

// Prepare builds the lookup indexes and validates every cross reference.
// Unresolved references are content errors.
func (db *Database) Prepare() error {
	db.commodityIdx = make(map[string]int, len(db.Commodities))
	for i, c := range db.Commodities {
		if _, dup := db.commodityIdx[c.ID]; dup {
			return errx.Content("duplicate commodity %q", c.ID)
		}
		db.commodityIdx[c.ID] = i
	}
	db.popTypeIdx = make(map[string]int, len(db.PopTypes))
	for i, p := range db.PopTypes {
		db.popTypeIdx[p.ID] = i
		if p.Output != "" {
			if _, ok := db.commodityIdx[p.Output]; !ok {
				return errx.Content("pop type %q outputs unknown commodity %q", p.ID, p.Output)
			}
		}
	}
	db.cultureIdx = make(map[string]int, len(db.Cultures))
	for i, c := range db.Cultures {
		db.cultureIdx[c.ID] = i
	}
	for _, c := range db.Cultures {
		for class, pt := range c.PopTypes {
			if _, ok := db.popTypeIdx[pt]; !ok {
				return errx.Content("culture %q maps class %q to unknown pop type %q", c.ID, class, pt)
			}
		}
		for _, d := range c.Derivations {
			if _, ok := db.cultureIdx[d.Target]; !ok {
				return errx.Content("culture %q derives unknown culture %q", c.ID, d.Target)
			}
		}
	}
	db.unitTypeIdx = make(map[string]int, len(db.UnitTypes))
	for i, u := range db.UnitTypes {
		db.unitTypeIdx[u.ID] = i
		for c := range u.Cost {
			if _, ok := db.commodityIdx[c]; !ok {
				return errx.Content("unit type %q costs unknown commodity %q", u.ID, c)
			}
		}
	}
	db.techIdx = make(map[string]int, len(db.Technologies))
	for i, t := range db.Technologies {
		db.techIdx[t.ID] = i
	}
	for _, ref := range []string{db.Rules.PrestigeCommodity, db.Rules.ResearchCommodity} {
		if ref == "" {
			continue
		}
		if _, ok := db.commodityIdx[ref]; !ok {
			return errx.Content("rules reference unknown commodity %q", ref)
		}
	}
	if db.Rules.GrowthThreshold <= 0 {
		return errx.Content("growth threshold must be positive, got %d", db.Rules.GrowthThreshold)
	}
	if db.Rules.VassalTaxRate < 0 || db.Rules.VassalTaxRate > 100 {
		return errx.Content("vassal tax rate must be within [0,100], got %d", db.Rules.VassalTaxRate)
	}
	if db.Rules.ProvinceTaxRate < 0 {
		return errx.Content("province tax rate must not be negative, got %d", db.Rules.ProvinceTaxRate)
	}
	if db.Rules.OpinionMax <= db.Rules.OpinionMin {
		return errx.Content("opinion range [%d,%d] is empty", db.Rules.OpinionMin, db.Rules.OpinionMax)
	}
	return nil
}

func (db *Database) Commodity(id string) (Commodity, bool) {
	i, ok := db.commodityIdx[id]
	if !ok {
		return Commodity{}, false
	}
	return db.Commodities[i], true
}

func (db *Database) PopType(id string) (PopType, bool) {
	i, ok := db.popTypeIdx[id]
	if !ok {
		return PopType{}, false
	}
	return db.PopTypes[i], true
}

func (db *Database) Culture(id string) (Culture, bool) {
	i, ok := db.cultureIdx[id]
	if !ok {
		return Culture{}, false
	}
	return db.Cultures[i], true
}

func (db *Database) UnitType(id string) (UnitType, bool) {
	i, ok := db.unitTypeIdx[id]
	if !ok {
		return UnitType{}, false
	}
	return db.UnitTypes[i], true
}

func (db *Database) Technology(id string) (Technology, bool) {
	i, ok := db.techIdx[id]
	if !ok {
		return Technology{}, false
	}
	return db.Technologies[i], true
}
