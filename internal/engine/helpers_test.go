package engine

import (
	"testing"

	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/pops"
	"github.com/talgya/mini-realm/internal/social"
	"github.com/talgya/mini-realm/internal/world"
)

// testDefs is a small content set with round prices so expectations stay
// easy to compute by hand.
func testDefs(t *testing.T) *defs.Database {
	t.Helper()
	db := &defs.Database{
		Commodities: []defs.Commodity{
			{ID: "grain", Price: 2, Storable: true, Tradeable: true, Food: true, Enabled: true},
			{ID: "x", Price: 5, Storable: true, Tradeable: true, Enabled: true},
			{ID: "tools", Price: 12, Storable: true, Tradeable: true, Enabled: true},
			{ID: "labor", Price: 4, Abstract: true, Enabled: true},
			{ID: "research", Abstract: true, Enabled: true},
			{ID: "gold", Storable: true, ConvertibleToWealth: true, WealthRate: 10, Enabled: true},
			{ID: "prestige", Storable: true, Abstract: true, NegativeAllowed: true, Enabled: true},
		},
		PopTypes: []defs.PopType{
			{ID: "farmer", Class: "peasant", Output: "grain", OutputAmount: 3, FoodConsumption: 1},
			{ID: "worker", Class: "worker", Output: "labor", OutputAmount: 3, Labor: true, FoodConsumption: 1},
			{ID: "artisan", Class: "artisan", Output: "tools", OutputAmount: 1, FoodConsumption: 1},
			{ID: "idler", Class: "idler", FoodConsumption: 1},
		},
		Cultures: []defs.Culture{
			{ID: "a", PopTypes: map[string]string{"peasant": "farmer", "worker": "worker", "artisan": "artisan"},
				Derivations: []defs.Derivation{{Target: "b", Condition: `pop.size > 100`}}},
			{ID: "b", PopTypes: map[string]string{"peasant": "farmer"}},
		},
		Religions:  []string{"r"},
		Phenotypes: []string{"p"},
		UnitTypes: []defs.UnitType{
			{ID: "levy", Kind: defs.UnitMilitary, Upkeep: 10, Cost: map[string]int64{"x": 5}},
			{ID: "cart", Kind: defs.UnitTransporter, Upkeep: 1, Cost: map[string]int64{"x": 2}},
			{ID: "settler", Kind: defs.UnitCivilian, Upkeep: 1, Cost: map[string]int64{"grain": 10}},
		},
		Technologies: []defs.Technology{{ID: "wheel", Name: "Wheel", Cost: 10}, {ID: "bronze", Name: "Bronze", Cost: 20}},
		Rules: defs.Rules{
			VassalTaxRate:     25,
			GrowthThreshold:   100,
			SpawnSize:         1,
			OpinionMin:        -100,
			OpinionMax:        100,
			PrestigeCommodity: "prestige",
			ResearchCommodity: "research",
			ProvinceTaxRate:   50,
			MortalityAge:      60,
			DefaultCapacity:   1000,
		},
	}
	if err := db.Prepare(); err != nil {
		t.Fatalf("prepare test defs: %v", err)
	}
	return db
}

type recordingNotifier struct {
	titles []string
}

func (n *recordingNotifier) Notify(title, _, _ string) { n.titles = append(n.titles, title) }

func newTestSim(t *testing.T, db *defs.Database, countries ...world.CountryID) *Simulation {
	t.Helper()
	s, err := NewSimulation(db, world.NewMap(1), 7)
	if err != nil {
		t.Fatalf("NewSimulation: %v", err)
	}
	s.Notifier = &recordingNotifier{}
	for _, id := range countries {
		c := social.NewCountry(id, "C", s.NewLedger(id), db.Rules.OpinionMin, db.Rules.OpinionMax)
		if err := s.AddCountry(c); err != nil {
			t.Fatalf("AddCountry: %v", err)
		}
	}
	return s
}

func mustCountry(t *testing.T, s *Simulation, id world.CountryID) *social.Country {
	t.Helper()
	c, ok := s.Country(id)
	if !ok {
		t.Fatalf("country %d missing", id)
	}
	return c
}

// addSettlement gives the country a province with one settlement site per
// housing value and returns the province.
func addSettlement(t *testing.T, s *Simulation, owner world.CountryID, pid world.ProvinceID, housing ...int64) *world.Province {
	t.Helper()
	p := &world.Province{ID: pid, Owner: owner}
	for i, h := range housing {
		p.Sites = append(p.Sites, &world.Site{ID: world.SiteID(i + 1), Kind: world.SiteSettlement, Built: true, Housing: h, PopClass: "peasant"})
	}
	if err := s.AddProvince(p); err != nil {
		t.Fatalf("AddProvince: %v", err)
	}
	return p
}

func addUnit(s *Simulation, pid world.ProvinceID, site world.SiteID, typ string, size int64) *pops.Unit {
	u := &pops.Unit{Province: pid, Site: site, Type: typ, Culture: "a", Religion: "r", Phenotype: "p", Size: size}
	s.Pops.Add(u)
	return u
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
