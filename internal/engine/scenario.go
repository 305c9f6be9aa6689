// Scenario setup: builds a fresh realm from a generated map.
package engine

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/logs"
	"github.com/talgya/mini-realm/internal/pops"
	"github.com/talgya/mini-realm/internal/social"
	"github.com/talgya/mini-realm/internal/world"
)

// ScenarioConfig controls fresh scenario generation.
type ScenarioConfig struct {
	Seed                int64
	Countries           int
	MapRadius           int
	ProvincesPerCountry int
}

var countryNames = []string{
	"Avel", "Brennmark", "Corvath", "Dunmere", "Estrel", "Falkreach",
	"Galdor", "Hollin", "Istmark", "Jorvale", "Kestrel", "Lothmere",
}

var characterNames = []string{
	"Aldric", "Berin", "Cassia", "Doran", "Elna", "Fenwick", "Gisla",
	"Harald", "Ilse", "Jorund", "Katla", "Leofric", "Maren", "Osric",
}

// NewScenario generates a map, places provinces, and founds countries with
// their starting population, stock, court, relations and objectives.
// The same seed always yields the same scenario.
func NewScenario(db *defs.Database, cfg ScenarioConfig) (*Simulation, error) {
	if cfg.Countries <= 0 {
		return nil, errx.Content("scenario needs at least one country, got %d", cfg.Countries)
	}
	if cfg.ProvincesPerCountry <= 0 {
		cfg.ProvincesPerCountry = 2
	}

	gen := world.DefaultGenConfig()
	gen.Seed = cfg.Seed
	if cfg.MapRadius > 0 {
		gen.Radius = cfg.MapRadius
	}
	m := world.Generate(gen)

	seeds := world.PlaceProvinces(m, cfg.Seed, cfg.Countries*cfg.ProvincesPerCountry, 2)
	if len(seeds) < cfg.Countries {
		return nil, errx.Content("map fits %d provinces, need at least %d", len(seeds), cfg.Countries)
	}

	s, err := NewSimulation(db, m, uint64(cfg.Seed))
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed + 400))
	spawner := pops.NewSpawner(db, cfg.Seed)

	// ── Countries ──────────────────────────────────────────────────────
	for i := 0; i < cfg.Countries; i++ {
		id := world.CountryID(i + 1)
		name := fmt.Sprintf("Realm %d", id)
		if i < len(countryNames) {
			name = countryNames[i]
		}
		c := social.NewCountry(id, name, s.NewLedger(id), db.Rules.OpinionMin, db.Rules.OpinionMax)
		c.Government = social.GovernanceType(i % 4)
		if len(db.Cultures) > 0 {
			c.PrimaryCulture = db.Cultures[i%len(db.Cultures)].ID
		}
		if err := s.AddCountry(c); err != nil {
			return nil, err
		}
	}

	// ── Provinces, sites and population ───────────────────────────────
	for i, seed := range seeds {
		owner := world.CountryID(i%cfg.Countries + 1)
		pid := world.ProvinceID(i + 1)
		hex := m.Get(seed.Coord)
		hex.ProvinceID = &pid

		p := &world.Province{ID: pid, Name: seed.Name, Owner: owner, Position: seed.Coord, Sites: sitesFor(hex)}
		if err := s.AddProvince(p); err != nil {
			return nil, err
		}
		c, _ := s.Country(owner)
		culture, _ := db.Culture(c.PrimaryCulture)
		for _, site := range p.Settlements() {
			for _, u := range spawner.SpawnSettlement(pid, site.ID, culture, hex.Terrain) {
				s.Pops.Add(u)
			}
		}
	}

	// ── Court, stock and objectives ───────────────────────────────────
	for _, c := range s.Countries() {
		if err := s.foundCountry(c, rng, spawner); err != nil {
			return nil, errx.Wrap(err, "found country", "country", c.ID)
		}
	}

	// ── Relations: everyone knows everyone, chains of vassals ─────────
	countries := s.Countries()
	for i, c := range countries {
		for _, other := range countries {
			if other.ID == c.ID {
				continue
			}
			c.Relations.AddKnown(other.ID)
			c.Relations.ChangeBaseOpinion(other.ID, int64(rng.Intn(41)-20))
		}
		// Every first country of a group of three is a liege; the next two
		// form a chain beneath it.
		if i%3 != 0 {
			c.Relations.SetOverlord(countries[i-1].ID)
		}
	}

	s.updateStats()
	logs.Info("scenario ready",
		zap.String("session", s.SessionID),
		zap.Int("countries", len(countries)),
		zap.Int("provinces", len(seeds)),
		zap.Int("units", s.Pops.Len()),
		zap.Int("hexes", m.HexCount()),
	)
	return s, nil
}

// sitesFor lays out the sites of a province founded on hex. Every province
// has a settlement and a farm; terrain adds a mine, a fishery or a lumber
// camp; plains start a workshop under construction.
func sitesFor(hex *world.Hex) []*world.Site {
	fert := int64(hex.Fertility * 10)
	class := "peasant"
	if hex.Terrain == world.TerrainCoast {
		class = "coastal"
	}
	sites := []*world.Site{
		{ID: 1, Name: "Town", Kind: world.SiteSettlement, Built: true, Housing: 24 + fert*2, FreeFood: 2, PopClass: class},
		{ID: 2, Name: "Fields", Kind: world.SiteFarm, Built: true, Output: map[string]int64{"grain": 4 + fert}},
	}
	switch hex.Terrain {
	case world.TerrainMountain:
		sites = append(sites, &world.Site{ID: 3, Name: "Mine", Kind: world.SiteMine, Built: true, Output: map[string]int64{"iron": 3, "gold": 1}})
	case world.TerrainCoast:
		sites = append(sites, &world.Site{ID: 3, Name: "Harbor", Kind: world.SiteFarm, Built: true, Output: map[string]int64{"fish": 4}})
	case world.TerrainForest:
		sites = append(sites, &world.Site{ID: 3, Name: "Lumber camp", Kind: world.SiteWorkshop, Built: true, Output: map[string]int64{"timber": 3}})
	case world.TerrainPlains:
		sites = append(sites, &world.Site{ID: 3, Name: "Smithy", Kind: world.SiteWorkshop, Cost: 6, Output: map[string]int64{"tools": 1}, Input: map[string]int64{"iron": 1}})
	}
	return sites
}

// foundCountry gives c its court, starting stock, trade policy, modifiers,
// journal and recruitment orders.
func (s *Simulation) foundCountry(c *social.Country, rng *rand.Rand, spawner *pops.Spawner) error {
	for i := 0; i < 3; i++ {
		c.Characters = append(c.Characters, &social.Character{
			ID:   social.CharacterID(i + 1),
			Name: characterNames[spawner.Intn(len(characterNames))],
			Age:  spawner.WeightedAge(),
		})
	}
	c.Ruler = 1

	start := map[string]int64{"grain": 80, "timber": 20, "iron": 10}
	for _, id := range sortedKeys(start) {
		if _, ok := s.Defs.Commodity(id); !ok {
			continue
		}
		if err := c.Economy.SetStored(id, start[id]); err != nil {
			return err
		}
	}
	if prestige, ok := s.prestigeCommodity(); ok {
		if err := c.Economy.SetStored(prestige, int64(rng.Intn(50))); err != nil {
			return err
		}
	}
	c.Economy.AddWealth(200)

	c.Trade = &social.TradePolicy{
		Reserve: map[string]int64{"grain": 120, "fish": 40, "timber": 30, "iron": 20, "tools": 10},
		Target:  map[string]int64{"iron": 15, "tools": 5},
	}

	c.Modifiers = append(c.Modifiers,
		&social.Modifier{ID: "royal_charter", Source: `return { prestige = 1 }`, Multiplier: 1, TurnsLeft: -1},
		&social.Modifier{ID: "harvest_festival", Source: `return { grain = 5 }`, Multiplier: 1, TurnsLeft: 6},
	)
	c.Journal = append(c.Journal,
		&social.JournalEntry{ID: "granary", Title: "Full Granaries", Condition: `country.stored.grain ~= nil and country.stored.grain >= 200`},
		&social.JournalEntry{ID: "treasury", Title: "A Wealthy Crown", Condition: `country.wealth >= 1000`},
		&social.JournalEntry{ID: "learning", Title: "House of Learning", Condition: `#country.research >= 1`},
	)
	if err := s.BindScripts(c); err != nil {
		return err
	}

	if len(c.Provinces) > 0 {
		home := c.Provinces[0]
		for _, ut := range s.Defs.UnitTypes {
			c.Queue(ut.Kind).Push(social.Order{Type: ut.ID, Province: home})
		}
	}
	return nil
}
