// Initial population: seeds the units of a fresh scenario by terrain.
package pops

import (
	"math/rand"

	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/world"
)

// Spawner creates the starting units of a scenario.
type Spawner struct {
	rng *rand.Rand
	db  *defs.Database
}

func NewSpawner(db *defs.Database, seed int64) *Spawner {
	return &Spawner{rng: rand.New(rand.NewSource(seed + 300)), db: db}
}

// classMix is a population class and its starting size range.
type classMix struct {
	class    string
	min, max int64
}

// classesForTerrain lists the classes a settlement on terrain starts with.
// Every settlement gets peasants and workers.
func classesForTerrain(terrain world.Terrain) []classMix {
	mix := []classMix{{"peasant", 3, 5}, {"worker", 1, 2}}
	switch terrain {
	case world.TerrainCoast:
		mix = append(mix, classMix{"coastal", 2, 3})
	case world.TerrainForest:
		mix = append(mix, classMix{"laborer", 2, 3})
	case world.TerrainMountain:
		mix = append(mix, classMix{"miner", 2, 3})
	case world.TerrainPlains:
		mix = append(mix, classMix{"peasant", 1, 2}, classMix{"artisan", 1, 1})
	}
	return mix
}

// SpawnSettlement creates the units of one settlement site. Classes the
// culture has no pop type for are skipped; every unit shares one religion and
// phenotype drawn for the settlement.
func (s *Spawner) SpawnSettlement(p world.ProvinceID, site world.SiteID, culture defs.Culture, terrain world.Terrain) []*Unit {
	religion := s.pick(s.db.Religions)
	phenotype := s.pick(s.db.Phenotypes)

	var units []*Unit
	for _, m := range classesForTerrain(terrain) {
		t, ok := culture.PopTypes[m.class]
		if !ok {
			continue
		}
		units = append(units, &Unit{
			Province:  p,
			Site:      site,
			Type:      t,
			Culture:   culture.ID,
			Religion:  religion,
			Phenotype: phenotype,
			Size:      m.min + s.rng.Int63n(m.max-m.min+1),
		})
	}
	return units
}

// WeightedAge returns an adult age weighted toward the middle years.
func (s *Spawner) WeightedAge() int {
	r := s.rng.Float64()
	switch {
	case r < 0.2:
		return 18 + s.rng.Intn(12) // 18–29
	case r < 0.7:
		return 30 + s.rng.Intn(20) // 30–49
	default:
		return 50 + s.rng.Intn(20) // 50–69
	}
}

// Intn exposes the spawner's random source for scenario setup.
func (s *Spawner) Intn(n int) int { return s.rng.Intn(n) }

func (s *Spawner) pick(options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[s.rng.Intn(len(options))]
}
