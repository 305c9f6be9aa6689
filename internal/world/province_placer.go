// Province placement: scores land hexes and seeds initial provinces.
package world

import (
	"math/rand"
	"sort"
)

// ProvinceSeed holds the parameters for an initial province placement.
type ProvinceSeed struct {
	Coord HexCoord
	Score float64
	Name  string
}

// PlaceProvinces picks up to count land hexes, best first, at least minDist apart.
// Ties are broken by coordinate so the result depends only on the map and seed.
func PlaceProvinces(m *Map, seed int64, count, minDist int) []ProvinceSeed {
	rng := rand.New(rand.NewSource(seed + 200))

	var candidates []ProvinceSeed
	for _, coord := range m.Coords() {
		hex := m.Get(coord)
		if hex.Terrain == TerrainOcean {
			continue
		}
		if s := provinceScore(m, coord, hex); s > 0 {
			candidates = append(candidates, ProvinceSeed{Coord: coord, Score: s})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})

	var seeds []ProvinceSeed
	for _, c := range candidates {
		if len(seeds) >= count {
			break
		}
		if tooClose(c.Coord, seeds, minDist) {
			continue
		}
		seeds = append(seeds, c)
	}

	names := generateNames(rng, len(seeds))
	for i := range seeds {
		seeds[i].Name = names[i]
	}
	return seeds
}

// provinceScore prefers fertile land with varied neighbors.
func provinceScore(m *Map, coord HexCoord, hex *Hex) float64 {
	score := hex.Fertility * 4
	terrainTypes := make(map[Terrain]bool)
	for _, nc := range coord.Neighbors() {
		nh := m.Get(nc)
		if nh != nil && nh.Terrain != TerrainOcean {
			terrainTypes[nh.Terrain] = true
		}
	}
	score += float64(len(terrainTypes)) * 0.3
	if hex.Terrain == TerrainCoast {
		score += 0.5
	}
	return score
}

func tooClose(coord HexCoord, existing []ProvinceSeed, minDist int) bool {
	for _, s := range existing {
		if Distance(coord, s.Coord) < minDist {
			return true
		}
	}
	return false
}

// generateNames produces procedural names by combining syllables.
func generateNames(rng *rand.Rand, count int) []string {
	prefixes := []string{
		"Iron", "Green", "Ash", "Stone", "Mill", "Cross", "Black",
		"Silver", "Red", "White", "Dark", "Bright", "High", "Low",
		"Old", "New", "Far", "Deep", "Long", "Broad", "Gold", "Frost",
	}
	suffixes := []string{
		"march", "ford", "hollow", "wick", "mere", "gate", "keep",
		"stead", "wood", "field", "dale", "crest", "vale", "port",
		"land", "bury", "moor", "reach", "helm", "shire",
	}

	used := make(map[string]bool)
	names := make([]string, 0, count)
	for len(names) < count {
		name := prefixes[rng.Intn(len(prefixes))] + suffixes[rng.Intn(len(suffixes))]
		if len(used) >= len(prefixes)*len(suffixes) {
			name = name + "-" + string(rune('a'+len(names)%26))
		}
		if !used[name] {
			used[name] = true
			names = append(names, name)
		}
	}
	return names
}
