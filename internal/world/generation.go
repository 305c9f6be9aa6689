// World generation using layered simplex noise.
// Elevation, rainfall and temperature layers derive terrain and fertility.
package world

import (
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds world generation parameters.
type GenConfig struct {
	Radius      int
	Seed        int64
	SeaLevel    float64 // Elevation threshold for ocean (0.0–1.0)
	MountainLvl float64 // Elevation threshold for mountains (0.0–1.0)
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:      8,
		Seed:        42,
		SeaLevel:    0.25,
		MountainLvl: 0.72,
	}
}

// Generate creates a world map with terrain and fertility. The same seed
// always yields the same map.
func Generate(cfg GenConfig) *Map {
	elevNoise := opensimplex.NewNormalized(cfg.Seed)
	rainNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	tempNoise := opensimplex.NewNormalized(cfg.Seed + 2)

	m := NewMap(cfg.Radius)

	for q := -cfg.Radius; q <= cfg.Radius; q++ {
		for r := -cfg.Radius; r <= cfg.Radius; r++ {
			coord := HexCoord{Q: q, R: r}
			if !m.InBounds(coord) {
				continue
			}

			// Hex axial → cartesian: x = q + r*0.5, y = r * sqrt(3)/2
			x := float64(q) + float64(r)*0.5
			y := float64(r) * math.Sqrt(3.0) / 2.0

			elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
			rain := octaveNoise(rainNoise, x, y, 3, 0.06, 0.5)
			temp := octaveNoise(tempNoise, x, y, 3, 0.05, 0.5)

			// Continental shaping: ocean border at the rim.
			distFromCenter := math.Sqrt(x*x+y*y) / float64(max(cfg.Radius, 1))
			edgeFalloff := math.Max(0, 1.0-math.Pow(distFromCenter, 3.5))
			elev *= edgeFalloff

			temp = temp*0.6 + (1.0-math.Abs(y)/float64(max(cfg.Radius, 1)))*0.3 + (1.0-elev)*0.1

			terrain := deriveTerrain(elev, rain, temp, cfg)
			m.Set(&Hex{
				Coord:       coord,
				Terrain:     terrain,
				Elevation:   elev,
				Rainfall:    rain,
				Temperature: temp,
				Fertility:   fertility(terrain, rain),
			})
		}
	}

	markCoastalHexes(m)
	return m
}

func deriveTerrain(elev, rain, temp float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainOcean
	}
	if elev > cfg.MountainLvl {
		return TerrainMountain
	}
	if temp < 0.25 {
		return TerrainTundra
	}
	if rain < 0.25 && temp > 0.5 {
		return TerrainDesert
	}
	if rain > 0.7 && elev < 0.45 {
		return TerrainSwamp
	}
	if rain > 0.45 && elev > 0.45 {
		return TerrainForest
	}
	return TerrainPlains
}

func fertility(terrain Terrain, rain float64) float64 {
	switch terrain {
	case TerrainPlains:
		return 0.6 + rain*0.4
	case TerrainCoast:
		return 0.5 + rain*0.2
	case TerrainForest:
		return 0.4
	case TerrainSwamp:
		return 0.3
	case TerrainMountain, TerrainTundra, TerrainDesert:
		return 0.15
	default:
		return 0
	}
}

// markCoastalHexes converts low plains/forest next to ocean into coast.
func markCoastalHexes(m *Map) {
	var toMark []HexCoord
	for coord, hex := range m.Hexes {
		if hex.Terrain != TerrainPlains && hex.Terrain != TerrainForest {
			continue
		}
		if hex.Elevation >= 0.5 {
			continue
		}
		for _, neighbor := range coord.Neighbors() {
			nh := m.Get(neighbor)
			if nh != nil && nh.Terrain == TerrainOcean {
				toMark = append(toMark, coord)
				break
			}
		}
	}
	for _, coord := range toMark {
		hex := m.Get(coord)
		hex.Terrain = TerrainCoast
		hex.Fertility = fertility(TerrainCoast, hex.Rainfall)
	}
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// TerrainCounts returns a summary of terrain type distribution.
func TerrainCounts(m *Map) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, hex := range m.Hexes {
		counts[hex.Terrain]++
	}
	return counts
}

// TerrainName returns a human-readable name for a terrain type.
func TerrainName(t Terrain) string {
	switch t {
	case TerrainPlains:
		return "Plains"
	case TerrainForest:
		return "Forest"
	case TerrainMountain:
		return "Mountain"
	case TerrainCoast:
		return "Coast"
	case TerrainDesert:
		return "Desert"
	case TerrainSwamp:
		return "Swamp"
	case TerrainTundra:
		return "Tundra"
	case TerrainOcean:
		return "Ocean"
	default:
		return "Unknown"
	}
}
