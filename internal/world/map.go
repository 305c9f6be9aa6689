package world

import (
	"fmt"
	"sort"
)

// Map holds the complete hex grid.
type Map struct {
	Hexes  map[HexCoord]*Hex `json:"-"`
	Radius int               `json:"radius"`
}

// NewMap creates an empty map with the given radius.
// A hex grid of radius R contains hexes where max(|q|, |r|, |s|) <= R.
func NewMap(radius int) *Map {
	return &Map{
		Hexes:  make(map[HexCoord]*Hex),
		Radius: radius,
	}
}

// Get returns the hex at the given coordinate, or nil if out of bounds.
func (m *Map) Get(coord HexCoord) *Hex {
	return m.Hexes[coord]
}

// Set places a hex at the given coordinate.
func (m *Map) Set(hex *Hex) {
	m.Hexes[hex.Coord] = hex
}

// InBounds returns true if the coordinate is within the map radius.
func (m *Map) InBounds(coord HexCoord) bool {
	return max(abs(coord.Q), abs(coord.R), abs(coord.S())) <= m.Radius
}

// Coords returns every coordinate in stable order.
func (m *Map) Coords() []HexCoord {
	out := make([]HexCoord, 0, len(m.Hexes))
	for c := range m.Hexes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// HexCount returns the total number of hexes in the map.
func (m *Map) HexCount() int {
	return len(m.Hexes)
}

func (m *Map) String() string {
	return fmt.Sprintf("Map(radius=%d, hexes=%d)", m.Radius, m.HexCount())
}
