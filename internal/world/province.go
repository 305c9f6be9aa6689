package world

// CountryID, ProvinceID and SiteID are stable registry keys. Entities refer
// to each other only through these, never through pointers.
type (
	CountryID  uint32
	ProvinceID uint32
	SiteID     uint32
)

// SiteKind categorizes what a site does.
type SiteKind uint8

const (
	SiteSettlement SiteKind = iota // Houses population
	SiteFarm                       // Produces food
	SiteWorkshop                   // Converts inputs into goods
	SiteMine                       // Extracts ore
)

// Site is a building slot inside a province. Output and Input are per-turn
// flows keyed by commodity ID.
type Site struct {
	ID       SiteID           `json:"id"`
	Name     string           `json:"name"`
	Kind     SiteKind         `json:"kind"`
	Built    bool             `json:"built"`
	Progress int64            `json:"progress"`
	Cost     int64            `json:"cost"` // Construction turns
	Housing  int64            `json:"housing"`
	FreeFood int64            `json:"free_food"`
	PopClass string           `json:"pop_class"` // Default class of units created here
	Output   map[string]int64 `json:"output,omitempty"`
	Input    map[string]int64 `json:"input,omitempty"`
}

// IsSettlement reports whether the site can host population units.
func (s *Site) IsSettlement() bool {
	return s.Built && s.Housing > 0
}

// Province is a owned region holding sites.
type Province struct {
	ID       ProvinceID `json:"id"`
	Name     string     `json:"name"`
	Owner    CountryID  `json:"owner"`
	Position HexCoord   `json:"position"`
	Sites    []*Site    `json:"sites"`
}

// Site returns the site with the given ID, or nil.
func (p *Province) Site(id SiteID) *Site {
	for _, s := range p.Sites {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Settlements returns the built sites that can host population.
func (p *Province) Settlements() []*Site {
	var out []*Site
	for _, s := range p.Sites {
		if s.IsSettlement() {
			out = append(out, s)
		}
	}
	return out
}

// Housing is the total housing capacity of built settlements.
func (p *Province) Housing() int64 {
	var total int64
	for _, s := range p.Settlements() {
		total += s.Housing
	}
	return total
}

// FreeFood is the food consumption covered by built sites this turn.
func (p *Province) FreeFood() int64 {
	var total int64
	for _, s := range p.Sites {
		if s.Built {
			total += s.FreeFood
		}
	}
	return total
}

// AdvanceConstruction moves every unbuilt site one step forward and returns
// the sites that completed.
func (p *Province) AdvanceConstruction() []*Site {
	var done []*Site
	for _, s := range p.Sites {
		if s.Built {
			continue
		}
		s.Progress++
		if s.Progress >= s.Cost {
			s.Built = true
			done = append(done, s)
		}
	}
	return done
}

// Flows sums the output and input of built sites.
func (p *Province) Flows() (output, input map[string]int64) {
	output = make(map[string]int64)
	input = make(map[string]int64)
	for _, s := range p.Sites {
		if !s.Built {
			continue
		}
		for c, q := range s.Output {
			output[c] += q
		}
		for c, q := range s.Input {
			input[c] += q
		}
	}
	return output, input
}
