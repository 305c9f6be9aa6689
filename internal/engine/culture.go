// Cultural drift: population units slowly adopt derived cultures.
package engine

import (
	"github.com/talgya/mini-realm/internal/pops"
	"github.com/talgya/mini-realm/internal/social"
)

// randSource is the part of *rand.Rand cultural drift draws from.
type randSource interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// processCulture gives every unit of c one chance to drift.
func (s *Simulation) processCulture(c *social.Country) {
	changed := 0
	for _, u := range s.countryUnits(c) {
		var cands []string
		for _, d := range s.derivations[u.Culture] {
			if d.cond.Check(u) {
				cands = append(cands, d.target)
			}
		}
		if deriveCulture(s.rng, u, cands, c.PrimaryCulture) {
			changed++
		}
	}
	if changed > 0 {
		s.EmitEvent(Event{
			Country:     c.ID,
			Title:       "Cultural shift",
			Description: "population units of " + c.Name + " adopted a new culture",
			Category:    "culture",
			Meta:        map[string]any{"country_id": c.ID, "units": changed},
		})
	}
}

// deriveCulture tests the candidates in random order, each with a 1% chance
// (2% when it is the primary culture). The first success reassigns the unit
// to a uniformly random candidate of the whole set, which need not be the
// one that was tested.
func deriveCulture(rng randSource, u *pops.Unit, cands []string, primary string) bool {
	if len(cands) == 0 {
		return false
	}
	order := append([]string(nil), cands...)
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	for _, cand := range order {
		chance := 1
		if cand == primary {
			chance = 2
		}
		if rng.IntN(100) < chance {
			u.Culture = cands[rng.IntN(len(cands))]
			return true
		}
	}
	return false
}
