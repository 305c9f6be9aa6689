// Population dynamics: growth accumulation, spawning and starvation.
package engine

import (
	"fmt"

	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/pops"
	"github.com/talgya/mini-realm/internal/social"
	"github.com/talgya/mini-realm/internal/world"
)

type siteKey struct {
	province world.ProvinceID
	site     world.SiteID
}

func keyOf(u *pops.Unit) siteKey { return siteKey{u.Province, u.Site} }

// processGrowth runs one turn of population growth and starvation for c.
func (s *Simulation) processGrowth(c *social.Country) error {
	units := s.countryUnits(c)
	total := s.foodConsumption(units)
	if total == 0 {
		c.GrowthAccumulator = 0
		return nil
	}

	net := max(0, total-s.freeFood(c))
	available := s.storedFood(c) - net
	housing := max(0, s.housingSurplus(c, units))

	delta := min(available, housing)
	c.GrowthAccumulator += delta
	consume := net
	if delta > 0 {
		consume += delta // growth eats too
	}
	if err := s.consumeFood(c, consume); err != nil {
		return errx.Wrap(err, "consume food", "country", c.ID)
	}

	threshold := s.Defs.Rules.GrowthThreshold
	for c.GrowthAccumulator >= threshold {
		if _, err := s.spawnUnit(c); err != nil {
			return errx.Wrap(err, "spawn unit", "country", c.ID)
		}
		c.GrowthAccumulator -= threshold
	}

	starved := 0
	for c.GrowthAccumulator < 0 {
		units = s.countryUnits(c)
		if s.foodConsumption(units) == 0 {
			break
		}
		victim, err := s.starvationVictim(units)
		if err != nil {
			return errx.Wrap(err, "starvation", "country", c.ID)
		}
		victim.Size = 0
		if err := s.Pops.Remove(victim.ID); err != nil {
			return errx.Wrap(err, "starvation", "country", c.ID)
		}
		c.GrowthAccumulator++
		starved++
	}
	if starved > 0 {
		s.Stats.Starved += starved
		s.EmitEvent(Event{
			Country:     c.ID,
			Title:       "Famine",
			Portrait:    "famine",
			Description: fmt.Sprintf("%d population units of %s starved", starved, c.Name),
			Category:    "starvation",
			Meta:        map[string]any{"country_id": c.ID, "units": starved},
		})
	}
	return nil
}

// foodConsumption is the food the units eat per turn.
func (s *Simulation) foodConsumption(units []*pops.Unit) int64 {
	var total int64
	for _, u := range units {
		if pt, ok := s.Defs.PopType(u.Type); ok {
			total += pt.FoodConsumption * u.Size
		}
	}
	return total
}

// netFoodConsumption is what the country must eat from storage this turn.
func (s *Simulation) netFoodConsumption(c *social.Country) int64 {
	return max(0, s.foodConsumption(s.countryUnits(c))-s.freeFood(c))
}

// freeFood is the consumption covered by built sites of the country.
func (s *Simulation) freeFood(c *social.Country) int64 {
	var total int64
	for _, p := range s.countryProvinces(c) {
		total += p.FreeFood()
	}
	return total
}

// storedFood sums the storage of enabled food commodities.
func (s *Simulation) storedFood(c *social.Country) int64 {
	var total int64
	for _, com := range s.Defs.Commodities {
		if com.Food && com.Enabled {
			total += c.Economy.Stored(com.ID)
		}
	}
	return total
}

// housingSurplus is built settlement housing minus the size of every unit.
func (s *Simulation) housingSurplus(c *social.Country, units []*pops.Unit) int64 {
	var housing int64
	for _, p := range s.countryProvinces(c) {
		housing += p.Housing()
	}
	return housing - pops.TotalSize(units)
}

// consumeFood withdraws amount from food storage in definition order until
// satisfied or out of food.
func (s *Simulation) consumeFood(c *social.Country, amount int64) error {
	for _, com := range s.Defs.Commodities {
		if amount <= 0 {
			return nil
		}
		if !com.Food || !com.Enabled {
			continue
		}
		take := min(max(c.Economy.Stored(com.ID), 0), amount)
		if take == 0 {
			continue
		}
		if err := c.Economy.ChangeStored(com.ID, -take); err != nil {
			return err
		}
		c.Economy.AddInput(com.ID, take)
		amount -= take
	}
	return nil
}

// settlementSpare returns the spare housing and the site of every
// settlement of c.
func (s *Simulation) settlementSpare(c *social.Country, units []*pops.Unit) (map[siteKey]int64, map[siteKey]*world.Site) {
	spare := make(map[siteKey]int64)
	sites := make(map[siteKey]*world.Site)
	for _, p := range s.countryProvinces(c) {
		for _, site := range p.Settlements() {
			k := siteKey{p.ID, site.ID}
			spare[k] = site.Housing
			sites[k] = site
		}
	}
	for _, u := range units {
		if _, ok := spare[keyOf(u)]; ok {
			spare[keyOf(u)] -= u.Size
		}
	}
	return spare, sites
}

// spawnUnit grows the population by one unit. The source is a random unit on
// a site with spare housing; failing that any unit, and the new unit joins it
// on its own site since no populated site has room left. The new unit copies
// culture, religion and phenotype and takes the type its culture maps to the
// target site's population class. A country without units grows nothing.
func (s *Simulation) spawnUnit(c *social.Country) (*pops.Unit, error) {
	units := s.countryUnits(c)
	if len(units) == 0 {
		return nil, nil
	}
	spare, sites := s.settlementSpare(c, units)

	var eligible []*pops.Unit
	for _, u := range units {
		if spare[keyOf(u)] > 0 {
			eligible = append(eligible, u)
		}
	}
	pool := eligible
	if len(pool) == 0 {
		pool = units
	}
	src := pool[s.rng.IntN(len(pool))]
	target := keyOf(src)

	unitType := src.Type
	if site, ok := sites[target]; ok && site.PopClass != "" {
		culture, ok := s.Defs.Culture(src.Culture)
		if !ok {
			return nil, errx.Content("unknown culture %q", src.Culture).WithData("unit", src.ID)
		}
		if t, ok := culture.PopTypes[site.PopClass]; ok {
			unitType = t
		}
	}

	u := &pops.Unit{
		Province:  target.province,
		Site:      target.site,
		Type:      unitType,
		Culture:   src.Culture,
		Religion:  src.Religion,
		Phenotype: src.Phenotype,
		Size:      max(s.Defs.Rules.SpawnSize, 1),
	}
	s.Pops.Add(u)
	s.Stats.Spawned++
	return u, nil
}

// starvationVictim picks the unit to remove. A settlement's last unit is
// never taken; no other candidate is an invariant violation. Preferences
// among the rest, strongest first: not a food producer, lowest output value,
// non-labor output. Remaining ties are broken at random.
func (s *Simulation) starvationVictim(units []*pops.Unit) (*pops.Unit, error) {
	perSite := make(map[siteKey]int)
	for _, u := range units {
		perSite[keyOf(u)]++
	}
	var cands []*pops.Unit
	for _, u := range units {
		if perSite[keyOf(u)] > 1 {
			cands = append(cands, u)
		}
	}
	if len(cands) == 0 {
		return nil, errx.Invariant("no population unit eligible for starvation").WithData("units", len(units))
	}

	cands = prefer(cands, func(u *pops.Unit) bool { return !s.producesFood(u) })

	lowest := int64(-1)
	for _, u := range cands {
		if v := s.outputValue(u); lowest < 0 || v < lowest {
			lowest = v
		}
	}
	cands = prefer(cands, func(u *pops.Unit) bool { return s.outputValue(u) == lowest })
	cands = prefer(cands, func(u *pops.Unit) bool { return !s.producesLabor(u) })

	return cands[s.rng.IntN(len(cands))], nil
}

// prefer narrows units to those matching keep, unless none do.
func prefer(units []*pops.Unit, keep func(*pops.Unit) bool) []*pops.Unit {
	var out []*pops.Unit
	for _, u := range units {
		if keep(u) {
			out = append(out, u)
		}
	}
	if len(out) == 0 {
		return units
	}
	return out
}

func (s *Simulation) producesFood(u *pops.Unit) bool {
	pt, ok := s.Defs.PopType(u.Type)
	if !ok || pt.Output == "" {
		return false
	}
	com, ok := s.Defs.Commodity(pt.Output)
	return ok && com.Food
}

func (s *Simulation) producesLabor(u *pops.Unit) bool {
	pt, ok := s.Defs.PopType(u.Type)
	return ok && pt.Labor
}

// outputValue is the per-turn value of what the unit produces.
func (s *Simulation) outputValue(u *pops.Unit) int64 {
	pt, ok := s.Defs.PopType(u.Type)
	if !ok || pt.Output == "" {
		return 0
	}
	com, _ := s.Defs.Commodity(pt.Output)
	return pt.OutputAmount * u.Size * com.Price
}
