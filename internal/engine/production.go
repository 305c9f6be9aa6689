// Production and consumption: site and population flows become ledger deltas.
package engine

import (
	"github.com/talgya/mini-realm/internal/economy"
	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/social"
)

// processProduction resolves the country's flows, posts demand and trade
// policy, then clears its offers against known countries.
func (s *Simulation) processProduction(c *social.Country) error {
	output, input, err := s.countryFlows(c)
	if err != nil {
		return errx.Wrap(err, "production", "country", c.ID)
	}
	if err := ResolveFlows(c.Economy, s.Defs, output, input); err != nil {
		return errx.Wrap(err, "production", "country", c.ID)
	}
	if err := s.postFoodDemand(c); err != nil {
		return errx.Wrap(err, "food demand", "country", c.ID)
	}
	if err := s.applyTradePolicy(c); err != nil {
		return errx.Wrap(err, "trade policy", "country", c.ID)
	}
	if err := s.clearTrade(c); err != nil {
		return errx.Wrap(err, "trade", "country", c.ID)
	}
	return nil
}

// countryFlows sums built-site flows of every owned province and the output
// of every population unit living in them.
func (s *Simulation) countryFlows(c *social.Country) (output, input map[string]int64, err error) {
	output = make(map[string]int64)
	input = make(map[string]int64)
	for _, p := range s.countryProvinces(c) {
		out, in := p.Flows()
		for id, q := range out {
			output[id] += q
		}
		for id, q := range in {
			input[id] += q
		}
	}
	for _, u := range s.countryUnits(c) {
		pt, ok := s.Defs.PopType(u.Type)
		if !ok {
			return nil, nil, errx.Content("unknown pop type %q", u.Type).WithData("unit", u.ID)
		}
		if pt.Output != "" {
			output[pt.Output] += pt.OutputAmount * u.Size
		}
	}
	return output, input, nil
}

// ResolveFlows applies one turn of output and input to a ledger. Storable
// output is stored and storable input is withdrawn, which pre-pays the next
// turn. Non-storable output must be non-negative and non-storable input must
// not exceed this turn's output of the same commodity. A storable input that
// exceeds stock posts the shortfall as demand.
func ResolveFlows(l *economy.Ledger, cat economy.Catalog, output, input map[string]int64) error {
	for _, id := range sortedKeys(output) {
		q := output[id]
		c, ok := cat.Commodity(id)
		if !ok {
			return errx.Content("unknown output commodity %q", id)
		}
		if c.Storable {
			if err := l.ChangeStored(id, q); err != nil {
				return err
			}
		} else if q < 0 {
			return errx.Invariant("negative output %d of non-storable %q", q, id)
		}
		l.AddOutput(id, q)
	}
	for _, id := range sortedKeys(input) {
		q := input[id]
		c, ok := cat.Commodity(id)
		if !ok {
			return errx.Content("unknown input commodity %q", id)
		}
		if c.Storable {
			if short := q - l.Stored(id); short > 0 {
				if err := l.SetDemand(id, l.Demand(id)+short); err != nil {
					return err
				}
			}
			if err := l.ChangeStored(id, -q); err != nil {
				return err
			}
		} else if q > output[id] {
			return errx.Invariant("non-storable input %d of %q exceeds output %d", q, id, output[id])
		}
		l.AddInput(id, q)
	}
	return nil
}

// postFoodDemand turns a food shortfall into demand for the cheapest
// tradeable food, so partners with surplus sell to the country.
func (s *Simulation) postFoodDemand(c *social.Country) error {
	need := s.netFoodConsumption(c)
	var stored int64
	cheapest := ""
	var price int64
	for _, com := range s.Defs.Commodities {
		if !com.Food || !com.Enabled {
			continue
		}
		stored += c.Economy.Stored(com.ID)
		if com.Tradeable && (cheapest == "" || com.Price < price) {
			cheapest, price = com.ID, com.Price
		}
	}
	if short := need - stored; short > 0 && cheapest != "" {
		return c.Economy.SetDemand(cheapest, c.Economy.Demand(cheapest)+short)
	}
	return nil
}

// applyTradePolicy posts bids up to the policy targets, then offers every
// unit above the reserves. Non-tradeable commodities are skipped.
func (s *Simulation) applyTradePolicy(c *social.Country) error {
	if c.Trade == nil {
		return nil
	}
	l := c.Economy
	for _, id := range sortedKeys(c.Trade.Target) {
		if !s.tradeable(id) {
			continue
		}
		if want := c.Trade.Target[id] - l.Stored(id); want > 0 {
			if err := l.SetBid(id, want); err != nil {
				return err
			}
		}
	}
	for _, id := range sortedKeys(c.Trade.Reserve) {
		if !s.tradeable(id) {
			continue
		}
		if surplus := l.Stored(id) - c.Trade.Reserve[id]; surplus > 0 {
			if err := l.SetOffer(id, surplus); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Simulation) tradeable(id string) bool {
	c, ok := s.Defs.Commodity(id)
	return ok && c.Tradeable
}
