// Trade clearing: greedy matching of one country's offers against the bids
// and unmet demand of the countries it knows.
package engine

import (
	"sort"

	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/economy"
	"github.com/talgya/mini-realm/internal/social"
	"github.com/talgya/mini-realm/internal/world"
)

// Partner tiers, lowest sorts first.
const (
	tierDirectVassal = iota
	tierVassal
	tierOther
)

type rankedPartner struct {
	country *social.Country
	tier    int
	score   int64
}

// tradePartners orders the known countries of c: direct vassals, then
// indirect vassals, then by score descending, then by ascending ID. The score
// is opinion-weighted prestige when prestige is enabled, else raw opinion.
func (s *Simulation) tradePartners(c *social.Country) []*social.Country {
	prestige, prestigeOn := s.prestigeCommodity()
	rel := c.Relations
	span := rel.Max - rel.Min

	ranked := make([]rankedPartner, 0, len(rel.Known))
	for _, id := range rel.Known {
		if id == c.ID {
			continue
		}
		p, ok := s.countries[id]
		if !ok {
			continue
		}
		r := rankedPartner{country: p, tier: tierOther}
		switch {
		case p.Relations.Overlord != nil && *p.Relations.Overlord == c.ID:
			r.tier = tierDirectVassal
		case s.isVassalOf(p.ID, c.ID):
			r.tier = tierVassal
		}
		opinion := rel.Opinion(id)
		if prestigeOn && span > 0 {
			r.score = p.Economy.Stored(prestige) * (opinion - rel.Min) / span
		} else {
			r.score = opinion
		}
		ranked = append(ranked, r)
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.tier != b.tier {
			return a.tier < b.tier
		}
		if a.score != b.score {
			return a.score > b.score
		}
		return a.country.ID < b.country.ID
	})

	out := make([]*social.Country, len(ranked))
	for i, r := range ranked {
		out[i] = r.country
	}
	return out
}

// prestigeCommodity reports the prestige commodity and whether it is enabled.
func (s *Simulation) prestigeCommodity() (string, bool) {
	id := s.Defs.Rules.PrestigeCommodity
	if id == "" {
		return "", false
	}
	c, ok := s.Defs.Commodity(id)
	return id, ok && c.Enabled
}

// isVassalOf reports whether lord is anywhere above v in the overlord chain.
func (s *Simulation) isVassalOf(v, lord world.CountryID) bool {
	seen := map[world.CountryID]bool{v: true}
	for cur := v; ; {
		next, ok := s.Overlord(cur)
		if !ok || seen[next] {
			return false
		}
		if next == lord {
			return true
		}
		seen[next] = true
		cur = next
	}
}

// clearTrade sells every offered commodity of c to its partners in order.
// Countries in anarchy do not trade.
func (s *Simulation) clearTrade(c *social.Country) error {
	if c.Anarchy {
		return nil
	}
	partners := s.tradePartners(c)
	for _, id := range c.Economy.Commodities() {
		if c.Economy.Offer(id) <= 0 {
			continue
		}
		com, ok := s.Defs.Commodity(id)
		if !ok {
			continue
		}
		for _, p := range partners {
			offer := c.Economy.Offer(id)
			if offer <= 0 {
				break
			}
			sold, err := sell(c, p, com, offer)
			if err != nil {
				return err
			}
			if sold > 0 && p.ID != c.ID {
				c.Relations.ChangeBaseOpinion(p.ID, 1)
				p.Relations.ChangeBaseOpinion(c.ID, 1)
			}
		}
	}
	return nil
}

// sell moves up to offer units of com from seller to buyer. An active bid is
// filled as a state purchase the buyer pays for; otherwise unmet demand is
// filled as a market sale that costs the buyer nothing. It returns the
// quantity sold.
func sell(seller, buyer *social.Country, com defs.Commodity, offer int64) (int64, error) {
	b := buyer.Economy
	if bid := b.Bid(com.ID); bid > 0 {
		q := min(offer, bid)
		if com.Price > 0 {
			q = min(q, b.Wealth()/com.Price)
		}
		if q <= 0 {
			return 0, nil
		}
		value := q * com.Price
		if err := sellerSide(seller, buyer.ID, com, q, economy.CategoryStatePurchase); err != nil {
			return 0, err
		}
		if err := b.ChangeStored(com.ID, q); err != nil {
			return 0, err
		}
		b.AddWealth(-value)
		if err := b.SetBid(com.ID, bid-q); err != nil {
			return 0, err
		}
		b.Log(economy.Transaction{Direction: economy.Expense, Category: economy.CategoryStatePurchase, Amount: value, Commodity: com.ID, Quantity: q, Counterparty: seller.ID})
		return q, nil
	}

	demand := b.Demand(com.ID)
	if demand <= 0 {
		return 0, nil
	}
	q := min(offer, demand)
	if err := sellerSide(seller, buyer.ID, com, q, economy.CategoryMarketSale); err != nil {
		return 0, err
	}
	if err := b.ChangeStored(com.ID, q); err != nil {
		return 0, err
	}
	if err := b.SetDemand(com.ID, demand-q); err != nil {
		return 0, err
	}
	return q, nil
}

// sellerSide withdraws q units from the seller's storage and offer and
// credits their value as taxable tariff income.
func sellerSide(seller *social.Country, buyer world.CountryID, com defs.Commodity, q int64, cat economy.Category) error {
	l := seller.Economy
	offer := l.Offer(com.ID)
	if err := l.ChangeStored(com.ID, -q); err != nil {
		return err
	}
	if err := l.SetOffer(com.ID, offer-q); err != nil {
		return err
	}
	value := q * com.Price
	l.Log(economy.Transaction{Direction: economy.Income, Category: cat, Amount: value, Commodity: com.ID, Quantity: q, Counterparty: buyer})
	if value > 0 {
		return l.AddTaxableWealth(value, economy.CategoryTariff)
	}
	return nil
}
