package economy

import (
	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/world"
)

// Hierarchy exposes the vassal tree and the ledgers of its members.
type Hierarchy interface {
	Overlord(id world.CountryID) (world.CountryID, bool)
	Ledger(id world.CountryID) (*Ledger, bool)
}

// TaxCascade implements Taxer: each country keeps amount minus
// floor(amount*Rate/100) and passes the tax to its overlord, which taxes it
// again on the way up.
type TaxCascade struct {
	Hierarchy Hierarchy
	Rate      int64 // percent
}

func (t *TaxCascade) AddTaxableWealth(owner world.CountryID, amount int64, cat Category) error {
	return t.add(owner, amount, cat, make(map[world.CountryID]bool))
}

func (t *TaxCascade) add(id world.CountryID, amount int64, cat Category, seen map[world.CountryID]bool) error {
	if !cat.Taxable() {
		return errx.Invariant("category %q is not taxable", cat).WithData("country", id)
	}
	if amount < 0 {
		return errx.Invariant("negative taxable wealth %d", amount).WithData("country", id)
	}
	if seen[id] {
		return errx.Invariant("overlord cycle through country %d", id)
	}
	seen[id] = true

	self, ok := t.Hierarchy.Ledger(id)
	if !ok {
		return errx.New(errx.CodeNotFound, "country has no ledger").WithData("country", id)
	}
	lord, hasLord := t.Hierarchy.Overlord(id)
	if !hasLord {
		self.AddWealth(amount)
		return nil
	}

	tax := amount * t.Rate / 100
	if err := t.add(lord, tax, cat, seen); err != nil {
		return errx.Wrap(err, "vassal tax", "vassal", id)
	}
	self.AddWealth(amount - tax)
	if tax != 0 {
		lordLedger, _ := t.Hierarchy.Ledger(lord)
		lordLedger.Log(Transaction{Direction: Income, Category: CategoryVassalTax, Amount: tax, Counterparty: id})
		self.Log(Transaction{Direction: Expense, Category: CategoryVassalTax, Amount: tax, Counterparty: lord})
	}
	return nil
}
