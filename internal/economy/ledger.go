package economy

import (
	"sort"

	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/world"
)

// Entry is the per-commodity state of a ledger.
type Entry struct {
	Stored   int64 `json:"stored" db:"stored"`
	Capacity int64 `json:"capacity" db:"capacity"`
	Offer    int64 `json:"offer" db:"offer"`
	Bid      int64 `json:"bid" db:"bid"`
	Demand   int64 `json:"demand" db:"demand"`
	Input    int64 `json:"input" db:"input"`   // this turn's consumption
	Output   int64 `json:"output" db:"output"` // this turn's production
}

// Taxer routes taxable wealth of a country, normally through its overlords.
type Taxer interface {
	AddTaxableWealth(owner world.CountryID, amount int64, cat Category) error
}

// Ledger is the commodity and wealth account of exactly one country.
type Ledger struct {
	owner           world.CountryID
	catalog         Catalog
	defaultCapacity int64
	taxer           Taxer

	entries map[string]*Entry
	wealth  int64
	turn    TurnData
	changed map[string]struct{}
}

func NewLedger(owner world.CountryID, catalog Catalog, defaultCapacity int64) *Ledger {
	return &Ledger{
		owner:           owner,
		catalog:         catalog,
		defaultCapacity: defaultCapacity,
		entries:         make(map[string]*Entry),
		changed:         make(map[string]struct{}),
	}
}

// SetTaxer installs the taxation route. Without one, taxable wealth is
// credited in full.
func (l *Ledger) SetTaxer(t Taxer) { l.taxer = t }

func (l *Ledger) Owner() world.CountryID { return l.owner }

func (l *Ledger) commodity(id string) (Commodity, error) {
	c, ok := l.catalog.Commodity(id)
	if !ok {
		return Commodity{}, errx.Content("unknown commodity %q", id).WithData("country", l.owner)
	}
	return c, nil
}

func (l *Ledger) entry(id string) *Entry {
	e, ok := l.entries[id]
	if !ok {
		e = &Entry{Capacity: l.defaultCapacity}
		l.entries[id] = e
	}
	return e
}

// Entry returns a copy of the commodity state. Untouched commodities report
// the default capacity and zero everything else.
func (l *Ledger) Entry(id string) Entry {
	if e, ok := l.entries[id]; ok {
		return *e
	}
	return Entry{Capacity: l.defaultCapacity}
}

func (l *Ledger) Stored(id string) int64 { return l.Entry(id).Stored }
func (l *Ledger) Offer(id string) int64  { return l.Entry(id).Offer }
func (l *Ledger) Bid(id string) int64    { return l.Entry(id).Bid }
func (l *Ledger) Demand(id string) int64 { return l.Entry(id).Demand }

// SetStored sets the stored amount of a commodity. A convertible commodity
// is never stored: v*WealthRate enters the taxation cascade as treasure
// fleet income, and a negative v debits wealth directly. Otherwise the value
// is clamped to [0, capacity], where negative-allowed lifts the lower bound
// and abstract lifts the upper bound.
func (l *Ledger) SetStored(id string, v int64) error {
	c, err := l.commodity(id)
	if err != nil {
		return err
	}
	if c.ConvertibleToWealth {
		amount := v * c.WealthRate
		switch {
		case amount > 0:
			return l.AddTaxableWealth(amount, CategoryTreasureFleet)
		case amount < 0:
			l.wealth += amount
		}
		return nil
	}

	e := l.entry(id)
	if !c.NegativeAllowed && v < 0 {
		v = 0
	}
	if !c.Abstract && v > e.Capacity {
		v = e.Capacity
	}
	if v == e.Stored {
		return nil
	}
	e.Stored = v
	if e.Offer > e.Stored {
		e.Offer = max(e.Stored, 0)
	}
	l.changed[id] = struct{}{}
	return nil
}

// ChangeStored adds d to the stored amount with SetStored semantics.
func (l *Ledger) ChangeStored(id string, d int64) error {
	return l.SetStored(id, l.Stored(id)+d)
}

// SetCapacity changes the storage capacity and re-clamps the stored amount.
func (l *Ledger) SetCapacity(id string, capacity int64) error {
	if _, err := l.commodity(id); err != nil {
		return err
	}
	if capacity < 0 {
		return errx.Invariant("negative capacity %d for %q", capacity, id)
	}
	e := l.entry(id)
	e.Capacity = capacity
	return l.SetStored(id, e.Stored)
}

// SetOffer puts up to stored units on the market and withdraws any bid.
func (l *Ledger) SetOffer(id string, v int64) error {
	c, err := l.commodity(id)
	if err != nil {
		return err
	}
	if !c.Tradeable && v > 0 {
		return errx.Invariant("offer on non-tradeable commodity %q", id).WithData("country", l.owner)
	}
	e := l.entry(id)
	v = min(max(v, 0), max(e.Stored, 0))
	if v == e.Offer {
		return nil
	}
	e.Offer = v
	if v > 0 {
		e.Bid = 0
	}
	l.changed[id] = struct{}{}
	return nil
}

// SetBid asks to buy v units and withdraws any offer.
func (l *Ledger) SetBid(id string, v int64) error {
	c, err := l.commodity(id)
	if err != nil {
		return err
	}
	if !c.Tradeable && v > 0 {
		return errx.Invariant("bid on non-tradeable commodity %q", id).WithData("country", l.owner)
	}
	e := l.entry(id)
	v = max(v, 0)
	if v == e.Bid {
		return nil
	}
	e.Bid = v
	if v > 0 {
		e.Offer = 0
	}
	l.changed[id] = struct{}{}
	return nil
}

func (l *Ledger) SetDemand(id string, v int64) error {
	if _, err := l.commodity(id); err != nil {
		return err
	}
	l.entry(id).Demand = max(v, 0)
	return nil
}

func (l *Ledger) AddInput(id string, q int64)  { l.entry(id).Input += q }
func (l *Ledger) AddOutput(id string, q int64) { l.entry(id).Output += q }

// ResetFlows clears this turn's input, output and demand counters.
func (l *Ledger) ResetFlows() {
	for _, e := range l.entries {
		e.Input, e.Output, e.Demand = 0, 0, 0
	}
}

func (l *Ledger) Wealth() int64 { return l.wealth }

// AddWealth credits (or, when negative, debits) wealth without taxation.
func (l *Ledger) AddWealth(amount int64) { l.wealth += amount }

// AddTaxableWealth credits income that owes tax to the overlord chain.
func (l *Ledger) AddTaxableWealth(amount int64, cat Category) error {
	if l.taxer == nil {
		if !cat.Taxable() || amount < 0 {
			return errx.Invariant("invalid taxable wealth %d (%s)", amount, cat).WithData("country", l.owner)
		}
		l.wealth += amount
		return nil
	}
	return l.taxer.AddTaxableWealth(l.owner, amount, cat)
}

// Log appends a transaction to the current turn data.
func (l *Ledger) Log(tx Transaction) { l.turn.log(tx) }

// TurnData returns the current turn's record.
func (l *Ledger) TurnData() *TurnData { return &l.turn }

// StartTurn opens a fresh turn record and returns the finished one.
func (l *Ledger) StartTurn(turn int) TurnData {
	prev := l.turn
	l.turn = TurnData{Turn: turn}
	return prev
}

// DrainChanges returns the commodities whose stored, offer or bid changed
// since the previous drain, sorted by ID.
func (l *Ledger) DrainChanges() []string {
	out := make([]string, 0, len(l.changed))
	for id := range l.changed {
		out = append(out, id)
	}
	sort.Strings(out)
	clear(l.changed)
	return out
}

// Commodities lists every commodity the ledger has touched, sorted by ID.
func (l *Ledger) Commodities() []string {
	out := make([]string, 0, len(l.entries))
	for id := range l.entries {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Snapshot is a serializable copy of a ledger.
type Snapshot struct {
	Owner   world.CountryID  `json:"owner"`
	Wealth  int64            `json:"wealth"`
	Entries map[string]Entry `json:"entries"`
}

func (l *Ledger) Snapshot() Snapshot {
	s := Snapshot{Owner: l.owner, Wealth: l.wealth, Entries: make(map[string]Entry, len(l.entries))}
	for id, e := range l.entries {
		s.Entries[id] = *e
	}
	return s
}

// Restore replaces the ledger state with s. Values are taken verbatim.
func (l *Ledger) Restore(s Snapshot) {
	l.wealth = s.Wealth
	l.entries = make(map[string]*Entry, len(s.Entries))
	for id, e := range s.Entries {
		e := e
		l.entries[id] = &e
	}
	clear(l.changed)
}
