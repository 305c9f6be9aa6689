// Package engine runs the turn-stepped realm simulation: production, trade
// clearing, population and the per-country phase pipeline.
package engine

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/economy"
	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/logs"
	"github.com/talgya/mini-realm/internal/pops"
	"github.com/talgya/mini-realm/internal/script"
	"github.com/talgya/mini-realm/internal/social"
	"github.com/talgya/mini-realm/internal/world"
)

// Simulation is one session: every country, province and population unit,
// the turn clock, the random source and the pending event queue. Nothing in
// the engine is process-global.
type Simulation struct {
	mu sync.RWMutex

	SessionID string
	Defs      *defs.Database
	Map       *world.Map
	Pops      *pops.Registry
	Script    *script.Engine
	Notifier  Notifier

	Turn    int
	Running bool
	Stats   SimStats

	countries     map[world.CountryID]*social.Country
	countryOrder  []world.CountryID // registration order, which is the step order
	provinces     map[world.ProvinceID]*world.Province
	provinceOrder []world.ProvinceID

	taxes       *economy.TaxCascade
	derivations map[string][]derivation
	rng         *rand.Rand
	seed        uint64

	pending []Event // drained to the notifier after each step
	Events  []Event // recent events, newest last
}

type derivation struct {
	target string
	cond   pops.Condition
}

// Event is a notable occurrence, queued during a turn and delivered to the
// notifier once the turn is complete.
type Event struct {
	Turn        int             `json:"turn"`
	Country     world.CountryID `json:"country"`
	Title       string          `json:"title"`
	Portrait    string          `json:"portrait,omitempty"`
	Description string          `json:"description"`
	Category    string          `json:"category"` // "starvation", "maintenance", "research", "journal", "death", ...
	Meta        map[string]any  `json:"meta,omitempty"`
}

// SimStats tracks aggregate world statistics.
type SimStats struct {
	Countries       int   `json:"countries"`
	Units           int   `json:"units"`
	TotalPopulation int64 `json:"total_population"`
	TotalWealth     int64 `json:"total_wealth"`
	Spawned         int   `json:"spawned"`
	Starved         int   `json:"starved"`
	Failures        int   `json:"failures"`
}

// maxRecentEvents bounds the Events history.
const maxRecentEvents = 500

// NewSimulation creates an empty session. Derivation conditions of every
// culture are compiled here, so broken content fails early.
func NewSimulation(db *defs.Database, m *world.Map, seed uint64) (*Simulation, error) {
	s := &Simulation{
		SessionID:   uuid.NewString(),
		Defs:        db,
		Map:         m,
		Pops:        pops.NewRegistry(),
		Script:      script.NewEngine(),
		Notifier:    LogNotifier{},
		countries:   make(map[world.CountryID]*social.Country),
		provinces:   make(map[world.ProvinceID]*world.Province),
		derivations: make(map[string][]derivation),
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		seed:        seed,
	}
	s.taxes = &economy.TaxCascade{Hierarchy: s, Rate: db.Rules.VassalTaxRate}
	for _, c := range db.Cultures {
		for _, d := range c.Derivations {
			cond, err := s.Script.CompileUnitCondition(d.Condition)
			if err != nil {
				return nil, errx.Wrap(err, "compile derivation", "culture", c.ID, "target", d.Target)
			}
			s.derivations[c.ID] = append(s.derivations[c.ID], derivation{target: d.Target, cond: cond})
		}
	}
	return s, nil
}

// Seed is the seed the session's random source was created with.
func (s *Simulation) Seed() uint64 { return s.seed }

// Resume sets the clock of a restored session and reseeds the random source
// from the seed and turn, so a resumed run is reproducible.
func (s *Simulation) Resume(turn int) {
	s.Turn = turn
	s.rng = rand.New(rand.NewPCG(s.seed, uint64(turn)))
	s.updateStats()
}

// BindScripts compiles the effect of every modifier and the condition of
// every journal entry of c from their sources.
func (s *Simulation) BindScripts(c *social.Country) error {
	for _, m := range c.Modifiers {
		if m.Source == "" {
			continue
		}
		eff, err := s.Script.CompileLedgerEffect(m.Source, s.CountryVars)
		if err != nil {
			return errx.Wrap(err, "compile modifier", "modifier", m.ID)
		}
		m.Effect = eff
	}
	for _, j := range c.Journal {
		if j.Condition == "" {
			continue
		}
		check, err := s.Script.CompileCountryCondition(j.Condition, s.CountryVars)
		if err != nil {
			return errx.Wrap(err, "compile journal", "entry", j.ID)
		}
		j.Check = check
	}
	return nil
}

// NewLedger creates a ledger for id wired to the session's tax cascade.
func (s *Simulation) NewLedger(id world.CountryID) *economy.Ledger {
	l := economy.NewLedger(id, s.Defs, s.Defs.Rules.DefaultCapacity)
	l.SetTaxer(s.taxes)
	return l
}

// AddCountry registers c. Registration order is the order countries are
// stepped in, and it decides who wins contested trades.
func (s *Simulation) AddCountry(c *social.Country) error {
	if _, dup := s.countries[c.ID]; dup {
		return errx.Invariant("country %d registered twice", c.ID)
	}
	if c.Economy == nil {
		c.Economy = s.NewLedger(c.ID)
	}
	s.countries[c.ID] = c
	s.countryOrder = append(s.countryOrder, c.ID)
	return nil
}

// AddProvince registers p and assigns it to its owner.
func (s *Simulation) AddProvince(p *world.Province) error {
	if _, dup := s.provinces[p.ID]; dup {
		return errx.Invariant("province %d registered twice", p.ID)
	}
	s.provinces[p.ID] = p
	s.provinceOrder = append(s.provinceOrder, p.ID)
	if owner, ok := s.countries[p.Owner]; ok && !owner.OwnsProvince(p.ID) {
		owner.Provinces = append(owner.Provinces, p.ID)
	}
	return nil
}

func (s *Simulation) Country(id world.CountryID) (*social.Country, bool) {
	c, ok := s.countries[id]
	return c, ok
}

func (s *Simulation) Province(id world.ProvinceID) (*world.Province, bool) {
	p, ok := s.provinces[id]
	return p, ok
}

// Countries returns every country in step order.
func (s *Simulation) Countries() []*social.Country {
	out := make([]*social.Country, 0, len(s.countryOrder))
	for _, id := range s.countryOrder {
		out = append(out, s.countries[id])
	}
	return out
}

// Provinces returns every province in registration order.
func (s *Simulation) Provinces() []*world.Province {
	out := make([]*world.Province, 0, len(s.provinceOrder))
	for _, id := range s.provinceOrder {
		out = append(out, s.provinces[id])
	}
	return out
}

// Overlord implements economy.Hierarchy.
func (s *Simulation) Overlord(id world.CountryID) (world.CountryID, bool) {
	c, ok := s.countries[id]
	if !ok || c.Relations.Overlord == nil {
		return 0, false
	}
	return *c.Relations.Overlord, true
}

// Ledger implements economy.Hierarchy.
func (s *Simulation) Ledger(id world.CountryID) (*economy.Ledger, bool) {
	c, ok := s.countries[id]
	if !ok {
		return nil, false
	}
	return c.Economy, true
}

// countryUnits returns the population units living in the country's provinces.
func (s *Simulation) countryUnits(c *social.Country) []*pops.Unit {
	return s.Pops.InProvinces(c.Provinces)
}

// countryProvinces resolves the country's province IDs, skipping stale ones.
func (s *Simulation) countryProvinces(c *social.Country) []*world.Province {
	out := make([]*world.Province, 0, len(c.Provinces))
	for _, id := range c.Provinces {
		if p, ok := s.provinces[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// EmitEvent queues an event for delivery after the current step.
func (s *Simulation) EmitEvent(e Event) {
	e.Turn = s.Turn
	s.pending = append(s.pending, e)
}

// drainEvents hands queued events to the notifier and keeps them in the
// recent history.
func (s *Simulation) drainEvents() []Event {
	drained := s.pending
	s.pending = nil
	for _, e := range drained {
		if s.Notifier != nil {
			s.Notifier.Notify(e.Title, e.Portrait, e.Description)
		}
	}
	s.Events = append(s.Events, drained...)
	if len(s.Events) > maxRecentEvents {
		s.Events = s.Events[len(s.Events)-maxRecentEvents:]
	}
	return drained
}

// View runs fn under the read lock. Readers such as the HTTP API use it to
// see a consistent state between steps.
func (s *Simulation) View(fn func(s *Simulation)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s)
}

func (s *Simulation) updateStats() {
	stats := SimStats{Countries: len(s.countryOrder), Units: s.Pops.Len(), Spawned: s.Stats.Spawned, Starved: s.Stats.Starved, Failures: s.Stats.Failures}
	for _, u := range s.Pops.All() {
		stats.TotalPopulation += u.Size
	}
	for _, c := range s.countries {
		stats.TotalWealth += c.Economy.Wealth()
	}
	s.Stats = stats
}

// Notifier receives user-facing notifications. Delivery is fire and forget.
type Notifier interface {
	Notify(title, portrait, text string)
}

// LogNotifier writes notifications to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(title, portrait, text string) {
	logs.Info("notification", zap.String("title", title), zap.String("portrait", portrait), zap.String("text", text))
}

// sortedKeys returns the keys of a commodity map in ID order.
func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
