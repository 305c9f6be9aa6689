// Turn orchestration: the fixed per-country phase pipeline and the world step.
package engine

import (
	"fmt"

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

// StepReport summarizes one world step.
type StepReport struct {
	Turn         int                                       `json:"turn"`
	Failed       []world.CountryID                         `json:"failed,omitempty"`
	Events       []Event                                   `json:"events,omitempty"`
	Transactions map[world.CountryID][]economy.Transaction `json:"transactions,omitempty"`
}

// Step advances the world by one turn: every country runs its phases in
// registration order, then queued events go to the notifier. A failing
// country loses the rest of its turn; the others still run.
func (s *Simulation) Step() StepReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Running = true
	s.Turn++
	for _, c := range s.Countries() {
		c.Economy.StartTurn(s.Turn)
	}

	report := StepReport{Turn: s.Turn, Transactions: make(map[world.CountryID][]economy.Transaction)}
	for _, c := range s.Countries() {
		if err := s.doTurn(c); err != nil {
			s.Stats.Failures++
			report.Failed = append(report.Failed, c.ID)
			logs.ReportError("do turn", err, zap.Uint32("country", uint32(c.ID)), zap.Int("turn", s.Turn))
		}
	}
	for _, c := range s.Countries() {
		report.Transactions[c.ID] = c.Economy.TurnData().Transactions
	}
	report.Events = s.drainEvents()
	s.updateStats()

	logs.Info("turn report",
		zap.Int("turn", s.Turn),
		zap.String("time", SimTime(s.Turn)),
		zap.Int("units", s.Stats.Units),
		zap.Int64("population", s.Stats.TotalPopulation),
		zap.Int64("total_wealth", s.Stats.TotalWealth),
		zap.Int("events", len(report.Events)),
		zap.Int("failed", len(report.Failed)),
	)
	return report
}

// DoTurn runs the phase pipeline of one country outside a world step.
func (s *Simulation) DoTurn(id world.CountryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.countries[id]
	if !ok {
		return errx.New(errx.CodeNotFound, "country not found").WithData("country", id)
	}
	return s.doTurn(c)
}

// doTurn runs the phases in their fixed order. Trade clearing and the tax
// cascade run inside them and touch other countries' ledgers immediately.
func (s *Simulation) doTurn(c *social.Country) error {
	phases := []struct {
		name string
		run  func(*social.Country) error
	}{
		{"provinces", s.processProvinces},
		{"production", s.processProduction},
		{"province tax", s.collectProvinceTaxes},
		{"maintenance", s.payMaintenance},
		{"transporter recruitment", func(c *social.Country) error { return s.recruit(c, defs.UnitTransporter) }},
		{"civilian recruitment", func(c *social.Country) error { return s.recruit(c, defs.UnitCivilian) }},
		{"military recruitment", func(c *social.Country) error { return s.recruit(c, defs.UnitMilitary) }},
		{"research", s.processResearch},
		{"population", s.processGrowth},
		{"culture", func(c *social.Country) error { s.processCulture(c); return nil }},
		{"entity hooks", func(c *social.Country) error { s.processEntityHooks(c); return nil }},
		{"modifiers", s.processModifiers},
		{"journal", s.processJournal},
		{"mortality", func(c *social.Country) error { s.processMortality(c); return nil }},
	}
	for _, p := range phases {
		if err := p.run(c); err != nil {
			return errx.Wrap(err, p.name, "country", c.ID, "turn", s.Turn)
		}
	}
	for _, id := range c.Economy.DrainChanges() {
		logs.Debug("ledger changed", zap.Uint32("country", uint32(c.ID)), zap.String("commodity", id), zap.Int64("stored", c.Economy.Stored(id)))
	}
	return nil
}

// processProvinces resets this turn's flows and moves site construction on.
func (s *Simulation) processProvinces(c *social.Country) error {
	c.Economy.ResetFlows()
	for _, p := range s.countryProvinces(c) {
		for _, site := range p.AdvanceConstruction() {
			s.EmitEvent(Event{
				Country:     c.ID,
				Title:       "Construction complete",
				Description: fmt.Sprintf("%s in %s is complete", site.Name, p.Name),
				Category:    "construction",
				Meta:        map[string]any{"province_id": p.ID, "site_id": site.ID},
			})
		}
	}
	return nil
}

// collectProvinceTaxes credits each province's head tax as wealth.
func (s *Simulation) collectProvinceTaxes(c *social.Country) error {
	rate := s.Defs.Rules.ProvinceTaxRate
	for _, p := range s.countryProvinces(c) {
		size := pops.TotalSize(s.Pops.InProvinces([]world.ProvinceID{p.ID}))
		tax := size * rate / 100
		if tax <= 0 {
			continue
		}
		c.Economy.AddWealth(tax)
		c.Economy.Log(economy.Transaction{Direction: economy.Income, Category: economy.CategoryProvinceTax, Amount: tax, Quantity: size})
	}
	return nil
}

// payMaintenance pays unit upkeep in list order and disbands the units that
// cannot be paid.
func (s *Simulation) payMaintenance(c *social.Country) error {
	var paid int64
	var unpaid []*social.Unit
	for _, u := range c.AllUnits() {
		ut, ok := s.Defs.UnitType(u.Type)
		if !ok {
			return errx.Content("unknown unit type %q", u.Type)
		}
		if c.Economy.Wealth() < ut.Upkeep {
			unpaid = append(unpaid, u)
			continue
		}
		c.Economy.AddWealth(-ut.Upkeep)
		paid += ut.Upkeep
	}
	if paid > 0 {
		c.Economy.Log(economy.Transaction{Direction: economy.Expense, Category: economy.CategoryMaintenance, Amount: paid})
	}
	for _, u := range unpaid {
		c.Disband(u.ID)
	}
	if len(unpaid) > 0 {
		s.EmitEvent(Event{
			Country:     c.ID,
			Title:       "Units disbanded",
			Portrait:    "treasury",
			Description: fmt.Sprintf("%s disbanded %d units it could not pay for", c.Name, len(unpaid)),
			Category:    "maintenance",
			Meta:        map[string]any{"country_id": c.ID, "units": len(unpaid)},
		})
	}
	return nil
}

// recruit completes queued orders of one kind front to back while their
// costs are in storage. The first unaffordable order blocks the queue.
func (s *Simulation) recruit(c *social.Country, kind defs.UnitKind) error {
	q := c.Queue(kind)
	for {
		o, ok := q.Peek()
		if !ok {
			return nil
		}
		ut, ok := s.Defs.UnitType(o.Type)
		if !ok {
			return errx.Content("unknown unit type %q", o.Type)
		}
		if ut.Kind != kind {
			return errx.Content("unit type %q is %s, queued as %s", o.Type, ut.Kind, kind)
		}
		costs := sortedKeys(ut.Cost)
		for _, id := range costs {
			if c.Economy.Stored(id) < ut.Cost[id] {
				return nil
			}
		}
		for _, id := range costs {
			if err := c.Economy.ChangeStored(id, -ut.Cost[id]); err != nil {
				return err
			}
			c.Economy.Log(economy.Transaction{Direction: economy.Expense, Category: economy.CategoryRecruitment, Commodity: id, Quantity: ut.Cost[id]})
		}
		c.AddUnit(&social.Unit{Type: ut.ID, Kind: ut.Kind, Province: o.Province})
		q.Pop()
	}
}

// processResearch puts this turn's research output into the current
// technology, picking the next unknown one in definition order if idle.
func (s *Simulation) processResearch(c *social.Country) error {
	rc := s.Defs.Rules.ResearchCommodity
	if rc == "" {
		return nil
	}
	r := &c.Research
	if r.Current == "" {
		for _, t := range s.Defs.Technologies {
			if !r.Has(t.ID) {
				r.Current = t.ID
				break
			}
		}
		if r.Current == "" {
			return nil
		}
	}
	tech, ok := s.Defs.Technology(r.Current)
	if !ok {
		return errx.Content("unknown technology %q", r.Current)
	}
	if r.Add(c.Economy.Entry(rc).Output, tech.Cost) {
		s.EmitEvent(Event{
			Country:     c.ID,
			Title:       "Discovery",
			Portrait:    "scholar",
			Description: fmt.Sprintf("%s discovered %s", c.Name, tech.Name),
			Category:    "research",
			Meta:        map[string]any{"country_id": c.ID, "technology": tech.ID},
		})
	}
	return nil
}

// processEntityHooks moves travelling civilians, military units and
// transporters one turn closer to their destination.
func (s *Simulation) processEntityHooks(c *social.Country) {
	for _, list := range [][]*social.Unit{c.Civilians, c.Military, c.Transporters} {
		for _, u := range list {
			if u.Destination == nil {
				continue
			}
			u.TravelLeft--
			if u.TravelLeft <= 0 {
				u.Province = *u.Destination
				u.Destination = nil
				u.TravelLeft = 0
			}
		}
	}
}

// processModifiers applies active scripted modifiers, then ages them and the
// opinion modifiers.
func (s *Simulation) processModifiers(c *social.Country) error {
	for _, m := range c.Modifiers {
		if m.Effect == nil {
			continue
		}
		if err := m.Effect.Apply(c, m.Multiplier); err != nil {
			return errx.Wrap(err, "modifier", "modifier", m.ID)
		}
	}
	for _, id := range c.DecrementModifiers() {
		logs.Debug("modifier expired", zap.Uint32("country", uint32(c.ID)), zap.String("modifier", id))
	}
	c.Relations.DecrementModifiers()
	return nil
}

// processJournal completes the open entries whose condition holds.
func (s *Simulation) processJournal(c *social.Country) error {
	for _, j := range c.Journal {
		if j.Done || j.Check == nil {
			continue
		}
		ok, err := j.Check.Check(c)
		if err != nil {
			return errx.Wrap(err, "journal", "entry", j.ID)
		}
		if !ok {
			continue
		}
		j.Done = true
		s.EmitEvent(Event{
			Country:     c.ID,
			Title:       j.Title,
			Portrait:    "journal",
			Description: fmt.Sprintf("%s completed %q", c.Name, j.Title),
			Category:    "journal",
			Meta:        map[string]any{"country_id": c.ID, "entry": j.ID},
		})
	}
	return nil
}

// processMortality ages the court once a year. Each character past the
// mortality age dies with chance (age - mortality age) percent. A dead
// ruler is succeeded by the eldest survivor; with nobody left the country
// falls into anarchy.
func (s *Simulation) processMortality(c *social.Country) {
	if s.Turn <= 0 || s.Turn%TurnsPerYear != 0 {
		return
	}
	var dead []*social.Character
	for _, ch := range c.Characters {
		ch.Age++
		if chance := max(0, ch.Age-s.Defs.Rules.MortalityAge); chance > 0 && s.rng.IntN(100) < chance {
			dead = append(dead, ch)
		}
	}
	rulerDied := false
	for _, ch := range dead {
		c.RemoveCharacter(ch.ID)
		if ch.ID == c.Ruler {
			rulerDied = true
		}
		s.EmitEvent(Event{
			Country:     c.ID,
			Title:       "Death at court",
			Portrait:    "death",
			Description: fmt.Sprintf("%s of %s died aged %d", ch.Name, c.Name, ch.Age),
			Category:    "death",
			Meta:        map[string]any{"country_id": c.ID, "character": ch.ID},
		})
	}
	if !rulerDied && c.Ruler != 0 {
		return
	}
	if heir, ok := c.Eldest(); ok {
		c.Ruler = heir.ID
		c.Anarchy = false
		s.EmitEvent(Event{
			Country:     c.ID,
			Title:       "Succession",
			Portrait:    "crown",
			Description: fmt.Sprintf("%s now rules %s", heir.Name, c.Name),
			Category:    "political",
			Meta:        map[string]any{"country_id": c.ID, "character": heir.ID, "governance": c.Government.String()},
		})
		return
	}
	c.Ruler = 0
	if !c.Anarchy {
		c.Anarchy = true
		s.EmitEvent(Event{
			Country:     c.ID,
			Title:       "Anarchy",
			Portrait:    "anarchy",
			Description: fmt.Sprintf("%s has no ruler and falls into anarchy", c.Name),
			Category:    "political",
			Meta:        map[string]any{"country_id": c.ID},
		})
	}
}

// CountryVars exposes a country to scripts as the table "country".
func (s *Simulation) CountryVars(c *social.Country) script.Vars {
	stored := script.Vars{}
	for _, id := range c.Economy.Commodities() {
		stored[id] = c.Economy.Stored(id)
	}
	return script.Vars{"country": script.Vars{
		"id":         uint32(c.ID),
		"name":       c.Name,
		"wealth":     c.Economy.Wealth(),
		"anarchy":    c.Anarchy,
		"culture":    c.PrimaryCulture,
		"provinces":  len(c.Provinces),
		"population": pops.TotalSize(s.countryUnits(c)),
		"units":      len(c.AllUnits()),
		"research":   c.Research.Completed,
		"stored":     stored,
	}}
}
