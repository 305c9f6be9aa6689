package engine

import (
	"errors"
	"testing"

	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/economy"
	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/social"
	"github.com/talgya/mini-realm/internal/world"
)

func TestMaintenanceDisbandsUnpaidUnits(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	c.AddUnit(&social.Unit{Type: "levy", Kind: defs.UnitMilitary})
	c.AddUnit(&social.Unit{Type: "cart", Kind: defs.UnitTransporter})
	c.AddUnit(&social.Unit{Type: "settler", Kind: defs.UnitCivilian})
	c.Economy.AddWealth(5)

	mustNoErr(t, s.payMaintenance(c))
	if got := c.Economy.Wealth(); got != 3 {
		t.Fatalf("wealth = %d, want 3", got)
	}
	if len(c.Military) != 0 || len(c.Transporters) != 1 || len(c.Civilians) != 1 {
		t.Fatalf("units left: military %d, transporters %d, civilians %d", len(c.Military), len(c.Transporters), len(c.Civilians))
	}
	if len(s.pending) != 1 || s.pending[0].Category != "maintenance" {
		t.Fatalf("pending = %+v", s.pending)
	}
	tx := c.Economy.TurnData().Transactions
	if len(tx) != 1 || tx[0].Category != economy.CategoryMaintenance || tx[0].Amount != 2 {
		t.Fatalf("transactions = %+v", tx)
	}
}

func TestRecruitmentIsFIFOAndBlocking(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	q := c.Queue(defs.UnitMilitary)
	q.Push(social.Order{Type: "levy", Province: 3})
	q.Push(social.Order{Type: "levy", Province: 4})
	mustNoErr(t, c.Economy.SetStored("x", 7))

	mustNoErr(t, s.recruit(c, defs.UnitMilitary))
	if len(c.Military) != 1 || c.Military[0].Province != 3 {
		t.Fatalf("military = %+v", c.Military)
	}
	if q.Len() != 1 {
		t.Fatalf("queue length = %d, want 1", q.Len())
	}
	if got := c.Economy.Stored("x"); got != 2 {
		t.Fatalf("x = %d, want 2", got)
	}

	mustNoErr(t, c.Economy.SetStored("x", 10))
	mustNoErr(t, s.recruit(c, defs.UnitMilitary))
	if len(c.Military) != 2 || q.Len() != 0 {
		t.Fatalf("military %d, queue %d", len(c.Military), q.Len())
	}
}

func TestRecruitmentRejectsWrongKind(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	c.Queue(defs.UnitCivilian).Push(social.Order{Type: "levy"})
	err := s.recruit(c, defs.UnitCivilian)
	if !errors.Is(err, errx.ErrContent) {
		t.Fatalf("err = %v, want content error", err)
	}
}

func TestResearchCompletesTechnology(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	c.Economy.AddOutput("research", 12)

	mustNoErr(t, s.processResearch(c))
	if !c.Research.Has("wheel") || c.Research.Progress != 2 {
		t.Fatalf("research = %+v", c.Research)
	}
	mustNoErr(t, s.processResearch(c))
	if c.Research.Current != "bronze" || c.Research.Progress != 14 {
		t.Fatalf("research = %+v", c.Research)
	}
	if len(s.pending) != 1 || s.pending[0].Category != "research" {
		t.Fatalf("pending = %+v", s.pending)
	}
}

func TestEntityHooksMoveUnits(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	dest := world.ProvinceID(9)
	c.AddUnit(&social.Unit{Type: "settler", Kind: defs.UnitCivilian, Province: 1, Destination: &dest, TravelLeft: 2})

	s.processEntityHooks(c)
	if u := c.Civilians[0]; u.Province != 1 || u.TravelLeft != 1 {
		t.Fatalf("after one turn: %+v", u)
	}
	s.processEntityHooks(c)
	if u := c.Civilians[0]; u.Province != 9 || u.Destination != nil {
		t.Fatalf("after arrival: %+v", u)
	}
}

func TestModifiersApplyAndExpire(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1, 2)
	c := mustCountry(t, s, 1)
	festival, err := s.Script.CompileLedgerEffect(`{ grain = 5 }`, s.CountryVars)
	mustNoErr(t, err)
	charter, err := s.Script.CompileLedgerEffect(`{ wealth = 3 }`, s.CountryVars)
	mustNoErr(t, err)
	c.Modifiers = []*social.Modifier{
		{ID: "festival", Multiplier: 2, TurnsLeft: 2, Effect: festival},
		{ID: "charter", Multiplier: 1, TurnsLeft: -1, Effect: charter},
	}
	c.Relations.AddKnown(2)
	c.Relations.AddOpinionModifier(social.OpinionModifier{Target: 2, Amount: 10, TurnsLeft: 1})

	mustNoErr(t, s.processModifiers(c))
	if got := c.Relations.Opinion(2); got != 0 {
		t.Fatalf("opinion after expiry = %d, want 0", got)
	}
	mustNoErr(t, s.processModifiers(c))
	mustNoErr(t, s.processModifiers(c))

	if got := c.Economy.Stored("grain"); got != 20 {
		t.Fatalf("grain = %d, want 20", got)
	}
	if got := c.Economy.Wealth(); got != 9 {
		t.Fatalf("wealth = %d, want 9", got)
	}
	if len(c.Modifiers) != 1 || c.Modifiers[0].ID != "charter" {
		t.Fatalf("modifiers = %+v", c.Modifiers)
	}
}

func TestJournalCompletesOnce(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	check, err := s.Script.CompileCountryCondition(`country.wealth >= 100`, s.CountryVars)
	mustNoErr(t, err)
	c.Journal = []*social.JournalEntry{{ID: "rich", Title: "Rich", Condition: `country.wealth >= 100`, Check: check}}

	mustNoErr(t, s.processJournal(c))
	if c.Journal[0].Done {
		t.Fatal("completed without wealth")
	}
	c.Economy.AddWealth(150)
	mustNoErr(t, s.processJournal(c))
	mustNoErr(t, s.processJournal(c))
	if !c.Journal[0].Done {
		t.Fatal("entry not completed")
	}
	if len(s.pending) != 1 || s.pending[0].Title != "Rich" {
		t.Fatalf("pending = %+v", s.pending)
	}
}

func TestMortalitySuccessionAndAnarchy(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1, 2)
	s.Turn = TurnsPerYear

	heirs := mustCountry(t, s, 1)
	heirs.Characters = []*social.Character{{ID: 1, Name: "Old", Age: 200}, {ID: 2, Name: "Young", Age: 20}, {ID: 3, Name: "Mid", Age: 40}}
	heirs.Ruler = 1
	s.processMortality(heirs)
	if heirs.Ruler != 3 || heirs.Anarchy {
		t.Fatalf("ruler = %d, anarchy = %v", heirs.Ruler, heirs.Anarchy)
	}
	if ch, _ := heirs.Character(3); ch.Age != 41 {
		t.Fatalf("age = %d, want 41", ch.Age)
	}

	alone := mustCountry(t, s, 2)
	alone.Characters = []*social.Character{{ID: 1, Name: "Last", Age: 300}}
	alone.Ruler = 1
	s.processMortality(alone)
	if !alone.Anarchy || alone.Ruler != 0 {
		t.Fatalf("ruler = %d, anarchy = %v", alone.Ruler, alone.Anarchy)
	}
}

func TestMortalityOnlyAtYearEnd(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	s.Turn = 5
	c := mustCountry(t, s, 1)
	c.Characters = []*social.Character{{ID: 1, Name: "Old", Age: 300}}
	c.Ruler = 1
	s.processMortality(c)
	if len(c.Characters) != 1 || c.Characters[0].Age != 300 {
		t.Fatalf("characters = %+v", c.Characters)
	}
}

func TestProvinceTax(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	addSettlement(t, s, 1, 1, 100)
	addUnit(s, 1, 1, "farmer", 9)
	addUnit(s, 1, 1, "artisan", 2)
	c := mustCountry(t, s, 1)

	mustNoErr(t, s.collectProvinceTaxes(c))
	if got := c.Economy.Wealth(); got != 5 {
		t.Fatalf("wealth = %d, want 5", got)
	}
}

func TestDoTurnUnknownCountry(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	err := s.DoTurn(42)
	if !errors.Is(err, errx.ErrNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestStepIsolatesFailingCountry(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1, 2)
	addSettlement(t, s, 1, 1, 100)
	addSettlement(t, s, 2, 2, 100)
	addUnit(s, 1, 1, "farmer", 10)
	addUnit(s, 2, 1, "farmer", 10)
	mustCountry(t, s, 1).Queue(defs.UnitMilitary).Push(social.Order{Type: "ghost"})

	report := s.Step()
	if report.Turn != 1 {
		t.Fatalf("turn = %d", report.Turn)
	}
	if len(report.Failed) != 1 || report.Failed[0] != 1 {
		t.Fatalf("failed = %v, want [1]", report.Failed)
	}
	// The healthy country ran every phase, including growth.
	two := mustCountry(t, s, 2)
	if got := two.Economy.Wealth(); got != 5 {
		t.Fatalf("country 2 wealth = %d, want 5", got)
	}
	if len(report.Transactions[2]) == 0 {
		t.Fatal("country 2 logged no transactions")
	}
	if s.Stats.Failures != 1 {
		t.Fatalf("failures = %d", s.Stats.Failures)
	}
}

func TestStepDeliversEvents(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	c.AddUnit(&social.Unit{Type: "levy", Kind: defs.UnitMilitary})

	report := s.Step()
	if len(report.Events) != 1 || report.Events[0].Turn != 1 {
		t.Fatalf("events = %+v", report.Events)
	}
	n := s.Notifier.(*recordingNotifier)
	if len(n.titles) != 1 || n.titles[0] != "Units disbanded" {
		t.Fatalf("notified = %v", n.titles)
	}
	if len(s.pending) != 0 || len(s.Events) != 1 {
		t.Fatalf("pending %d, recent %d", len(s.pending), len(s.Events))
	}
}

func TestCountryVarsVisibleToScripts(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	mustNoErr(t, c.Economy.SetStored("grain", 40))
	c.Research.Completed = []string{"wheel"}
	check, err := s.Script.CompileCountryCondition(`country.stored.grain == 40 and #country.research == 1 and country.id == 1`, s.CountryVars)
	mustNoErr(t, err)
	ok, err := check.Check(c)
	mustNoErr(t, err)
	if !ok {
		t.Fatal("condition did not see the country")
	}
}
