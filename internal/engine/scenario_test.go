package engine

import (
	"testing"

	"github.com/talgya/mini-realm/internal/defs"
)

func buildScenario(t *testing.T) *Simulation {
	t.Helper()
	s, err := NewScenario(defs.Default(), ScenarioConfig{Seed: 42, Countries: 4, MapRadius: 8, ProvincesPerCountry: 2})
	if err != nil {
		t.Fatalf("NewScenario: %v", err)
	}
	s.Notifier = &recordingNotifier{}
	return s
}

func TestScenarioSetup(t *testing.T) {
	s := buildScenario(t)
	countries := s.Countries()
	if len(countries) != 4 {
		t.Fatalf("countries = %d, want 4", len(countries))
	}
	if s.Pops.Len() == 0 {
		t.Fatal("no population spawned")
	}
	for i, c := range countries {
		if len(c.Provinces) == 0 {
			t.Errorf("country %d owns no province", c.ID)
		}
		if c.Ruler == 0 || len(c.Characters) != 3 {
			t.Errorf("country %d court: ruler %d, %d characters", c.ID, c.Ruler, len(c.Characters))
		}
		if got := len(c.Relations.Known); got != 3 {
			t.Errorf("country %d knows %d countries, want 3", c.ID, got)
		}
		hasLord := c.Relations.Overlord != nil
		if want := i%3 != 0; hasLord != want {
			t.Errorf("country %d overlord = %v, want %v", c.ID, hasLord, want)
		}
	}
}

func TestScenarioRunsTwoYears(t *testing.T) {
	s := buildScenario(t)
	for i := 0; i < 2*TurnsPerYear; i++ {
		report := s.Step()
		if len(report.Failed) > 0 {
			t.Fatalf("turn %d: countries %v failed", report.Turn, report.Failed)
		}
	}
	if s.Turn != 24 {
		t.Fatalf("turn = %d", s.Turn)
	}
	for _, c := range s.Countries() {
		for _, id := range c.Economy.Commodities() {
			e := c.Economy.Entry(id)
			com, _ := s.Defs.Commodity(id)
			if e.Stored < 0 && !com.NegativeAllowed {
				t.Errorf("country %d: %s stored %d", c.ID, id, e.Stored)
			}
			if e.Offer > e.Stored {
				t.Errorf("country %d: %s offer %d above stored %d", c.ID, id, e.Offer, e.Stored)
			}
			if e.Offer > 0 && e.Bid > 0 {
				t.Errorf("country %d: %s has both offer and bid", c.ID, id)
			}
		}
		if c.GrowthAccumulator >= s.Defs.Rules.GrowthThreshold {
			t.Errorf("country %d: accumulator %d", c.ID, c.GrowthAccumulator)
		}
	}
}

func TestScenarioIsDeterministic(t *testing.T) {
	a, b := buildScenario(t), buildScenario(t)
	for i := 0; i < TurnsPerYear; i++ {
		a.Step()
		b.Step()
	}
	if a.Stats.TotalPopulation != b.Stats.TotalPopulation || a.Stats.Units != b.Stats.Units {
		t.Fatalf("population diverged: %+v vs %+v", a.Stats, b.Stats)
	}
	ca, cb := a.Countries(), b.Countries()
	for i := range ca {
		if ca[i].Economy.Wealth() != cb[i].Economy.Wealth() {
			t.Fatalf("country %d wealth %d vs %d", ca[i].ID, ca[i].Economy.Wealth(), cb[i].Economy.Wealth())
		}
	}
}
