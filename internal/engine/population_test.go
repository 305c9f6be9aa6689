package engine

import (
	"errors"
	"testing"

	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/pops"
	"github.com/talgya/mini-realm/internal/world"
)

// feed sets grain so that stored food minus net consumption equals surplus.
func feed(t *testing.T, s *Simulation, surplus int64) {
	t.Helper()
	c := mustCountry(t, s, 1)
	need := s.foodConsumption(s.countryUnits(c))
	mustNoErr(t, c.Economy.SetStored("grain", need+surplus))
}

func TestGrowthScenario(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	addSettlement(t, s, 1, 1, 40) // 10 occupied, housing surplus 30
	addUnit(s, 1, 1, "farmer", 10)
	c := mustCountry(t, s, 1)

	for turn := 1; turn <= 4; turn++ {
		feed(t, s, 50)
		mustNoErr(t, s.processGrowth(c))
		if turn == 1 {
			if got := c.Economy.Stored("grain"); got != 20 {
				t.Fatalf("grain after turn 1 = %d, want 20", got)
			}
		}
		if turn == 3 && s.Pops.Len() != 1 {
			t.Fatalf("spawned before reaching the threshold")
		}
	}
	if got := s.Pops.Len(); got != 2 {
		t.Fatalf("units = %d, want 2", got)
	}
	if c.GrowthAccumulator != 20 {
		t.Fatalf("accumulator = %d, want 20", c.GrowthAccumulator)
	}
	spawned := s.Pops.All()[1]
	if spawned.Culture != "a" || spawned.Type != "farmer" || spawned.Site != 1 || spawned.Size != 1 {
		t.Fatalf("spawned = %+v", spawned)
	}
}

func TestGrowthMatchesFloorProperty(t *testing.T) {
	const surplus, threshold = 37, 100
	s := newTestSim(t, testDefs(t), 1)
	addSettlement(t, s, 1, 1, 900)
	addUnit(s, 1, 1, "farmer", 5)
	c := mustCountry(t, s, 1)

	for k := 1; k <= 12; k++ {
		feed(t, s, surplus)
		mustNoErr(t, s.processGrowth(c))
		wantSpawned := k * surplus / threshold
		if got := s.Pops.Len() - 1; got != wantSpawned {
			t.Fatalf("turn %d: spawned %d, want %d", k, got, wantSpawned)
		}
		if want := int64(k * surplus % threshold); c.GrowthAccumulator != want {
			t.Fatalf("turn %d: accumulator %d, want %d", k, c.GrowthAccumulator, want)
		}
		if c.GrowthAccumulator >= threshold {
			t.Fatalf("turn %d: accumulator left at %d", k, c.GrowthAccumulator)
		}
	}
}

func TestGrowthResetsWithoutConsumption(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	c := mustCountry(t, s, 1)
	c.GrowthAccumulator = 55
	mustNoErr(t, s.processGrowth(c))
	if c.GrowthAccumulator != 0 {
		t.Fatalf("accumulator = %d, want 0", c.GrowthAccumulator)
	}
}

func TestFreeFoodReducesConsumption(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	p := addSettlement(t, s, 1, 1, 10) // housing surplus 0 keeps growth out of it
	p.Sites[0].FreeFood = 4
	addUnit(s, 1, 1, "farmer", 10)
	c := mustCountry(t, s, 1)
	mustNoErr(t, c.Economy.SetStored("grain", 20))

	mustNoErr(t, s.processGrowth(c))
	if got := c.Economy.Stored("grain"); got != 14 {
		t.Fatalf("grain = %d, want 14", got)
	}
}

func TestStarvationSparesLastUnitOfSettlement(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	addSettlement(t, s, 1, 1, 10, 10)
	lone := addUnit(s, 1, 1, "farmer", 1)
	for i := 0; i < 3; i++ {
		addUnit(s, 1, 2, "farmer", 1)
	}
	c := mustCountry(t, s, 1)
	// No food: growth delta is -4; starting at 2 leaves -2, two removals.
	c.GrowthAccumulator = 2

	mustNoErr(t, s.processGrowth(c))
	if _, ok := s.Pops.Get(lone.ID); !ok {
		t.Fatal("the only unit of settlement 1 starved while others were eligible")
	}
	if got := len(s.Pops.InSite(1, 2)); got != 1 {
		t.Fatalf("settlement 2 units = %d, want 1", got)
	}
	if c.GrowthAccumulator != 0 {
		t.Fatalf("accumulator = %d, want 0", c.GrowthAccumulator)
	}
	if n := len(s.pending); n != 1 || s.pending[0].Category != "starvation" {
		t.Fatalf("pending events = %+v", s.pending)
	}
}

func TestStarvationVictimPreferences(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  string
	}{
		{"non food producer first", []string{"farmer", "artisan"}, "artisan"},
		{"lowest output value", []string{"artisan", "idler"}, "idler"},
		{"non-labor at equal value", []string{"worker", "artisan"}, "artisan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, testDefs(t), 1)
			addSettlement(t, s, 1, 1, 50)
			var units []*pops.Unit
			for _, typ := range tt.types {
				units = append(units, addUnit(s, 1, 1, typ, 1))
			}
			v, err := s.starvationVictim(units)
			mustNoErr(t, err)
			if v.Type != tt.want {
				t.Fatalf("victim = %s, want %s", v.Type, tt.want)
			}
		})
	}
}

func TestStarvationWithoutUnitsIsInvariant(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	if _, err := s.starvationVictim(nil); !errors.Is(err, errx.ErrInvariant) {
		t.Fatalf("err = %v, want invariant violation", err)
	}
}

func TestStarvationNeverEmptiesSettlement(t *testing.T) {
	tests := []struct {
		name    string
		housing []int64
	}{
		{"single settlement", []int64{10}},
		{"one unit per settlement", []int64{10, 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, testDefs(t), 1)
			addSettlement(t, s, 1, 1, tt.housing...)
			var units []*pops.Unit
			for i := range tt.housing {
				units = append(units, addUnit(s, 1, world.SiteID(i+1), "farmer", 1))
			}
			c := mustCountry(t, s, 1)

			// No food: the accumulator drops below zero with no eligible victim.
			err := s.processGrowth(c)
			if !errors.Is(err, errx.ErrInvariant) {
				t.Fatalf("err = %v, want invariant violation", err)
			}
			for _, u := range units {
				if _, ok := s.Pops.Get(u.ID); !ok {
					t.Fatalf("unit %d on site %d was removed", u.ID, u.Site)
				}
			}
			if s.Stats.Starved != 0 {
				t.Fatalf("starved = %d, want 0", s.Stats.Starved)
			}
		})
	}
}

func TestSpawnMovesToSiteWithSpareHousing(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	addSettlement(t, s, 1, 1, 2, 5)
	addUnit(s, 1, 1, "farmer", 2) // site 1 full, site 2 empty
	c := mustCountry(t, s, 1)

	u, err := s.spawnUnit(c)
	mustNoErr(t, err)
	// Only populated sites receive units, so a full source keeps its unit.
	if u == nil || u.Site != 1 {
		t.Fatalf("spawned = %+v, want site 1", u)
	}

	s2 := newTestSim(t, testDefs(t), 1)
	addSettlement(t, s2, 1, 1, 2, 9)
	addUnit(s2, 1, 1, "farmer", 2)
	addUnit(s2, 1, 2, "artisan", 1)
	u, err = s2.spawnUnit(mustCountry(t, s2, 1))
	mustNoErr(t, err)
	if u.Site != 2 {
		t.Fatalf("spawned on site %d, want the site with room", u.Site)
	}
	if u.Type != "farmer" {
		t.Fatalf("type = %s, want the culture's peasant type", u.Type)
	}
}
