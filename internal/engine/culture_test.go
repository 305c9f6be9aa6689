package engine

import (
	"testing"

	"github.com/talgya/mini-realm/internal/pops"
)

// scriptedRand replays fixed draws and never reorders.
type scriptedRand struct {
	draws []int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.draws) == 0 {
		return n - 1
	}
	d := r.draws[0]
	r.draws = r.draws[1:]
	return d
}

func (r *scriptedRand) Shuffle(int, func(i, j int)) {}

func TestDeriveCulturePicksFromWholeSet(t *testing.T) {
	u := &pops.Unit{Culture: "a"}
	// "b" fails its roll, "c" succeeds, the pick lands on "b".
	rng := &scriptedRand{draws: []int{50, 0, 0}}
	if !deriveCulture(rng, u, []string{"b", "c"}, "") {
		t.Fatal("expected a culture change")
	}
	if u.Culture != "b" {
		t.Fatalf("culture = %s, want b", u.Culture)
	}
}

func TestDeriveCulturePrimaryDoublesChance(t *testing.T) {
	tests := []struct {
		primary string
		want    bool
	}{
		{"", false},
		{"b", true},
	}
	for _, tt := range tests {
		u := &pops.Unit{Culture: "a"}
		rng := &scriptedRand{draws: []int{1, 0}}
		if got := deriveCulture(rng, u, []string{"b"}, tt.primary); got != tt.want {
			t.Fatalf("primary %q: changed = %v, want %v", tt.primary, got, tt.want)
		}
	}
}

func TestDeriveCultureWithoutCandidates(t *testing.T) {
	u := &pops.Unit{Culture: "a"}
	if deriveCulture(&scriptedRand{draws: []int{0}}, u, nil, "a") {
		t.Fatal("changed without candidates")
	}
	if u.Culture != "a" {
		t.Fatalf("culture = %s", u.Culture)
	}
}

func TestProcessCultureOnlyTriesPassingDerivations(t *testing.T) {
	s := newTestSim(t, testDefs(t), 1)
	addSettlement(t, s, 1, 1, 1000)
	small := addUnit(s, 1, 1, "farmer", 5)
	big := addUnit(s, 1, 1, "farmer", 500)
	c := mustCountry(t, s, 1)
	c.PrimaryCulture = "b"

	// With a 2% chance per turn the large unit drifts well within 1000 turns.
	for i := 0; i < 1000 && big.Culture == "a"; i++ {
		s.processCulture(c)
	}
	if big.Culture != "b" {
		t.Fatalf("large unit culture = %s, want b", big.Culture)
	}
	if small.Culture != "a" {
		t.Fatalf("small unit drifted to %s without a passing derivation", small.Culture)
	}
}
