package social

import (
	"slices"

	"github.com/talgya/mini-realm/internal/world"
)

// OpinionModifier is a temporary opinion adjustment toward one country.
type OpinionModifier struct {
	Target    world.CountryID `json:"target"`
	Reason    string          `json:"reason"`
	Amount    int64           `json:"amount"`
	TurnsLeft int             `json:"turns_left"`
}

// Relations holds a country's view of the others. The overlord is a stable
// country ID, never a reference.
type Relations struct {
	Owner     world.CountryID           `json:"owner"`
	Min       int64                     `json:"min"`
	Max       int64                     `json:"max"`
	Overlord  *world.CountryID          `json:"overlord,omitempty"`
	Known     []world.CountryID         `json:"known"` // sorted, excludes self
	Base      map[world.CountryID]int64 `json:"base_opinion"`
	Modifiers []OpinionModifier         `json:"opinion_modifiers,omitempty"`
}

func NewRelations(self world.CountryID, min, max int64) *Relations {
	return &Relations{Owner: self, Min: min, Max: max, Base: make(map[world.CountryID]int64)}
}

// AddKnown records that id is known. The owner itself is never added.
func (r *Relations) AddKnown(id world.CountryID) {
	if id == r.Owner {
		return
	}
	i, found := slices.BinarySearch(r.Known, id)
	if !found {
		r.Known = slices.Insert(r.Known, i, id)
	}
}

func (r *Relations) Knows(id world.CountryID) bool {
	_, found := slices.BinarySearch(r.Known, id)
	return found
}

func (r *Relations) SetOverlord(id world.CountryID) { r.Overlord = &id }
func (r *Relations) ClearOverlord()                 { r.Overlord = nil }

// Opinion is the base opinion plus active modifiers, clamped to [Min, Max].
func (r *Relations) Opinion(target world.CountryID) int64 {
	v := r.Base[target]
	for _, m := range r.Modifiers {
		if m.Target == target {
			v += m.Amount
		}
	}
	return min(max(v, r.Min), r.Max)
}

// ChangeBaseOpinion adds d to the base opinion, clamped to [Min, Max].
func (r *Relations) ChangeBaseOpinion(target world.CountryID, d int64) {
	r.Base[target] = min(max(r.Base[target]+d, r.Min), r.Max)
}

func (r *Relations) AddOpinionModifier(m OpinionModifier) {
	r.Modifiers = append(r.Modifiers, m)
}

// DecrementModifiers ages every opinion modifier by one turn and drops the
// expired ones. It returns how many expired.
func (r *Relations) DecrementModifiers() int {
	kept := r.Modifiers[:0]
	expired := 0
	for _, m := range r.Modifiers {
		m.TurnsLeft--
		if m.TurnsLeft <= 0 {
			expired++
			continue
		}
		kept = append(kept, m)
	}
	r.Modifiers = kept
	return expired
}
