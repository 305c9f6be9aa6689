// Package pops provides the population unit model and the registry that owns
// every unit of a simulation session.
package pops

import (
	"github.com/talgya/mini-realm/internal/world"
)

// UnitID is a stable identifier for a population unit.
type UnitID uint64

// Unit is one population unit living on a site of a province.
type Unit struct {
	ID        UnitID           `json:"id" db:"id"`
	Province  world.ProvinceID `json:"province_id" db:"province_id"`
	Site      world.SiteID     `json:"site_id" db:"site_id"`
	Type      string           `json:"type" db:"type"`
	Culture   string           `json:"culture" db:"culture"`
	Religion  string           `json:"religion" db:"religion"`
	Phenotype string           `json:"phenotype" db:"phenotype"`
	Size      int64            `json:"size" db:"size"`
}

// Condition is a predicate over a unit, used by cultural derivation.
type Condition interface {
	Check(u *Unit) bool
}

// ConditionFunc adapts a plain function to Condition.
type ConditionFunc func(u *Unit) bool

func (f ConditionFunc) Check(u *Unit) bool { return f(u) }

// Always is the condition that passes for every unit.
var Always Condition = ConditionFunc(func(*Unit) bool { return true })
