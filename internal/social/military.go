package social

import (
	"github.com/talgya/mini-realm/internal/defs"
	"github.com/talgya/mini-realm/internal/world"
)

// UnitID identifies a recruited unit within its country.
type UnitID uint32

// Unit is a recruited military unit, civilian or transporter.
type Unit struct {
	ID          UnitID            `json:"id"`
	Type        string            `json:"type"`
	Kind        defs.UnitKind     `json:"kind"`
	Province    world.ProvinceID  `json:"province"`
	Destination *world.ProvinceID `json:"destination,omitempty"`
	TravelLeft  int               `json:"travel_left"`
}

// Order asks for one unit of Type to be raised in Province.
type Order struct {
	Type     string           `json:"type"`
	Province world.ProvinceID `json:"province"`
}

// Queue is a FIFO of recruitment orders.
type Queue struct {
	Orders []Order `json:"orders"`
}

func (q *Queue) Push(o Order) { q.Orders = append(q.Orders, o) }

func (q *Queue) Peek() (Order, bool) {
	if len(q.Orders) == 0 {
		return Order{}, false
	}
	return q.Orders[0], true
}

func (q *Queue) Pop() {
	if len(q.Orders) > 0 {
		q.Orders = q.Orders[1:]
	}
}

func (q *Queue) Len() int { return len(q.Orders) }

// Queue returns the recruitment queue for a unit kind.
func (c *Country) Queue(kind defs.UnitKind) *Queue {
	switch kind {
	case defs.UnitMilitary:
		return &c.MilitaryQueue
	case defs.UnitCivilian:
		return &c.CivilianQueue
	default:
		return &c.TransporterQueue
	}
}

// AddUnit files u under its kind and assigns the next free ID.
func (c *Country) AddUnit(u *Unit) {
	var next UnitID
	for _, x := range c.AllUnits() {
		next = max(next, x.ID)
	}
	u.ID = next + 1
	switch u.Kind {
	case defs.UnitMilitary:
		c.Military = append(c.Military, u)
	case defs.UnitCivilian:
		c.Civilians = append(c.Civilians, u)
	default:
		c.Transporters = append(c.Transporters, u)
	}
}

// Disband removes the unit with the given ID from whichever list holds it.
func (c *Country) Disband(id UnitID) bool {
	for _, list := range []*[]*Unit{&c.Transporters, &c.Civilians, &c.Military} {
		for i, u := range *list {
			if u.ID == id {
				*list = append((*list)[:i], (*list)[i+1:]...)
				return true
			}
		}
	}
	return false
}
