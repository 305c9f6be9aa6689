package pops

import (
	"slices"

	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/world"
)

// Registry owns every unit and hands out stable IDs. Iteration follows
// insertion order so simulation results depend only on the seed.
type Registry struct {
	units  map[UnitID]*Unit
	order  []UnitID
	nextID UnitID
}

func NewRegistry() *Registry {
	return &Registry{units: make(map[UnitID]*Unit), nextID: 1}
}

// Add assigns a fresh ID to u and stores it. A non-zero ID is kept, which is
// how snapshots are restored.
func (r *Registry) Add(u *Unit) UnitID {
	if u.ID == 0 {
		u.ID = r.nextID
	}
	if u.ID >= r.nextID {
		r.nextID = u.ID + 1
	}
	r.units[u.ID] = u
	r.order = append(r.order, u.ID)
	return u.ID
}

func (r *Registry) Get(id UnitID) (*Unit, bool) {
	u, ok := r.units[id]
	return u, ok
}

func (r *Registry) Remove(id UnitID) error {
	if _, ok := r.units[id]; !ok {
		return errx.New(errx.CodeNotFound, "population unit not found").WithData("unit", id)
	}
	delete(r.units, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
	return nil
}

func (r *Registry) Len() int { return len(r.order) }

// All returns every unit in insertion order.
func (r *Registry) All() []*Unit {
	out := make([]*Unit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.units[id])
	}
	return out
}

// InProvinces returns the units living in any of the given provinces, in
// insertion order.
func (r *Registry) InProvinces(ids []world.ProvinceID) []*Unit {
	var out []*Unit
	for _, id := range r.order {
		u := r.units[id]
		if slices.Contains(ids, u.Province) {
			out = append(out, u)
		}
	}
	return out
}

// InSite returns the units on one site.
func (r *Registry) InSite(p world.ProvinceID, s world.SiteID) []*Unit {
	var out []*Unit
	for _, id := range r.order {
		u := r.units[id]
		if u.Province == p && u.Site == s {
			out = append(out, u)
		}
	}
	return out
}

// TotalSize sums unit sizes.
func TotalSize(units []*Unit) int64 {
	var n int64
	for _, u := range units {
		n += u.Size
	}
	return n
}
