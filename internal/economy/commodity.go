// Package economy provides the per-country commodity ledger, the transaction
// log and the vassal taxation cascade.
package economy

import (
	"github.com/talgya/mini-realm/internal/defs"
)

// Commodity is an immutable commodity definition.
type Commodity = defs.Commodity

// Catalog resolves commodity definitions by ID.
type Catalog interface {
	Commodity(id string) (defs.Commodity, bool)
}

// CatalogMap is a Catalog over a plain map, handy for tests and tools.
type CatalogMap map[string]Commodity

func (m CatalogMap) Commodity(id string) (Commodity, bool) {
	c, ok := m[id]
	return c, ok
}
