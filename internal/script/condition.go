package script

import (
	"github.com/talgya/mini-realm/internal/logs"
	"github.com/talgya/mini-realm/internal/pops"

	"go.uber.org/zap"
)

// UnitCondition is a pops.Condition backed by a Lua expression. The unit is
// visible as the table "pop" with fields id, type, culture, religion,
// phenotype, size, province and site.
type UnitCondition struct {
	expr *Expr
}

// CompileUnitCondition compiles src. An empty source yields pops.Always.
func (e *Engine) CompileUnitCondition(src string) (pops.Condition, error) {
	if src == "" {
		return pops.Always, nil
	}
	x, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return &UnitCondition{expr: x}, nil
}

// Check treats a runtime failure as a failed condition.
func (c *UnitCondition) Check(u *pops.Unit) bool {
	ok, err := c.expr.Bool(Vars{"pop": UnitVars(u)})
	if err != nil {
		logs.Warn("unit condition failed", zap.String("condition", c.expr.Source()), zap.Uint64("unit", uint64(u.ID)), zap.Error(err))
		return false
	}
	return ok
}

func UnitVars(u *pops.Unit) Vars {
	return Vars{
		"id":        uint64(u.ID),
		"type":      u.Type,
		"culture":   u.Culture,
		"religion":  u.Religion,
		"phenotype": u.Phenotype,
		"size":      u.Size,
		"province":  uint32(u.Province),
		"site":      uint32(u.Site),
	}
}
