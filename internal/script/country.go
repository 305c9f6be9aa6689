package script

import (
	"github.com/talgya/mini-realm/internal/errx"
	"github.com/talgya/mini-realm/internal/social"
)

// VarsFunc exposes a country to scripts, normally as the table "country".
type VarsFunc func(c *social.Country) Vars

// CountryCondition is a social.CountryCondition backed by a Lua expression.
type CountryCondition struct {
	expr *Expr
	vars VarsFunc
}

func (e *Engine) CompileCountryCondition(src string, vars VarsFunc) (*CountryCondition, error) {
	x, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return &CountryCondition{expr: x, vars: vars}, nil
}

func (c *CountryCondition) Check(country *social.Country) (bool, error) {
	return c.expr.Bool(c.vars(country))
}

// LedgerEffect is a social.Effect whose script returns a table of amounts
// keyed by commodity. The key "wealth" adjusts wealth directly. Amounts are
// scaled by the multiplier, which scripts also see as "mult".
type LedgerEffect struct {
	expr *Expr
	vars VarsFunc
}

func (e *Engine) CompileLedgerEffect(src string, vars VarsFunc) (*LedgerEffect, error) {
	x, err := e.Compile(src)
	if err != nil {
		return nil, err
	}
	return &LedgerEffect{expr: x, vars: vars}, nil
}

func (f *LedgerEffect) Apply(c *social.Country, multiplier int64) error {
	vars := f.vars(c)
	if vars == nil {
		vars = Vars{}
	}
	vars["mult"] = multiplier
	deltas, err := f.expr.Table(vars)
	if err != nil {
		return err
	}
	for _, id := range sortedIDs(deltas) {
		d := deltas[id] * multiplier
		if id == "wealth" {
			c.Economy.AddWealth(d)
			continue
		}
		if err := c.Economy.ChangeStored(id, d); err != nil {
			return errx.Wrap(err, "apply effect", "commodity", id)
		}
	}
	return nil
}
