// Package script evaluates content-authored Lua expressions: cultural
// derivation conditions, journal conditions and ledger effects. One Engine
// holds one interpreter and must only be used from the simulation goroutine.
package script

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Shopify/go-lua"

	"github.com/talgya/mini-realm/internal/errx"
)

// Vars are the globals visible to an expression. Values may be string, bool,
// any integer or float kind, or a nested Vars (pushed as a table).
type Vars map[string]any

// Engine owns a Lua state and the compiled chunks stored in it.
type Engine struct {
	state *lua.State
	next  int
	cache map[string]*Expr
}

func NewEngine() *Engine {
	state := lua.NewState()
	lua.OpenLibraries(state)
	return &Engine{state: state, cache: make(map[string]*Expr)}
}

// Expr is a compiled expression or statement block.
type Expr struct {
	engine *Engine
	name   string
	source string
}

func (x *Expr) Source() string { return x.source }

// Compile turns src into a callable chunk. A bare expression is wrapped as
// "return (src)"; a source containing a return statement is used as is.
// Identical sources share one chunk.
func (e *Engine) Compile(src string) (*Expr, error) {
	src = strings.TrimSpace(src)
	if x, ok := e.cache[src]; ok {
		return x, nil
	}
	body := src
	if !strings.Contains(src, "return") {
		body = "return (" + src + ")"
	}
	if err := lua.LoadString(e.state, body); err != nil {
		e.state.SetTop(0)
		return nil, errx.Content("compile %q: %v", src, err)
	}
	e.next++
	name := fmt.Sprintf("__chunk_%d", e.next)
	e.state.SetGlobal(name)
	x := &Expr{engine: e, name: name, source: src}
	e.cache[src] = x
	return x, nil
}

// call runs the chunk with vars installed as globals, leaving one result on
// the stack for the caller to consume.
func (x *Expr) call(vars Vars) error {
	l := x.engine.state
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		pushValue(l, vars[k])
		l.SetGlobal(k)
	}
	l.Global(x.name)
	if err := l.ProtectedCall(0, 1, 0); err != nil {
		l.SetTop(0)
		return fmt.Errorf("run %q: %w", x.source, err)
	}
	return nil
}

// Bool evaluates the expression and reports its Lua truthiness.
func (x *Expr) Bool(vars Vars) (bool, error) {
	if err := x.call(vars); err != nil {
		return false, err
	}
	l := x.engine.state
	ok := l.ToBoolean(-1)
	l.Pop(1)
	return ok, nil
}

// Table evaluates the chunk and reads its result as a table of integer
// amounts keyed by string. Non-numeric entries are rejected.
func (x *Expr) Table(vars Vars) (map[string]int64, error) {
	if err := x.call(vars); err != nil {
		return nil, err
	}
	l := x.engine.state
	defer l.Pop(1)
	if l.TypeOf(-1) != lua.TypeTable {
		return nil, errx.Content("%q must return a table", x.source)
	}
	out := make(map[string]int64)
	idx := l.AbsIndex(-1)
	l.PushNil()
	for l.Next(idx) {
		if l.TypeOf(-2) != lua.TypeString {
			l.Pop(2)
			return nil, errx.Content("%q returned a non-string key", x.source)
		}
		key, _ := l.ToString(-2)
		n, ok := l.ToNumber(-1)
		if !ok {
			l.Pop(2)
			return nil, errx.Content("%q returned non-number for %q", x.source, key)
		}
		out[key] = int64(n)
		l.Pop(1)
	}
	return out, nil
}

func sortedIDs(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func pushValue(l *lua.State, v any) {
	switch val := v.(type) {
	case nil:
		l.PushNil()
	case string:
		l.PushString(val)
	case bool:
		l.PushBoolean(val)
	case int:
		l.PushInteger(val)
	case int64:
		l.PushInteger(int(val))
	case int32:
		l.PushInteger(int(val))
	case uint32:
		l.PushInteger(int(val))
	case uint64:
		l.PushInteger(int(val))
	case float64:
		l.PushNumber(val)
	case Vars:
		pushTable(l, val)
	case map[string]any:
		pushTable(l, Vars(val))
	case []string:
		l.NewTable()
		for i, s := range val {
			l.PushString(s)
			l.RawSetInt(-2, i+1)
		}
	default:
		l.PushString(fmt.Sprint(val))
	}
}

func pushTable(l *lua.State, vars Vars) {
	l.NewTable()
	for k, v := range vars {
		pushValue(l, v)
		l.SetField(-2, k)
	}
}
