package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/talgya/mini-realm/internal/logs"
)

// TurnsPerYear is the number of turns (months) in one game year.
const TurnsPerYear = 12

// Engine drives the simulation forward one turn at a time. There is no
// wall-clock pacing: a turn starts as soon as the previous one finished.
type Engine struct {
	Turn    int // Turns completed
	running atomic.Bool

	// Callbacks for each turn layer, populated during setup.
	OnTurn func(turn int) error // Every turn
	OnYear func(turn int)       // Every TurnsPerYear turns
	OnSave func(turn int) error // Every SaveEvery turns, and once on stop
	// SaveEvery of zero disables periodic saves.
	SaveEvery int
}

// NewEngine creates an engine resuming after turn.
func NewEngine(turn int) *Engine {
	return &Engine{Turn: turn}
}

// Run advances up to turns turns, or until Stop or ctx cancellation when
// turns is not positive. A failing OnTurn stops the run.
func (e *Engine) Run(ctx context.Context, turns int) error {
	e.running.Store(true)
	defer e.running.Store(false)
	logs.Info("simulation engine started", zap.Int("turn", e.Turn), zap.Int("turns", turns))

	for done := 0; turns <= 0 || done < turns; done++ {
		if ctx.Err() != nil || !e.running.Load() {
			break
		}
		if err := e.step(); err != nil {
			return err
		}
	}

	logs.Info("simulation engine stopped", zap.Int("turn", e.Turn))
	if e.OnSave != nil {
		return e.OnSave(e.Turn)
	}
	return nil
}

// Stop halts the loop after the current turn.
func (e *Engine) Stop() {
	e.running.Store(false)
}

func (e *Engine) Running() bool { return e.running.Load() }

// step advances the simulation by one turn.
func (e *Engine) step() error {
	e.Turn++

	if e.OnTurn != nil {
		if err := e.OnTurn(e.Turn); err != nil {
			return fmt.Errorf("turn %d: %w", e.Turn, err)
		}
	}

	// Every year: yearly report.
	if e.Turn%TurnsPerYear == 0 && e.OnYear != nil {
		e.OnYear(e.Turn)
	}

	// Periodic snapshot.
	if e.SaveEvery > 0 && e.Turn%e.SaveEvery == 0 && e.OnSave != nil {
		if err := e.OnSave(e.Turn); err != nil {
			return fmt.Errorf("save at turn %d: %w", e.Turn, err)
		}
	}
	return nil
}

var monthNames = [TurnsPerYear]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// SimTime returns a human-readable game date for a turn number. Turn 1 is
// January of year 1.
func SimTime(turn int) string {
	if turn < 1 {
		return "before the first turn"
	}
	month := (turn - 1) % TurnsPerYear
	year := (turn-1)/TurnsPerYear + 1
	return fmt.Sprintf("%s, Year %d", monthNames[month], year)
}
