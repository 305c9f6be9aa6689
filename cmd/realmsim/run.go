package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/talgya/mini-realm/internal/api"
	"github.com/talgya/mini-realm/internal/engine"
	"github.com/talgya/mini-realm/internal/logs"
	"github.com/talgya/mini-realm/internal/persistence"
)

func runSimulation(cmd *cobra.Command, _ []string) error {
	cfg, content, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logs.Sync()

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Persistence.DBPath != "" {
		if dir := filepath.Dir(cfg.Persistence.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create data dir: %w", err)
			}
		}
		db, err = persistence.Open(cfg.Persistence.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		logs.Info("database opened", zap.String("path", cfg.Persistence.DBPath))
	}

	// ── Load or generate the session ─────────────────────────────────
	var sim *engine.Simulation
	if db != nil && !fresh && db.HasWorldState() {
		sim, err = db.LoadWorldState(content)
		if err != nil {
			return fmt.Errorf("load saved state: %w", err)
		}
	} else {
		sim, err = engine.NewScenario(content, engine.ScenarioConfig{
			Seed:                cfg.Sim.Seed,
			Countries:           cfg.Sim.Countries,
			MapRadius:           cfg.Sim.MapRadius,
			ProvincesPerCountry: 2,
		})
		if err != nil {
			return fmt.Errorf("generate scenario: %w", err)
		}
	}

	// ── Engine ────────────────────────────────────────────────────────
	eng := engine.NewEngine(sim.Turn)
	eng.SaveEvery = cfg.Persistence.SaveEvery
	var unsaved []engine.Event
	eng.OnTurn = func(int) error {
		report := sim.Step()
		unsaved = append(unsaved, report.Events...)
		if db == nil {
			return nil
		}
		return db.AppendTransactions(sim.SessionID, report.Transactions)
	}
	eng.OnYear = func(turn int) {
		if !quiet {
			sim.View(func(s *engine.Simulation) { printYearReport(os.Stdout, s) })
		}
	}
	if db != nil {
		eng.OnSave = func(int) error {
			var err error
			sim.View(func(s *engine.Simulation) { err = db.SaveWorldState(s, unsaved) })
			if err == nil {
				unsaved = nil
			}
			return err
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	var server *api.Server
	if cfg.API.Addr != "" {
		server = api.NewServer(cfg.API.Addr, sim, eng, db)
		go func() {
			if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logs.Error("HTTP server error", zap.Error(err))
			}
		}()
	}

	// ── Start ─────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !quiet {
		title := color.New(color.FgCyan, color.Bold)
		title.Printf("\nMini Realm: %d countries, %d population units\n", sim.Stats.Countries, sim.Stats.Units)
		if sim.Turn > 0 {
			fmt.Printf("Resuming session %s at turn %d (%s)\n", sim.SessionID, sim.Turn, engine.SimTime(sim.Turn))
		}
		if server != nil {
			fmt.Printf("API: http://%s/api/v1/status\n", cfg.API.Addr)
		}
	}

	runErr := eng.Run(ctx, cfg.Sim.Turns)

	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logs.Warn("HTTP server shutdown", zap.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	if !quiet {
		sim.View(func(s *engine.Simulation) { printYearReport(os.Stdout, s) })
		color.New(color.FgGreen, color.Bold).Printf("Stopped at turn %d (%s).\n", sim.Turn, engine.SimTime(sim.Turn))
	}
	return nil
}
