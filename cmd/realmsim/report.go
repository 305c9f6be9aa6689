package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/talgya/mini-realm/internal/engine"
	"github.com/talgya/mini-realm/internal/logs"
	"github.com/talgya/mini-realm/internal/persistence"
	"github.com/talgya/mini-realm/internal/pops"
)

// printYearReport writes a per-country summary table.
func printYearReport(w io.Writer, sim *engine.Simulation) {
	heading := color.New(color.FgYellow, color.Bold)
	heading.Fprintf(w, "\n%s (turn %d)\n", engine.SimTime(sim.Turn), sim.Turn)

	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"ID", "Country", "Government", "Overlord", "Population", "Wealth", "Stored food", "Growth", "Researched"}),
	)
	for _, c := range sim.Countries() {
		overlord := "-"
		if c.Relations.Overlord != nil {
			overlord = strconv.FormatUint(uint64(*c.Relations.Overlord), 10)
		}
		gov := c.Government.String()
		if c.Anarchy {
			gov = "anarchy"
		}
		var food int64
		for _, com := range sim.Defs.Commodities {
			if com.Food {
				food += c.Economy.Stored(com.ID)
			}
		}
		_ = table.Append([]string{
			strconv.FormatUint(uint64(c.ID), 10),
			c.Name,
			gov,
			overlord,
			strconv.FormatInt(pops.TotalSize(sim.Pops.InProvinces(c.Provinces)), 10),
			strconv.FormatInt(c.Economy.Wealth(), 10),
			strconv.FormatInt(food, 10),
			strconv.FormatInt(c.GrowthAccumulator, 10),
			strconv.Itoa(len(c.Research.Completed)),
		})
	}
	_ = table.Render()
	fmt.Fprintf(w, "Units: %d  Spawned: %d  Starved: %d  Failed turns: %d\n",
		sim.Stats.Units, sim.Stats.Spawned, sim.Stats.Starved, sim.Stats.Failures)
}

func inspectSaved(cmd *cobra.Command, _ []string) error {
	cfg, content, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logs.Sync()
	if cfg.Persistence.DBPath == "" {
		return fmt.Errorf("no database configured")
	}

	db, err := persistence.Open(cfg.Persistence.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()
	if !db.HasWorldState() {
		return fmt.Errorf("no saved session in %s", cfg.Persistence.DBPath)
	}
	sim, err := db.LoadWorldState(content)
	if err != nil {
		return err
	}
	printYearReport(cmd.OutOrStdout(), sim)

	events, err := db.RecentEvents(10)
	if err != nil {
		return err
	}
	if len(events) > 0 {
		color.New(color.FgCyan, color.Bold).Fprintln(cmd.OutOrStdout(), "\nRecent events")
		for _, e := range events {
			fmt.Fprintf(cmd.OutOrStdout(), "  [%s] %s: %s\n", engine.SimTime(e.Turn), e.Title, e.Description)
		}
	}
	return nil
}
