package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/napolitain/geode-solver/internal/models"
	"github.com/napolitain/geode-solver/internal/solver"
)

func printBanner(w io.Writer, cfg models.SolverConfig, count int) {
	titleColor := color.New(color.FgCyan, color.Bold)
	infoColor := color.New(color.FgYellow)

	titleColor.Fprintln(w, "\n╭───────────────────────────╮")
	titleColor.Fprintln(w, "│  Geode Robot Optimizer    │")
	titleColor.Fprintln(w, "╰───────────────────────────╯")
	fmt.Fprintln(w)

	limit := "all"
	if cfg.Limit > 0 && cfg.Limit < count {
		limit = fmt.Sprintf("first %d", cfg.Limit)
	}
	infoColor.Fprintf(w, "📦 Loaded %d blueprints, evaluating %s\n", count, limit)
	infoColor.Fprintf(w, "⏱  Deadline %d, strategy %s, mode %s\n\n", cfg.Deadline, cfg.Strategy, cfg.Mode)
}

func printResults(w io.Writer, report *solver.Report) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Blueprint", "Geodes", "Quality", "Nodes", "Peak", "Time", "Status"}),
	)

	for _, res := range report.Results {
		status := "complete"
		switch {
		case res.Cached:
			status = "cached"
		case !res.Complete:
			status = "partial"
		}
		row := []string{
			fmt.Sprintf("%d", res.Blueprint.ID),
			fmt.Sprintf("%d", res.Yield),
			fmt.Sprintf("%d", res.Blueprint.ID*res.Yield),
			fmt.Sprintf("%d", res.Nodes),
			fmt.Sprintf("%d", res.Peak),
			formatDuration(res.Elapsed),
			status,
		}
		_ = table.Append(row)
	}

	_ = table.Render()
}

func printPlans(w io.Writer, report *solver.Report) {
	infoColor := color.New(color.FgYellow)

	for _, res := range report.Results {
		infoColor.Fprintf(w, "\n🏗️  Blueprint %d build order (%d geodes)\n", res.Blueprint.ID, res.Yield)
		if len(res.Plan) == 0 {
			fmt.Fprintln(w, "   nothing worth building")
			continue
		}

		table := tablewriter.NewTable(w,
			tablewriter.WithHeader([]string{"#", "Robot", "Ready", "Ore", "Clay", "Obsidian", "Geodes"}),
		)
		for i, step := range res.Plan {
			row := []string{
				fmt.Sprintf("%d", i+1),
				step.Kind.String(),
				fmt.Sprintf("t=%d", step.Complete),
				fmt.Sprintf("%d", step.Stock[models.Ore]),
				fmt.Sprintf("%d", step.Stock[models.Clay]),
				fmt.Sprintf("%d", step.Stock[models.Obsidian]),
				fmt.Sprintf("%d", step.Yield),
			}
			_ = table.Append(row)
		}
		_ = table.Render()
	}
}

func printSummary(w io.Writer, report *solver.Report, mode solver.AggregateMode, total int) {
	successColor := color.New(color.FgGreen, color.Bold)
	warnColor := color.New(color.FgYellow)

	fmt.Fprintln(w)
	successColor.Fprintf(w, "✓ %s over %d blueprints at deadline %d: %d\n",
		mode, len(report.Results), report.Deadline, total)
	fmt.Fprintf(w, "   Elapsed: %s\n", formatDuration(report.Elapsed))
	if !report.Complete() {
		warnColor.Fprintln(w, "⚠ Some searches stopped early; the total is a lower bound")
	}
}

// formatDuration rounds to a readable precision
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.Round(time.Microsecond).String()
	case d < time.Second:
		return d.Round(100 * time.Microsecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}
