// Command lifeview is a terminal demo of the livequery lifecycle
// coordinator: a simulated flaky sync-engine query drives the full
// five-state visual lifecycle, rendered purely from VisualState flags.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nextcore/livequery/cmd/lifeview/internal/config"
	"github.com/nextcore/livequery/cmd/lifeview/internal/sim"
	"github.com/nextcore/livequery/cmd/lifeview/internal/ui"
	"github.com/nextcore/livequery/pkg/lifecycle"
	"github.com/nextcore/livequery/pkg/source"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "lifeview.yaml", "path to the optional config file")
	flag.Parse()

	cfg, err := config.LoadOptional(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lifeview: %v\n", err)
		return 1
	}

	query := sim.NewQuery(sim.Options{
		MinLatency:    cfg.Sim.MinLatency.Std(),
		MaxLatency:    cfg.Sim.MaxLatency.Std(),
		ErrorRate:     cfg.Sim.ErrorRate,
		DuplicateRate: cfg.Sim.DuplicateRate,
		Rows:          cfg.Sim.Rows,
	})

	var src source.Source[[]sim.Row] = query
	if window := cfg.Sim.DedupWindow.Std(); window > 0 {
		src = source.Dedup(src, window, sim.RowsEqual)
	}

	opts := lifecycle.Options[[]sim.Row]{
		MinimumLoadingTime:   cfg.Lifecycle.MinimumLoadingTime.Std(),
		MinimumHydratingTime: cfg.Lifecycle.MinimumHydratingTime.Std(),
		MaxStaleTime:         cfg.Lifecycle.MaxStaleTime.Std(),
		PreserveStaleData:    cfg.Lifecycle.PreserveStaleData,
		IsEmpty:              func(rows []sim.Row) bool { return len(rows) == 0 },
	}
	if t := cfg.Lifecycle.InitialLoadTimeout; t != nil {
		opts.InitialLoadTimeout = lifecycle.Duration(t.Std())
	}

	coord := lifecycle.New(func() source.Source[[]sim.Row] { return src }, opts)
	defer coord.Destroy()

	updates := make(chan lifecycle.VisualState[[]sim.Row], 16)
	unsubscribe := coord.Subscribe(func(v lifecycle.VisualState[[]sim.Row]) {
		ui.Push(updates, v)
	})
	defer unsubscribe()

	program := tea.NewProgram(ui.NewModel(coord, updates), tea.WithAltScreen())
	query.Start()

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "lifeview: %v\n", err)
		return 1
	}
	return 0
}
