package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/script"
	"github.com/vango-dev/waypoint/pkg/history"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
)

type simulateOptions struct {
	store   string
	initial string
	asJSON  bool
}

func simulateCmd(opts *globalOptions) *cobra.Command {
	var sim simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate SCRIPT",
		Short: "Run a navigation script",
		Long: `Run a navigation script against the route tree and print the
state published by every drain cycle.

Script lines:
  push TARGET      queue a push (path, relative path or @name?param=value)
  replace TARGET   queue a replace
  back             queue a move back
  forward          queue a move forward
  drain            run one cycle and print the state

With --store the history is kept in a badger directory and survives
between runs.

Examples:
  waypoint simulate nav.txt
  waypoint simulate nav.txt --store .waypoint/history
  waypoint simulate nav.txt --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, tree, err := opts.load()
			if err != nil {
				return err
			}
			steps, err := script.ParseFile(args[0])
			if err != nil {
				return err
			}
			return runSimulate(cmd.OutOrStdout(), opts.logger(), cfg, tree, steps, sim)
		},
	}

	cmd.Flags().StringVar(&sim.store, "store", "", "Badger directory for persistent history (default from waypoint.json)")
	cmd.Flags().StringVar(&sim.initial, "initial", "", "Initial path (default from waypoint.json)")
	cmd.Flags().BoolVar(&sim.asJSON, "json", false, "Print JSON lines")

	return cmd
}

func runSimulate(w io.Writer, logger *slog.Logger, cfg *config.Config, tree *router.Segment, steps []script.Step, sim simulateOptions) error {
	initial := sim.initial
	if initial == "" {
		initial = cfg.Navigation.InitialPath
	}

	h, closeHistory, err := openHistory(cfg, sim.store, initial, logger)
	if err != nil {
		return err
	}
	defer closeHistory()

	svc := navigation.NewService(tree, h,
		navigation.WithLogger(logger),
		navigation.WithMaxRedirects(cfg.Navigation.MaxRedirects),
		navigation.WithFallback(fallbackContent(cfg)),
	)

	runner := &script.Runner{Service: svc, Out: w}
	if sim.asJSON {
		runner.Format = script.FormatJSON
	}

	rep, err := runner.Run(steps)
	if err != nil {
		return err
	}
	if len(rep.Errors) > 0 {
		return errors.New("W049").
			WithDetail(fmt.Sprintf("%d navigation errors in %d cycles", len(rep.Errors), rep.Cycles))
	}
	return nil
}

// openHistory opens a persistent history when a store is configured and a
// memory history otherwise.
func openHistory(cfg *config.Config, store, initial string, logger *slog.Logger) (history.Provider, func(), error) {
	if store == "" {
		store = cfg.StorePath()
	}
	if store == "" {
		return history.NewMemory(initial, history.WithMaxEntries(cfg.History.MaxEntries)), func() {}, nil
	}

	p, err := history.OpenPersistent(history.PersistentConfig{
		Path:       store,
		Initial:    initial,
		MaxEntries: cfg.History.MaxEntries,
		SyncWrites: cfg.History.SyncWrites,
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, errors.Newf(errors.CategoryCLI, "open history store %s", store).Wrap(err)
	}
	logger.Debug("history store opened", "path", store, "current", p.Current())
	return p, func() {
		if err := p.Close(); err != nil {
			logger.Warn("close history store", "error", err)
		}
	}, nil
}
