package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/waypoint/internal/config"
	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/internal/telemetry"
	"github.com/vango-dev/waypoint/internal/watch"
	"github.com/vango-dev/waypoint/pkg/middleware"
	"github.com/vango-dev/waypoint/pkg/navigation"
	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/server"
)

func serveCmd(opts *globalOptions) *cobra.Command {
	var (
		address  string
		watchArg bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve navigation to WebSocket hosts",
		Long: `Start the navigation server.

Each WebSocket host gets its own navigation service over the host's
history. The server also answers /api/resolve, /api/hosts and /healthz,
and serves Prometheus metrics when enabled.

Examples:
  waypoint serve
  waypoint serve --address=:9000
  waypoint serve --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, tree, err := opts.load()
			if err != nil {
				return err
			}
			if address != "" {
				cfg.Server.Address = address
			}
			if watchArg {
				cfg.Server.WatchRoutes = true
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, opts, cfg, tree)
		},
	}

	cmd.Flags().StringVarP(&address, "address", "a", "", "Listen address (default from waypoint.json)")
	cmd.Flags().BoolVarP(&watchArg, "watch", "w", false, "Reload the routes file when it changes")

	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, cfg *config.Config, tree *router.Segment) error {
	logger := opts.logger()

	tcfg := telemetry.DefaultConfig()
	tcfg.ServiceName = cfg.Telemetry.Namespace
	tcfg.ServiceVersion = version
	if cfg.Telemetry.Tracing {
		tcfg.Exporter = cfg.Telemetry.TraceExporter
		tcfg.OTLPEndpoint = cfg.Telemetry.OTLPEndpoint
		tcfg.OTLPInsecure = cfg.Telemetry.OTLPInsecure
	}
	tp, shutdownTracing, err := telemetry.Init(ctx, tcfg)
	if err != nil {
		return errors.New("W060").Wrap(err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown", "error", err)
		}
	}()

	var mw []navigation.Middleware
	if cfg.Telemetry.Metrics {
		mw = append(mw, middleware.Prometheus(middleware.WithNamespace(cfg.Telemetry.Namespace)))
	}
	if cfg.Telemetry.Tracing {
		mw = append(mw, middleware.OpenTelemetry(
			middleware.WithTracerProvider(tp),
			middleware.WithTracerName(cfg.Telemetry.TracerName),
		))
	}

	srv := server.New(tree, serverConfig(cfg, mw, logger))

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	info("Listening on %s", cfg.Server.Address)
	info("Hosts connect to %s", cfg.Server.WSPath)
	if cfg.Server.MetricsPath != "" {
		info("Metrics at %s", cfg.Server.MetricsPath)
	}
	if cfg.Server.WatchRoutes {
		info("Watching %s", opts.routes(cfg))
	}
	fmt.Println()

	var watchRoutes func(context.Context) error
	if cfg.Server.WatchRoutes {
		watchRoutes, err = routesWatcher(opts, cfg, srv, logger)
		if err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Run(gctx); err != nil {
			return errors.New("W060").Wrap(err)
		}
		return nil
	})
	if watchRoutes != nil {
		g.Go(func() error {
			if err := watchRoutes(gctx); err != nil {
				return errors.New("W061").Wrap(err)
			}
			return nil
		})
	}

	err = g.Wait()
	fmt.Println("\n  Shutting down...")
	return err
}

// routesWatcher returns the watch loop for the configured routes source:
// fsnotify for files, ETag polling for s3:// objects.
func routesWatcher(opts *globalOptions, cfg *config.Config, srv *server.Server, logger *slog.Logger) (func(context.Context) error, error) {
	onReload := func(tree *router.Segment) {
		srv.SetRoutes(tree)
		success("Routes reloaded")
	}

	path := opts.routes(cfg)
	loc, isS3, err := watch.ParseS3URL(path)
	if err != nil {
		return nil, errors.New("W061").Wrap(err)
	}
	if isS3 {
		w := watch.NewS3Routes(s3Client(cfg), loc, onReload, watch.S3Options{
			Interval: cfg.S3PollInterval(),
			Logger:   logger,
		})
		return w.Run, nil
	}
	return watch.NewRoutes(path, onReload, watch.Options{Logger: logger}).Run, nil
}

// serverConfig maps waypoint.json onto the server configuration.
func serverConfig(cfg *config.Config, mw []navigation.Middleware, logger *slog.Logger) *server.Config {
	sc := server.DefaultConfig()
	sc.Address = cfg.Server.Address
	sc.WSPath = cfg.Server.WSPath
	sc.MetricsPath = cfg.Server.MetricsPath
	sc.Prefix = cfg.Server.Prefix
	sc.RateLimit = cfg.Server.RateLimit
	sc.RateBurst = cfg.Server.RateBurst
	sc.MaxRedirects = cfg.Navigation.MaxRedirects
	sc.Fallback = fallbackContent(cfg)
	sc.Middleware = mw
	sc.ShutdownTimeout = cfg.ShutdownTimeout()
	sc.Logger = logger
	return sc
}
