package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/vango-dev/hookrt/internal/config"
	"github.com/vango-dev/hookrt/internal/demo"
	"github.com/vango-dev/hookrt/internal/devtools"
	"github.com/vango-dev/hookrt/pkg/driver"
	"github.com/vango-dev/hookrt/pkg/hooks"
	"github.com/vango-dev/hookrt/pkg/instrument"
	"golang.org/x/sync/errgroup"
)

func serveCmd(configDir *string) *cobra.Command {
	var (
		addr string
		tick time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the demo live with the devtools server",
		Long: `Run the demo component tree with a ticking clock and serve the
devtools endpoints:

  /events          websocket stream of runtime events
  /events/recent   recent events as JSON
  /instances       snapshot of the mounted instances
  /errors/{code}   explanation of an error code
  /metrics         Prometheus metrics

Examples:
  hookrt serve
  hookrt serve --addr=:7070 --tick=250ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configDir, addr, tick)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from hookrt.yaml)")
	cmd.Flags().DurationVarP(&tick, "tick", "t", time.Second, "Clock interval")

	return cmd
}

func runServe(configDir, addr string, tick time.Duration) error {
	cfg, err := config.LoadOrDefault(configDir)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Devtools.Addr = addr
	}
	logger := cfg.Logger(os.Stderr)

	hub := devtools.NewHub(
		devtools.WithAllowedOrigins(cfg.Devtools.AllowedOrigins...),
		devtools.WithHubLogger(logger),
	)
	observers := []hooks.Observer{hub}

	registry := prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		registry.MustRegister(collectors.NewGoCollector())
		opts := []instrument.MetricsOption{
			instrument.WithRegistry(registry),
			instrument.WithNamespace(cfg.Metrics.Namespace),
		}
		if len(cfg.Metrics.Buckets) > 0 {
			opts = append(opts, instrument.WithBuckets(cfg.Metrics.Buckets))
		}
		observers = append(observers, instrument.Prometheus(opts...))
	}

	traceOpts := []instrument.TraceOption{}
	if !cfg.Runtime.TraceRenders {
		traceOpts = append(traceOpts, instrument.WithRenderFilter(func(hooks.Event) bool { return false }))
	}
	observers = append(observers, instrument.OpenTelemetry(traceOpts...))

	if cfg.Runtime.LogEvents {
		observers = append(observers, instrument.Log(logger, slog.LevelDebug))
	}

	d := driver.New(
		driver.WithLogger(logger),
		driver.WithMaxRenders(cfg.Runtime.MaxRenders),
		driver.WithRuntimeOptions(hooks.WithObserver(observers...)),
	)

	app := demo.New(tick)
	app.Add("open the devtools")
	app.Add("watch the event stream")
	if _, err := d.Mount("App", app.Root, nil); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := devtools.NewServer(devtools.ServerConfig{
		Hub:      hub,
		Snapshot: devtools.Snapshotter(d.Runtime()),
		Gatherer: registry,
		Logger:   logger,
	})

	printBanner()
	fmt.Println("  serve")
	fmt.Println()
	if cfg.Path() == "" {
		warn("No %s found, using defaults", config.ConfigFileName)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := d.Run(gctx); !stderrors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Devtools.Addr, func(a net.Addr) {
			success("Devtools on http://%s", a)
			info("Event stream: ws://%s/events", a)
			info("Press Ctrl+C to stop")
		})
	})
	err = g.Wait()

	fmt.Println("\n  Shutting down...")
	if uerr := d.Unmount(); uerr != nil && err == nil {
		err = uerr
	}
	return err
}
