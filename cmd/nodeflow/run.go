package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/c360/nodeflow/config"
	"github.com/c360/nodeflow/engine"
	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/graph"
	"github.com/c360/nodeflow/health"
	"github.com/c360/nodeflow/metric"
	"github.com/c360/nodeflow/natsclient"
	"github.com/c360/nodeflow/pipeline"
	"github.com/c360/nodeflow/plugin"
	"github.com/c360/nodeflow/system"
)

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		pipelinePath string
		cycles       int
		rate         float64
		skipClean    bool
		withInit     bool
		noMetrics    bool
	)

	cmd := &cobra.Command{
		Use:   "run [pipeline]",
		Short: "Build a pipeline and execute it",
		Long: `Build the pipeline definition into a graph and execute it at the configured
rate until interrupted or until the cycle limit is reached. A summary of the
last status and mean latency of every node is printed on exit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if len(args) == 1 {
				cfg.Pipeline = args[0]
			} else if flags.Changed("pipeline") {
				cfg.Pipeline = pipelinePath
			}
			if flags.Changed("cycles") {
				cfg.Engine.Cycles = cycles
			}
			if flags.Changed("rate") {
				cfg.Engine.Rate = rate
			}
			if flags.Changed("skip-clean") {
				cfg.Engine.SkipClean = skipClean
			}
			if flags.Changed("with-init") {
				cfg.Engine.WithInit = withInit
			}
			if noMetrics {
				cfg.Metrics.Enabled = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runPipeline(ctx, cfg, logger, cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&pipelinePath, "pipeline", "p", "", "Pipeline definition file (overrides config)")
	flags.IntVarP(&cycles, "cycles", "n", 0, "Stop after this many cycles, 0 runs until interrupted")
	flags.Float64VarP(&rate, "rate", "r", 0, "Cycle rate in Hz, 0 runs unthrottled")
	flags.BoolVar(&skipClean, "skip-clean", false, "Skip nodes whose inputs and properties did not change")
	flags.BoolVar(&withInit, "with-init", false, "Initialize stateful nodes before the first cycle")
	flags.BoolVar(&noMetrics, "no-metrics", false, "Do not serve Prometheus metrics")
	return cmd
}

// runPipeline builds the configured pipeline and runs the engine alongside the
// metrics server and plugin watcher. The first of them to fail stops the rest;
// the engine finishing stops them too.
func runPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	if cfg.Pipeline == "" {
		return errors.WrapInvalid(errors.ErrMissingConfig, "main", "runPipeline", "pipeline path")
	}

	mr := metric.NewMetricsRegistry()
	monitor := health.NewMonitor()
	sys, err := newNodeSystem(cfg, logger, mr, monitor)
	if err != nil {
		return err
	}
	defer func() {
		if err := sys.Close(); err != nil {
			logger.Warn("plugin release failed", "error", err)
		}
	}()

	g, err := buildPipeline(sys, cfg.Pipeline, logger)
	if err != nil {
		return err
	}
	g.RequestRestartAll()

	pub, closePub, err := setupPublisher(ctx, cfg, logger, mr, monitor)
	if err != nil {
		return err
	}
	defer closePub()

	eng := engine.New(g,
		engine.WithLogger(logger),
		engine.WithMetrics(mr),
		engine.WithPublisher(pub),
		engine.WithSkipClean(cfg.Engine.SkipClean),
		engine.WithInitOnStart(cfg.Engine.WithInit),
		engine.WithHistory(cfg.Engine.History),
	)

	grp, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	if cfg.Metrics.Enabled {
		srv := metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, mr)
		srv.SetHealthHandler(monitor.Handler(appName))
		logger.Info("serving metrics", "address", srv.Address())
		grp.Go(func() error { return srv.Run(runCtx) })
	}

	if cfg.Plugins.Watch && cfg.Plugins.Dir != "" {
		w := plugin.NewWatcher(cfg.Plugins.Dir, func(path string) {
			// Failures are logged and counted by the node system
			added, err := sys.LoadPlugin(path)
			monitor.Update(pluginsComponent, health.FromError(pluginsComponent, err,
				fmt.Sprintf("loaded %s, %d new node types", filepath.Base(path), added)))
		}, plugin.WithDebounce(cfg.Plugins.Debounce), plugin.WithWatcherLogger(logger))
		grp.Go(func() error { return w.Run(runCtx) })
	}

	grp.Go(func() error {
		defer cancel()
		return eng.Run(runCtx, cfg.Engine.Rate, cfg.Engine.Cycles)
	})

	err = grp.Wait()
	printSummary(out, eng)
	return err
}

// buildPipeline loads a definition and builds it into a new graph.
func buildPipeline(sys *system.NodeSystem, path string, logger *slog.Logger) (*graph.Graph, error) {
	def, err := pipeline.Load(path)
	if err != nil {
		return nil, err
	}
	g := sys.NewGraph()
	ids, err := def.Build(g)
	if err != nil {
		return nil, fmt.Errorf("pipeline %s: %w", def.Name, err)
	}
	logger.Info("pipeline built", "pipeline", def.Name, "nodes", len(ids), "links", g.NumLinks())
	return g, nil
}

// setupPublisher returns where cycle reports go. Every report updates the
// engine health; reports are also logged at debug level and, when enabled,
// published to NATS. The returned func releases the connection.
func setupPublisher(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	mr *metric.MetricsRegistry,
	monitor *health.Monitor,
) (engine.Publisher, func(), error) {
	pubs := []engine.Publisher{health.CycleObserver(monitor)}
	if cfg.Log.Level == "debug" {
		pubs = append(pubs, engine.LogPublisher{Logger: logger})
	}
	if !cfg.NATS.Enabled {
		return engine.Publishers(pubs...), func() {}, nil
	}

	opts := []natsclient.ClientOption{
		natsclient.WithLogger(logger),
		natsclient.WithName(cfg.NATS.Name),
		natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
		natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
		natsclient.WithHealthChangeCallback(func(healthy bool) {
			if healthy {
				monitor.UpdateHealthy(natsComponent, "connected")
				return
			}
			monitor.UpdateDegraded(natsComponent, "disconnected, cycle reports are not published")
		}),
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}

	client, err := natsclient.NewClient(cfg.NATS.URL, opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "main", "setupPublisher", "create NATS client")
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Connect(connCtx); err != nil {
		return nil, nil, errors.Wrap(err, "main", "setupPublisher", "connect to NATS")
	}
	logger.Info("publishing cycle reports", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)

	pubs = append(pubs, engine.NewNATSPublisher(client, cfg.NATS.Subject, mr.CoreMetrics()))
	closeFn := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Warn("NATS close failed", "error", err)
		}
	}
	return engine.Publishers(pubs...), closeFn, nil
}

// printSummary writes one line per node with its last status and mean
// latency over the retained history.
func printSummary(out io.Writer, eng *engine.Engine) {
	g := eng.Graph()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "cycles: %d\n", eng.Cycles())
	_, _ = fmt.Fprintln(tw, "NODE\tTYPE\tSTATUS\tMEAN LATENCY")
	for id, n := range g.Nodes() {
		status := "not run"
		if st, ok := eng.LastStatus(id); ok {
			status = st.String()
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", n.Name(), n.TypeName(), status, meanLatency(eng.Latency(id)))
	}
	_ = tw.Flush()
}

func meanLatency(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return (total / time.Duration(len(samples))).Round(time.Microsecond)
}
