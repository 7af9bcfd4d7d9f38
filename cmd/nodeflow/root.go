package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360/nodeflow/builtin"
	"github.com/c360/nodeflow/config"
	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/health"
	"github.com/c360/nodeflow/metric"
	"github.com/c360/nodeflow/system"
)

// Health component names.
const (
	pluginsComponent = "plugins"
	natsComponent    = "nats"
)

// rootOptions holds flags shared by every subcommand.
type rootOptions struct {
	configPaths []string
	logLevel    string
	logFormat   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "nodeflow runs node-based image processing pipelines",
		Long: `nodeflow builds a graph of processing nodes from a pipeline definition and
executes it cycle by cycle. Node types come from the built-in set and from
plugins loaded at startup or dropped into the plugin directory while running.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringSliceVarP(&opts.configPaths, "config", "c", nil,
		"Configuration file, repeat to layer overrides (env: NODEFLOW_CONFIG)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: text, json")

	cmd.AddCommand(
		newRunCmd(opts),
		newTypesCmd(opts),
		newValidateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads the layered configuration, applies flag overrides and installs
// the logger. Logs go to the command's error stream so command output stays
// machine readable.
func (o *rootOptions) load(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	paths := o.configPaths
	if len(paths) == 0 {
		if env := os.Getenv("NODEFLOW_CONFIG"); env != "" {
			paths = strings.Split(env, ",")
		}
	}

	loader := config.NewLoader()
	for _, p := range paths {
		loader.AddLayer(p)
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, errors.Wrap(err, "main", "load", "configuration")
	}

	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Debug("configuration loaded", "layers", paths)
	return cfg, logger, nil
}

// newNodeSystem creates the registry with the built-in node types and loads
// the configured plugins. Failures inside the plugin directory are logged,
// reported to monitor and skipped; an explicitly listed plugin file that fails
// aborts startup. monitor may be nil.
func newNodeSystem(
	cfg *config.Config,
	logger *slog.Logger,
	mr *metric.MetricsRegistry,
	monitor *health.Monitor,
) (*system.NodeSystem, error) {
	sys, err := system.New(
		system.WithLogger(logger),
		system.WithBootstrap(builtin.Register),
		system.WithMetrics(mr),
	)
	if err != nil {
		return nil, err
	}

	var dirErr error
	if cfg.Plugins.Dir != "" {
		var added int
		added, dirErr = sys.LoadPlugins(cfg.Plugins.Dir)
		if dirErr != nil {
			logger.Warn("some plugins failed to load", "dir", cfg.Plugins.Dir, "error", dirErr)
		}
		logger.Info("plugin directory scanned", "dir", cfg.Plugins.Dir, "new_types", added)
	}

	for _, path := range cfg.Plugins.Files {
		if _, err := sys.LoadPlugin(path); err != nil {
			_ = sys.Close()
			return nil, errors.Wrap(err, "main", "newNodeSystem", "load plugin "+path)
		}
	}

	if monitor != nil {
		monitor.Update(pluginsComponent, health.FromError(pluginsComponent, dirErr,
			fmt.Sprintf("%d plugins loaded, %d node types", len(sys.Plugins()), sys.Registry().Len())))
	}
	return sys, nil
}
