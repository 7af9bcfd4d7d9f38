package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360/nodeflow/errors"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [pipeline]",
		Short: "Check the configuration and build the pipeline without running it",
		Long: `Load and validate the configuration. When a pipeline is given or configured,
build it against the registered node types and report unconnected inputs and
isolated nodes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "configuration is valid")

			path := cfg.Pipeline
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return nil
			}

			sys, err := newNodeSystem(cfg, logger, nil, nil)
			if err != nil {
				return err
			}
			defer func() { _ = sys.Close() }()

			g, err := buildPipeline(sys, path, logger)
			if err != nil {
				return err
			}
			if _, err := g.ExecutionOrder(); err != nil {
				return errors.Wrap(err, "main", "validate", "execution order")
			}

			a := g.Analyze()
			_, _ = fmt.Fprintf(out, "pipeline %s: %d nodes, %d links, %d components (%s)\n",
				path, a.Nodes, a.Links, len(a.Components), a.Status)
			for _, in := range a.UnconnectedInputs {
				_, _ = fmt.Fprintf(out, "  unconnected input %s/%s\n", in.Node, in.Socket)
			}
			if len(a.IsolatedNodes) > 0 {
				_, _ = fmt.Fprintf(out, "  isolated nodes: %s\n", strings.Join(a.IsolatedNodes, ", "))
			}
			if len(a.StatefulNodes) > 0 {
				_, _ = fmt.Fprintf(out, "  stateful nodes: %s\n", strings.Join(a.StatefulNodes, ", "))
			}
			return nil
		},
	}
}
