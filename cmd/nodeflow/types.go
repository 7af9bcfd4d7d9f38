package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/c360/nodeflow/node"
	"github.com/c360/nodeflow/registry"
)

// typeInfo is the JSON form of one registered node type.
type typeInfo struct {
	ID          registry.TypeID `json:"id"`
	Name        string          `json:"name"`
	Origin      string          `json:"origin"`
	Description string          `json:"description,omitempty"`
	Inputs      []string        `json:"inputs"`
	Outputs     []string        `json:"outputs"`
	Properties  []string        `json:"properties"`
	Flags       string          `json:"flags"`
	Error       string          `json:"error,omitempty"`
}

func newTypesCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the registered node types",
		Long: `List every node type known after loading the built-in set and the configured
plugins, with its sockets and properties.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			sys, err := newNodeSystem(cfg, logger, nil, nil)
			if err != nil {
				return err
			}
			defer func() { _ = sys.Close() }()

			infos := describeTypes(sys.Registry())
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "ID\tTYPE\tORIGIN\tSOCKETS\tDESCRIPTION")
			for _, t := range infos {
				desc := t.Description
				if t.Error != "" {
					desc = "error: " + t.Error
				}
				_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%d in, %d out\t%s\n",
					t.ID, t.Name, t.Origin, len(t.Inputs), len(t.Outputs), desc)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// describeTypes instantiates each type once to read its configuration. Types
// whose factory fails are listed with the error.
func describeTypes(reg *registry.Registry) []typeInfo {
	entries := reg.Entries()
	infos := make([]typeInfo, 0, len(entries))
	for _, e := range entries {
		info := typeInfo{ID: e.ID, Name: e.Name, Origin: e.Origin.String()}

		cfg, err := reg.Describe(e.ID)
		if err != nil {
			info.Error = err.Error()
			infos = append(infos, info)
			continue
		}
		info.Description = cfg.Description
		info.Flags = cfg.Flags.String()
		info.Inputs = socketLabels(cfg.InputSockets())
		info.Outputs = socketLabels(cfg.OutputSockets())
		for _, p := range cfg.PropertyDescriptors() {
			info.Properties = append(info.Properties, fmt.Sprintf("%s (%s)", p.Label, p.Kind))
		}
		infos = append(infos, info)
	}
	return infos
}

func socketLabels(sockets []node.SocketDescriptor) []string {
	out := make([]string, 0, len(sockets))
	for _, s := range sockets {
		out = append(out, fmt.Sprintf("%s (%s)", s.Label, s.Kind))
	}
	return out
}
