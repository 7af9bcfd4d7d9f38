package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/c360/nodeflow/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Definition describes a graph: named node instances with property values and
// the links between their sockets.
type Definition struct {
	Name  string    `mapstructure:"name" validate:"required"`
	Nodes []NodeDef `mapstructure:"nodes" validate:"required,min=1,dive"`
	Links []LinkDef `mapstructure:"links" validate:"dive"`
}

// NodeDef is one node instance. Properties are keyed by property label.
type NodeDef struct {
	Name       string         `mapstructure:"name" validate:"required,excludesall=/"`
	Type       string         `mapstructure:"type" validate:"required"`
	Properties map[string]any `mapstructure:"properties"`
}

// LinkDef connects an output socket to an input socket. Both ends are written
// "node/socket".
type LinkDef struct {
	From string `mapstructure:"from" validate:"required,endpoint"`
	To   string `mapstructure:"to" validate:"required,endpoint"`
}

func init() {
	_ = validate.RegisterValidation("endpoint", func(fl validator.FieldLevel) bool {
		_, _, ok := splitEndpoint(fl.Field().String())
		return ok
	})
}

func splitEndpoint(s string) (nodeName, socket string, ok bool) {
	nodeName, socket, ok = strings.Cut(s, "/")
	return nodeName, socket, ok && nodeName != "" && socket != ""
}

// Parse decodes a JSON or YAML definition.
func Parse(data []byte) (*Definition, error) {
	// JSON documents are valid YAML
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, errors.WrapInvalid(err, "pipeline", "Parse", "document decode")
	}
	if raw == nil {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "pipeline", "Parse", "empty document")
	}

	var def Definition
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &def,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, errors.WrapFatal(err, "pipeline", "Parse", "decoder setup")
	}
	if err := dec.Decode(raw); err != nil {
		return nil, errors.WrapInvalid(err, "pipeline", "Parse", "definition decode")
	}
	return &def, nil
}

// Load reads and decodes a definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapInvalid(err, "pipeline", "Load", "read file")
	}
	def, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}

// Validate checks field constraints, unique node names and that every link
// refers to a declared node. It does not consult the registry; Build reports
// unknown types and sockets.
func (d *Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return errors.WrapInvalid(err, "Definition", "Validate", "field validation")
	}

	seen := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		if seen[n.Name] {
			return errors.WrapInvalid(
				fmt.Errorf("%w: duplicate node name %q", errors.ErrNameTaken, n.Name),
				"Definition", "Validate", "node names")
		}
		seen[n.Name] = true
	}

	for i, l := range d.Links {
		for _, end := range []string{l.From, l.To} {
			name, _, _ := splitEndpoint(end)
			if !seen[name] {
				return errors.WrapInvalid(
					fmt.Errorf("%w: link %d refers to unknown node %q", errors.ErrInvalidNode, i, name),
					"Definition", "Validate", "link endpoints")
			}
		}
	}
	return nil
}
