package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeflow/builtin"
	"github.com/c360/nodeflow/engine"
	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/graph"
	"github.com/c360/nodeflow/property"
	"github.com/c360/nodeflow/registry"
	"github.com/c360/nodeflow/testutil"
)

func newGraph(t *testing.T) *graph.Graph {
	t.Helper()
	reg, err := registry.New(registry.WithBootstrap(builtin.Register))
	require.NoError(t, err)
	return graph.New(reg)
}

func TestParse_YAMLAndJSONAgree(t *testing.T) {
	fromYAML, err := Parse([]byte(testutil.TestPipelineYAML))
	require.NoError(t, err)
	fromJSON, err := Parse([]byte(testutil.TestPipelineJSON))
	require.NoError(t, err)

	assert.Equal(t, "test-pipeline", fromYAML.Name)
	require.Len(t, fromYAML.Nodes, 3)
	require.Len(t, fromJSON.Nodes, 3)
	assert.Equal(t, fromYAML.Links, fromJSON.Links)
	for i := range fromYAML.Nodes {
		assert.Equal(t, fromYAML.Nodes[i].Name, fromJSON.Nodes[i].Name)
		assert.Equal(t, fromYAML.Nodes[i].Type, fromJSON.Nodes[i].Type)
	}
	assert.Equal(t, "Binary inverted", fromYAML.Nodes[2].Properties["Method"])
}

func TestParse_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not a mapping", "- a\n- b\n"},
		{"unknown field", "name: x\nnodes: []\nedges: []\n"},
		{"wrong shape", "name: x\nnodes: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestDefinition_Validate(t *testing.T) {
	valid := func() *Definition {
		return &Definition{
			Name: "p",
			Nodes: []NodeDef{
				{Name: "a", Type: builtin.TypeTestPattern},
				{Name: "b", Type: builtin.TypeGray},
			},
			Links: []LinkDef{{From: "a/output", To: "b/source"}},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Definition)
		target error
	}{
		{"missing name", func(d *Definition) { d.Name = "" }, nil},
		{"no nodes", func(d *Definition) { d.Nodes = nil }, nil},
		{"missing type", func(d *Definition) { d.Nodes[0].Type = "" }, nil},
		{"slash in node name", func(d *Definition) { d.Nodes[0].Name = "a/b" }, nil},
		{"endpoint without socket", func(d *Definition) { d.Links[0].From = "a" }, nil},
		{"duplicate node", func(d *Definition) { d.Nodes[1].Name = "a" }, errors.ErrNameTaken},
		{"unknown link node", func(d *Definition) { d.Links[0].To = "c/source" }, errors.ErrInvalidNode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			err := d.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestBuild_TestPipeline(t *testing.T) {
	def, err := Parse([]byte(testutil.TestPipelineYAML))
	require.NoError(t, err)

	g := newGraph(t)
	ids, err := def.Build(g)
	require.NoError(t, err)

	assert.Len(t, ids, 3)
	assert.Equal(t, 2, g.NumLinks())

	v, err := g.Property(ids["binary"], 1)
	require.NoError(t, err)
	assert.Equal(t, property.EnumValue(1), v)

	v, err = g.Property(ids["pattern"], 0)
	require.NoError(t, err)
	assert.Equal(t, property.IntValue(32), v)

	e := engine.New(g)
	report, err := e.Execute(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasErrors())

	out := e.Outputs(ids["binary"])
	require.Len(t, out, 1)
	assert.Equal(t, 32, out[0].AsImageMono().Bounds().Dx())
	assert.Equal(t, 16, out[0].AsImageMono().Bounds().Dy())
}

func TestBuild_Failures(t *testing.T) {
	tests := []struct {
		name   string
		def    Definition
		target error
	}{
		{
			name:   "unknown type",
			def:    Definition{Name: "p", Nodes: []NodeDef{{Name: "a", Type: "Sources/Nope"}}},
			target: errors.ErrUnknownType,
		},
		{
			name: "unknown property",
			def: Definition{Name: "p", Nodes: []NodeDef{
				{Name: "a", Type: builtin.TypeTestPattern, Properties: map[string]any{"Depth": 3}},
			}},
			target: errors.ErrInvalidProperty,
		},
		{
			name: "out of range property",
			def: Definition{Name: "p", Nodes: []NodeDef{
				{Name: "a", Type: builtin.TypeThreshold, Properties: map[string]any{"Threshold": 300}},
			}},
			target: errors.ErrOutOfRange,
		},
		{
			name: "unknown socket",
			def: Definition{Name: "p",
				Nodes: []NodeDef{{Name: "a", Type: builtin.TypeTestPattern}, {Name: "b", Type: builtin.TypeGray}},
				Links: []LinkDef{{From: "a/keypoints", To: "b/source"}},
			},
			target: errors.ErrInvalidSocket,
		},
		{
			name: "incompatible link",
			def: Definition{Name: "p",
				Nodes: []NodeDef{{Name: "a", Type: builtin.TypeTestPattern}, {Name: "b", Type: builtin.TypeThreshold}},
				Links: []LinkDef{{From: "a/output", To: "b/source"}},
			},
			target: errors.ErrIncompatibleKinds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.def.Build(newGraph(t))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.json")
	require.NoError(t, os.WriteFile(path, []byte(testutil.TestPipelineJSON), 0o644))

	def, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-pipeline", def.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.True(t, errors.IsInvalid(err))
}
