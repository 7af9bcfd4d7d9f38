package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/nodeflow/builtin"
	"github.com/c360/nodeflow/errors"
	"github.com/c360/nodeflow/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NODEFLOW_CONFIG", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.Execute()
	return out.String(), err
}

func writePipeline(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testutil.TestPipelineYAML), 0600))
	return path
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "nodeflow version "+Version)
	assert.Contains(t, out, "plugin ABI 3")
}

func TestTypesCmd_JSON(t *testing.T) {
	out, err := execute(t, "types", "--json")
	require.NoError(t, err)

	var infos []typeInfo
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, len(builtin.Names()))

	byName := make(map[string]typeInfo)
	for _, info := range infos {
		byName[info.Name] = info
	}
	gray, ok := byName[builtin.TypeGray]
	require.True(t, ok)
	assert.Equal(t, "builtin", gray.Origin)
	assert.Len(t, gray.Inputs, 1)
	assert.Len(t, gray.Outputs, 1)
	assert.Empty(t, gray.Error)
}

func TestTypesCmd_Table(t *testing.T) {
	out, err := execute(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, builtin.TypeThreshold)
}

func TestValidateCmd(t *testing.T) {
	out, err := execute(t, "validate", writePipeline(t))
	require.NoError(t, err)
	assert.Contains(t, out, "configuration is valid")
	assert.Contains(t, out, "3 nodes, 2 links, 1 components (healthy)")
}

func TestValidateCmd_BadConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "nodeflow.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("engine:\n  history: 0\n"), 0600))

	_, err := execute(t, "validate", "--config", cfgPath)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidConfig)
}

func TestRunCmd(t *testing.T) {
	out, err := execute(t, "run", writePipeline(t), "--cycles", "2", "--no-metrics", "--log-level", "debug")
	require.NoError(t, err)

	assert.Contains(t, out, "cycles: 2")
	for _, name := range []string{"pattern", "gray", "binary"} {
		assert.Contains(t, out, name)
	}
	assert.NotContains(t, out, "not run")
}

func TestRunCmd_MissingPipeline(t *testing.T) {
	_, err := execute(t, "run", "--cycles", "1", "--no-metrics")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingConfig)
}

func TestRunCmd_UnknownType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	doc := "name: bad\nnodes:\n  - name: x\n    type: Nope/Missing\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0600))

	_, err := execute(t, "run", path, "--cycles", "1", "--no-metrics")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownType)
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "key", "value")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, appName, entry["service"])
	assert.Equal(t, Version, entry["version"])
}
