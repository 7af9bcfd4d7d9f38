package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/c360/nodeflow/errors"
)

// DefaultEnvPrefix is the prefix of environment overrides, e.g.
// NODEFLOW_ENGINE_RATE=60 or NODEFLOW_NATS_ENABLED=true.
const DefaultEnvPrefix = "NODEFLOW"

// Loader handles configuration loading with layers and overrides
type Loader struct {
	layers     []string
	validation bool
	envPrefix  string
}

// NewLoader creates a new configuration loader
func NewLoader() *Loader {
	return &Loader{
		envPrefix: DefaultEnvPrefix,
	}
}

// AddLayer adds a configuration file layer. Later layers override earlier
// ones key by key.
func (l *Loader) AddLayer(path string) {
	l.layers = append(l.layers, path)
}

// EnableValidation enables or disables configuration validation
func (l *Loader) EnableValidation(enable bool) {
	l.validation = enable
}

// SetEnvPrefix changes the environment override prefix. An empty prefix
// disables environment overrides.
func (l *Loader) SetEnvPrefix(prefix string) {
	l.envPrefix = strings.ToUpper(prefix)
}

// Load merges defaults, every layer and the environment into one Config.
func (l *Loader) Load() (*Config, error) {
	merged, err := toMap(Default())
	if err != nil {
		return nil, errors.WrapFatal(err, "Loader", "Load", "defaults")
	}

	for _, path := range l.layers {
		raw, err := loadRaw(path)
		if err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s: %w", errors.ErrParsingFailed, path, err),
				"Loader", "Load", "read layer")
		}
		merged = deepMergeMaps(merged, raw)
	}

	env, err := l.envOverrides(merged)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Loader", "Load", "environment overrides")
	}
	merged = deepMergeMaps(merged, env)

	cfg, err := decode(merged)
	if err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"Loader", "Load", "decode")
	}

	if l.validation {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Load reads the given files in order, applies environment overrides and
// validates the result.
func Load(paths ...string) (*Config, error) {
	l := NewLoader()
	for _, p := range paths {
		l.AddLayer(p)
	}
	l.EnableValidation(true)
	return l.Load()
}

func loadRaw(path string) (map[string]any, error) {
	data, err := safeReadFile(path)
	if err != nil {
		return nil, err
	}

	// JSON documents are valid YAML
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func toMap(cfg *Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decode(m map[string]any) (*Config, error) {
	var cfg Config
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(m); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envOverrides builds an override map from PREFIX_SECTION_KEY variables. Only
// keys already present in base are considered, so unrelated variables sharing
// the prefix are ignored.
func (l *Loader) envOverrides(base map[string]any) (map[string]any, error) {
	out := make(map[string]any)
	if l.envPrefix == "" {
		return out, nil
	}
	prefix := l.envPrefix + "_"

	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := validateEnvVar(name, value); err != nil {
			return nil, err
		}

		key := strings.ToLower(strings.TrimPrefix(name, prefix))
		if _, exists := base[key]; exists {
			out[key] = value
			continue
		}

		section, field, found := strings.Cut(key, "_")
		if !found {
			continue
		}
		sub, isMap := base[section].(map[string]any)
		if !isMap {
			continue
		}
		if _, exists := sub[field]; !exists {
			continue
		}
		dst, _ := out[section].(map[string]any)
		if dst == nil {
			dst = make(map[string]any)
			out[section] = dst
		}
		dst[field] = value
	}
	return out, nil
}

// deepMergeMaps recursively merges two maps, with override taking precedence
func deepMergeMaps(base, override map[string]any) map[string]any {
	result := make(map[string]any, len(base))
	for k, v := range base {
		result[k] = v
	}

	for k, v := range override {
		if v == nil {
			continue
		}
		if baseMap, ok := result[k].(map[string]any); ok {
			if overrideMap, ok := v.(map[string]any); ok {
				result[k] = deepMergeMaps(baseMap, overrideMap)
				continue
			}
		}
		result[k] = v
	}
	return result
}

// SaveToFile writes the configuration as JSON or YAML depending on the file
// extension.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return errors.WrapFatal(err, "Config", "SaveToFile", "encode")
	}
	if err := safeWriteFile(path, data); err != nil {
		return errors.WrapInvalid(err, "Config", "SaveToFile", "write")
	}
	return nil
}
