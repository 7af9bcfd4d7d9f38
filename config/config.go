package config

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/c360/nodeflow/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	_ = validate.RegisterValidation("subject", func(fl validator.FieldLevel) bool {
		return isValidSubject(fl.Field().String())
	})
}

// Config represents the complete application configuration
type Config struct {
	// Pipeline is the path of the graph definition the run command executes.
	Pipeline string        `yaml:"pipeline" json:"pipeline" mapstructure:"pipeline"`
	Log      LogConfig     `yaml:"log" json:"log" mapstructure:"log"`
	Plugins  PluginConfig  `yaml:"plugins" json:"plugins" mapstructure:"plugins"`
	Engine   EngineConfig  `yaml:"engine" json:"engine" mapstructure:"engine"`
	NATS     NATSConfig    `yaml:"nats" json:"nats" mapstructure:"nats"`
	Metrics  MetricsConfig `yaml:"metrics" json:"metrics" mapstructure:"metrics"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `yaml:"level" json:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" mapstructure:"format" validate:"oneof=text json"`
}

// PluginConfig says where node-type plugins come from
type PluginConfig struct {
	// Dir is scanned for *.so files at startup. Empty disables the scan.
	Dir string `yaml:"dir" json:"dir" mapstructure:"dir"`
	// Files are loaded individually after Dir.
	Files []string `yaml:"files" json:"files" mapstructure:"files" validate:"dive,required"`
	// Watch loads plugins dropped into Dir while running.
	Watch    bool          `yaml:"watch" json:"watch" mapstructure:"watch"`
	Debounce time.Duration `yaml:"debounce" json:"debounce" mapstructure:"debounce" validate:"gte=0"`
}

// EngineConfig controls the execution loop
type EngineConfig struct {
	// Rate is the cycle frequency in Hz. Zero runs cycles back to back.
	Rate float64 `yaml:"rate" json:"rate" mapstructure:"rate" validate:"gte=0"`
	// Cycles stops the run after that many cycles. Zero runs until cancelled.
	Cycles    int  `yaml:"cycles" json:"cycles" mapstructure:"cycles" validate:"gte=0"`
	SkipClean bool `yaml:"skip_clean" json:"skip_clean" mapstructure:"skip_clean"`
	WithInit  bool `yaml:"with_init" json:"with_init" mapstructure:"with_init"`
	// History is the number of latency samples kept per node.
	History int `yaml:"history" json:"history" mapstructure:"history" validate:"gte=1"`
}

// NATSConfig defines where cycle reports are published
type NATSConfig struct {
	Enabled       bool          `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	URL           string        `yaml:"url" json:"url" mapstructure:"url" validate:"required_if=Enabled true"`
	Subject       string        `yaml:"subject" json:"subject" mapstructure:"subject" validate:"subject"`
	Name          string        `yaml:"name" json:"name,omitempty" mapstructure:"name"`
	MaxReconnects int           `yaml:"max_reconnects" json:"max_reconnects" mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `yaml:"reconnect_wait" json:"reconnect_wait" mapstructure:"reconnect_wait" validate:"gte=0"`
	Username      string        `yaml:"username" json:"username,omitempty" mapstructure:"username"`
	Password      string        `yaml:"password" json:"password,omitempty" mapstructure:"password"`
	Token         string        `yaml:"token" json:"token,omitempty" mapstructure:"token"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	Port    int    `yaml:"port" json:"port" mapstructure:"port" validate:"min=1,max=65535"`
	Path    string `yaml:"path" json:"path" mapstructure:"path" validate:"startswith=/"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Plugins: PluginConfig{
			Debounce: 500 * time.Millisecond,
		},
		Engine: EngineConfig{
			Rate:    30,
			History: 64,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			Subject:       "nodeflow.cycles",
			Name:          "nodeflow",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}

// Validate checks field constraints and normalizes the log level
func (c *Config) Validate() error {
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)

	if err := validate.Struct(c); err != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %w", errors.ErrInvalidConfig, err),
			"Config", "Validate", "field validation")
	}
	if c.NATS.Username != "" && c.NATS.Password == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: nats.username set without nats.password", errors.ErrInvalidConfig),
			"Config", "Validate", "nats credentials")
	}
	return nil
}

// isValidSubject accepts dot-separated NATS subject tokens without wildcards.
func isValidSubject(s string) bool {
	if s == "" {
		return false
	}
	for token := range strings.SplitSeq(s, ".") {
		if token == "" || strings.ContainsAny(token, " \t*>") {
			return false
		}
	}
	return true
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return &Config{}
	}
	clone := *c
	clone.Plugins.Files = slices.Clone(c.Plugins.Files)
	return &clone
}

// String returns a YAML rendering with credentials masked
func (c *Config) String() string {
	masked := c.Clone()
	if masked.NATS.Password != "" {
		masked.NATS.Password = "***"
	}
	if masked.NATS.Token != "" {
		masked.NATS.Token = "***"
	}
	data, err := yaml.Marshal(masked)
	if err != nil {
		return fmt.Sprintf("<config: %v>", err)
	}
	return string(data)
}

// SafeConfig provides thread-safe access to configuration
type SafeConfig struct {
	mu     sync.RWMutex
	config *Config
}

// NewSafeConfig creates a new thread-safe config wrapper
func NewSafeConfig(cfg *Config) *SafeConfig {
	if cfg == nil {
		cfg = Default()
	}
	return &SafeConfig{
		config: cfg,
	}
}

// Get returns a deep copy of the current configuration
func (sc *SafeConfig) Get() *Config {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.config.Clone()
}

// Update atomically updates the configuration after validation
func (sc *SafeConfig) Update(cfg *Config) error {
	if cfg == nil {
		return errors.WrapInvalid(errors.ErrMissingConfig, "SafeConfig", "Update", "nil config")
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.config = cfg.Clone()
	return nil
}
