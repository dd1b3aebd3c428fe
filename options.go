package autoinject

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/turnbullerin/autoinject/internal/errors"
	"github.com/turnbullerin/autoinject/internal/logger"
	"github.com/turnbullerin/autoinject/internal/shared"
)

// Config holds injector configuration. The yaml-tagged fields can be
// loaded from a file with LoadConfig; everything else is set through
// functional options.
type Config struct {
	// Logging configures the injector's own structured logger.
	Logging logger.LoggingConfig `yaml:"logging"`

	// SweepInterval bounds how often resolutions trigger a sweep of
	// expired contexts. Defaults to 5 seconds. In config files it is the
	// sweep_interval key, a Go duration string such as "5s".
	SweepInterval time.Duration `yaml:"-"`

	// DisableGoroutineInformant turns off the default goroutine-identity
	// informant, leaving only explicitly registered informants.
	DisableGoroutineInformant bool `yaml:"disable_goroutine_informant"`

	logger     logger.Logger
	informants []shared.ContextInformant
}

func defaultConfig() Config {
	return Config{
		SweepInterval: 5 * time.Second,
	}
}

// LoadConfig reads a Config from a YAML file.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.ErrConfigurationError(
			fmt.Sprintf("cannot read config file %s", path), err)
	}

	var raw struct {
		Logging                   logger.LoggingConfig `yaml:"logging"`
		SweepInterval             string               `yaml:"sweep_interval"`
		DisableGoroutineInformant bool                 `yaml:"disable_goroutine_informant"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return cfg, errors.ErrConfigurationError(
			fmt.Sprintf("cannot parse config file %s", path), err)
	}

	cfg.Logging = raw.Logging
	cfg.DisableGoroutineInformant = raw.DisableGoroutineInformant
	if raw.SweepInterval != "" {
		interval, err := time.ParseDuration(raw.SweepInterval)
		if err != nil {
			return cfg, errors.ErrConfigurationError(
				fmt.Sprintf("invalid sweep_interval %q", raw.SweepInterval), err)
		}
		cfg.SweepInterval = interval
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Second
	}
	return cfg, nil
}

// Option configures injector construction.
type Option func(*Config)

// WithConfig replaces the file-loadable portion of the configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		c.Logging = cfg.Logging
		c.SweepInterval = cfg.SweepInterval
		c.DisableGoroutineInformant = cfg.DisableGoroutineInformant
		if c.SweepInterval <= 0 {
			c.SweepInterval = 5 * time.Second
		}
	}
}

// WithLogger sets a pre-built logger, overriding the Logging config.
func WithLogger(log Logger) Option {
	return func(c *Config) { c.logger = log }
}

// WithLoggingConfig configures the injector's own logger.
func WithLoggingConfig(cfg LoggingConfig) Option {
	return func(c *Config) { c.Logging = cfg }
}

// WithSweepInterval bounds how often resolutions sweep expired contexts.
func WithSweepInterval(interval time.Duration) Option {
	return func(c *Config) {
		if interval > 0 {
			c.SweepInterval = interval
		}
	}
}

// WithoutGoroutineInformant disables the default goroutine-identity
// informant. Use when contexts are identified purely through execution
// scopes or manual informants.
func WithoutGoroutineInformant() Option {
	return func(c *Config) { c.DisableGoroutineInformant = true }
}

// WithInformants registers additional informants at construction time.
func WithInformants(informants ...ContextInformant) Option {
	return func(c *Config) { c.informants = append(c.informants, informants...) }
}
