package config

import (
	stderrors "errors"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"

	"github.com/vango-dev/reactor/internal/errors"
	"github.com/vango-dev/reactor/pkg/instrument"
	"github.com/vango-dev/reactor/pkg/reactive"
)

const (
	// ConfigName is the base name of the configuration file.
	ConfigName = "reactor"

	// EnvPrefix prefixes environment overrides, e.g. REACTOR_LOG_LEVEL.
	EnvPrefix = "REACTOR"

	// DefaultMetricsAddr is the default listen address of the metrics endpoint.
	DefaultMetricsAddr = ":9464"
)

// Config represents the complete reactor.yaml configuration.
type Config struct {
	// Log configures the diagnostic logger.
	Log LogConfig `mapstructure:"log"`

	// Runtime configures the reactive runtime.
	Runtime RuntimeConfig `mapstructure:"runtime"`

	// Metrics configures the Prometheus observer.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing configures the OpenTelemetry observer.
	Tracing TracingConfig `mapstructure:"tracing"`

	// path is the file the config was loaded from, if any.
	path string
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`

	// Format is text or json.
	Format string `mapstructure:"format"`
}

// RuntimeConfig contains reactive runtime settings.
type RuntimeConfig struct {
	// RecursionLimit bounds re-runs of one job within a flush.
	RecursionLimit int `mapstructure:"recursion_limit"`

	// Debug forces debug logging, including R003 diagnostics.
	Debug bool `mapstructure:"debug"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Addr      string `mapstructure:"addr"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	TracerName string `mapstructure:"tracer_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("runtime.recursion_limit", reactive.DefaultRecursionLimit)
	v.SetDefault("runtime.debug", false)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "reactor")
	v.SetDefault("metrics.addr", DefaultMetricsAddr)
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.tracer_name", "reactor")
}

// New creates a configuration with default values.
func New() *Config {
	v := viper.New()
	setDefaults(v)
	var c Config
	// Defaults always decode.
	_ = v.Unmarshal(&c)
	return &c
}

// Load reads configuration from path, or from reactor.yaml in the working
// directory when path is empty. A missing reactor.yaml is not an error when
// path is empty. REACTOR_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.New("C001").
				WithDetailf("Could not read %s.", describe(path)).
				Wrap(err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, errors.New("C001").
			WithDetailf("Could not decode %s.", describe(path)).
			Wrap(err)
	}
	c.path = v.ConfigFileUsed()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func describe(path string) string {
	if path == "" {
		return ConfigName + ".yaml"
	}
	return path
}

// Path returns the file the config was loaded from, or "".
func (c *Config) Path() string {
	return c.path
}

var metricNamespace = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("C002").
			WithDetailf("log.level %q is not one of debug, info, warn, error.", c.Log.Level).
			WithSuggestion("Set log.level to info")
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return errors.New("C002").
			WithDetailf("log.format %q is not one of text, json.", c.Log.Format).
			WithSuggestion("Set log.format to text")
	}

	if c.Runtime.RecursionLimit <= 0 {
		return errors.New("C002").
			WithDetailf("runtime.recursion_limit must be positive, got %d.", c.Runtime.RecursionLimit).
			WithSuggestion("Remove the setting to use the default of 100")
	}

	if c.Metrics.Enabled {
		if !metricNamespace.MatchString(c.Metrics.Namespace) {
			return errors.New("C002").
				WithDetailf("metrics.namespace %q is not a valid Prometheus name.", c.Metrics.Namespace)
		}
		if c.Metrics.Addr == "" {
			return errors.New("C002").
				WithDetail("metrics.addr is required when metrics are enabled.")
		}
	}

	if c.Tracing.Enabled && c.Tracing.TracerName == "" {
		return errors.New("C002").
			WithDetail("tracing.tracer_name is required when tracing is enabled.")
	}
	return nil
}

// Level returns the configured log level. Runtime.Debug forces debug.
func (c *Config) Level() slog.Level {
	if c.Runtime.Debug {
		return slog.LevelDebug
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds a logger writing to w in the configured format.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	var h slog.Handler
	if strings.ToLower(c.Log.Format) == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Observers builds the instrumentation observers enabled by the config.
// Metrics are registered with reg.
func (c *Config) Observers(reg prometheus.Registerer) []reactive.Observer {
	var obs []reactive.Observer
	if c.Metrics.Enabled {
		obs = append(obs, instrument.NewMetrics(
			instrument.WithRegistry(reg),
			instrument.WithNamespace(c.Metrics.Namespace),
		))
	}
	if c.Tracing.Enabled {
		obs = append(obs, instrument.NewTracer(instrument.WithTracerName(c.Tracing.TracerName)))
	}
	return obs
}

// RuntimeOptions returns the runtime options derived from the config.
func (c *Config) RuntimeOptions(logger *slog.Logger, observers ...reactive.Observer) []reactive.Option {
	opts := []reactive.Option{
		reactive.WithLogger(logger.With("component", "reactive")),
		reactive.WithRecursionLimit(c.Runtime.RecursionLimit),
	}
	if len(observers) > 0 {
		opts = append(opts, reactive.WithObserver(reactive.Observers(observers...)))
	}
	return opts
}
