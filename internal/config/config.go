// Package config loads settings for the integrity CLI, watcher and HTTP API.
package config

import (
	"errors"
	"fmt"
	"net"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"content_integrity/internal/observability"
)

// EnvPrefix is prepended to every environment override, e.g. INTEGRITY_SERVER_PORT.
const EnvPrefix = "INTEGRITY"

type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Server   ServerConfig   `mapstructure:"server"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Analysis AnalysisConfig `mapstructure:"analysis"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Storage  StorageConfig  `mapstructure:"storage"`
}

type LoggingConfig struct {
	Level     string `mapstructure:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
	Format    string `mapstructure:"format" validate:"oneof=json console pretty"`
	Output    string `mapstructure:"output" validate:"oneof=stdout stderr"`
	AddSource bool   `mapstructure:"add_source"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
	// RateLimitRPS caps analysis requests per second across all clients; 0 disables the limiter.
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps" validate:"gte=0"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst" validate:"gte=0"`
	MaxBodyBytes   int64   `mapstructure:"max_body_bytes" validate:"gt=0"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path" validate:"startswith=/"`
	Namespace string `mapstructure:"namespace" validate:"required"`
}

type AnalysisConfig struct {
	// MinChars is the shortest text worth analyzing; shorter input gets ErrTooShort.
	MinChars int `mapstructure:"min_chars" validate:"gte=0"`
	// MaxEnhancements caps the suggestions kept in a report; 0 keeps all.
	MaxEnhancements int `mapstructure:"max_enhancements" validate:"gte=0"`
	Workers         int `mapstructure:"workers" validate:"min=1"`
}

type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" validate:"gt=0"`
	MinChars int           `mapstructure:"min_chars" validate:"gte=0"`
}

type StorageConfig struct {
	// WorkspaceDir defaults to ~/.content-integrity when empty.
	WorkspaceDir string `mapstructure:"workspace_dir"`
	// DBPath defaults to <workspace>/integrity.db when empty.
	DBPath string `mapstructure:"db_path"`
}

func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c LoggingConfig) Observability() observability.LoggingConfig {
	return observability.LoggingConfig{
		Level:     c.Level,
		Format:    c.Format,
		Output:    c.Output,
		AddSource: c.AddSource,
	}
}

// Load reads defaults, then the config file, then INTEGRITY_* environment variables.
// With an empty path it looks for config.yaml in . and ./configs and tolerates its absence;
// an explicit path must exist.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Default returns the configuration with no file and no environment applied.
func Default() Config {
	var cfg Config
	v := viper.New()
	setDefaults(v)
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("config: bad defaults: %v", err))
	}
	return cfg
}

// DefaultSettings returns the defaults as a nested map, suitable for writing a config file.
func DefaultSettings() map[string]any {
	v := viper.New()
	setDefaults(v)
	return v.AllSettings()
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")
	v.SetDefault("logging.add_source", false)

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8088)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit_rps", 10.0)
	v.SetDefault("server.rate_limit_burst", 20)
	v.SetDefault("server.max_body_bytes", 2<<20)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "integrity")

	v.SetDefault("analysis.min_chars", 100)
	v.SetDefault("analysis.max_enhancements", 10)
	v.SetDefault("analysis.workers", runtime.NumCPU())

	v.SetDefault("watch.debounce", "2s")
	v.SetDefault("watch.min_chars", 100)

	v.SetDefault("storage.workspace_dir", "")
	v.SetDefault("storage.db_path", "")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: %q fails %q", strings.ToLower(fe.Namespace()), fmt.Sprint(fe.Value()), fe.Tag())
		}
		return err
	}
	if c.Server.RateLimitRPS > 0 && c.Server.RateLimitBurst == 0 {
		return fmt.Errorf("server rate_limit_burst must be positive when rate_limit_rps is set")
	}
	if c.Metrics.Enabled && strings.HasPrefix(c.Metrics.Path, "/api/") {
		return fmt.Errorf("metrics path %q collides with the API routes", c.Metrics.Path)
	}
	return nil
}
