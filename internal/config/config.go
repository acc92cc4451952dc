package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
	WFS    WFSConfig    `yaml:"wfs" mapstructure:"wfs"`
}

// ServerConfig configures the HTTP tool server.
type ServerConfig struct {
	Port               int      `yaml:"port" mapstructure:"port"`
	MaxSessions        int      `yaml:"max_sessions" mapstructure:"max_sessions"`
	AllowedOrigins     []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RequestTimeoutSecs int      `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// WFSConfig configures the upstream geodata services.
type WFSConfig struct {
	BaseURL                 string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs             int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RetryDelayMs            int     `yaml:"retry_delay_ms" mapstructure:"retry_delay_ms"`
	MaxRetries              int     `yaml:"max_retries" mapstructure:"max_retries"`
	RateLimit               float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	CircuitFailureThreshold int     `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetSecs        int     `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
	UserAgent               string  `yaml:"user_agent" mapstructure:"user_agent"`
	LandValueYear           int     `yaml:"land_value_year" mapstructure:"land_value_year"`
}

// Timeout returns the per-attempt request timeout.
func (w WFSConfig) Timeout() time.Duration {
	return time.Duration(w.TimeoutSecs) * time.Second
}

// RetryDelay returns the pause before a retry.
func (w WFSConfig) RetryDelay() time.Duration {
	return time.Duration(w.RetryDelayMs) * time.Millisecond
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BERLIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_sessions", 256)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.request_timeout_secs", 120)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("wfs.base_url", "https://gdi.berlin.de/services/wfs")
	v.SetDefault("wfs.timeout_secs", 30)
	v.SetDefault("wfs.retry_delay_ms", 2000)
	v.SetDefault("wfs.max_retries", 1)
	v.SetDefault("wfs.rate_limit", 20)
	v.SetDefault("wfs.circuit_failure_threshold", 0)
	v.SetDefault("wfs.circuit_reset_secs", 30)
	v.SetDefault("wfs.user_agent", "berlin-open-data/1.0")
	v.SetDefault("wfs.land_value_year", 2025)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	// Hosting platforms inject a bare PORT; it wins unless BERLIN_SERVER_PORT is set.
	if port := os.Getenv("PORT"); port != "" && os.Getenv("BERLIN_SERVER_PORT") == "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, eris.Wrapf(err, "config: invalid PORT %q", port)
		}
		cfg.Server.Port = p
	}

	return &cfg, nil
}

// Validate checks the settings needed by the given mode ("serve" or "query").
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be between 1 and 65535")
		}
		if c.Server.MaxSessions <= 0 {
			errs = append(errs, "server.max_sessions must be > 0")
		}
	case "query":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.WFS.BaseURL == "" {
		errs = append(errs, "wfs.base_url is required")
	}
	if c.WFS.TimeoutSecs <= 0 {
		errs = append(errs, "wfs.timeout_secs must be > 0")
	}
	if c.WFS.MaxRetries < 0 {
		errs = append(errs, "wfs.max_retries must be >= 0")
	}
	if c.WFS.RateLimit < 0 {
		errs = append(errs, "wfs.rate_limit must be >= 0")
	}

	if len(errs) > 0 {
		return eris.New(fmt.Sprintf("config: %s", strings.Join(errs, "; ")))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
