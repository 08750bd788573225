// Package config loads and validates the probe configuration using Viper.
//
// Configuration is layered: built-in defaults < environment variables. Environment
// variables use the REGPROBE_ prefix (e.g., REGPROBE_TARGET_BASE_URL overrides
// target.base_url). No configuration file is read; with nothing set in the
// environment the probe targets the production deployment with the fixed test account.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/njoy/registration-probe/internal/registration"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "REGPROBE"

// DefaultBaseURL is the deployment probed when target.base_url is not overridden.
const DefaultBaseURL = "https://projecte-n-bdpw17a74-pausintesps-projects.vercel.app"

// Config holds all probe configuration
type Config struct {
	Target  TargetConfig  `mapstructure:"target"`
	Payload PayloadConfig `mapstructure:"payload"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// TargetConfig identifies the deployment under test
type TargetConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// PayloadConfig holds the registration fields sent by the probe
type PayloadConfig struct {
	Email     string `mapstructure:"email"`
	Password  string `mapstructure:"password"`
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
	BirthDate string `mapstructure:"birth_date"`
}

// Request converts the payload configuration into a registration request.
func (p PayloadConfig) Request() registration.Request {
	return registration.Request{
		Email:     p.Email,
		Password:  p.Password,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		BirthDate: p.BirthDate,
	}
}

// HTTPConfig controls the outbound request
type HTTPConfig struct {
	// Timeout bounds the whole request; zero waits indefinitely.
	Timeout time.Duration `mapstructure:"timeout"`
	// FailOnStatus reports non-2xx responses as transport errors.
	FailOnStatus bool `mapstructure:"fail_on_status"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds Pushgateway configuration
type MetricsConfig struct {
	// PushgatewayURL enables pushing metrics after the run when non-empty.
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// bindEnvVars explicitly binds every key so Unmarshal sees environment overrides.
func bindEnvVars(v *viper.Viper) error {
	keys := []string{
		"target.base_url",

		"payload.email",
		"payload.password",
		"payload.first_name",
		"payload.last_name",
		"payload.birth_date",

		"http.timeout",
		"http.fail_on_status",

		"logging.level",
		"logging.format",

		"metrics.pushgateway_url",
		"metrics.job",
	}
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env var %q: %w", key, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults and environment variables
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Target.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.Target.BaseURL), "/")
	cfg.Logging.Level = strings.ToLower(cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("target.base_url", DefaultBaseURL)

	def := registration.Default()
	v.SetDefault("payload.email", def.Email)
	v.SetDefault("payload.password", def.Password)
	v.SetDefault("payload.first_name", def.FirstName)
	v.SetDefault("payload.last_name", def.LastName)
	v.SetDefault("payload.birth_date", def.BirthDate)

	v.SetDefault("http.timeout", "0s")
	v.SetDefault("http.fail_on_status", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "registration_probe")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := ValidateBaseURL(c.Target.BaseURL); err != nil {
		return fmt.Errorf("target.base_url: %w", err)
	}

	if err := registration.Validate(c.Payload.Request()); err != nil {
		return fmt.Errorf("payload: %w", err)
	}

	if c.HTTP.Timeout < 0 {
		return fmt.Errorf("http.timeout must not be negative: %s", c.HTTP.Timeout)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	if c.Metrics.PushgatewayURL != "" {
		if err := ValidateBaseURL(c.Metrics.PushgatewayURL); err != nil {
			return fmt.Errorf("metrics.pushgateway_url: %w", err)
		}
		if c.Metrics.Job == "" {
			return fmt.Errorf("metrics.job is required when metrics.pushgateway_url is set")
		}
	}

	return nil
}

// ValidateBaseURL checks that raw is an absolute http(s) URL with a host
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme")
	}

	if parsed.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
