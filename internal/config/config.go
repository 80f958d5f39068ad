// Package config loads and validates application configuration from YAML files
// and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Wizard        WizardConfig        `yaml:"wizard"`
	Payment       PaymentConfig       `yaml:"payment"`
	Webhook       WebhookConfig       `yaml:"webhook"`
	Claims        ClaimsConfig        `yaml:"claims"`
	Renderer      RendererConfig      `yaml:"renderer"`
	Mail          MailConfig          `yaml:"mail"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig describes HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	HandlerTimeout  time.Duration `yaml:"handler_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORS            CORSConfig    `yaml:"cors"`
}

// CORSConfig describes Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
	MaxAge         int      `yaml:"max_age"`
}

// WizardConfig describes where the step definitions come from. An empty
// StepsFile uses the embedded defaults.
type WizardConfig struct {
	StepsFile string `yaml:"steps_file"`
}

// PaymentConfig describes the payment processor connection.
type PaymentConfig struct {
	BaseURL    string        `yaml:"base_url"`
	SecretEnv  string        `yaml:"secret_env"`
	Secret     string        `yaml:"-"`
	Timeout    time.Duration `yaml:"timeout"`
	SuccessURL string        `yaml:"success_url"`
	CancelURL  string        `yaml:"cancel_url"`
}

// WebhookConfig describes notification verification settings.
type WebhookConfig struct {
	SecretEnv string        `yaml:"secret_env"`
	Secret    string        `yaml:"-"`
	Tolerance time.Duration `yaml:"tolerance"`
}

// ClaimsConfig describes the event claim store.
type ClaimsConfig struct {
	Driver  string        `yaml:"driver"` // memory, redis, postgres
	AddrEnv string        `yaml:"addr_env"`
	DSNEnv  string        `yaml:"dsn_env"`
	DB      int           `yaml:"db"`
	TTL     time.Duration `yaml:"ttl"`
}

// RendererConfig describes the PDF rendering service.
type RendererConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// MailConfig describes SMTP delivery settings. The password always comes
// from the environment, never the file.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Secure   bool   `yaml:"secure"`
	User     string `yaml:"user"`
	Password string `yaml:"-"`
}

// ObservabilityConfig describes logging, tracing, and metrics settings.
type ObservabilityConfig struct {
	LogLevel string        `yaml:"log_level"`
	Tracing  TracingConfig `yaml:"tracing"`
	Metrics  MetricsConfig `yaml:"metrics"`
}

// TracingConfig describes distributed tracing settings.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// MetricsConfig describes Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			HandlerTimeout:  25 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			CORS: CORSConfig{
				AllowedMethods: []string{"GET", "POST", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "X-Correlation-Id"},
				MaxAge:         86400,
			},
		},
		Payment: PaymentConfig{
			SecretEnv:  "PROCESSOR_SECRET",
			Timeout:    15 * time.Second,
			SuccessURL: "https://medipause.com/merci",
			CancelURL:  "https://medipause.com/annule",
		},
		Webhook: WebhookConfig{
			SecretEnv: "WEBHOOK_SECRET",
			Tolerance: 5 * time.Minute,
		},
		Claims: ClaimsConfig{
			Driver:  "memory",
			AddrEnv: "REDIS_ADDR",
			DSNEnv:  "DATABASE_URL",
			TTL:     30 * 24 * time.Hour,
		},
		Renderer: RendererConfig{
			Timeout: 60 * time.Second,
		},
		Mail: MailConfig{
			Port: 587,
		},
		Observability: ObservabilityConfig{
			LogLevel: "info",
			Tracing: TracingConfig{
				Exporter:     "otlp",
				SamplingRate: 0.1,
			},
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}

// Load reads a YAML config file, applies environment variable overrides,
// and validates required fields.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required fields are present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Payment.BaseURL == "" {
		errs = append(errs, "payment.base_url is required")
	}
	if c.Payment.Secret == "" {
		errs = append(errs, fmt.Sprintf("payment secret is required (env %s)", c.Payment.SecretEnv))
	}
	if c.Webhook.Secret == "" {
		errs = append(errs, fmt.Sprintf("webhook secret is required (env %s)", c.Webhook.SecretEnv))
	}
	if c.Renderer.BaseURL == "" {
		errs = append(errs, "renderer.base_url is required")
	}
	if c.Mail.Host == "" {
		errs = append(errs, "mail.host is required")
	}
	switch c.Claims.Driver {
	case "memory", "redis", "postgres":
	default:
		errs = append(errs, fmt.Sprintf("claims.driver %q is not one of memory, redis, postgres", c.Claims.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// applyEnvOverrides reads environment variables and overrides config values.
// Secrets are only ever read from the environment.
func applyEnvOverrides(cfg *Config) {
	cfg.Payment.Secret = os.Getenv(cfg.Payment.SecretEnv)
	cfg.Webhook.Secret = os.Getenv(cfg.Webhook.SecretEnv)
	cfg.Mail.Password = os.Getenv("MAIL_PASS")

	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("MAIL_HOST"); v != "" {
		cfg.Mail.Host = v
	}
	if v := os.Getenv("MAIL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Mail.Port = port
		}
	}
	if v := os.Getenv("MAIL_SECURE"); v != "" {
		cfg.Mail.Secure = v == "true" || v == "1"
	}
	if v := os.Getenv("MAIL_USER"); v != "" {
		cfg.Mail.User = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
}
