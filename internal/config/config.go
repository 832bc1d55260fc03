// Package config provides environment-variable-first configuration loading
// with optional YAML file fallback for the mailer.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// defaultMaxMessageSize is 25 MB in bytes.
const defaultMaxMessageSize = 26214400

// Config holds the complete application configuration.
type Config struct {
	// Provider selects the delivery backend: "unione", "ses" or "stdout".
	// Empty means auto-detection.
	Provider string `yaml:"provider"`

	SMTP    SMTPConfig    `yaml:"smtp"`
	UniOne  UniOneConfig  `yaml:"unione"`
	SES     SESConfig     `yaml:"ses"`
	TLS     TLSConfig     `yaml:"tls"`
	Logging LoggingConfig `yaml:"logging"`
}

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Listen         string `yaml:"listen"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	MaxMessageSize int64  `yaml:"max_message_size"`
}

// UniOneConfig holds UniOne API configuration.
type UniOneConfig struct {
	APIKey string `yaml:"api_key"`

	// Locale becomes a URL path segment; it must be a safe path token.
	Locale string `yaml:"locale"`

	// Host and Port override the default API endpoint.
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	SkipUnsubscribe            bool `yaml:"skip_unsubscribe"`
	CheckDeletableSuppressions bool `yaml:"check_deletable_suppressions"`
}

// SESConfig holds AWS SES configuration.
type SESConfig struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Sender          string `yaml:"sender"`
}

// TLSConfig holds TLS certificate file paths.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables with sensible defaults.
// Environment variables always take precedence.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.applyEnvVars()
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file as the base layer,
// then overrides with environment variables. Returns an error if the
// specified file path does not exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables always override YAML values
	cfg.applyEnvVars()

	return cfg, nil
}

// UniOneConfigured returns true if the UniOne API key is set.
func (c *Config) UniOneConfigured() bool {
	return c.UniOne.APIKey != ""
}

// SESConfigured returns true if the SES region and sender are set.
func (c *Config) SESConfigured() bool {
	return c.SES.Region != "" && c.SES.Sender != ""
}

// AuthEnabled returns true if both SMTP username and password are set.
func (c *Config) AuthEnabled() bool {
	return c.SMTP.Username != "" && c.SMTP.Password != ""
}

// applyDefaults sets sensible default values for all configuration fields.
func (c *Config) applyDefaults() {
	c.SMTP.Listen = ":2525"
	c.SMTP.MaxMessageSize = defaultMaxMessageSize
	c.UniOne.Locale = "en"
	c.Logging.Level = "info"
}

// applyEnvVars overrides configuration with environment variable values.
// Only non-empty environment variables override existing values.
func (c *Config) applyEnvVars() {
	if v := os.Getenv("PROVIDER"); v != "" {
		c.Provider = strings.ToLower(v)
	}

	if v := os.Getenv("SMTP_LISTEN"); v != "" {
		c.SMTP.Listen = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		c.SMTP.Username = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("SMTP_MAX_MESSAGE_SIZE"); v != "" {
		if size, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.SMTP.MaxMessageSize = size
		}
	}

	if v := os.Getenv("UNIONE_API_KEY"); v != "" {
		c.UniOne.APIKey = v
	}
	if v := os.Getenv("UNIONE_LOCALE"); v != "" {
		c.UniOne.Locale = v
	}
	if v := os.Getenv("UNIONE_HOST"); v != "" {
		c.UniOne.Host = v
	}
	if v := os.Getenv("UNIONE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.UniOne.Port = port
		}
	}
	if v := os.Getenv("UNIONE_SKIP_UNSUBSCRIBE"); v != "" {
		c.UniOne.SkipUnsubscribe = parseBool(v)
	}
	if v := os.Getenv("UNIONE_CHECK_DELETABLE_SUPPRESSIONS"); v != "" {
		c.UniOne.CheckDeletableSuppressions = parseBool(v)
	}

	if v := os.Getenv("SES_REGION"); v != "" {
		c.SES.Region = v
	}
	if v := os.Getenv("SES_ACCESS_KEY_ID"); v != "" {
		c.SES.AccessKeyID = v
	}
	if v := os.Getenv("SES_SECRET_ACCESS_KEY"); v != "" {
		c.SES.SecretAccessKey = v
	}
	if v := os.Getenv("SES_SENDER"); v != "" {
		c.SES.Sender = v
	}

	if v := os.Getenv("TLS_CERT_FILE"); v != "" {
		c.TLS.CertFile = v
	}
	if v := os.Getenv("TLS_KEY_FILE"); v != "" {
		c.TLS.KeyFile = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
}

// parseBool interprets the usual truthy spellings of a flag env var.
func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
