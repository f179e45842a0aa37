// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"gluesync/internal/service/gluesync"
)

// GlueConfig holds the target catalog settings.
type GlueConfig struct {
	Prefix             string  `yaml:"prefix"`               // prepended to every database name
	SkipArchiveDefault bool    `yaml:"skip_archive_default"` // used when a table does not set the skip-archive parameter
	Region             string  `yaml:"region"`
	Endpoint           string  `yaml:"endpoint"` // override, e.g. a local emulator
	AccessKeyID        string  `yaml:"access_key_id"`
	SecretAccessKey    string  `yaml:"secret_access_key"`
	MaxAttempts        int     `yaml:"max_attempts"`     // SDK retry attempts per call
	RateLimitRPS       float64 `yaml:"rate_limit_rps"`   // 0 disables client-side limiting
	RateLimitBurst     int     `yaml:"rate_limit_burst"` // bucket size for RateLimitRPS
}

// HasStaticCredentials reports whether explicit AWS keys are configured.
func (g *GlueConfig) HasStaticCredentials() bool {
	return g.AccessKeyID != "" && g.SecretAccessKey != ""
}

// KafkaConfig holds the optional Kafka notification source.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
}

// Enabled reports whether the Kafka source should run.
func (k *KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0 && k.Topic != ""
}

// Config holds the configuration for the sync engine and its ingest surfaces.
type Config struct {
	Glue  GlueConfig  `yaml:"glue"`
	Kafka KafkaConfig `yaml:"kafka"`

	ListenAddr     string  `yaml:"listen_addr"`      // HTTP listen address (default ":8080")
	LogLevel       string  `yaml:"log_level"`        // debug, info, warn, error (default: info)
	LogFormat      string  `yaml:"log_format"`       // json or text (default: json)
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // ingest requests per second per client (default: 100)
	RateLimitBurst int     `yaml:"rate_limit_burst"` // ingest burst size (default: 200)
	QueueSize      int     `yaml:"queue_size"`       // pending notifications buffered by the host (default: 64)
	Env            string  `yaml:"env"`              // "development" (default) or "production"

	// Warnings collects non-fatal issues found during loading. They are logged
	// once the logger exists.
	Warnings []string `yaml:"-"`
}

// SyncConfig returns the settings the sync engine reads.
func (c *Config) SyncConfig() gluesync.SyncConfig {
	return gluesync.SyncConfig{
		Prefix:             c.Glue.Prefix,
		SkipArchiveDefault: c.Glue.SkipArchiveDefault,
	}
}

// SlogLevel converts the LogLevel string to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when ENV=production.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		Glue: GlueConfig{
			SkipArchiveDefault: true,
			MaxAttempts:        5,
		},
		Kafka: KafkaConfig{
			GroupID: "gluesync",
		},
		ListenAddr:     ":8080",
		LogLevel:       "info",
		LogFormat:      "json",
		RateLimitRPS:   100,
		RateLimitBurst: 200,
		QueueSize:      64,
		Env:            "development",
	}
}

// LoadFromEnv reads configuration from defaults and environment variables.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

// Load builds the configuration in three layers: defaults, then the YAML
// file at path (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("GLUE_PREFIX", &cfg.Glue.Prefix)
	cfg.Glue.SkipArchiveDefault = parseBoolEnvDefault("GLUE_SKIP_ARCHIVE_DEFAULT", cfg.Glue.SkipArchiveDefault)
	setString("AWS_REGION", &cfg.Glue.Region)
	setString("GLUE_ENDPOINT", &cfg.Glue.Endpoint)
	setString("AWS_ACCESS_KEY_ID", &cfg.Glue.AccessKeyID)
	setString("AWS_SECRET_ACCESS_KEY", &cfg.Glue.SecretAccessKey)
	setString("LISTEN_ADDR", &cfg.ListenAddr)
	setString("LOG_LEVEL", &cfg.LogLevel)
	setString("LOG_FORMAT", &cfg.LogFormat)
	setString("KAFKA_TOPIC", &cfg.Kafka.Topic)
	setString("KAFKA_GROUP_ID", &cfg.Kafka.GroupID)
	setString("ENV", &cfg.Env)

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = compactNonEmpty(strings.Split(v, ","))
	}

	if v := os.Getenv("GLUE_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GLUE_MAX_ATTEMPTS %q: %w", v, err)
		}
		cfg.Glue.MaxAttempts = n
	}
	if v := os.Getenv("GLUE_RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid GLUE_RATE_LIMIT_RPS %q: %w", v, err)
		}
		cfg.Glue.RateLimitRPS = f
	}
	if v := os.Getenv("GLUE_RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GLUE_RATE_LIMIT_BURST %q: %w", v, err)
		}
		cfg.Glue.RateLimitBurst = n
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS %q: %w", v, err)
		}
		cfg.RateLimitRPS = f
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_BURST %q: %w", v, err)
		}
		cfg.RateLimitBurst = n
	}
	return nil
}

func validate(cfg *Config) error {
	switch strings.ToLower(cfg.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", cfg.LogFormat)
	}
	if cfg.Glue.MaxAttempts < 1 {
		return fmt.Errorf("GLUE_MAX_ATTEMPTS must be at least 1, got %d", cfg.Glue.MaxAttempts)
	}
	if cfg.Glue.RateLimitRPS < 0 {
		return fmt.Errorf("GLUE_RATE_LIMIT_RPS must not be negative")
	}
	if cfg.Glue.RateLimitRPS > 0 && cfg.Glue.RateLimitBurst < 1 {
		cfg.Glue.RateLimitBurst = 1
		cfg.Warnings = append(cfg.Warnings, "GLUE_RATE_LIMIT_BURST not set; using 1")
	}
	if cfg.QueueSize < 0 {
		return fmt.Errorf("queue_size must not be negative")
	}
	if (cfg.Glue.AccessKeyID == "") != (cfg.Glue.SecretAccessKey == "") {
		return fmt.Errorf("AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY must be set together")
	}

	if cfg.Glue.Prefix == "" {
		cfg.Warnings = append(cfg.Warnings, "GLUE_PREFIX not set; databases are mirrored under their Hive names")
	}
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Topic == "" {
		cfg.Warnings = append(cfg.Warnings, "KAFKA_BROKERS set without KAFKA_TOPIC; Kafka source disabled")
	}
	if cfg.Glue.Endpoint != "" {
		cfg.Warnings = append(cfg.Warnings, "GLUE_ENDPOINT override in use: "+cfg.Glue.Endpoint)
	}

	// Production mode: settings that only make sense locally are fatal errors.
	if cfg.IsProduction() {
		if cfg.Glue.Region == "" {
			return fmt.Errorf("AWS_REGION must be set in production (ENV=production)")
		}
		if cfg.Glue.Endpoint != "" {
			return fmt.Errorf("GLUE_ENDPOINT override is not allowed in production (ENV=production)")
		}
	}
	return nil
}

func parseBoolEnvDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if v == "" {
		return defaultVal
	}
	if v == "0" || v == "false" || v == "no" || v == "off" {
		return false
	}
	if v == "1" || v == "true" || v == "yes" || v == "on" {
		return true
	}
	return defaultVal
}

func compactNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// LoadDotEnv reads a .env file and sets any variables not already in the environment.
// Lines must be in KEY=VALUE format. Comments (#) and blank lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Variables already in the environment win.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
