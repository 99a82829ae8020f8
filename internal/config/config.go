// Package config loads krecikd's operational configuration: defaults, then
// an optional YAML file, then environment variable overrides (and an
// optional .env file for local runs), in that priority order.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig controls the HTTP front end.
type ServerConfig struct {
	Host string `yaml:"host" env:"KRECIKD_HOST"`
	Port int    `yaml:"port" env:"KRECIKD_PORT"`
}

// ProberConfig controls the worker pool and per-check budget.
type ProberConfig struct {
	PoolSize     int           `yaml:"pool_size" env:"KRECIKD_POOL_SIZE"`
	CheckTimeout time.Duration `yaml:"check_timeout" env:"KRECIKD_CHECK_TIMEOUT"`
	CertTimeout  time.Duration `yaml:"cert_timeout" env:"KRECIKD_CERT_TIMEOUT"`
}

// HistoryConfig controls the on-disk run log.
type HistoryConfig struct {
	Dir           string `yaml:"dir" env:"KRECIKD_HISTORY_DIR"`
	KeepCount     int    `yaml:"keep_count" env:"KRECIKD_HISTORY_KEEP"`
	ValidateCount int    `yaml:"validate_count" env:"KRECIKD_HISTORY_VALIDATE"`
}

// NotifierConfig controls the dedup state file and webhook destination.
type NotifierConfig struct {
	StatePath  string `yaml:"state_path" env:"KRECIKD_NOTIFIER_STATE_PATH"`
	WebhookURL string `yaml:"webhook_url" env:"KRECIKD_WEBHOOK_URL"`
}

// LockConfig controls the Warden's distributed advisory lock.
type LockConfig struct {
	RedisAddr string        `yaml:"redis_addr" env:"KRECIKD_REDIS_ADDR"`
	RedisKey  string        `yaml:"redis_key" env:"KRECIKD_REDIS_KEY"`
	TTL       time.Duration `yaml:"ttl" env:"KRECIKD_LOCK_TTL"`
}

// LoggingConfig controls structured log output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// ChecksConfig controls where check-file definitions are loaded from.
type ChecksConfig struct {
	Dir     string         `yaml:"dir" env:"KRECIKD_CHECKS_DIR"`
	Remotes []RemoteSource `yaml:"remotes"`
}

// Config is the top-level krecikd configuration structure.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Prober   ProberConfig   `yaml:"prober"`
	History  HistoryConfig  `yaml:"history"`
	Notifier NotifierConfig `yaml:"notifier"`
	Lock     LockConfig     `yaml:"lock"`
	Logging  LoggingConfig  `yaml:"logging"`
	Checks   ChecksConfig   `yaml:"checks"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Prober: ProberConfig{PoolSize: 4, CheckTimeout: 30 * time.Second, CertTimeout: 15 * time.Second},
		History: HistoryConfig{
			Dir:           "/var/lib/krecik/history",
			KeepCount:     10,
			ValidateCount: 3,
		},
		Notifier: NotifierConfig{StatePath: "/var/lib/krecik/notifier.state"},
		Lock:     LockConfig{RedisKey: "krecik:warden:lock", TTL: 30 * time.Second},
		Logging:  LoggingConfig{Level: "info", Format: "json"},
		Checks:   ChecksConfig{Dir: "/etc/krecik/checks"},
	}
}

// Load loads an optional .env file, an optional YAML file (path from
// CONFIG_FILE, or "config.yaml" in the working directory), then applies
// environment variable overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if path == "" {
		path = "config.yaml"
	}
	if err := loadFromFile(path, cfg); err != nil {
		return nil, err
	}

	if err := envdecode.Decode(cfg); err != nil {
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
