// Package config loads the YAML configuration file, the optional .env file and HOA_* overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is used when no path is given.
const DefaultConfigFile = "config.yaml"

// Environment overrides.
const (
	EnvConfigPath  = "HOA_CONFIG"
	EnvDatabaseDSN = "HOA_DATABASE_DSN"
	EnvJWTSecret   = "HOA_JWT_SECRET"
	EnvRedisAddr   = "HOA_REDIS_ADDR"
	EnvServerAddr  = "HOA_SERVER_ADDR"
	EnvLogLevel    = "HOA_LOG_LEVEL"
)

// AppConfig holds process-level inputs gathered from the command line.
type AppConfig struct {
	ConfigPath string
}

// Config is the on-disk configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	JWT      JWTFileConfig  `yaml:"jwt"`
	Logging  LoggingConfig  `yaml:"logging"`
	Redis    RedisConfig    `yaml:"redis"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr                string   `yaml:"addr"`
	CORSOrigins         []string `yaml:"cors-origins"`
	ReadTimeoutSeconds  int      `yaml:"read-timeout-seconds"`
	WriteTimeoutSeconds int      `yaml:"write-timeout-seconds"`
}

// DatabaseConfig selects the store. Postgres DSNs and SQLite paths are both accepted.
type DatabaseConfig struct {
	DSN             string `yaml:"dsn"`
	MaxOpenConns    int    `yaml:"max-open-conns"`
	MaxIdleConns    int    `yaml:"max-idle-conns"`
	SlowThresholdMS int    `yaml:"slow-threshold-ms"`
}

// JWTFileConfig is the jwt section as written in the file.
type JWTFileConfig struct {
	Secret      string `yaml:"secret"`
	ExpiryHours int    `yaml:"expiry-hours"`
}

// LoggingConfig configures logrus and the rotating log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// RedisConfig configures the activity feed. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// JWTConfig is the resolved token configuration.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// ReadTimeout returns the server read timeout.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the server write timeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// JWTConfig resolves the token settings.
func (c *Config) JWTConfig() JWTConfig {
	return JWTConfig{
		Secret: c.JWT.Secret,
		Expiry: time.Duration(c.JWT.ExpiryHours) * time.Hour,
	}
}

// ResolveConfigPath returns path, the HOA_CONFIG value, or the default file, as an absolute path.
func ResolveConfigPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if path == "" {
		path = DefaultConfigFile
	}
	if abs, errAbs := filepath.Abs(path); errAbs == nil {
		return abs
	}
	return path
}

// ConfigExists reports whether the config file exists.
func ConfigExists(path string) bool {
	info, errStat := os.Stat(path)
	return errStat == nil && !info.IsDir()
}

// Load reads the config file when present, then a .env file next to it, then applies
// HOA_* overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	raw, errRead := os.ReadFile(path)
	switch {
	case errRead == nil:
		if errUnmarshal := yaml.Unmarshal(raw, cfg); errUnmarshal != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, errUnmarshal)
		}
	case errors.Is(errRead, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, errRead)
	}

	envFile := filepath.Join(filepath.Dir(path), ".env")
	if errEnv := godotenv.Load(envFile); errEnv != nil && !errors.Is(errEnv, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, errEnv)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if errValidate := cfg.Validate(); errValidate != nil {
		return nil, errValidate
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseDSN)); v != "" {
		c.Database.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJWTSecret)); v != "" {
		c.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRedisAddr)); v != "" {
		c.Redis.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		c.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.Logging.Level = v
	}
	if v := strings.TrimSpace(os.Getenv("HOA_REDIS_DB")); v != "" {
		if n, errParse := strconv.Atoi(v); errParse == nil {
			c.Redis.DB = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeoutSeconds <= 0 {
		c.Server.ReadTimeoutSeconds = 15
	}
	if c.Server.WriteTimeoutSeconds <= 0 {
		c.Server.WriteTimeoutSeconds = 30
	}
	if c.Database.DSN == "" {
		c.Database.DSN = "data/hoa.db"
	}
	if c.JWT.ExpiryHours <= 0 {
		c.JWT.ExpiryHours = 24 * 7
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 50
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 30
	}
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	if len(strings.TrimSpace(c.JWT.Secret)) < 16 {
		return fmt.Errorf("jwt.secret must be at least 16 characters (set it in the config file or %s)", EnvJWTSecret)
	}
	return nil
}

// LoadDatabaseDSN returns only the database DSN. It does not require a JWT secret.
func LoadDatabaseDSN(path string) (string, error) {
	cfg := &Config{}
	raw, errRead := os.ReadFile(path)
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(raw, cfg); errUnmarshal != nil {
			return "", fmt.Errorf("parse config %s: %w", path, errUnmarshal)
		}
	} else if !errors.Is(errRead, os.ErrNotExist) {
		return "", fmt.Errorf("read config %s: %w", path, errRead)
	}
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg.Database.DSN, nil
}
