package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the service configuration. Values come from an optional YAML
// file first, then the environment (and .env) overrides them.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Database struct {
		Host     string `yaml:"host"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		DBName   string `yaml:"dbname"`
		Port     string `yaml:"port"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
	TimeZone string `yaml:"timezone"`
	LogLevel string `yaml:"log_level"`
	Ledger   struct {
		WelcomeGrant    int64         `yaml:"welcome_grant"`
		MonitorInterval time.Duration `yaml:"monitor_interval"`
		// Notifier is "store" or "log".
		Notifier string `yaml:"notifier"`
	} `yaml:"ledger"`
}

func defaults() Config {
	var c Config
	c.Server.Port = "8080"
	c.Database.Host = "localhost"
	c.Database.User = "postgres"
	c.Database.Password = "postgres"
	c.Database.DBName = "ultrapreps"
	c.Database.Port = "5432"
	c.Database.SSLMode = "disable"
	c.TimeZone = "America/Los_Angeles"
	c.LogLevel = "info"
	c.Ledger.WelcomeGrant = 500
	c.Ledger.MonitorInterval = time.Hour
	c.Ledger.Notifier = "store"
	return c
}

// DSN builds the postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.Database.Host,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.Port,
		c.Database.SSLMode,
		c.TimeZone,
	)
}

// Load reads .env, then the YAML file named by HYPE_CONFIG (if any), then
// applies environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := defaults()
	if path := os.Getenv("HYPE_CONFIG"); path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func envOr(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func (c *Config) applyEnv() error {
	c.Server.Port = envOr("APP_PORT", c.Server.Port)
	c.Database.Host = envOr("DB_HOST", c.Database.Host)
	c.Database.User = envOr("DB_USER", c.Database.User)
	c.Database.Password = envOr("DB_PASSWORD", c.Database.Password)
	c.Database.DBName = envOr("DB_NAME", c.Database.DBName)
	c.Database.Port = envOr("DB_PORT", c.Database.Port)
	c.Database.SSLMode = envOr("DB_SSLMODE", c.Database.SSLMode)
	c.TimeZone = envOr("TZ", c.TimeZone)
	c.LogLevel = envOr("LOG_LEVEL", c.LogLevel)
	c.Ledger.Notifier = envOr("HYPE_NOTIFIER", c.Ledger.Notifier)

	if v := os.Getenv("HYPE_WELCOME_GRANT"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("HYPE_WELCOME_GRANT: %w", err)
		}
		c.Ledger.WelcomeGrant = n
	}
	if v := os.Getenv("HYPE_MONITOR_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("HYPE_MONITOR_INTERVAL: %w", err)
		}
		c.Ledger.MonitorInterval = d
	}
	return nil
}

func (c *Config) validate() error {
	if c.Database.Host == "" || c.Database.DBName == "" {
		return errors.New("database host and name are required")
	}
	if p, err := strconv.Atoi(c.Server.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %q", c.Server.Port)
	}
	if c.Ledger.WelcomeGrant < 0 {
		return errors.New("welcome grant must not be negative")
	}
	if c.Ledger.MonitorInterval <= 0 {
		return errors.New("monitor interval must be positive")
	}
	if c.Ledger.Notifier != "store" && c.Ledger.Notifier != "log" {
		return fmt.Errorf("notifier must be store or log, got %q", c.Ledger.Notifier)
	}
	return nil
}
