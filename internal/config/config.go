// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	// ExhaustiveSeriesCheck validates every occurrence of a recurring rule
	// on creation and series edits, instead of only the first one.
	ExhaustiveSeriesCheck bool `yaml:"exhaustive_series_check"`
	// ReminderCron is the schedule on which the reminder job scans for
	// upcoming bookings.
	ReminderCron string `yaml:"reminder_cron"`
	// ReminderLeadTime is how far ahead of a booking's start the reminder
	// fires.
	ReminderLeadTime time.Duration `yaml:"reminder_lead_time"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Port        int    `yaml:"port"`
		BaseURL     string `yaml:"base_url"`
		SecretKey   string `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Booking BookingConfig `yaml:"booking"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Read and parse YAML config
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")

	applyDefaults(&cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Booking.ReminderCron == "" {
		cfg.Booking.ReminderCron = "*/15 * * * *"
	}
	if cfg.Booking.ReminderLeadTime == 0 {
		cfg.Booking.ReminderLeadTime = 24 * time.Hour
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if _, err := cron.ParseStandard(c.Booking.ReminderCron); err != nil {
		return fmt.Errorf("invalid reminder cron expression %q: %w", c.Booking.ReminderCron, err)
	}
	if c.Booking.ReminderLeadTime < 0 {
		return fmt.Errorf("reminder lead time may not be negative")
	}

	return nil
}
