package config

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/i474232898/rainlog/internal/rainfall"
	"github.com/i474232898/rainlog/internal/store"
)

type AppConfig struct {
	Port string `env:"PORT" envDefault:"8080"`

	// Record store.
	StoreBackend         string `env:"STORE_BACKEND" envDefault:"memory"`
	SQLitePath           string `env:"SQLITE_PATH" envDefault:"./data/rainfall.db"`
	AllowMultiplePerDate bool   `env:"ALLOW_MULTIPLE_PER_DATE" envDefault:"true"`

	// Logging.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogMode  string `env:"LOG_MODE" envDefault:"development"`
	LogFile  string `env:"LOG_FILE"`

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`

	// Daily import of upstream precipitation.
	ImportEnabled    bool    `env:"IMPORT_ENABLED" envDefault:"false"`
	ImportSchedule   string  `env:"IMPORT_SCHEDULE" envDefault:"06:00"`
	ImportLatitude   float64 `env:"IMPORT_LATITUDE"`
	ImportLongitude  float64 `env:"IMPORT_LONGITUDE"`
	WeatherAPIKey    string  `env:"WEATHERAPI_API_KEY"`
	DisableOpenMeteo bool    `env:"DISABLE_OPENMETEO" envDefault:"false"`

	// DigestInterval controls how often the current month's total is logged (0 = never).
	DigestInterval time.Duration `env:"DIGEST_INTERVAL" envDefault:"24h"`
}

// Load reads configuration from .env (if present) and the environment.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every configuration problem at once.
func (c *AppConfig) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid PORT %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid PORT %d: must be between 1 and 65535", port))
	}

	switch c.StoreBackend {
	case store.BackendMemory:
	case store.BackendSQLite:
		if c.SQLitePath == "" {
			problems = append(problems, "SQLITE_PATH cannot be empty when STORE_BACKEND=sqlite")
		}
	default:
		problems = append(problems, fmt.Sprintf("invalid STORE_BACKEND %q: must be memory or sqlite", c.StoreBackend))
	}

	switch c.LogMode {
	case "development", "release":
	default:
		problems = append(problems, fmt.Sprintf("invalid LOG_MODE %q: must be development or release", c.LogMode))
	}

	if c.DigestInterval < 0 {
		problems = append(problems, "DIGEST_INTERVAL cannot be negative")
	}

	if c.ImportEnabled {
		if c.ImportLatitude < -90 || c.ImportLatitude > 90 {
			problems = append(problems, fmt.Sprintf("invalid IMPORT_LATITUDE %v", c.ImportLatitude))
		}
		if c.ImportLongitude < -180 || c.ImportLongitude > 180 {
			problems = append(problems, fmt.Sprintf("invalid IMPORT_LONGITUDE %v", c.ImportLongitude))
		}
		if _, err := time.Parse("15:04", c.ImportSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid IMPORT_SCHEDULE %q: use HH:MM", c.ImportSchedule))
		}
		if c.DisableOpenMeteo && c.WeatherAPIKey == "" {
			problems = append(problems, "IMPORT_ENABLED needs at least one provider: enable Open-Meteo or set WEATHERAPI_API_KEY")
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// ImportLocation is the point the daily import fetches precipitation for.
func (c *AppConfig) ImportLocation() rainfall.Location {
	return rainfall.Location{Latitude: c.ImportLatitude, Longitude: c.ImportLongitude}
}

// StoreOptions converts the store settings for store.Open.
func (c *AppConfig) StoreOptions() store.Options {
	return store.Options{
		Backend:              c.StoreBackend,
		SQLitePath:           c.SQLitePath,
		AllowMultiplePerDate: c.AllowMultiplePerDate,
	}
}
