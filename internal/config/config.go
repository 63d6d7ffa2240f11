// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

type Config struct {
	Port   string `env:"PORT" envDefault:"8080"`
	Store  Store
	Report Report
	MQTT   MQTT
	Rate   RateLimit
	Log    Log
}

type Store struct {
	Backend    string `env:"STORE_BACKEND" envDefault:"sqlite"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"manutencao.db"`
	MongoURI   string `env:"MONGO_URI"`
	MongoDB    string `env:"MONGO_DB" envDefault:"motolog"`
}

type Report struct {
	Path     string `env:"REPORT_PATH" envDefault:"maintenance_report.txt"`
	Dir      string `env:"REPORT_DIR" envDefault:"maintenance_reports"`
	Currency string `env:"REPORT_CURRENCY" envDefault:"R$"`
}

type MQTT struct {
	Broker   string `env:"MQTT_BROKER"`
	Topic    string `env:"MQTT_TOPIC" envDefault:"motolog/items"`
	ClientID string `env:"MQTT_CLIENT_ID" envDefault:"motolog"`
}

// RateLimit is off when Requests is 0. TrustProxy keys clients by
// X-Forwarded-For and X-Real-IP; set it only behind a reverse proxy.
type RateLimit struct {
	Requests   int           `env:"RATE_LIMIT" envDefault:"0"`
	Window     time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
	TrustProxy bool          `env:"RATE_TRUST_PROXY" envDefault:"false"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file and then parses the environment.
// Variables already set in the process take precedence over .env.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Parse(env.Options{})
}

// Parse parses the configuration with the given env options.
func Parse(opts env.Options) (Config, error) {
	cfg := Config{}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Rate.Requests < 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT must not be negative, got %d", cfg.Rate.Requests)
	}
	if cfg.Rate.Requests > 0 && cfg.Rate.Window <= 0 {
		return Config{}, fmt.Errorf("RATE_WINDOW must be positive, got %s", cfg.Rate.Window)
	}
	return cfg, nil
}

// SetupLogging applies the log level and format to the standard logrus
// logger.
func SetupLogging(c Log) error {
	level, err := log.ParseLevel(c.Level)
	if err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)

	switch c.Format {
	case "", "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Format)
	}
	return nil
}
