// Package container provides dependency wiring and lifecycle management
// for the woordenboek server.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	NATS     NATSConfig
	Worker   WorkerConfig
	Logger   LoggerConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// MigrationsDir overrides the embedded migrations when set
	MigrationsDir string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// UserHeader carries the acting user id
	UserHeader string

	// SuggestionLimit caps suggestions per client IP within SuggestionWindow; 0 disables it
	SuggestionLimit  int
	SuggestionWindow time.Duration
}

// NATSConfig holds event publishing settings. Publishing is off when URL is empty.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	ClientName    string
}

// WorkerConfig holds background worker settings.
type WorkerConfig struct {
	// CounterInterval is the queue counter refresh period
	CounterInterval time.Duration
}

// LoggerConfig holds logger settings.
type LoggerConfig struct {
	Level      string
	OutputPath string
	Format     string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/woordenboek.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			UserHeader:   "X-User-ID",

			SuggestionLimit:  15,
			SuggestionWindow: time.Minute,
		},
		NATS: NATSConfig{
			SubjectPrefix: "woordenboek",
			ClientName:    "woordenboek-server",
		},
		Worker: WorkerConfig{
			CounterInterval: 30 * time.Second,
		},
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: "stdout",
			Format:     "json",
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.Worker.CounterInterval <= 0 {
		return fmt.Errorf("worker.counter_interval must be positive")
	}
	if c.Server.SuggestionLimit > 0 && c.Server.SuggestionWindow <= 0 {
		return fmt.Errorf("server.suggestion_window must be positive when a suggestion limit is set")
	}
	return nil
}
