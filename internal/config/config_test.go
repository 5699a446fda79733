package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "X-User-ID", cfg.Server.UserHeader)
	assert.Equal(t, "data/woordenboek.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Worker.CounterInterval)
	assert.Equal(t, "woordenboek", cfg.NATS.SubjectPrefix)
	assert.Empty(t, cfg.NATS.URL)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, 15, cfg.Server.SuggestionLimit)
	assert.Equal(t, time.Minute, cfg.Server.SuggestionWindow)
}

func TestLoad_FileAndEnvironment(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path := writeFile(t, dir, "config.yaml", `
server:
  port: 9090
  read_timeout: 5s
database:
  path: /var/lib/woordenboek/db.sqlite
worker:
  counter_interval: 1m
logger:
  level: debug
`)

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("NATS_URL", "nats://localhost:4222")
	t.Setenv("WOORDENBOEK_SERVER_HOST", "127.0.0.1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "/var/lib/woordenboek/db.sqlite", cfg.Database.Path)
	assert.Equal(t, time.Minute, cfg.Worker.CounterInterval)
	assert.Equal(t, "warn", cfg.Logger.Level)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	writeFile(t, dir, ".env", "WOORDENBOEK_PORT=7070\nWOORDENBOEK_DB_PATH=dotenv.db\n")

	t.Cleanup(func() {
		os.Unsetenv("WOORDENBOEK_PORT")
		os.Unsetenv("WOORDENBOEK_DB_PATH")
	})

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "dotenv.db", cfg.Database.Path)
}

func TestLoad_MissingFile(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := Load("does-not-exist.yaml")
	assert.Error(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("WOORDENBOEK_PORT", "70000")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{Path: "db.sqlite"},
			Worker:   WorkerConfig{CounterInterval: time.Second},
			NATS:     NATSConfig{SubjectPrefix: "woordenboek"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"empty db path", func(c *Config) { c.Database.Path = "  " }, true},
		{"zero port", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 65536 }, true},
		{"zero counter interval", func(c *Config) { c.Worker.CounterInterval = 0 }, true},
		{"nats without prefix", func(c *Config) { c.NATS = NATSConfig{URL: "nats://x:4222"} }, true},
		{"negative suggestion limit", func(c *Config) { c.Server.SuggestionLimit = -1 }, true},
		{"suggestion limit without window", func(c *Config) { c.Server.SuggestionLimit = 15 }, true},
		{"suggestion limit disabled", func(c *Config) { c.Server.SuggestionLimit = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestToContainerConfig(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Host: "localhost", Port: 8081, UserHeader: "X-Editor", SuggestionLimit: 5, SuggestionWindow: time.Hour},
		Database: DatabaseConfig{Path: "x.db", MaxOpenConns: 3},
		NATS:     NATSConfig{URL: "nats://n:4222", SubjectPrefix: "wb"},
		Worker:   WorkerConfig{CounterInterval: 2 * time.Second},
		Logger:   LoggerConfig{Level: "debug", Format: "console"},
	}

	cc := cfg.ToContainerConfig()
	assert.Equal(t, "X-Editor", cc.Server.UserHeader)
	assert.Equal(t, 5, cc.Server.SuggestionLimit)
	assert.Equal(t, time.Hour, cc.Server.SuggestionWindow)
	assert.Equal(t, 3, cc.Database.MaxOpenConns)
	assert.Equal(t, "wb", cc.NATS.SubjectPrefix)
	assert.Equal(t, 2*time.Second, cc.Worker.CounterInterval)
	assert.Equal(t, "console", cc.Logger.Format)
	require.NoError(t, cc.Validate())
}
