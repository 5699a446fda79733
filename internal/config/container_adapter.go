package config

import (
	"github.com/vlaamswoordenboek/woordenboek/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			MigrationsDir:   c.Database.MigrationsDir,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			UserHeader:   c.Server.UserHeader,

			SuggestionLimit:  c.Server.SuggestionLimit,
			SuggestionWindow: c.Server.SuggestionWindow,
		},
		NATS: container.NATSConfig{
			URL:           c.NATS.URL,
			SubjectPrefix: c.NATS.SubjectPrefix,
			ClientName:    c.NATS.ClientName,
		},
		Worker: container.WorkerConfig{
			CounterInterval: c.Worker.CounterInterval,
		},
		Logger: container.LoggerConfig{
			Level:      c.Logger.Level,
			OutputPath: c.Logger.OutputPath,
			Format:     c.Logger.Format,
		},
	}
}
