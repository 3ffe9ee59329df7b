// Package providers contains dependency injection providers for the EchoVerse server.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/echoverse/echoverse-server/internal/config"
	"github.com/echoverse/echoverse-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger and installs it as the slog default.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Format:      cfg.Logger.Format,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(log.Logger)

	log.Info("Starting EchoVerse Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"data_path", cfg.App.DataPath,
		"audio_path", cfg.Narration.AudioPath,
	)

	return log, nil
}
