// Package providers contains dependency injection providers for the LibraryHub web client.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/libraryhub/libraryhub-web/internal/config"
	"github.com/libraryhub/libraryhub-web/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*slog.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.IsDevelopment(),
		Environment: cfg.App.Environment,
	})
	slog.SetDefault(log)

	log.Info("Starting LibraryHub web",
		"version", Version,
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"api_base_url", cfg.API.BaseURL,
		"session_backend", cfg.Session.Backend,
		"session_path", cfg.Session.DataPath,
	)

	return log, nil
}
