// Package di provides dependency injection configuration for the LibraryHub web client.
package di

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/libraryhub/libraryhub-web/internal/config"
	"github.com/libraryhub/libraryhub-web/internal/di/providers"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Session layer
	do.Provide(injector, providers.ProvideSessionStore)
	do.Provide(injector, providers.ProvideCookieKey)
	do.Provide(injector, providers.ProvideCookieCodec)
	do.Provide(injector, providers.ProvideCSRF)
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideSessionManager)

	// Library service and view models
	do.Provide(injector, providers.ProvideAPIClient)
	do.Provide(injector, providers.ProvideValidator)
	do.Provide(injector, providers.ProvideWorkspaceRegistry)

	// Workers
	do.Provide(injector, providers.ProvideSessionCleanupJob)

	// Server
	do.Provide(injector, providers.ProvideTemplates)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*slog.Logger](injector)

	if _, err := do.Invoke[*providers.SessionStoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.CookieKey](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*session.Manager](injector)

	// Workers
	_ = do.MustInvoke[*providers.SessionCleanupJob](injector)

	// Server
	if _, err := do.Invoke[*providers.TemplatesHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
