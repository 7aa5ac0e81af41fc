package providers

import (
	"context"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/libraryhub/libraryhub-web/internal/apiclient"
	"github.com/libraryhub/libraryhub-web/internal/config"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/sse"
	"github.com/libraryhub/libraryhub-web/internal/validation"
	"github.com/libraryhub/libraryhub-web/internal/viewmodel"
	"github.com/libraryhub/libraryhub-web/internal/web"
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*slog.Logger](i)

	manager := sse.NewManager(log)

	// Start in background
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// APIClientHandle wraps the library service client with shutdown capability.
type APIClientHandle struct {
	*apiclient.Client
}

// Shutdown implements do.Shutdownable.
func (h *APIClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideAPIClient provides the library service client.
func ProvideAPIClient(i do.Injector) (*APIClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	client := apiclient.New(apiclient.Config{
		BaseURL:           cfg.API.BaseURL,
		Timeout:           cfg.API.Timeout,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
		Burst:             cfg.API.Burst,
		UserAgent:         "LibraryHub-Web/" + Version,
	}, log)

	return &APIClientHandle{Client: client}, nil
}

// ProvideValidator provides the form validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideWorkspaceRegistry provides the per-session view model registry.
func ProvideWorkspaceRegistry(i do.Injector) (*viewmodel.Registry, error) {
	client := do.MustInvoke[*APIClientHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*slog.Logger](i)

	return viewmodel.NewRegistry(client.Client, v, log), nil
}

// ProvideSessionManager provides the session manager. Session writes and
// clears are announced to the browser's event streams and to the workspace
// registry.
func ProvideSessionManager(i do.Injector) (*session.Manager, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	st := do.MustInvoke[*SessionStoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	registry := do.MustInvoke[*viewmodel.Registry](i)

	emitters := session.Emitters{sseHandle.Manager, registry}
	return session.NewManager(st, emitters, cfg.Session.TTL, log), nil
}

// TemplatesHandle wraps the page templates and their development watcher.
type TemplatesHandle struct {
	*web.Templates
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *TemplatesHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideTemplates parses the page templates. In development with a template
// directory set, they are reloaded on change.
func ProvideTemplates(i do.Injector) (*TemplatesHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	tpl, err := web.NewTemplates(cfg.Web.TemplateDir, log)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Web.TemplateDir != "" && cfg.App.IsDevelopment() {
		go func() {
			if err := tpl.Watch(ctx, cfg.Web.TemplateDir); err != nil {
				log.Warn("Template watcher stopped", "error", err)
			}
		}()
	}

	return &TemplatesHandle{Templates: tpl, cancel: cancel}, nil
}
