package providers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/libraryhub/libraryhub-web/internal/auth"
	"github.com/libraryhub/libraryhub-web/internal/config"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/validation"
	"github.com/libraryhub/libraryhub-web/internal/viewmodel"
	"github.com/libraryhub/libraryhub-web/internal/web"
)

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	handler *web.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.handler.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)
	st := do.MustInvoke[*SessionStoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	client := do.MustInvoke[*APIClientHandle](i)
	templates := do.MustInvoke[*TemplatesHandle](i)

	handler := web.NewServer(web.Deps{
		Config: web.Config{
			CookieName:             cfg.Session.CookieName,
			CookieSecure:           cfg.Session.CookieSecure,
			AllowedOrigins:         cfg.Web.AllowedOrigins,
			LoginAttemptsPerMinute: cfg.Web.LoginAttemptsPerMinute,
			TrustProxy:             cfg.Web.TrustProxy,
			Version:                Version,
		},
		Auth:         client.Client,
		Sessions:     do.MustInvoke[*session.Manager](i),
		SessionStore: st,
		Workspaces:   do.MustInvoke[*viewmodel.Registry](i),
		Validator:    do.MustInvoke[*validation.Validator](i),
		Cookies:      do.MustInvoke[*auth.CookieCodec](i),
		CSRF:         do.MustInvoke[*auth.CSRF](i),
		Templates:    templates.Templates,
		Events:       sseHandle.Manager,
		Logger:       log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	log.Info("Server running", "addr", srv.Addr, "api", cfg.API.BaseURL)

	return &HTTPServerHandle{Server: srv, handler: handler}, nil
}
