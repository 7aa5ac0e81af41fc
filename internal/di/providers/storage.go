package providers

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/libraryhub/libraryhub-web/internal/auth"
	"github.com/libraryhub/libraryhub-web/internal/config"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/store"
	"github.com/libraryhub/libraryhub-web/internal/store/sqlite"
)

// SessionStore is what both session backends provide.
type SessionStore interface {
	session.Store
	CountSessions(ctx context.Context) (int, error)
	Close() error
}

// SessionStoreHandle wraps the configured session backend with shutdown capability.
type SessionStoreHandle struct {
	SessionStore
	// sweep runs one maintenance pass and blocks until ctx is done.
	sweep func(ctx context.Context)
}

// Shutdown implements do.Shutdownable.
func (h *SessionStoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideSessionStore opens the Badger or SQLite session store.
func ProvideSessionStore(i do.Injector) (*SessionStoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*slog.Logger](i)

	if err := os.MkdirAll(cfg.Session.DataPath, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}

	switch cfg.Session.Backend {
	case "sqlite":
		path := filepath.Join(cfg.Session.DataPath, "sessions.db")
		db, err := sqlite.Open(path, log)
		if err != nil {
			return nil, err
		}
		return &SessionStoreHandle{
			SessionStore: db,
			sweep: func(ctx context.Context) {
				if n, err := db.DeleteExpired(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if n > 0 {
					log.Info("Session cleanup completed", "deleted", n)
				}
			},
		}, nil

	default:
		path := filepath.Join(cfg.Session.DataPath, "badger")
		db, err := store.New(path, log)
		if err != nil {
			return nil, err
		}
		log.Info("Session database initialized", "path", path)
		return &SessionStoreHandle{SessionStore: db}, nil
	}
}

// ProvideCookieKey loads the cookie key from the session directory,
// generating it on first start.
func ProvideCookieKey(i do.Injector) (*CookieKey, error) {
	cfg := do.MustInvoke[*config.Config](i)

	key, err := auth.LoadOrGenerateKey(cfg.Session.DataPath)
	if err != nil {
		return nil, err
	}
	cfg.Session.CookieKey = key
	return &CookieKey{Key: key}, nil
}

// CookieKey is the symmetric key shared by the cookie codec and CSRF tokens.
type CookieKey struct {
	Key []byte
}

// ProvideCookieCodec provides the session cookie codec.
func ProvideCookieCodec(i do.Injector) (*auth.CookieCodec, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[*CookieKey](i)
	return auth.NewCookieCodec(key.Key, cfg.Session.TTL)
}

// ProvideCSRF provides the CSRF token signer.
func ProvideCSRF(i do.Injector) (*auth.CSRF, error) {
	key := do.MustInvoke[*CookieKey](i)
	return auth.NewCSRF(key.Key)
}
