package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/do/v2"

	"github.com/libraryhub/libraryhub-web/internal/config"
	"github.com/libraryhub/libraryhub-web/internal/store"
	"github.com/libraryhub/libraryhub-web/internal/viewmodel"
)

// SessionCleanupJob runs periodic session store maintenance and drops idle
// workspaces.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	cfg := do.MustInvoke[*config.Config](i)
	st := do.MustInvoke[*SessionStoreHandle](i)
	registry := do.MustInvoke[*viewmodel.Registry](i)
	log := do.MustInvoke[*slog.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	// Badger expires keys itself and only needs its value log compacted.
	if db, ok := st.SessionStore.(*store.Store); ok {
		go db.RunGC(ctx, badgerGCInterval)
	}

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()

		// Initial cleanup on startup
		if st.sweep != nil {
			st.sweep(ctx)
		}

		for {
			select {
			case <-ticker.C:
				if st.sweep != nil {
					st.sweep(ctx)
				}
				// A workspace idle past the session TTL belongs to a session
				// the store has already forgotten.
				if n := registry.EvictIdle(cfg.Session.TTL); n > 0 {
					log.Info("Idle workspaces evicted", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}
