package session

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
)

// Manager is the session store used by handlers: validation on write,
// expiry on read, and change notifications.
type Manager struct {
	store   Store
	emitter Emitter
	ttl     time.Duration
	logger  *slog.Logger
	now     func() time.Time
}

// NewManager creates a Manager. A nil emitter disables notifications.
func NewManager(store Store, emitter Emitter, ttl time.Duration, logger *slog.Logger) *Manager {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &Manager{
		store:   store,
		emitter: emitter,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
	}
}

// Set writes all session fields for id in one replace.
// The role is normalized, and the roll number is dropped for non-students so
// a previous student's value never survives into a librarian session.
func (m *Manager) Set(ctx context.Context, id string, f Fields) (*Session, error) {
	if id == "" {
		return nil, errors.Validation("session id is required")
	}

	token := strings.TrimSpace(f.Token)
	if token == "" {
		return nil, errors.Validation("login response did not include a token")
	}

	role, err := domain.ParseRole(f.Role)
	if err != nil {
		return nil, err
	}

	rollNo := strings.TrimSpace(f.RollNo)
	if role != domain.RoleStudent {
		rollNo = ""
	}

	now := m.now().UTC()
	s := &Session{
		ID:        id,
		Token:     token,
		Role:      role,
		Name:      strings.TrimSpace(f.Name),
		RollNo:    rollNo,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.store.Put(ctx, s, m.ttl); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "could not save session")
	}

	m.emitter.SessionUpdated(id, string(role), s.Name)
	m.logger.InfoContext(ctx, "session started", "role", role)
	return s, nil
}

// Load returns the session for id, or ErrNotFound when absent or idle past the TTL.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.IsExpired(m.now(), m.ttl) {
		if err := m.store.Delete(ctx, id); err != nil {
			m.logger.WarnContext(ctx, "failed to delete expired session", "error", err)
		}
		return nil, ErrNotFound
	}

	return s, nil
}

// Get returns one field of the session. Missing sessions and empty values
// are both reported as absent.
func (m *Manager) Get(ctx context.Context, id string, f Field) (string, bool) {
	s, err := m.Load(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			m.logger.WarnContext(ctx, "session read failed", "error", err)
		}
		return "", false
	}
	return s.Value(f)
}

// Clear removes every field of the session in a single delete.
func (m *Manager) Clear(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := m.store.Delete(ctx, id); err != nil {
		return errors.Wrap(err, errors.CodeInternal, "could not clear session")
	}
	m.emitter.SessionCleared(id)
	m.logger.InfoContext(ctx, "session cleared")
	return nil
}
