package store

import (
	"context"
	"fmt"
	"time"

	"github.com/libraryhub/libraryhub-web/internal/session"
)

const sessionPrefix = "session:"

func sessionKey(id string) []byte {
	return []byte(sessionPrefix + id)
}

// Put replaces the whole session record in one transaction.
func (s *Store) Put(_ context.Context, sess *session.Session, ttl time.Duration) error {
	if err := s.set(sessionKey(sess.ID), sess, ttl); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID.
func (s *Store) Get(_ context.Context, id string) (*session.Session, error) {
	var sess session.Session
	if err := s.get(sessionKey(id), &sess); err != nil {
		if isNotFound(err) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// Delete removes a session. Missing sessions are ignored.
func (s *Store) Delete(_ context.Context, id string) error {
	if err := s.delete(sessionKey(id)); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CountSessions returns the number of stored sessions.
func (s *Store) CountSessions(_ context.Context) (int, error) {
	return s.countPrefix([]byte(sessionPrefix))
}

var _ session.Store = (*Store)(nil)
