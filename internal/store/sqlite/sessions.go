package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

const sessionColumns = `id, token, role, name, roll_no, created_at, updated_at`

func scanSession(scanner interface{ Scan(dest ...any) error }) (*session.Session, error) {
	var (
		s         session.Session
		role      string
		rollNo    sql.NullString
		createdAt string
		updatedAt string
	)

	if err := scanner.Scan(&s.ID, &s.Token, &role, &s.Name, &rollNo, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	s.Role = domain.Role(role)
	s.RollNo = rollNo.String

	var err error
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if s.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Put upserts the whole session row in one statement.
func (s *Store) Put(ctx context.Context, sess *session.Session, ttl time.Duration) error {
	var expiresAt sql.NullString
	if ttl > 0 {
		expiresAt = nullString(formatTime(sess.UpdatedAt.Add(ttl)))
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, token, role, name, roll_no, created_at, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			token = excluded.token,
			role = excluded.role,
			name = excluded.name,
			roll_no = excluded.roll_no,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		sess.ID,
		sess.Token,
		string(sess.Role),
		sess.Name,
		nullString(sess.RollNo),
		formatTime(sess.CreatedAt),
		formatTime(sess.UpdatedAt),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

// Get retrieves a session by ID. Rows past expires_at are treated as absent.
func (s *Store) Get(ctx context.Context, id string) (*session.Session, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		id, formatTime(s.now()))

	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// Delete removes a session. Missing sessions are ignored.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpired removes every session past its expiry and returns the count.
func (s *Store) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= ?`,
		formatTime(s.now()))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}

// CountSessions returns the number of unexpired sessions.
func (s *Store) CountSessions(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sessions WHERE expires_at IS NULL OR expires_at > ?`,
		formatTime(s.now())).Scan(&n)
	return n, err
}

var _ session.Store = (*Store)(nil)
