// Package session holds the per-browser session: the bearer token, role,
// display name, and roll number written at login and removed at logout.
package session

import (
	"context"
	"time"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
)

// Field names a single session value.
type Field string

// Session fields.
const (
	FieldToken  Field = "token"
	FieldRole   Field = "role"
	FieldName   Field = "name"
	FieldRollNo Field = "rollNo"
)

// ErrNotFound is returned when no session exists for an ID.
var ErrNotFound = errors.NotFound("session not found")

// Session is one browser's authenticated state.
type Session struct {
	ID        string      `json:"id"`
	Token     string      `json:"token"`
	Role      domain.Role `json:"role"`
	Name      string      `json:"name"`
	RollNo    string      `json:"rollNo,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// Authenticated reports whether s carries a token. A nil session is anonymous.
func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// RoleOrNone returns the role, or RoleNone for an anonymous session.
func (s *Session) RoleOrNone() domain.Role {
	if !s.Authenticated() {
		return domain.RoleNone
	}
	return s.Role
}

// Value returns one field. Empty values are reported as absent.
func (s *Session) Value(f Field) (string, bool) {
	if s == nil {
		return "", false
	}
	var v string
	switch f {
	case FieldToken:
		v = s.Token
	case FieldRole:
		v = string(s.Role)
	case FieldName:
		v = s.Name
	case FieldRollNo:
		v = s.RollNo
	}
	return v, v != ""
}

// IsExpired reports whether s has been idle longer than ttl.
func (s *Session) IsExpired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}

// Fields are the values written at login or registration.
type Fields struct {
	Token  string
	Role   string
	Name   string
	RollNo string
}

// FieldsFromAuth converts a login/register response.
func FieldsFromAuth(r domain.AuthResponse) Fields {
	return Fields{Token: r.Token, Role: r.Role, Name: r.Name, RollNo: r.RollNo}
}

// Store persists sessions. Put and Delete replace or remove the whole record
// in one write so readers never observe a partial session.
type Store interface {
	Put(ctx context.Context, s *Session, ttl time.Duration) error
	// Get returns ErrNotFound when the session does not exist.
	Get(ctx context.Context, id string) (*Session, error)
	// Delete is idempotent.
	Delete(ctx context.Context, id string) error
	Close() error
}

// Emitter is told about session changes so open tabs can react.
type Emitter interface {
	SessionUpdated(sessionID, role, name string)
	SessionCleared(sessionID string)
}

// NoopEmitter drops notifications.
type NoopEmitter struct{}

// SessionUpdated is a no-op.
func (NoopEmitter) SessionUpdated(string, string, string) {}

// SessionCleared is a no-op.
func (NoopEmitter) SessionCleared(string) {}

type ctxKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(ctxKey{}).(*Session)
	return s
}

// Emitters fans notifications out to several emitters in order.
type Emitters []Emitter

// SessionUpdated notifies every emitter.
func (es Emitters) SessionUpdated(sessionID, role, name string) {
	for _, e := range es {
		e.SessionUpdated(sessionID, role, name)
	}
}

// SessionCleared notifies every emitter.
func (es Emitters) SessionCleared(sessionID string) {
	for _, e := range es {
		e.SessionCleared(sessionID)
	}
}
