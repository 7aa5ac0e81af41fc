package session_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/logger"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/store"
)

type recordingEmitter struct {
	mu      sync.Mutex
	updated []string
	cleared []string
}

func (e *recordingEmitter) SessionUpdated(id, role, _ string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.updated = append(e.updated, id+":"+role)
}

func (e *recordingEmitter) SessionCleared(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cleared = append(e.cleared, id)
}

func setupManager(t *testing.T, ttl time.Duration) (*session.Manager, *recordingEmitter) {
	t.Helper()
	st, err := store.NewInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	em := &recordingEmitter{}
	return session.NewManager(st, em, ttl, logger.Discard()), em
}

func TestManager_SetStudentStoresAllFields(t *testing.T) {
	m, em := setupManager(t, time.Hour)
	ctx := context.Background()

	_, err := m.Set(ctx, "ses-1", session.Fields{Token: "abc", Role: "STUDENT", Name: "Ann", RollNo: "S1"})
	require.NoError(t, err)

	for field, want := range map[session.Field]string{
		session.FieldToken:  "abc",
		session.FieldRole:   "STUDENT",
		session.FieldName:   "Ann",
		session.FieldRollNo: "S1",
	} {
		got, ok := m.Get(ctx, "ses-1", field)
		assert.True(t, ok, field)
		assert.Equal(t, want, got, field)
	}
	assert.Equal(t, []string{"ses-1:STUDENT"}, em.updated)
}

func TestManager_SetNormalizesRole(t *testing.T) {
	m, _ := setupManager(t, time.Hour)

	s, err := m.Set(context.Background(), "ses-1", session.Fields{Token: "abc", Role: "Librarian", Name: "Lee"})
	require.NoError(t, err)

	assert.Equal(t, domain.RoleLibrarian, s.Role)
}

func TestManager_SetClearsRollNoForLibrarian(t *testing.T) {
	m, _ := setupManager(t, time.Hour)
	ctx := context.Background()

	_, err := m.Set(ctx, "ses-1", session.Fields{Token: "t1", Role: "STUDENT", Name: "Ann", RollNo: "S1"})
	require.NoError(t, err)

	// A librarian logs in on the same browser; the response still echoes a roll number.
	_, err = m.Set(ctx, "ses-1", session.Fields{Token: "t2", Role: "LIBRARIAN", Name: "Lee", RollNo: "S1"})
	require.NoError(t, err)

	_, ok := m.Get(ctx, "ses-1", session.FieldRollNo)
	assert.False(t, ok)
}

func TestManager_SetRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		fields session.Fields
	}{
		{name: "empty token", fields: session.Fields{Token: "  ", Role: "STUDENT"}},
		{name: "unknown role", fields: session.Fields{Token: "abc", Role: "ADMIN"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, em := setupManager(t, time.Hour)
			ctx := context.Background()

			_, err := m.Set(ctx, "ses-1", tt.fields)
			require.Error(t, err)
			assert.Equal(t, errors.KindValidation, errors.KindOf(err))

			_, err = m.Load(ctx, "ses-1")
			assert.ErrorIs(t, err, session.ErrNotFound)
			assert.Empty(t, em.updated)
		})
	}
}

func TestManager_ClearRemovesEverything(t *testing.T) {
	m, em := setupManager(t, time.Hour)
	ctx := context.Background()

	_, err := m.Set(ctx, "ses-1", session.Fields{Token: "abc", Role: "STUDENT", Name: "Ann", RollNo: "S1"})
	require.NoError(t, err)

	require.NoError(t, m.Clear(ctx, "ses-1"))

	for _, f := range []session.Field{session.FieldToken, session.FieldRole, session.FieldName, session.FieldRollNo} {
		_, ok := m.Get(ctx, "ses-1", f)
		assert.False(t, ok, f)
	}
	assert.Equal(t, []string{"ses-1"}, em.cleared)

	// Clearing again is harmless.
	require.NoError(t, m.Clear(ctx, "ses-1"))
}

func TestManager_LoadExpiresIdleSession(t *testing.T) {
	m, _ := setupManager(t, time.Hour)
	ctx := context.Background()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	m.SetClock(func() time.Time { return now })

	_, err := m.Set(ctx, "ses-1", session.Fields{Token: "abc", Role: "STUDENT", Name: "Ann"})
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)

	_, err = m.Load(ctx, "ses-1")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestManager_ReadersNeverSeePartialSession(t *testing.T) {
	m, _ := setupManager(t, time.Hour)
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				_, _ = m.Set(ctx, "ses-1", session.Fields{Token: "abc", Role: "STUDENT", Name: "Ann", RollNo: "S1"})
			} else {
				_ = m.Clear(ctx, "ses-1")
			}
		}
	}()

	for range 500 {
		s, err := m.Load(ctx, "ses-1")
		if err != nil {
			require.ErrorIs(t, err, session.ErrNotFound)
			continue
		}
		assert.Equal(t, "abc", s.Token)
		assert.Equal(t, domain.RoleStudent, s.Role)
		assert.Equal(t, "Ann", s.Name)
		assert.Equal(t, "S1", s.RollNo)
	}

	close(stop)
	wg.Wait()
}

func TestSession_Value(t *testing.T) {
	var nilSession *session.Session
	_, ok := nilSession.Value(session.FieldToken)
	assert.False(t, ok)
	assert.False(t, nilSession.Authenticated())
	assert.Equal(t, domain.RoleNone, nilSession.RoleOrNone())

	s := &session.Session{Token: "abc", Role: domain.RoleLibrarian}
	assert.True(t, s.Authenticated())
	_, ok = s.Value(session.FieldRollNo)
	assert.False(t, ok)
}

func TestContext(t *testing.T) {
	s := &session.Session{ID: "ses-1", Token: "abc"}
	ctx := session.WithSession(context.Background(), s)

	assert.Same(t, s, session.FromContext(ctx))
	assert.Nil(t, session.FromContext(context.Background()))
}
