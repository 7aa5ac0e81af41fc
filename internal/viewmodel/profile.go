package viewmodel

import (
	"context"
	"sync"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

// ProfileAPI is the part of the library service the profile page uses.
type ProfileAPI interface {
	GetProfile(ctx context.Context) (domain.Student, error)
	StudentHistory(ctx context.Context, studentID int64) ([]domain.Issue, error)
}

// Profile is the signed-in student's record and issue history.
type Profile struct {
	History *List[domain.Issue]

	api     ProfileAPI
	session *session.Session

	mu      sync.Mutex
	student domain.Student
	err     error
}

// NewProfile creates the profile view model for s.
func NewProfile(api ProfileAPI, s *session.Session) *Profile {
	return &Profile{
		History: newList(func(i domain.Issue) int64 { return i.ID }),
		api:     api,
		session: s,
	}
}

// Student returns the loaded student record.
func (p *Profile) Student() domain.Student {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.student
}

// Err returns the error of the last profile fetch.
func (p *Profile) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	return p.History.Err()
}

// Load fetches the profile and then that student's history.
func (p *Profile) Load(ctx context.Context) error {
	if p.History.Closed() {
		return ErrClosed
	}
	ctx = session.WithSession(ctx, p.session)

	student, err := p.api.GetProfile(ctx)
	if p.History.Closed() {
		return err
	}

	p.mu.Lock()
	p.err = err
	if err == nil {
		p.student = student
	}
	p.mu.Unlock()
	if err != nil {
		return err
	}

	if student.ID == 0 {
		err := errors.NotFound("no student record is linked to this account")
		p.mu.Lock()
		p.err = err
		p.mu.Unlock()
		return err
	}

	return p.History.load(ctx, func(ctx context.Context) ([]domain.Issue, error) {
		return p.api.StudentHistory(ctx, student.ID)
	})
}

// Reload is Load.
func (p *Profile) Reload(ctx context.Context) error {
	return p.Load(ctx)
}

// Close drops late results.
func (p *Profile) Close() {
	p.History.Close()
}

// HistoryAPI is the part of the library service the my-books page uses.
type HistoryAPI interface {
	MyHistory(ctx context.Context, rollNo string) ([]domain.Issue, error)
}

// MyBooks is the signed-in student's borrowing history by roll number.
type MyBooks struct {
	*List[domain.Issue]

	api     HistoryAPI
	session *session.Session
}

// NewMyBooks creates the my-books view model for s.
func NewMyBooks(api HistoryAPI, s *session.Session) *MyBooks {
	return &MyBooks{
		List:    newList(func(i domain.Issue) int64 { return i.ID }),
		api:     api,
		session: s,
	}
}

// Load fetches the history for the session's roll number.
func (m *MyBooks) Load(ctx context.Context) error {
	rollNo, ok := m.session.Value(session.FieldRollNo)
	if !ok {
		err := errors.Validation("your account has no roll number, ask a librarian to add one")
		m.fail(err)
		return err
	}
	return m.load(session.WithSession(ctx, m.session), func(ctx context.Context) ([]domain.Issue, error) {
		return m.api.MyHistory(ctx, rollNo)
	})
}

// Reload is Load.
func (m *MyBooks) Reload(ctx context.Context) error {
	return m.Load(ctx)
}
