package viewmodel

import (
	"log/slog"
	"sync"
	"time"

	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/validation"
)

// API is everything the view models need from the library service.
type API interface {
	BookAPI
	StudentAPI
	IssueAPI
	ProfileAPI
	HistoryAPI
}

// Workspace groups the view models of one browser session.
type Workspace struct {
	Session  *session.Session
	Books    *Books
	Students *Students
	Issues   *Issues
	Profile  *Profile
	MyBooks  *MyBooks

	lastUsed time.Time
}

// NewWorkspace creates the view models for s. Issue transitions reload the
// books list.
func NewWorkspace(api API, v *validation.Validator, s *session.Session, logger *slog.Logger) *Workspace {
	w := &Workspace{
		Session:  s,
		Books:    NewBooks(api, v, s),
		Students: NewStudents(api, v, s),
		Issues:   NewIssues(api, v, s, logger),
		Profile:  NewProfile(api, s),
		MyBooks:  NewMyBooks(api, s),
	}
	w.Issues.AddDependent(w.Books)
	return w
}

// Close closes every view model so late results are dropped.
func (w *Workspace) Close() {
	w.Books.Close()
	w.Students.Close()
	w.Issues.Close()
	w.Profile.Close()
	w.MyBooks.Close()
}

// Registry keeps one Workspace per session ID.
//
// It implements session.Emitter: a session rewrite (new login) or clear
// closes the old workspace so nothing from it outlives the token it used.
type Registry struct {
	api       API
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time

	mu         sync.Mutex
	workspaces map[string]*Workspace
}

// NewRegistry creates an empty Registry.
func NewRegistry(api API, v *validation.Validator, logger *slog.Logger) *Registry {
	return &Registry{
		api:        api,
		validator:  v,
		logger:     logger,
		now:        time.Now,
		workspaces: make(map[string]*Workspace),
	}
}

// Workspace returns the workspace for s, creating one if needed. A workspace
// built for a different token is replaced.
func (r *Registry) Workspace(s *session.Session) *Workspace {
	r.mu.Lock()
	defer r.mu.Unlock()

	if w, ok := r.workspaces[s.ID]; ok {
		if w.Session.Token == s.Token {
			w.lastUsed = r.now()
			return w
		}
		w.Close()
	}

	w := NewWorkspace(r.api, r.validator, s, r.logger)
	w.lastUsed = r.now()
	r.workspaces[s.ID] = w
	return w
}

// Drop closes and forgets the workspace of sessionID.
func (r *Registry) Drop(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.workspaces[sessionID]; ok {
		w.Close()
		delete(r.workspaces, sessionID)
	}
}

// EvictIdle drops workspaces unused for longer than ttl and returns how many.
func (r *Registry) EvictIdle(ttl time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-ttl)
	n := 0
	for id, w := range r.workspaces {
		if w.lastUsed.Before(cutoff) {
			w.Close()
			delete(r.workspaces, id)
			n++
		}
	}
	return n
}

// Len returns the number of live workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.workspaces)
}

// SessionUpdated drops the workspace so the next request builds one for the
// new identity.
func (r *Registry) SessionUpdated(sessionID, _, _ string) {
	r.Drop(sessionID)
}

// SessionCleared drops the workspace.
func (r *Registry) SessionCleared(sessionID string) {
	r.Drop(sessionID)
}

var _ session.Emitter = (*Registry)(nil)
