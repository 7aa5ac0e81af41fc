package viewmodel

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/validation"
)

// IssueView selects one of the librarian desk lists.
type IssueView string

// Issue desk views.
const (
	ViewPending IssueView = "pending"
	ViewActive  IssueView = "active"
	ViewAll     IssueView = "all"
)

// ParseIssueView maps a query value to a view, defaulting to pending.
func ParseIssueView(s string) IssueView {
	switch v := IssueView(strings.ToLower(strings.TrimSpace(s))); v {
	case ViewActive, ViewAll:
		return v
	default:
		return ViewPending
	}
}

// IssueAPI is the part of the library service the issue desk uses.
type IssueAPI interface {
	PendingIssues(ctx context.Context) ([]domain.Issue, error)
	ActiveIssues(ctx context.Context) ([]domain.Issue, error)
	AllIssues(ctx context.Context) ([]domain.Issue, error)
	TransitionIssue(ctx context.Context, id int64, action domain.IssueAction) (string, error)
	ConfirmIssueByRollNo(ctx context.Context, rollNo string, bookID int64) (string, error)
}

// Reloader is a list that can refetch itself.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Issues is the librarian desk state: pending requests, active issues, and
// the full history.
type Issues struct {
	Pending *List[domain.Issue]
	Active  *List[domain.Issue]
	All     *List[domain.Issue]

	api       IssueAPI
	validator *validation.Validator
	session   *session.Session
	logger    *slog.Logger

	mu         sync.Mutex
	dependents []Reloader
}

// NewIssues creates the issue desk view model for s.
func NewIssues(api IssueAPI, v *validation.Validator, s *session.Session, logger *slog.Logger) *Issues {
	id := func(i domain.Issue) int64 { return i.ID }
	return &Issues{
		Pending:   newList(id),
		Active:    newList(id),
		All:       newList(id),
		api:       api,
		validator: v,
		session:   s,
		logger:    logger,
	}
}

// AddDependent registers a list that must be reloaded after every issue
// transition, such as the books list whose availability changes.
func (i *Issues) AddDependent(r Reloader) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.dependents = append(i.dependents, r)
}

// List returns the list backing view.
func (i *Issues) List(view IssueView) *List[domain.Issue] {
	switch view {
	case ViewActive:
		return i.Active
	case ViewAll:
		return i.All
	default:
		return i.Pending
	}
}

// Load fetches the list for view.
func (i *Issues) Load(ctx context.Context, view IssueView) error {
	ctx = session.WithSession(ctx, i.session)
	switch view {
	case ViewActive:
		return i.Active.load(ctx, i.api.ActiveIssues)
	case ViewAll:
		return i.All.load(ctx, i.api.AllIssues)
	default:
		return i.Pending.load(ctx, i.api.PendingIssues)
	}
}

// Reload refetches pending and active, plus the full history if it was
// ever shown.
func (i *Issues) Reload(ctx context.Context) error {
	err := errors.Join(i.Load(ctx, ViewPending), i.Load(ctx, ViewActive))
	if i.All.Loaded() {
		err = errors.Join(err, i.Load(ctx, ViewAll))
	}
	return err
}

// Transition approves, rejects, or returns issue id. Reject and return need
// confirmed. Whatever the outcome, the desk lists and their dependents are
// reloaded afterwards.
func (i *Issues) Transition(ctx context.Context, id int64, action domain.IssueAction, confirmed bool) (string, error) {
	if action.NeedsConfirmation() && !confirmed {
		return "", errors.ErrConfirmationRequired
	}

	done, err := i.List(viewFor(action)).begin(id, string(action))
	if err != nil {
		return "", err
	}
	defer done()

	msg, err := i.api.TransitionIssue(session.WithSession(ctx, i.session), id, action)
	i.reloadAll(ctx)
	if err != nil {
		i.List(viewFor(action)).fail(err)
		return "", err
	}
	if msg == "" {
		msg = "Request marked " + strings.ToLower(statusAfter(action).Label()) + "."
	}
	return msg, nil
}

// ConfirmIssue issues a book directly to a student by roll number.
func (i *Issues) ConfirmIssue(ctx context.Context, in domain.ConfirmIssueInput) (string, error) {
	in.RollNo = strings.TrimSpace(in.RollNo)
	if err := i.validator.Validate(in); err != nil {
		return "", err
	}

	done, err := i.Active.begin(in.BookID, actionConfirm+":"+in.RollNo)
	if err != nil {
		return "", err
	}
	defer done()

	msg, err := i.api.ConfirmIssueByRollNo(session.WithSession(ctx, i.session), in.RollNo, in.BookID)
	i.reloadAll(ctx)
	if err != nil {
		i.Active.fail(err)
		return "", err
	}
	if msg == "" {
		msg = "Book " + strconv.FormatInt(in.BookID, 10) + " issued to " + in.RollNo + "."
	}
	return msg, nil
}

// Close drops results of every desk list.
func (i *Issues) Close() {
	i.Pending.Close()
	i.Active.Close()
	i.All.Close()
}

func (i *Issues) reloadAll(ctx context.Context) {
	if err := i.Reload(ctx); err != nil {
		i.logger.DebugContext(ctx, "issue desk reload failed", "error", err)
	}

	i.mu.Lock()
	deps := append([]Reloader(nil), i.dependents...)
	i.mu.Unlock()

	for _, d := range deps {
		if err := d.Reload(ctx); err != nil {
			i.logger.DebugContext(ctx, "dependent reload failed", "error", err)
		}
	}
}

// viewFor is the list whose page shows the row an action was taken on.
func viewFor(a domain.IssueAction) IssueView {
	if a == domain.ActionReturn {
		return ViewActive
	}
	return ViewPending
}

func statusAfter(a domain.IssueAction) domain.IssueStatus {
	switch a {
	case domain.ActionApprove:
		return domain.StatusIssued
	case domain.ActionReject:
		return domain.StatusRejected
	default:
		return domain.StatusReturned
	}
}
