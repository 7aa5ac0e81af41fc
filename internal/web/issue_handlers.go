package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/nav"
	"github.com/libraryhub/libraryhub-web/internal/viewmodel"
)

// issueTab is one view switch on the issue desk.
type issueTab struct {
	View   viewmodel.IssueView
	Label  string
	Href   string
	Active bool
}

// issuesContent is the data of the issue desk.
type issuesContent struct {
	View   viewmodel.IssueView
	Tabs   []issueTab
	Cards  []IssueCard
	Loaded bool
	// Confirm is the direct-issue form, kept filled after a failed submit.
	Confirm confirmForm
}

type confirmForm struct {
	RollNo string
	BookID string
}

var issueTabs = []issueTab{
	{View: viewmodel.ViewPending, Label: "Requests", Href: nav.PathRequests},
	{View: viewmodel.ViewActive, Label: "Issued", Href: nav.PathIssueDesk},
	{View: viewmodel.ViewAll, Label: "History", Href: "/issues?view=all"},
}

func issuesPath(view viewmodel.IssueView) string {
	return "/issues?view=" + string(view)
}

func (s *Server) handleIssues(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	view := viewmodel.ParseIssueView(r.URL.Query().Get("view"))

	err := ws.Issues.Load(r.Context(), view)
	if s.expired(w, r, err, issuesPath(view)) {
		return
	}
	s.logFailure(r, "load issues", err)
	s.renderIssues(w, r, http.StatusOK, ws, view, confirmForm{}, err)
}

func (s *Server) renderIssues(w http.ResponseWriter, r *http.Request, status int, ws *viewmodel.Workspace, view viewmodel.IssueView, form confirmForm, err error) {
	active := issuesPath(view)
	p := s.newPage(w, r, "Issue Desk", active)
	p.setError(err)

	list := ws.Issues.List(view)
	state := list.State()
	now := s.now()
	cards := make([]IssueCard, 0, len(state.Items))
	for _, i := range state.Items {
		c := NewIssueCard(i, p.Role, RowState{Submitting: list.Busy(i.ID)}, now)
		c.CSRF = p.CSRF
		cards = append(cards, c)
	}

	tabs := make([]issueTab, len(issueTabs))
	for i, t := range issueTabs {
		t.Active = t.View == view
		tabs[i] = t
	}

	p.Content = issuesContent{
		View:    view,
		Tabs:    tabs,
		Cards:   cards,
		Loaded:  state.Loaded,
		Confirm: form,
	}
	s.render(w, r, status, "issues", p)
}

// returnView is the desk view a form came from.
func returnView(r *http.Request) viewmodel.IssueView {
	return viewmodel.ParseIssueView(r.PostFormValue("view"))
}

func (s *Server) handleTransitionIssue(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	view := returnView(r)

	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, errors.Message(err))
		return
	}
	action, err := domain.ParseIssueAction(chi.URLParam(r, "action"))
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, errors.Message(err))
		return
	}

	msg, err := ws.Issues.Transition(r.Context(), id, action, confirmed(r))
	if err != nil {
		if s.expired(w, r, err, issuesPath(view)) {
			return
		}
		s.logFailure(r, string(action)+" issue", err)
		if errors.Is(err, errors.ErrConfirmationRequired) {
			err = errors.Validation(msgConfirm)
		}
		s.renderIssues(w, r, statusFor(err), ws, view, confirmForm{}, err)
		return
	}

	s.logger.InfoContext(r.Context(), "issue transitioned", "issue_id", id, "action", string(action))
	s.notify(r, "issues")
	s.notify(r, "books")
	s.redirect(w, r, issuesPath(view), msg)
}

func (s *Server) handleConfirmIssue(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	form := confirmForm{
		RollNo: strings.TrimSpace(r.PostFormValue("rollNo")),
		BookID: strings.TrimSpace(r.PostFormValue("bookId")),
	}
	bookID, _ := strconv.ParseInt(form.BookID, 10, 64)

	msg, err := ws.Issues.ConfirmIssue(r.Context(), domain.ConfirmIssueInput{RollNo: form.RollNo, BookID: bookID})
	if err != nil {
		if s.expired(w, r, err, nav.PathIssueDesk) {
			return
		}
		s.logFailure(r, "confirm issue", err)
		s.renderIssues(w, r, statusFor(err), ws, viewmodel.ViewActive, form, err)
		return
	}

	s.logger.InfoContext(r.Context(), "book issued directly", "book_id", bookID)
	s.notify(r, "issues")
	s.notify(r, "books")
	s.redirect(w, r, nav.PathIssueDesk, msg)
}
