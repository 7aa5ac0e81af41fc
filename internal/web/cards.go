package web

import (
	"time"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/nav"
)

// RowState is the transient UI state of one rendered row.
type RowState struct {
	Submitting bool
	Editing    bool
}

// rowEdit names the row being edited inline. Draft, when set, is shown in
// place of the stored values after a failed save.
type rowEdit[T any] struct {
	ID    int64
	Draft *T
}

// BookCard is the view of one catalog entry.
type BookCard struct {
	Book       domain.Book
	Status     string
	Submitting bool
	Editing    bool

	ShowEdit    bool
	ShowDelete  bool
	ShowRequest bool

	CSRF string
}

// NewBookCard decides which controls a book row shows for role.
func NewBookCard(b domain.Book, role domain.Role, st RowState) BookCard {
	manage := nav.Can(role, nav.CapManageBooks) && !st.Submitting
	c := BookCard{
		Book:        b,
		Status:      "Available",
		Submitting:  st.Submitting,
		Editing:     st.Editing && manage,
		ShowEdit:    manage,
		ShowDelete:  manage,
		ShowRequest: nav.Can(role, nav.CapRequestBook) && b.Available() && !st.Submitting,
	}
	if !b.Available() {
		c.Status = "Issued"
	}
	return c
}

// StudentCard is the view of one student record.
type StudentCard struct {
	Student    domain.Student
	Submitting bool
	Editing    bool

	ShowEdit   bool
	ShowDelete bool

	CSRF string
}

// NewStudentCard decides which controls a student row shows for role.
func NewStudentCard(s domain.Student, role domain.Role, st RowState) StudentCard {
	manage := nav.Can(role, nav.CapManageStudents) && !st.Submitting
	return StudentCard{
		Student:    s,
		Submitting: st.Submitting,
		Editing:    st.Editing && manage,
		ShowEdit:   manage,
		ShowDelete: manage,
	}
}

// IssueButton is one transition control on an issue row.
type IssueButton struct {
	Action  domain.IssueAction
	Label   string
	Confirm bool
	// View is the desk list the row is shown on.
	View string
}

// IssueCard is the view of one request or issue record.
type IssueCard struct {
	Issue      domain.Issue
	Status     string
	Overdue    bool
	Submitting bool
	Buttons    []IssueButton

	CSRF string
}

var actionLabels = map[domain.IssueAction]string{
	domain.ActionApprove: "Approve",
	domain.ActionReject:  "Reject",
	domain.ActionReturn:  "Mark returned",
}

// NewIssueCard decides which transitions an issue row offers for role.
// Only a librarian reviews requests, and only while the row is idle.
func NewIssueCard(i domain.Issue, role domain.Role, st RowState, now time.Time) IssueCard {
	c := IssueCard{
		Issue:      i,
		Status:     i.Status.Label(),
		Submitting: st.Submitting,
		Overdue:    i.Status == domain.StatusIssued && !i.DueDate.IsZero() && i.DueDate.Before(now),
	}
	if !nav.Can(role, nav.CapReviewRequests) || st.Submitting {
		return c
	}
	for _, a := range i.Status.Actions() {
		c.Buttons = append(c.Buttons, IssueButton{
			Action:  a,
			Label:   actionLabels[a],
			Confirm: a.NeedsConfirmation(),
			View:    viewOf(i.Status),
		})
	}
	return c
}

func viewOf(s domain.IssueStatus) string {
	if s == domain.StatusIssued {
		return "active"
	}
	return "pending"
}
