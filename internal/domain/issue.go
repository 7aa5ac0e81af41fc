package domain

import (
	"strings"

	"github.com/libraryhub/libraryhub-web/internal/errors"
)

// IssueStatus is the service-reported state of a borrow request.
//
//	REQUESTED -> ISSUED -> RETURNED
//	REQUESTED -> REJECTED
type IssueStatus string

// Issue statuses.
const (
	StatusRequested IssueStatus = "REQUESTED"
	StatusIssued    IssueStatus = "ISSUED"
	StatusRejected  IssueStatus = "REJECTED"
	StatusReturned  IssueStatus = "RETURNED"
)

// IsTerminal reports whether no further transition is offered.
func (s IssueStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusReturned
}

// Actions lists the transitions a librarian can trigger from s.
func (s IssueStatus) Actions() []IssueAction {
	switch s {
	case StatusRequested:
		return []IssueAction{ActionApprove, ActionReject}
	case StatusIssued:
		return []IssueAction{ActionReturn}
	default:
		return nil
	}
}

// Allows reports whether a is offered from s.
func (s IssueStatus) Allows(a IssueAction) bool {
	for _, x := range s.Actions() {
		if x == a {
			return true
		}
	}
	return false
}

// Label is the human form of the status.
func (s IssueStatus) Label() string {
	switch s {
	case StatusRequested:
		return "Pending"
	case StatusIssued:
		return "Issued"
	case StatusRejected:
		return "Rejected"
	case StatusReturned:
		return "Returned"
	default:
		return string(s)
	}
}

// IssueAction is a librarian-triggered status transition.
type IssueAction string

// Issue actions. The value is also the endpoint segment (/issue/{action}/{id}).
const (
	ActionApprove IssueAction = "approve"
	ActionReject  IssueAction = "reject"
	ActionReturn  IssueAction = "return"
)

// ParseIssueAction validates an action name from a form or route.
func ParseIssueAction(s string) (IssueAction, error) {
	switch a := IssueAction(strings.ToLower(strings.TrimSpace(s))); a {
	case ActionApprove, ActionReject, ActionReturn:
		return a, nil
	default:
		return "", errors.Validationf("unknown issue action %q", s)
	}
}

// NeedsConfirmation reports whether the UI must confirm before dispatch.
func (a IssueAction) NeedsConfirmation() bool {
	return a == ActionReject || a == ActionReturn
}

// Issue is one borrow request and its lifecycle dates.
type Issue struct {
	ID          int64       `json:"id"`
	Book        Book        `json:"book"`
	Student     Student     `json:"student"`
	Status      IssueStatus `json:"status"`
	RequestDate Date        `json:"requestDate,omitzero"`
	IssueDate   Date        `json:"issueDate,omitzero"`
	DueDate     Date        `json:"dueDate,omitzero"`
	ReturnDate  Date        `json:"returnDate,omitzero"`
}

// ConfirmIssueInput is the librarian's direct issue form.
type ConfirmIssueInput struct {
	RollNo string `json:"rollNo" validate:"notblank,rollno"`
	BookID int64  `json:"bookId" validate:"gt=0"`
}
