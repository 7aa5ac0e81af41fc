package domain

import (
	"encoding/json/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/libraryhub/libraryhub-web/internal/errors"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		input   string
		want    Role
		wantErr bool
	}{
		{"STUDENT", RoleStudent, false},
		{"student", RoleStudent, false},
		{"LIBRARIAN", RoleLibrarian, false},
		{"Librarian", RoleLibrarian, false},
		{"  librarian ", RoleLibrarian, false},
		{"ADMIN", RoleNone, true},
		{"", RoleNone, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRole(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestIssueStatus_Actions(t *testing.T) {
	assert.Equal(t, []IssueAction{ActionApprove, ActionReject}, StatusRequested.Actions())
	assert.Equal(t, []IssueAction{ActionReturn}, StatusIssued.Actions())
	assert.Empty(t, StatusReturned.Actions())
	assert.Empty(t, StatusRejected.Actions())

	assert.True(t, StatusRequested.Allows(ActionApprove))
	assert.False(t, StatusIssued.Allows(ActionApprove))
	assert.True(t, StatusReturned.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.False(t, StatusIssued.IsTerminal())
}

func TestParseIssueAction(t *testing.T) {
	a, err := ParseIssueAction("Approve")
	require.NoError(t, err)
	assert.Equal(t, ActionApprove, a)

	_, err = ParseIssueAction("renew")
	assert.ErrorIs(t, err, errors.ErrValidation)

	assert.False(t, ActionApprove.NeedsConfirmation())
	assert.True(t, ActionReject.NeedsConfirmation())
	assert.True(t, ActionReturn.NeedsConfirmation())
}

func TestDate_Unmarshal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Date
	}{
		{"iso date", `"2024-03-15"`, NewDate(2024, time.March, 15)},
		{"rfc3339", `"2024-03-15T00:00:00Z"`, NewDate(2024, time.March, 15)},
		{"local datetime", `"2024-03-15T00:00:00"`, NewDate(2024, time.March, 15)},
		{"epoch ms", `1710460800000`, NewDate(2024, time.March, 15)},
		{"null", `null`, Date{}},
		{"empty", `""`, Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, json.Unmarshal([]byte(tt.input), &d))
			assert.True(t, tt.want.Equal(d.Time), "got %v", d.Time)
		})
	}
}

func TestDate_UnmarshalInvalid(t *testing.T) {
	var d Date
	assert.Error(t, json.Unmarshal([]byte(`"next tuesday"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`true`), &d))
}

func TestDate_MarshalAndString(t *testing.T) {
	data, err := json.Marshal(NewDate(2024, time.March, 5))
	require.NoError(t, err)
	assert.JSONEq(t, `"2024-03-05"`, string(data))

	data, err = json.Marshal(Date{})
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))

	assert.Equal(t, "5 Mar 2024", NewDate(2024, time.March, 5).String())
	assert.Equal(t, "-", Date{}.String())
}

func TestIssue_DecodeServicePayload(t *testing.T) {
	payload := `{
		"id": 7,
		"student": {"id": 3, "name": "Ann", "email": "ann@example.edu", "department": "CS", "rollNo": "S1", "joinedDate": "2023-08-01"},
		"book": {"id": 11, "bookName": "Dune", "author": "Frank Herbert", "issuedDate": null, "returnDate": null, "isIssued": false},
		"requestDate": "2024-03-01",
		"issueDate": null,
		"dueDate": null,
		"returnDate": null,
		"status": "REQUESTED"
	}`

	var issue Issue
	require.NoError(t, json.Unmarshal([]byte(payload), &issue))

	assert.Equal(t, int64(7), issue.ID)
	assert.Equal(t, StatusRequested, issue.Status)
	assert.Equal(t, "Dune", issue.Book.BookName)
	assert.Equal(t, "S1", issue.Student.RollNo)
	assert.True(t, issue.IssueDate.IsZero())
	assert.Equal(t, "1 Mar 2024", issue.RequestDate.String())
}

func TestBookInput_Apply(t *testing.T) {
	b := Book{ID: 1, BookName: "Old", Author: "A", Copies: 2, IsIssued: true}

	got := BookInput{BookName: "New", Author: "B"}.Apply(b)

	assert.Equal(t, Book{ID: 1, BookName: "New", Author: "B", Copies: 2, IsIssued: true}, got)
}

func TestBook_MarshalOmitsUnsetFields(t *testing.T) {
	data, err := json.Marshal(Book{BookName: "Dune", Author: "Frank Herbert"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"bookName":"Dune","author":"Frank Herbert","isIssued":false}`, string(data))
}
