package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/libraryhub/libraryhub-web/internal/domain"
)

// Login exchanges credentials for a token. No bearer token is sent.
func (c *Client) Login(ctx context.Context, creds domain.Credentials) (domain.AuthResponse, error) {
	var resp domain.AuthResponse
	err := c.Do(WithToken(ctx, ""), http.MethodPost, "/login", creds, &resp)
	return resp, err
}

// Register creates an account and returns its token.
func (c *Client) Register(ctx context.Context, reg domain.Registration) (domain.AuthResponse, error) {
	var resp domain.AuthResponse
	err := c.Do(WithToken(ctx, ""), http.MethodPost, "/register", reg, &resp)
	return resp, err
}

// Books

// ListBooks returns the catalog, filtered by search when non-empty.
func (c *Client) ListBooks(ctx context.Context, search string) ([]domain.Book, error) {
	path := "/book"
	if search != "" {
		path += "?" + url.Values{"search": {search}}.Encode()
	}
	var books []domain.Book
	if err := c.Do(ctx, http.MethodGet, path, nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// CreateBook adds a book. The result has a zero ID when the service does
// not echo the created record.
func (c *Client) CreateBook(ctx context.Context, in domain.BookInput) (domain.Book, error) {
	var book domain.Book
	err := c.Do(ctx, http.MethodPost, "/book", in, &book)
	return book, err
}

// UpdateBook edits a book.
func (c *Client) UpdateBook(ctx context.Context, id int64, in domain.BookInput) (domain.Book, error) {
	var book domain.Book
	err := c.Do(ctx, http.MethodPut, "/book/"+itoa(id), in, &book)
	return book, err
}

// DeleteBook removes a book.
func (c *Client) DeleteBook(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, "/book/"+itoa(id), nil, nil)
}

// Students

// ListStudents returns every registered student.
func (c *Client) ListStudents(ctx context.Context) ([]domain.Student, error) {
	var students []domain.Student
	if err := c.Do(ctx, http.MethodGet, "/student", nil, &students); err != nil {
		return nil, err
	}
	return students, nil
}

// CreateStudent adds a student.
func (c *Client) CreateStudent(ctx context.Context, in domain.StudentInput) (domain.Student, error) {
	var student domain.Student
	err := c.Do(ctx, http.MethodPost, "/student", in, &student)
	return student, err
}

// UpdateStudent edits a student.
func (c *Client) UpdateStudent(ctx context.Context, id int64, in domain.StudentInput) (domain.Student, error) {
	var student domain.Student
	err := c.Do(ctx, http.MethodPut, "/student/"+itoa(id), in, &student)
	return student, err
}

// DeleteStudent removes a student.
func (c *Client) DeleteStudent(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, "/student/"+itoa(id), nil, nil)
}

// GetProfile returns the student record of the token's owner.
func (c *Client) GetProfile(ctx context.Context) (domain.Student, error) {
	var student domain.Student
	err := c.Do(ctx, http.MethodGet, "/student/profile", nil, &student)
	return student, err
}

// Issues

// PendingIssues returns requests awaiting a librarian decision.
func (c *Client) PendingIssues(ctx context.Context) ([]domain.Issue, error) {
	return c.listIssues(ctx, "/issue/pending")
}

// ActiveIssues returns books currently out.
func (c *Client) ActiveIssues(ctx context.Context) ([]domain.Issue, error) {
	return c.listIssues(ctx, "/issue/active")
}

// AllIssues returns every issue record.
func (c *Client) AllIssues(ctx context.Context) ([]domain.Issue, error) {
	return c.listIssues(ctx, "/issue/all")
}

// MyHistory returns the issue history for a roll number.
func (c *Client) MyHistory(ctx context.Context, rollNo string) ([]domain.Issue, error) {
	return c.listIssues(ctx, "/issue/my-history?"+url.Values{"rollNo": {rollNo}}.Encode())
}

// StudentHistory returns the issue history for a student ID.
func (c *Client) StudentHistory(ctx context.Context, studentID int64) ([]domain.Issue, error) {
	return c.listIssues(ctx, "/issue/student/"+itoa(studentID))
}

func (c *Client) listIssues(ctx context.Context, path string) ([]domain.Issue, error) {
	var issues []domain.Issue
	if err := c.Do(ctx, http.MethodGet, path, nil, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

// RequestBook files a borrow request for rollNo and returns the service's
// outcome message.
func (c *Client) RequestBook(ctx context.Context, bookID int64, rollNo string) (string, error) {
	path := "/issue/request/book/" + itoa(bookID) + "?" + url.Values{"rollNo": {rollNo}}.Encode()
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// ConfirmIssueByRollNo issues a book directly to the student with rollNo.
func (c *Client) ConfirmIssueByRollNo(ctx context.Context, rollNo string, bookID int64) (string, error) {
	path := "/issue/confirm/roll/" + url.PathEscape(rollNo) + "/book/" + itoa(bookID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// ApproveIssue approves a pending request.
func (c *Client) ApproveIssue(ctx context.Context, id int64) (string, error) {
	return c.TransitionIssue(ctx, id, domain.ActionApprove)
}

// RejectIssue rejects a pending request.
func (c *Client) RejectIssue(ctx context.Context, id int64) (string, error) {
	return c.TransitionIssue(ctx, id, domain.ActionReject)
}

// ReturnIssue records that an issued book came back.
func (c *Client) ReturnIssue(ctx context.Context, id int64) (string, error) {
	return c.TransitionIssue(ctx, id, domain.ActionReturn)
}

// TransitionIssue applies action to the issue with id.
func (c *Client) TransitionIssue(ctx context.Context, id int64, action domain.IssueAction) (string, error) {
	return c.do(ctx, http.MethodPut, "/issue/"+string(action)+"/"+itoa(id), nil, nil)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
