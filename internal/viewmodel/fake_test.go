package viewmodel

import (
	"context"
	"slices"
	"sync"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

// fakeAPI is an in-memory library service.
type fakeAPI struct {
	mu       sync.Mutex
	books    []domain.Book
	students []domain.Student
	issues   []domain.Issue
	profile  domain.Student
	nextID   int64
	echo     bool
	fail     map[string]error
	calls    map[string]int
	holds    map[string]chan struct{}
	started  chan string
	tokens   []string
	rollNos  []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		nextID:  100,
		echo:    true,
		fail:    make(map[string]error),
		calls:   make(map[string]int),
		holds:   make(map[string]chan struct{}),
		started: make(chan string, 16),
	}
}

// hold makes the next call to name block until the returned channel is closed.
func (f *fakeAPI) hold(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.holds[name] = ch
	return ch
}

func (f *fakeAPI) setFail(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[name] = err
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// call records the call and applies holds and failures. On success it
// returns with f.mu held; the caller must unlock.
func (f *fakeAPI) call(ctx context.Context, name string) error {
	f.mu.Lock()
	f.calls[name]++
	if s := session.FromContext(ctx); s != nil {
		f.tokens = append(f.tokens, s.Token)
	}
	if ch, ok := f.holds[name]; ok {
		delete(f.holds, name)
		f.mu.Unlock()
		f.started <- name
		<-ch
		f.mu.Lock()
	}
	if err := f.fail[name]; err != nil {
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeAPI) ListBooks(ctx context.Context, _ string) ([]domain.Book, error) {
	if err := f.call(ctx, "ListBooks"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return slices.Clone(f.books), nil
}

func (f *fakeAPI) CreateBook(ctx context.Context, in domain.BookInput) (domain.Book, error) {
	if err := f.call(ctx, "CreateBook"); err != nil {
		return domain.Book{}, err
	}
	defer f.mu.Unlock()
	f.nextID++
	b := in.Apply(domain.Book{ID: f.nextID})
	f.books = append([]domain.Book{b}, f.books...)
	if !f.echo {
		return domain.Book{}, nil
	}
	return b, nil
}

func (f *fakeAPI) UpdateBook(ctx context.Context, id int64, in domain.BookInput) (domain.Book, error) {
	if err := f.call(ctx, "UpdateBook"); err != nil {
		return domain.Book{}, err
	}
	defer f.mu.Unlock()
	for i := range f.books {
		if f.books[i].ID == id {
			f.books[i] = in.Apply(f.books[i])
			if f.echo {
				return f.books[i], nil
			}
			return domain.Book{}, nil
		}
	}
	return domain.Book{}, errors.Business(404, "Book not found")
}

func (f *fakeAPI) DeleteBook(ctx context.Context, id int64) error {
	if err := f.call(ctx, "DeleteBook"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	f.books = slices.DeleteFunc(f.books, func(b domain.Book) bool { return b.ID == id })
	return nil
}

func (f *fakeAPI) RequestBook(ctx context.Context, bookID int64, rollNo string) (string, error) {
	if err := f.call(ctx, "RequestBook"); err != nil {
		return "", err
	}
	defer f.mu.Unlock()
	f.rollNos = append(f.rollNos, rollNo)
	f.nextID++
	f.issues = append(f.issues, domain.Issue{
		ID:      f.nextID,
		Book:    domain.Book{ID: bookID},
		Student: domain.Student{RollNo: rollNo},
		Status:  domain.StatusRequested,
	})
	return "Book requested successfully!", nil
}

func (f *fakeAPI) ListStudents(ctx context.Context) ([]domain.Student, error) {
	if err := f.call(ctx, "ListStudents"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return slices.Clone(f.students), nil
}

func (f *fakeAPI) CreateStudent(ctx context.Context, in domain.StudentInput) (domain.Student, error) {
	if err := f.call(ctx, "CreateStudent"); err != nil {
		return domain.Student{}, err
	}
	defer f.mu.Unlock()
	f.nextID++
	s := in.Apply(domain.Student{ID: f.nextID})
	f.students = append([]domain.Student{s}, f.students...)
	if !f.echo {
		return domain.Student{}, nil
	}
	return s, nil
}

func (f *fakeAPI) UpdateStudent(ctx context.Context, id int64, in domain.StudentInput) (domain.Student, error) {
	if err := f.call(ctx, "UpdateStudent"); err != nil {
		return domain.Student{}, err
	}
	defer f.mu.Unlock()
	for i := range f.students {
		if f.students[i].ID == id {
			f.students[i] = in.Apply(f.students[i])
			return domain.Student{}, nil
		}
	}
	return domain.Student{}, errors.Business(404, "Student not found")
}

func (f *fakeAPI) DeleteStudent(ctx context.Context, id int64) error {
	if err := f.call(ctx, "DeleteStudent"); err != nil {
		return err
	}
	defer f.mu.Unlock()
	f.students = slices.DeleteFunc(f.students, func(s domain.Student) bool { return s.ID == id })
	return nil
}

func (f *fakeAPI) GetProfile(ctx context.Context) (domain.Student, error) {
	if err := f.call(ctx, "GetProfile"); err != nil {
		return domain.Student{}, err
	}
	defer f.mu.Unlock()
	return f.profile, nil
}

func (f *fakeAPI) issuesWhere(keep func(domain.Issue) bool) []domain.Issue {
	out := []domain.Issue{}
	for _, i := range f.issues {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}

func (f *fakeAPI) StudentHistory(ctx context.Context, studentID int64) ([]domain.Issue, error) {
	if err := f.call(ctx, "StudentHistory"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return f.issuesWhere(func(i domain.Issue) bool { return i.Student.ID == studentID }), nil
}

func (f *fakeAPI) MyHistory(ctx context.Context, rollNo string) ([]domain.Issue, error) {
	if err := f.call(ctx, "MyHistory"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	f.rollNos = append(f.rollNos, rollNo)
	return f.issuesWhere(func(i domain.Issue) bool { return i.Student.RollNo == rollNo }), nil
}

func (f *fakeAPI) PendingIssues(ctx context.Context) ([]domain.Issue, error) {
	if err := f.call(ctx, "PendingIssues"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return f.issuesWhere(func(i domain.Issue) bool { return i.Status == domain.StatusRequested }), nil
}

func (f *fakeAPI) ActiveIssues(ctx context.Context) ([]domain.Issue, error) {
	if err := f.call(ctx, "ActiveIssues"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return f.issuesWhere(func(i domain.Issue) bool { return i.Status == domain.StatusIssued }), nil
}

func (f *fakeAPI) AllIssues(ctx context.Context) ([]domain.Issue, error) {
	if err := f.call(ctx, "AllIssues"); err != nil {
		return nil, err
	}
	defer f.mu.Unlock()
	return slices.Clone(f.issues), nil
}

func (f *fakeAPI) TransitionIssue(ctx context.Context, id int64, action domain.IssueAction) (string, error) {
	if err := f.call(ctx, "TransitionIssue"); err != nil {
		return "", err
	}
	defer f.mu.Unlock()
	for i := range f.issues {
		if f.issues[i].ID != id {
			continue
		}
		if !f.issues[i].Status.Allows(action) {
			return "", errors.Business(400, "Request is not in a state that allows "+string(action))
		}
		f.issues[i].Status = statusAfter(action)
		return "", nil
	}
	return "", errors.Business(404, "Issue not found")
}

func (f *fakeAPI) ConfirmIssueByRollNo(ctx context.Context, rollNo string, bookID int64) (string, error) {
	if err := f.call(ctx, "ConfirmIssueByRollNo"); err != nil {
		return "", err
	}
	defer f.mu.Unlock()
	f.nextID++
	f.issues = append(f.issues, domain.Issue{
		ID:      f.nextID,
		Book:    domain.Book{ID: bookID},
		Student: domain.Student{RollNo: rollNo},
		Status:  domain.StatusIssued,
	})
	return "Book issued successfully!", nil
}

var _ API = (*fakeAPI)(nil)
