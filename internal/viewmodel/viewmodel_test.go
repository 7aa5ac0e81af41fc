package viewmodel

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/logger"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/validation"
)

var testValidator = validation.New()

func librarian() *session.Session {
	return &session.Session{ID: "ses-lib", Token: "lib-token", Role: domain.RoleLibrarian, Name: "Lee"}
}

func student() *session.Session {
	return &session.Session{ID: "ses-stu", Token: "abc", Role: domain.RoleStudent, Name: "Ann", RollNo: "S1"}
}

func bookGen() *rapid.Generator[domain.Book] {
	return rapid.Custom(func(t *rapid.T) domain.Book {
		return domain.Book{
			ID:       rapid.Int64Range(1, 10_000).Draw(t, "id"),
			BookName: rapid.StringN(1, 30, -1).Draw(t, "bookName"),
			Author:   rapid.StringN(1, 30, -1).Draw(t, "author"),
			IsIssued: rapid.Bool().Draw(t, "isIssued"),
		}
	})
}

func uniqueBooks(t *rapid.T, label string) []domain.Book {
	return rapid.SliceOfDistinct(bookGen(), func(b domain.Book) int64 { return b.ID }).Draw(t, label)
}

func assertSameItems[T any](t require.TestingT, want, got []T) {
	if len(want) == 0 {
		assert.Empty(t, got)
		return
	}
	assert.Equal(t, want, got)
}

func TestBooks_LoadReplacesWithServerRecords(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		api := newFakeAPI()
		books := NewBooks(api, testValidator, librarian())
		ctx := context.Background()

		api.books = uniqueBooks(t, "before")
		require.NoError(t, books.Load(ctx, ""))

		api.books = uniqueBooks(t, "after")
		require.NoError(t, books.Load(ctx, ""))

		assertSameItems(t, api.books, books.Items())
		assert.NoError(t, books.Err())
		assert.True(t, books.Loaded())
	})
}

func TestBooks_LoadIsIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		api := newFakeAPI()
		api.books = uniqueBooks(t, "books")
		books := NewBooks(api, testValidator, librarian())
		ctx := context.Background()

		require.NoError(t, books.Load(ctx, ""))
		first := books.Items()
		require.NoError(t, books.Load(ctx, ""))

		assert.Equal(t, first, books.Items())
	})
}

func TestBooks_DeleteRemovesOnlyOnSuccess(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		api := newFakeAPI()
		api.books = rapid.SliceOfNDistinct(bookGen(), 1, 20, func(b domain.Book) int64 { return b.ID }).Draw(t, "books")
		books := NewBooks(api, testValidator, librarian())
		ctx := context.Background()
		require.NoError(t, books.Load(ctx, ""))

		before := len(api.books)
		target := rapid.SampledFrom(api.books).Draw(t, "target")
		serverFails := rapid.Bool().Draw(t, "serverFails")
		if serverFails {
			api.setFail("DeleteBook", errors.Business(409, "Book is currently issued"))
		}

		err := books.Delete(ctx, target.ID, true)

		_, present := books.Get(target.ID)
		assert.Equal(t, serverFails, present)
		assert.Equal(t, serverFails, err != nil)
		assert.Equal(t, serverFails, books.Err() != nil)
		if serverFails {
			assert.Len(t, books.Items(), before)
		} else {
			assert.Len(t, books.Items(), before-1)
		}
	})
}

func TestBooks_DeleteRequiresConfirmation(t *testing.T) {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 1, BookName: "Dune", Author: "Herbert"}}
	books := NewBooks(api, testValidator, librarian())
	ctx := context.Background()
	require.NoError(t, books.Load(ctx, ""))

	err := books.Delete(ctx, 1, false)

	assert.ErrorIs(t, err, errors.ErrConfirmationRequired)
	assert.Equal(t, 0, api.count("DeleteBook"))
	assert.Len(t, books.Items(), 1)
}

func TestBooks_CreateValidationBlocksDispatch(t *testing.T) {
	api := newFakeAPI()
	books := NewBooks(api, testValidator, librarian())

	_, err := books.Create(context.Background(), domain.BookInput{BookName: "  ", Author: "Herbert"})

	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	assert.Contains(t, validation.FieldErrors(err), "bookName")
	assert.Equal(t, 0, api.count("CreateBook"))
}

func TestBooks_CreateNetworkFailureLeavesListUnchanged(t *testing.T) {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 1, BookName: "Emma", Author: "Austen"}}
	books := NewBooks(api, testValidator, librarian())
	ctx := context.Background()
	require.NoError(t, books.Load(ctx, ""))
	before := books.Items()

	api.setFail("CreateBook", errors.Transport(context.Canceled, "Could not reach the library service."))
	_, err := books.Create(ctx, domain.BookInput{BookName: "Dune", Author: "Herbert"})

	require.Error(t, err)
	assert.Equal(t, errors.KindTransport, errors.KindOf(err))
	assert.Equal(t, before, books.Items())
	assert.Equal(t, "Could not reach the library service.", errors.Message(books.Err()))
	assert.False(t, books.InFlight(0, actionCreate))
}

func TestBooks_CreatePrependsEchoedRecord(t *testing.T) {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 1, BookName: "Emma", Author: "Austen"}}
	books := NewBooks(api, testValidator, librarian())
	ctx := context.Background()
	require.NoError(t, books.Load(ctx, ""))

	created, err := books.Create(ctx, domain.BookInput{BookName: " Dune ", Author: "Herbert"})
	require.NoError(t, err)

	items := books.Items()
	require.Len(t, items, 2)
	assert.Equal(t, created, items[0])
	assert.Equal(t, "Dune", items[0].BookName)
	assert.Equal(t, 1, api.count("ListBooks"))
}

func TestBooks_CreateWithoutEchoReloads(t *testing.T) {
	api := newFakeAPI()
	api.echo = false
	books := NewBooks(api, testValidator, librarian())
	ctx := context.Background()
	require.NoError(t, books.Load(ctx, ""))

	_, err := books.Create(ctx, domain.BookInput{BookName: "Dune", Author: "Herbert"})
	require.NoError(t, err)

	assert.Equal(t, 2, api.count("ListBooks"))
	require.Len(t, books.Items(), 1)
	assert.Equal(t, "Dune", books.Items()[0].BookName)
}

func TestBooks_UpdatePatchesAfterSuccess(t *testing.T) {
	api := newFakeAPI()
	api.echo = false
	api.books = []domain.Book{{ID: 1, BookName: "Emma", Author: "Austen"}, {ID: 2, BookName: "Dune", Author: "Herbert"}}
	books := NewBooks(api, testValidator, librarian())
	ctx := context.Background()
	require.NoError(t, books.Load(ctx, ""))

	require.NoError(t, books.Update(ctx, 2, domain.BookInput{BookName: "Dune Messiah", Author: "Frank Herbert"}))

	b, ok := books.Get(2)
	require.True(t, ok)
	assert.Equal(t, "Dune Messiah", b.BookName)
	assert.Equal(t, "Frank Herbert", b.Author)
	assert.Equal(t, 1, api.count("ListBooks"))

	api.setFail("UpdateBook", errors.Business(500, "boom"))
	require.Error(t, books.Update(ctx, 1, domain.BookInput{BookName: "Persuasion", Author: "Austen"}))
	b, _ = books.Get(1)
	assert.Equal(t, "Emma", b.BookName)
}

func TestBooks_SecondActionOnSameRowIsRejected(t *testing.T) {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 1, BookName: "Emma"}, {ID: 2, BookName: "Dune"}}
	books := NewBooks(api, testValidator, librarian())
	ctx := context.Background()
	require.NoError(t, books.Load(ctx, ""))

	release := api.hold("DeleteBook")
	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		firstErr = books.Delete(ctx, 1, true)
	}()
	<-api.started

	assert.True(t, books.InFlight(1, actionDelete))
	assert.True(t, books.Busy(1))
	assert.False(t, books.Busy(2))
	assert.ErrorIs(t, books.Delete(ctx, 1, true), errors.ErrInFlight)

	// Other rows and other actions are not serialized.
	require.NoError(t, books.Update(ctx, 1, domain.BookInput{BookName: "Emma", Author: "Jane Austen"}))
	require.NoError(t, books.Delete(ctx, 2, true))

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.False(t, books.InFlight(1, actionDelete))
	assert.False(t, books.Busy(1))
	assert.Empty(t, books.Items())
	assert.Equal(t, 2, api.count("DeleteBook"))
}

func TestBooks_CloseDropsLateResults(t *testing.T) {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 1, BookName: "Emma"}}
	books := NewBooks(api, testValidator, librarian())

	release := api.hold("ListBooks")
	done := make(chan error, 1)
	go func() { done <- books.Load(context.Background(), "") }()
	<-api.started

	books.Close()
	close(release)
	require.NoError(t, <-done)

	assert.Empty(t, books.Items())
	assert.False(t, books.Loaded())
	assert.ErrorIs(t, books.Load(context.Background(), ""), ErrClosed)
}

func TestBooks_SupersededLoadIsDropped(t *testing.T) {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 1, BookName: "Old"}}
	books := NewBooks(api, testValidator, librarian())
	ctx := context.Background()

	release := api.hold("ListBooks")
	done := make(chan error, 1)
	go func() { done <- books.Load(ctx, "old") }()
	<-api.started

	api.mu.Lock()
	api.books = []domain.Book{{ID: 2, BookName: "New"}}
	api.mu.Unlock()
	require.NoError(t, books.Load(ctx, "new"))

	// The held call returns stale data.
	api.mu.Lock()
	api.books = []domain.Book{{ID: 1, BookName: "Old"}}
	api.mu.Unlock()
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, []domain.Book{{ID: 2, BookName: "New"}}, books.Items())
}

func TestBooks_LoadFailureKeepsPreviousList(t *testing.T) {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 1, BookName: "Emma"}}
	books := NewBooks(api, testValidator, librarian())
	ctx := context.Background()
	require.NoError(t, books.Load(ctx, ""))

	api.setFail("ListBooks", errors.Timeout(context.DeadlineExceeded, "timed out"))
	require.Error(t, books.Load(ctx, ""))

	assert.Len(t, books.Items(), 1)
	assert.ErrorIs(t, books.Err(), errors.ErrTimeout)
}

func TestBooks_SearchIsNormalized(t *testing.T) {
	api := newFakeAPI()
	books := NewBooks(api, testValidator, librarian())

	require.NoError(t, books.Load(context.Background(), "  Les Mise\u0301rables "))
	assert.Equal(t, "Les Mis\u00e9rables", books.Search())
}

func TestBooks_RequestUsesSessionRollNo(t *testing.T) {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 7, BookName: "Dune"}}
	books := NewBooks(api, testValidator, student())
	ctx := context.Background()

	msg, err := books.Request(ctx, 7)
	require.NoError(t, err)

	assert.Equal(t, "Book requested successfully!", msg)
	assert.Equal(t, []string{"S1"}, api.rollNos)
	assert.Equal(t, 1, api.count("ListBooks"))
	assert.Contains(t, api.tokens, "abc")
}

func TestBooks_RequestWithoutRollNo(t *testing.T) {
	api := newFakeAPI()
	books := NewBooks(api, testValidator, librarian())

	_, err := books.Request(context.Background(), 7)

	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	assert.Equal(t, 0, api.count("RequestBook"))
}

func TestStudents_CRUD(t *testing.T) {
	api := newFakeAPI()
	api.students = []domain.Student{{ID: 1, Name: "Ann", Email: "ann@example.edu", RollNo: "S1"}}
	students := NewStudents(api, testValidator, librarian())
	ctx := context.Background()
	require.NoError(t, students.Load(ctx))

	_, err := students.Create(ctx, domain.StudentInput{Name: "Bob", Email: "bob", RollNo: "S2"})
	assert.Contains(t, validation.FieldErrors(err), "email")
	assert.Equal(t, 0, api.count("CreateStudent"))

	created, err := students.Create(ctx, domain.StudentInput{Name: "Bob", Email: "bob@example.edu", RollNo: "S2"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, students.Items()[0].ID)

	require.NoError(t, students.Update(ctx, 1, domain.StudentInput{
		Name: "Ann Lee", Email: "ann@example.edu", RollNo: "S1",
		CurrentYear: "2nd Year", Semester: "3rd Semester",
	}))
	ann, ok := students.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Ann Lee", ann.Name)
	assert.Equal(t, "2nd Year", ann.CurrentYear)
	assert.Equal(t, "3rd Semester", ann.Semester)

	assert.ErrorIs(t, students.Delete(ctx, 1, false), errors.ErrConfirmationRequired)
	require.NoError(t, students.Delete(ctx, 1, true))
	_, ok = students.Get(1)
	assert.False(t, ok)
}

func seededIssues() *fakeAPI {
	api := newFakeAPI()
	api.books = []domain.Book{{ID: 7, BookName: "Dune"}}
	api.issues = []domain.Issue{
		{ID: 1, Status: domain.StatusRequested, Book: domain.Book{ID: 7}, Student: domain.Student{ID: 5, RollNo: "S1"}},
		{ID: 2, Status: domain.StatusIssued, Book: domain.Book{ID: 8}, Student: domain.Student{ID: 6, RollNo: "S2"}},
	}
	return api
}

func ids(issues []domain.Issue) []int64 {
	out := make([]int64, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.ID)
	}
	return out
}

func TestIssues_ApproveMovesRequestToActive(t *testing.T) {
	api := seededIssues()
	ws := NewWorkspace(api, testValidator, librarian(), logger.Discard())
	ctx := context.Background()
	require.NoError(t, ws.Issues.Reload(ctx))
	assert.Equal(t, []int64{1}, ids(ws.Issues.Pending.Items()))

	_, err := ws.Issues.Transition(ctx, 1, domain.ActionApprove, false)
	require.NoError(t, err)

	assert.Empty(t, ws.Issues.Pending.Items())
	assert.ElementsMatch(t, []int64{1, 2}, ids(ws.Issues.Active.Items()))
	assert.Equal(t, 1, api.count("ListBooks"), "books list is a dependent")
}

func TestIssues_RejectAndReturnNeedConfirmation(t *testing.T) {
	api := seededIssues()
	issues := NewIssues(api, testValidator, librarian(), logger.Discard())
	ctx := context.Background()

	for _, a := range []domain.IssueAction{domain.ActionReject, domain.ActionReturn} {
		_, err := issues.Transition(ctx, 1, a, false)
		assert.ErrorIs(t, err, errors.ErrConfirmationRequired)
	}
	assert.Equal(t, 0, api.count("TransitionIssue"))

	msg, err := issues.Transition(ctx, 2, domain.ActionReturn, true)
	require.NoError(t, err)
	assert.Equal(t, "Request marked returned.", msg)
	assert.Empty(t, issues.Active.Items())
}

func TestIssues_FailedTransitionStillReloads(t *testing.T) {
	api := seededIssues()
	issues := NewIssues(api, testValidator, librarian(), logger.Discard())
	ctx := context.Background()
	require.NoError(t, issues.Reload(ctx))

	// Returning a request that was never issued.
	_, err := issues.Transition(ctx, 1, domain.ActionReturn, true)
	require.Error(t, err)

	assert.Equal(t, 2, api.count("PendingIssues"))
	assert.Equal(t, 2, api.count("ActiveIssues"))
	assert.Equal(t, []int64{1}, ids(issues.Pending.Items()))
	assert.Equal(t, "Request is not in a state that allows return", errors.Message(issues.Active.Err()))
}

func TestIssues_ReloadIncludesHistoryOnceShown(t *testing.T) {
	api := seededIssues()
	issues := NewIssues(api, testValidator, librarian(), logger.Discard())
	ctx := context.Background()

	require.NoError(t, issues.Reload(ctx))
	assert.Equal(t, 0, api.count("AllIssues"))

	require.NoError(t, issues.Load(ctx, ViewAll))
	require.NoError(t, issues.Reload(ctx))
	assert.Equal(t, 2, api.count("AllIssues"))
}

func TestIssues_ConfirmIssue(t *testing.T) {
	api := seededIssues()
	issues := NewIssues(api, testValidator, librarian(), logger.Discard())
	ctx := context.Background()

	_, err := issues.ConfirmIssue(ctx, domain.ConfirmIssueInput{RollNo: "S 1", BookID: 7})
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	assert.Equal(t, 0, api.count("ConfirmIssueByRollNo"))

	msg, err := issues.ConfirmIssue(ctx, domain.ConfirmIssueInput{RollNo: " CS/21 ", BookID: 7})
	require.NoError(t, err)
	assert.Equal(t, "Book issued successfully!", msg)

	active := issues.Active.Items()
	require.Len(t, active, 2)
	assert.Equal(t, "CS/21", active[1].Student.RollNo)
}

func TestParseIssueView(t *testing.T) {
	assert.Equal(t, ViewActive, ParseIssueView("Active"))
	assert.Equal(t, ViewAll, ParseIssueView("all"))
	assert.Equal(t, ViewPending, ParseIssueView(""))
	assert.Equal(t, ViewPending, ParseIssueView("bogus"))
}

func TestProfile_LoadsProfileThenHistory(t *testing.T) {
	api := seededIssues()
	api.profile = domain.Student{ID: 5, Name: "Ann", RollNo: "S1"}
	profile := NewProfile(api, student())

	require.NoError(t, profile.Load(context.Background()))

	assert.Equal(t, "Ann", profile.Student().Name)
	assert.Equal(t, []int64{1}, ids(profile.History.Items()))
	assert.NoError(t, profile.Err())
}

func TestProfile_FailureSkipsHistory(t *testing.T) {
	api := seededIssues()
	api.setFail("GetProfile", errors.Business(404, "Student not found"))
	profile := NewProfile(api, student())

	require.Error(t, profile.Load(context.Background()))

	assert.Equal(t, "Student not found", errors.Message(profile.Err()))
	assert.Equal(t, 0, api.count("StudentHistory"))
}

func TestMyBooks_Load(t *testing.T) {
	api := seededIssues()
	mine := NewMyBooks(api, student())

	require.NoError(t, mine.Load(context.Background()))
	assert.Equal(t, []int64{1}, ids(mine.Items()))
	assert.Equal(t, []string{"S1"}, api.rollNos)

	noRoll := NewMyBooks(api, librarian())
	assert.Equal(t, errors.KindValidation, errors.KindOf(noRoll.Load(context.Background())))
}

func TestRegistry(t *testing.T) {
	api := newFakeAPI()
	reg := NewRegistry(api, testValidator, logger.Discard())
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	reg.now = func() time.Time { return now }

	s := student()
	w1 := reg.Workspace(s)
	assert.Same(t, w1, reg.Workspace(s))

	relogged := student()
	relogged.Token = "new-token"
	w2 := reg.Workspace(relogged)
	assert.NotSame(t, w1, w2)
	assert.True(t, w1.Books.Closed())
	assert.Equal(t, 1, reg.Len())

	reg.SessionCleared(s.ID)
	assert.True(t, w2.Books.Closed())
	assert.Equal(t, 0, reg.Len())

	reg.Workspace(librarian())
	now = now.Add(2 * time.Hour)
	reg.Workspace(s)
	assert.Equal(t, 1, reg.EvictIdle(time.Hour))
	assert.Equal(t, 1, reg.Len())
}

func TestList_ItemsAreCopies(t *testing.T) {
	l := newList(func(b domain.Book) int64 { return b.ID })
	require.NoError(t, l.load(context.Background(), func(context.Context) ([]domain.Book, error) {
		return []domain.Book{{ID: 1, BookName: "Emma"}}, nil
	}))

	items := l.Items()
	items[0].BookName = "changed"

	got, ok := l.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Emma", got.BookName)
}
