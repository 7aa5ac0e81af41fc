package viewmodel

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/validation"
)

// Row actions.
const (
	actionCreate  = "create"
	actionUpdate  = "update"
	actionDelete  = "delete"
	actionRequest = "request"
	actionConfirm = "confirm"
)

// BookAPI is the part of the library service the books page uses.
type BookAPI interface {
	ListBooks(ctx context.Context, search string) ([]domain.Book, error)
	CreateBook(ctx context.Context, in domain.BookInput) (domain.Book, error)
	UpdateBook(ctx context.Context, id int64, in domain.BookInput) (domain.Book, error)
	DeleteBook(ctx context.Context, id int64) error
	RequestBook(ctx context.Context, bookID int64, rollNo string) (string, error)
}

// Books is the books page state for one session.
type Books struct {
	*List[domain.Book]

	api       BookAPI
	validator *validation.Validator
	session   *session.Session

	mu     sync.Mutex
	search string
}

// NewBooks creates the books view model for s.
func NewBooks(api BookAPI, v *validation.Validator, s *session.Session) *Books {
	return &Books{
		List:      newList(func(b domain.Book) int64 { return b.ID }),
		api:       api,
		validator: v,
		session:   s,
	}
}

// Search returns the query of the last load.
func (b *Books) Search() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.search
}

// Load fetches the catalog matching search.
func (b *Books) Load(ctx context.Context, search string) error {
	search = normalizeQuery(search)
	b.mu.Lock()
	b.search = search
	b.mu.Unlock()

	ctx = session.WithSession(ctx, b.session)
	return b.load(ctx, func(ctx context.Context) ([]domain.Book, error) {
		return b.api.ListBooks(ctx, search)
	})
}

// Reload repeats the last load.
func (b *Books) Reload(ctx context.Context) error {
	return b.Load(ctx, b.Search())
}

// Create validates in and adds the book. The echoed record is prepended; if
// the service does not echo one the list is reloaded.
func (b *Books) Create(ctx context.Context, in domain.BookInput) (domain.Book, error) {
	in.BookName = strings.TrimSpace(in.BookName)
	in.Author = strings.TrimSpace(in.Author)
	if err := b.validator.Validate(in); err != nil {
		return domain.Book{}, err
	}

	done, err := b.begin(0, actionCreate)
	if err != nil {
		return domain.Book{}, err
	}
	defer done()

	book, err := b.api.CreateBook(session.WithSession(ctx, b.session), in)
	if err != nil {
		b.fail(err)
		return domain.Book{}, err
	}

	if book.ID == 0 {
		_ = b.Reload(ctx)
		return book, nil
	}
	b.prepend(book)
	return book, nil
}

// Update edits book id and patches the local row once the service accepts it.
func (b *Books) Update(ctx context.Context, id int64, in domain.BookInput) error {
	in.BookName = strings.TrimSpace(in.BookName)
	in.Author = strings.TrimSpace(in.Author)
	if err := b.validator.Validate(in); err != nil {
		return err
	}

	done, err := b.begin(id, actionUpdate)
	if err != nil {
		return err
	}
	defer done()

	echoed, err := b.api.UpdateBook(session.WithSession(ctx, b.session), id, in)
	if err != nil {
		b.fail(err)
		return err
	}

	b.replace(id, func(cur domain.Book) domain.Book {
		if echoed.ID == id {
			return echoed
		}
		return in.Apply(cur)
	})
	return nil
}

// Delete removes book id once the service confirms. confirmed must be true.
func (b *Books) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return errors.ErrConfirmationRequired
	}

	done, err := b.begin(id, actionDelete)
	if err != nil {
		return err
	}
	defer done()

	if err := b.api.DeleteBook(session.WithSession(ctx, b.session), id); err != nil {
		b.fail(err)
		return err
	}
	b.remove(id)
	return nil
}

// Request files a borrow request for the signed-in student and reloads the
// catalog. It returns the service's outcome message.
func (b *Books) Request(ctx context.Context, bookID int64) (string, error) {
	rollNo, ok := b.session.Value(session.FieldRollNo)
	if !ok {
		return "", errors.Validation("your account has no roll number, ask a librarian to add one")
	}

	done, err := b.begin(bookID, actionRequest)
	if err != nil {
		return "", err
	}
	defer done()

	msg, err := b.api.RequestBook(session.WithSession(ctx, b.session), bookID, rollNo)
	_ = b.Reload(ctx)
	if err != nil {
		b.fail(err)
		return "", err
	}
	if msg == "" {
		msg = "Book requested."
	}
	return msg, nil
}

// normalizeQuery trims and NFC-normalizes a search query so visually equal
// input sends the same bytes.
func normalizeQuery(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}
