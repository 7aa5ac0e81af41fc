package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/nav"
	"github.com/libraryhub/libraryhub-web/internal/viewmodel"
)

// booksContent is the data of the books page.
type booksContent struct {
	Search string
	Cards  []BookCard
	Loaded bool
	// Form is the add-book form, kept filled after a failed submit.
	Form domain.BookInput
}

// bookForm reads the add/edit book form.
func bookForm(r *http.Request) domain.BookInput {
	copies, _ := strconv.Atoi(strings.TrimSpace(r.PostFormValue("copies")))
	return domain.BookInput{
		BookName: r.PostFormValue("bookName"),
		Author:   r.PostFormValue("author"),
		Copies:   copies,
	}
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	search := r.URL.Query().Get("search")

	err := ws.Books.Load(r.Context(), search)
	if s.expired(w, r, err, r.URL.RequestURI()) {
		return
	}
	s.logFailure(r, "load books", err)

	editing, _ := strconv.ParseInt(r.URL.Query().Get("edit"), 10, 64)
	s.renderBooks(w, r, http.StatusOK, ws, domain.BookInput{}, rowEdit[domain.BookInput]{ID: editing}, err)
}

// renderBooks renders the current book list with form and err.
func (s *Server) renderBooks(w http.ResponseWriter, r *http.Request, status int, ws *viewmodel.Workspace, form domain.BookInput, edit rowEdit[domain.BookInput], err error) {
	p := s.newPage(w, r, "Books", nav.PathBooks)
	p.setError(err)

	state := ws.Books.State()
	cards := make([]BookCard, 0, len(state.Items))
	for _, b := range state.Items {
		if b.ID == edit.ID && edit.Draft != nil {
			b = edit.Draft.Apply(b)
		}
		c := NewBookCard(b, p.Role, RowState{
			Submitting: ws.Books.Busy(b.ID),
			Editing:    b.ID == edit.ID,
		})
		c.CSRF = p.CSRF
		cards = append(cards, c)
	}

	p.Content = booksContent{
		Search: ws.Books.Search(),
		Cards:  cards,
		Loaded: state.Loaded,
		Form:   form,
	}
	s.render(w, r, status, "books", p)
}

// bookFailed re-renders the books page after a failed action, keeping the
// submitted form.
func (s *Server) bookFailed(w http.ResponseWriter, r *http.Request, ws *viewmodel.Workspace, op string, form domain.BookInput, edit rowEdit[domain.BookInput], err error) {
	if s.expired(w, r, err, nav.PathBooks) {
		return
	}
	s.logFailure(r, op, err)
	if errors.Is(err, errors.ErrConfirmationRequired) {
		err = errors.Validation(msgConfirm)
	}
	s.renderBooks(w, r, statusFor(err), ws, form, edit, err)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	form := bookForm(r)

	book, err := ws.Books.Create(r.Context(), form)
	if err != nil {
		s.bookFailed(w, r, ws, "create book", form, rowEdit[domain.BookInput]{}, err)
		return
	}

	s.logger.InfoContext(r.Context(), "book created", "book_id", book.ID)
	s.notify(r, "books")
	s.redirect(w, r, nav.PathBooks, "Book added.")
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, errors.Message(err))
		return
	}
	form := bookForm(r)

	if err := ws.Books.Update(r.Context(), id, form); err != nil {
		s.bookFailed(w, r, ws, "update book", domain.BookInput{}, rowEdit[domain.BookInput]{ID: id, Draft: &form}, err)
		return
	}

	s.logger.InfoContext(r.Context(), "book updated", "book_id", id)
	s.notify(r, "books")
	s.redirect(w, r, nav.PathBooks, "Book updated.")
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, errors.Message(err))
		return
	}

	if err := ws.Books.Delete(r.Context(), id, confirmed(r)); err != nil {
		s.bookFailed(w, r, ws, "delete book", domain.BookInput{}, rowEdit[domain.BookInput]{}, err)
		return
	}

	s.logger.InfoContext(r.Context(), "book deleted", "book_id", id)
	s.notify(r, "books")
	s.redirect(w, r, nav.PathBooks, "Book deleted.")
}

func (s *Server) handleRequestBook(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)
	id, err := pathID(r)
	if err != nil {
		s.renderError(w, r, http.StatusNotFound, errors.Message(err))
		return
	}

	msg, err := ws.Books.Request(r.Context(), id)
	if err != nil {
		s.bookFailed(w, r, ws, "request book", domain.BookInput{}, rowEdit[domain.BookInput]{}, err)
		return
	}

	s.logger.InfoContext(r.Context(), "book requested", "book_id", id)
	s.notify(r, "issues")
	s.redirect(w, r, nav.PathBooks, msg)
}
