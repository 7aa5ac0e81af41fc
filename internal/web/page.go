package web

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/guard"
	"github.com/libraryhub/libraryhub-web/internal/http/response"
	"github.com/libraryhub/libraryhub-web/internal/nav"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

// User-facing messages.
const (
	msgFormExpired     = "This form has expired. Reload the page and try again."
	msgTooManyAttempts = "Too many attempts. Please wait a minute and try again."
	msgSessionExpired  = "Your session has expired. Please log in again."
	msgForbidden       = "This page is not available for your account."
	msgConfirm         = "Please confirm this action."
	msgSomethingWrong  = "Something went wrong. Please try again."
)

const flashCookie = "libraryhub_flash"

// Page is the data every template receives.
type Page struct {
	Title    string
	Active   string
	Menu     []nav.Item
	Role     domain.Role
	RoleName string
	Name     string
	CSRF     string
	Flash    string
	Error    string
	// Fields holds per-field validation messages for the page's form.
	Fields  map[string]string
	Content any
}

// newPage builds the page shell for the requesting session and consumes
// any pending flash message.
func (s *Server) newPage(w http.ResponseWriter, r *http.Request, title, active string) *Page {
	sess := session.FromContext(r.Context())
	role := sess.RoleOrNone()

	p := &Page{
		Title:    title,
		Active:   active,
		Menu:     nav.Menu(role, active),
		Role:     role,
		RoleName: nav.RoleName(role),
		CSRF:     s.csrf.Token(BrowserID(r.Context())),
	}
	if sess.Authenticated() {
		p.Name = sess.Name
	}

	if c, err := r.Cookie(flashCookie); err == nil {
		if msg, err := url.QueryUnescape(c.Value); err == nil {
			p.Flash = msg
		}
		http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	}
	return p
}

// setError shows err on the page, with field messages for validation errors.
func (p *Page) setError(err error) {
	if err == nil {
		return
	}
	p.Error = errors.Message(err)
	var e *errors.Error
	if errors.As(err, &e) {
		if fields, ok := e.Details.(map[string]string); ok {
			p.Fields = fields
		}
	}
}

// flash stores msg for the next page this browser renders.
func (s *Server) flash(w http.ResponseWriter, msg string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(msg),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// redirect sends a 303 after a form post, with an optional flash.
func (s *Server) redirect(w http.ResponseWriter, r *http.Request, to, msg string) {
	if msg != "" {
		s.flash(w, msg)
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// render writes page, logging instead of failing the request twice.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, p *Page) {
	if err := s.templates.Render(w, status, name, p); err != nil {
		s.logger.ErrorContext(r.Context(), "failed to render page", "page", name, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// renderError shows the error page with msg, or an error envelope to
// JSON clients.
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	if response.WantsJSON(r) {
		response.Error(w, status, msg, s.logger)
		return
	}
	p := s.newPage(w, r, http.StatusText(status), "")
	p.Error = msg
	p.Content = struct{ Status int }{status}
	s.render(w, r, status, "error", p)
}

func (s *Server) handleForbidden(w http.ResponseWriter, r *http.Request) {
	s.renderError(w, r, http.StatusForbidden, msgForbidden)
}

// expired handles a 401 from the library service: the stored session is
// cleared and the browser is sent to the login page. It reports whether it
// wrote the response.
func (s *Server) expired(w http.ResponseWriter, r *http.Request, err error, back string) bool {
	if !guard.Unauthorized(err) {
		return false
	}
	ctx := r.Context()
	if clearErr := s.sessions.Clear(ctx, BrowserID(ctx)); clearErr != nil {
		s.logger.ErrorContext(ctx, "failed to clear expired session", "error", clearErr)
	}
	s.logger.InfoContext(ctx, "library service rejected token, session cleared")
	if response.WantsJSON(r) {
		response.HandleError(w, err, s.logger)
		return true
	}
	s.redirect(w, r, guard.LoginURL(back), msgSessionExpired)
	return true
}

// logFailure records a failed service call that the page will show.
func (s *Server) logFailure(r *http.Request, op string, err error) {
	if err == nil {
		return
	}
	level := s.logger.WarnContext
	switch errors.KindOf(err) {
	case errors.KindValidation, errors.KindLocal:
		level = s.logger.DebugContext
	}
	level(r.Context(), op+" failed",
		"error", err,
		"kind", string(errors.KindOf(err)),
	)
}

// statusFor is the page status for a failed action.
func statusFor(err error) int {
	switch errors.KindOf(err) {
	case errors.KindValidation:
		return http.StatusUnprocessableEntity
	case errors.KindLocal:
		return http.StatusConflict
	case errors.KindTransport:
		return http.StatusBadGateway
	}
	var e *errors.Error
	if errors.As(err, &e) && e.Status >= 400 && e.Status < 500 {
		return e.Status
	}
	return http.StatusBadGateway
}

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NotFound("unknown record")
	}
	return id, nil
}

// confirmed reports whether the form carried the confirmation checkbox.
func confirmed(r *http.Request) bool {
	return r.PostFormValue("confirm") != ""
}
