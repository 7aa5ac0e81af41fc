package web

import (
	"net/http"
	"strings"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/guard"
	"github.com/libraryhub/libraryhub-web/internal/id"
	"github.com/libraryhub/libraryhub-web/internal/nav"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

// loginContent is the data of the login page.
type loginContent struct {
	Email string
	Next  string
}

// registerContent is the data of the register page.
type registerContent struct {
	Form domain.Registration
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	p := s.newPage(w, r, "LibraryHub", nav.PathHome)
	p.Content = struct{ Start string }{nav.Home(p.Role)}
	s.render(w, r, http.StatusOK, "home", p)
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	next := guard.SafeNext(r.URL.Query().Get("next"))
	if sess := session.FromContext(r.Context()); sess.Authenticated() {
		http.Redirect(w, r, landing(next, sess.Role), http.StatusSeeOther)
		return
	}

	p := s.newPage(w, r, "Log in", nav.PathLogin)
	p.Content = loginContent{Next: next}
	s.render(w, r, http.StatusOK, "login", p)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	creds := domain.Credentials{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	next := guard.SafeNext(r.PostFormValue("next"))

	fail := func(err error) {
		s.logFailure(r, "login", err)
		p := s.newPage(w, r, "Log in", nav.PathLogin)
		p.setError(err)
		p.Content = loginContent{Email: creds.Email, Next: next}
		s.render(w, r, statusFor(err), "login", p)
	}

	if err := s.validator.Validate(creds); err != nil {
		fail(err)
		return
	}

	resp, err := s.authAPI.Login(ctx, creds)
	if err != nil {
		fail(err)
		return
	}

	sess, err := s.signIn(w, r, resp)
	if err != nil {
		fail(err)
		return
	}
	s.logger.InfoContext(ctx, "user logged in", "role", string(sess.Role))
	s.redirect(w, r, landing(next, sess.Role), "Welcome, "+sess.Name+".")
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	if sess := session.FromContext(r.Context()); sess.Authenticated() {
		http.Redirect(w, r, nav.Home(sess.Role), http.StatusSeeOther)
		return
	}

	p := s.newPage(w, r, "Register", nav.PathRegister)
	p.Content = registerContent{Form: domain.Registration{Role: domain.RoleStudent}}
	s.render(w, r, http.StatusOK, "register", p)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, _ := domain.ParseRole(r.PostFormValue("role"))
	reg := domain.Registration{
		Firstname:   strings.TrimSpace(r.PostFormValue("firstname")),
		Lastname:    strings.TrimSpace(r.PostFormValue("lastname")),
		Email:       strings.TrimSpace(r.PostFormValue("email")),
		Password:    r.PostFormValue("password"),
		Role:        role,
		CurrentYear: strings.TrimSpace(r.PostFormValue("currentYear")),
		Semester:    strings.TrimSpace(r.PostFormValue("semester")),
		Department:  strings.TrimSpace(r.PostFormValue("department")),
		RollNo:      strings.TrimSpace(r.PostFormValue("rollNo")),
	}
	if reg.Role != domain.RoleStudent {
		reg.CurrentYear, reg.Semester, reg.RollNo = "", "", ""
	}

	fail := func(err error) {
		s.logFailure(r, "register", err)
		p := s.newPage(w, r, "Register", nav.PathRegister)
		p.setError(err)
		form := reg
		form.Password = ""
		p.Content = registerContent{Form: form}
		s.render(w, r, statusFor(err), "register", p)
	}

	if err := s.validator.Validate(reg); err != nil {
		fail(err)
		return
	}

	resp, err := s.authAPI.Register(ctx, reg)
	if err != nil {
		fail(err)
		return
	}

	sess, err := s.signIn(w, r, resp)
	if err != nil {
		fail(err)
		return
	}
	s.logger.InfoContext(ctx, "user registered", "role", string(sess.Role))
	s.redirect(w, r, nav.Home(sess.Role), "Account created. Welcome, "+sess.Name+".")
}

// signIn stores the login response under a fresh browser ID and points the
// cookie at it, so an ID seen before login is never authenticated.
func (s *Server) signIn(w http.ResponseWriter, r *http.Request, resp domain.AuthResponse) (*session.Session, error) {
	ctx := r.Context()

	newID, err := id.NewSessionID()
	if err != nil {
		return nil, err
	}
	sess, err := s.sessions.Set(ctx, newID, session.FieldsFromAuth(resp))
	if err != nil {
		return nil, err
	}
	if err := s.setSessionCookie(w, newID); err != nil {
		_ = s.sessions.Clear(ctx, newID)
		return nil, err
	}

	if old := BrowserID(ctx); old != "" {
		// Tabs still holding the old ID reload into the new session.
		if s.events != nil {
			s.events.SessionUpdated(old, string(sess.Role), sess.Name)
		}
		if err := s.sessions.Clear(ctx, old); err != nil {
			s.logger.WarnContext(ctx, "failed to clear previous session", "error", err)
		}
	}
	return sess, nil
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.sessions.Clear(ctx, BrowserID(ctx)); err != nil {
		s.logger.ErrorContext(ctx, "failed to clear session", "error", err)
		s.renderError(w, r, http.StatusInternalServerError, msgSomethingWrong)
		return
	}

	newID, err := id.NewSessionID()
	if err == nil {
		err = s.setSessionCookie(w, newID)
	}
	if err != nil {
		s.logger.WarnContext(ctx, "failed to rotate browser id on logout", "error", err)
	}

	s.logger.InfoContext(ctx, "user logged out")
	s.redirect(w, r, nav.PathLogin, "You have been logged out.")
}

// landing is where a successful login goes: next if given, else the role's home.
func landing(next string, role domain.Role) string {
	if next != "" {
		return next
	}
	return nav.Home(role)
}
