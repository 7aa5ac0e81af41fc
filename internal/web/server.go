// Package web serves the LibraryHub pages: it renders the view models of the
// signed-in browser session and turns form posts into library service calls.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/libraryhub/libraryhub-web/internal/auth"
	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/guard"
	"github.com/libraryhub/libraryhub-web/internal/ratelimit"
	"github.com/libraryhub/libraryhub-web/internal/session"
	"github.com/libraryhub/libraryhub-web/internal/sse"
	"github.com/libraryhub/libraryhub-web/internal/validation"
	"github.com/libraryhub/libraryhub-web/internal/viewmodel"
)

// AuthAPI is the part of the library service that issues tokens.
type AuthAPI interface {
	Login(ctx context.Context, creds domain.Credentials) (domain.AuthResponse, error)
	Register(ctx context.Context, reg domain.Registration) (domain.AuthResponse, error)
}

// SessionCounter is implemented by both session stores.
type SessionCounter interface {
	CountSessions(ctx context.Context) (int, error)
}

// Config holds the settings the web layer reads.
type Config struct {
	CookieName             string
	CookieSecure           bool
	AllowedOrigins         []string
	LoginAttemptsPerMinute int
	TrustProxy             bool
	Version                string
}

// Deps are the collaborators of a Server.
type Deps struct {
	Config       Config
	Auth         AuthAPI
	Sessions     *session.Manager
	SessionStore SessionCounter
	Workspaces   *viewmodel.Registry
	Validator    *validation.Validator
	Cookies      *auth.CookieCodec
	CSRF         *auth.CSRF
	Templates    *Templates
	Events       *sse.Manager
	Logger       *slog.Logger
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	cfg          Config
	authAPI      AuthAPI
	sessions     *session.Manager
	sessionStore SessionCounter
	workspaces   *viewmodel.Registry
	validator    *validation.Validator
	cookies      *auth.CookieCodec
	csrf         *auth.CSRF
	templates    *Templates
	events       *sse.Manager
	loginLimiter *ratelimit.KeyedRateLimiter
	router       *chi.Mux
	api          huma.API
	logger       *slog.Logger
	now          func() time.Time
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(d Deps) *Server {
	if d.Config.CookieName == "" {
		d.Config.CookieName = "libraryhub_session"
	}
	if d.Config.LoginAttemptsPerMinute <= 0 {
		d.Config.LoginAttemptsPerMinute = 10
	}

	s := &Server{
		cfg:          d.Config,
		authAPI:      d.Auth,
		sessions:     d.Sessions,
		sessionStore: d.SessionStore,
		workspaces:   d.Workspaces,
		validator:    d.Validator,
		cookies:      d.Cookies,
		csrf:         d.CSRF,
		templates:    d.Templates,
		events:       d.Events,
		loginLimiter: ratelimit.New(
			ratelimit.PerMinute(d.Config.LoginAttemptsPerMinute),
			d.Config.LoginAttemptsPerMinute,
		),
		router: chi.NewRouter(),
		logger: d.Logger,
		now:    time.Now,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases the login limiter.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

// setupMiddleware configures middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	if s.cfg.TrustProxy {
		s.router.Use(middleware.RealIP)
	}
	s.router.Use(requestContext)
	s.router.Use(s.accessLog)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.SetHeader("X-Frame-Options", "DENY"))
	s.router.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.loadSession)
	s.router.Use(s.verifyCSRF)
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.renderError(w, r, http.StatusNotFound, "That page does not exist.")
	})

	s.router.Get("/", s.handleHome)

	s.router.Get("/login", s.handleLoginPage)
	s.router.Get("/register", s.handleRegisterPage)
	s.router.Group(func(r chi.Router) {
		r.Use(s.limitByIP(s.loginLimiter))
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
	})
	s.router.Post("/logout", s.handleLogout)
	s.router.Get("/events", sse.NewHandler(s.events, s.resolveEventSession, s.logger).ServeHTTP)

	s.router.Group(func(r chi.Router) {
		r.Use(guard.Require)

		r.Get("/books", s.handleBooks)
		r.Post("/books/{id}/request", s.requireRole(domain.RoleStudent, s.handleRequestBook))
		r.Get("/my-books", s.requireRole(domain.RoleStudent, s.handleMyBooks))
		r.Get("/profile", s.requireRole(domain.RoleStudent, s.handleProfile))
	})

	s.router.Group(func(r chi.Router) {
		r.Use(guard.RequireRole(domain.RoleLibrarian, http.HandlerFunc(s.handleForbidden)))

		r.Post("/books", s.handleCreateBook)
		r.Post("/books/{id}", s.handleUpdateBook)
		r.Post("/books/{id}/delete", s.handleDeleteBook)

		r.Get("/students", s.handleStudents)
		r.Post("/students", s.handleCreateStudent)
		r.Post("/students/{id}", s.handleUpdateStudent)
		r.Post("/students/{id}/delete", s.handleDeleteStudent)

		r.Get("/issues", s.handleIssues)
		r.Post("/issues/confirm", s.handleConfirmIssue)
		r.Post("/issues/{id}/{action}", s.handleTransitionIssue)
	})

	s.setupAPI()
}

// requireRole wraps a single handler in guard.RequireRole.
func (s *Server) requireRole(role domain.Role, h http.HandlerFunc) http.HandlerFunc {
	return guard.RequireRole(role, http.HandlerFunc(s.handleForbidden))(h).ServeHTTP
}

// resolveEventSession scopes /events to the requesting browser.
func (s *Server) resolveEventSession(r *http.Request) (string, bool) {
	id := BrowserID(r.Context())
	return id, id != ""
}

// workspace returns the view models of the signed-in session.
func (s *Server) workspace(r *http.Request) *viewmodel.Workspace {
	return s.workspaces.Workspace(guard.FromContext(r.Context()))
}

// notify tells this browser's other tabs that list changed.
func (s *Server) notify(r *http.Request, list string) {
	if s.events != nil {
		s.events.ListChanged(BrowserID(r.Context()), list)
	}
}
