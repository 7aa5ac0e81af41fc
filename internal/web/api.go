package web

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	domainerrors "github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/nav"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			var domainErr *domainerrors.Error
			if errors.As(err, &domainErr) {
				return &APIError{
					status:  domainErr.HTTPStatus(),
					Code:    string(domainErr.Code),
					Message: domainErr.Message,
					Details: domainErr.Details,
				}
			}
		}

		return &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
	}
}

// statusToCode maps HTTP status codes to our domain error codes.
func statusToCode(status int) string {
	if status >= 500 {
		return string(domainerrors.CodeInternal)
	}
	return string(domainerrors.CodeForStatus(status))
}

// setupAPI mounts the JSON endpoints under /api/v1 with CORS.
func (s *Server) setupAPI() {
	s.router.Route("/api/v1", func(r chi.Router) {
		origins := s.cfg.AllowedOrigins
		r.Use(cors.Handler(cors.Options{
			// An empty list allows no cross-origin callers.
			AllowOriginFunc: func(_ *http.Request, origin string) bool {
				return slices.Contains(origins, origin)
			},
			AllowedMethods:   []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", csrfHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))

		humaConfig := huma.DefaultConfig("LibraryHub Web API", s.cfg.Version)
		humaConfig.Servers = []*huma.Server{{URL: "/api/v1"}}
		humaConfig.DocsPath = ""
		s.api = humachi.New(r, humaConfig)
		RegisterErrorHandler()

		s.registerHealthRoutes()
		s.registerSessionRoutes()
	})
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Version    string                     `json:"version,omitempty" doc:"Server version"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"sessions": s.checkSessionStore(ctx),
		"sse":      s.checkSSEManager(),
	}

	overall := "healthy"
	for _, c := range components {
		switch {
		case c.Status == "unhealthy":
			overall = "unhealthy"
		case c.Status == "degraded" && overall == "healthy":
			overall = "degraded"
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Version:    s.cfg.Version,
			Components: components,
		},
	}, nil
}

// checkSessionStore verifies the session database is readable.
func (s *Server) checkSessionStore(ctx context.Context) ComponentHealth {
	if s.sessionStore == nil {
		return ComponentHealth{Status: "degraded", Message: "session store not configured"}
	}

	start := time.Now()
	n, err := s.sessionStore.CountSessions(ctx)
	latency := time.Since(start)
	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "session store read failed",
		}
	}
	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
		Message: pluralize(n, "stored session"),
	}
}

// checkSSEManager reports the number of connected event streams.
func (s *Server) checkSSEManager() ComponentHealth {
	if s.events == nil {
		return ComponentHealth{Status: "degraded", Message: "SSE manager not configured"}
	}
	return ComponentHealth{
		Status:  "healthy",
		Message: pluralize(s.events.ClientCount(), "connected client"),
	}
}

func pluralize(n int, noun string) string {
	switch n {
	case 0:
		return "no " + noun + "s"
	case 1:
		return "1 " + noun
	default:
		return strconv.Itoa(n) + " " + noun + "s"
	}
}

func (s *Server) registerSessionRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getSession",
		Method:      http.MethodGet,
		Path:        "/session",
		Summary:     "Current session",
		Description: "Returns who the browser is signed in as and the menu their role sees",
		Tags:        []string{"Session"},
	}, s.handleGetSession)
}

// MenuItem is one navigation entry.
type MenuItem struct {
	Label string `json:"label"`
	Href  string `json:"href"`
	Post  bool   `json:"post,omitempty" doc:"Entry must be submitted as a form"`
}

// SessionResponse describes the browser's session. The token is never exposed.
type SessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Role          string     `json:"role,omitempty"`
	RoleName      string     `json:"roleName"`
	Name          string     `json:"name,omitempty"`
	RollNo        string     `json:"rollNo,omitempty"`
	CSRFToken     string     `json:"csrfToken" doc:"Token for X-CSRF-Token on state-changing requests"`
	Menu          []MenuItem `json:"menu"`
}

// SessionOutput wraps the session response for Huma.
type SessionOutput struct {
	Body SessionResponse
}

func (s *Server) handleGetSession(ctx context.Context, _ *struct{}) (*SessionOutput, error) {
	sess := session.FromContext(ctx)
	role := sess.RoleOrNone()

	out := SessionResponse{
		Authenticated: sess.Authenticated(),
		Role:          string(role),
		RoleName:      nav.RoleName(role),
		CSRFToken:     s.csrf.Token(BrowserID(ctx)),
	}
	if out.Authenticated {
		out.Name = sess.Name
		out.RollNo = sess.RollNo
	}
	for _, it := range nav.Menu(role, "") {
		out.Menu = append(out.Menu, MenuItem{Label: it.Label, Href: it.Href, Post: it.Post})
	}
	return &SessionOutput{Body: out}, nil
}
