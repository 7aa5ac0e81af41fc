package web

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/http/response"
	"github.com/libraryhub/libraryhub-web/internal/id"
	"github.com/libraryhub/libraryhub-web/internal/logger"
	"github.com/libraryhub/libraryhub-web/internal/ratelimit"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

// CSRF form field and header names.
const (
	csrfField  = "csrf_token"
	csrfHeader = "X-CSRF-Token"
)

const maxFormBytes = 1 << 20

type browserKey struct{}

// BrowserID returns the cookie-bound ID of the requesting browser. Every
// request past the session middleware has one, signed in or not.
func BrowserID(ctx context.Context) string {
	v, _ := ctx.Value(browserKey{}).(string)
	return v
}

// requestContext copies chi's request ID into the logger context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logger.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// accessLog logs one line per request through slog.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		switch {
		case status >= 500:
			level = slog.LevelError
		case r.URL.Path == "/events":
			level = slog.LevelDebug
		}
		s.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", getClientIP(r),
		)
	})
}

// loadSession binds the request to a browser ID from the signed cookie,
// issuing a new one when the cookie is missing or invalid, and attaches the
// stored session if there is one.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		browserID := ""
		if c, err := r.Cookie(s.cfg.CookieName); err == nil {
			claims, err := s.cookies.Decode(c.Value)
			if err == nil {
				browserID = claims.SessionID()
			} else {
				s.logger.DebugContext(ctx, "rejected session cookie", "error", err)
			}
		}

		if browserID == "" {
			newID, err := id.NewSessionID()
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to issue browser id", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			if err := s.setSessionCookie(w, newID); err != nil {
				s.logger.ErrorContext(ctx, "failed to set session cookie", "error", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}
			browserID = newID
		}

		ctx = context.WithValue(ctx, browserKey{}, browserID)
		ctx = logger.WithSessionID(ctx, browserID)

		sess, err := s.sessions.Load(ctx, browserID)
		switch {
		case err == nil:
			ctx = session.WithSession(ctx, sess)
		case !errors.Is(err, session.ErrNotFound):
			s.logger.WarnContext(ctx, "failed to load session", "error", err)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// setSessionCookie writes the signed cookie carrying browserID.
func (s *Server) setSessionCookie(w http.ResponseWriter, browserID string) error {
	value, err := s.cookies.Encode(browserID)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.cookies.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// verifyCSRF rejects state-changing requests whose token was not issued for
// this browser.
func (s *Server) verifyCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
		token := r.Header.Get(csrfHeader)
		if token == "" {
			token = r.PostFormValue(csrfField)
		}

		if !s.csrf.Verify(BrowserID(r.Context()), token) {
			s.logger.WarnContext(r.Context(), "csrf check failed", "path", r.URL.Path)
			if response.WantsJSON(r) {
				response.Forbidden(w, msgFormExpired, s.logger)
				return
			}
			s.renderError(w, r, http.StatusForbidden, msgFormExpired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limitByIP rate limits requests by client IP and answers 429 when the
// limit is exceeded.
func (s *Server) limitByIP(limiter *ratelimit.KeyedRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := getClientIP(r)
			if !limiter.Allow(key) {
				s.logger.WarnContext(r.Context(), "Rate limit exceeded", "ip", key, "path", r.URL.Path)
				if response.WantsJSON(r) {
					response.TooManyRequests(w, msgTooManyAttempts, s.logger)
					return
				}
				w.Header().Set("Retry-After", "60")
				s.renderError(w, r, http.StatusTooManyRequests, msgTooManyAttempts)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// getClientIP extracts the client IP from RemoteAddr. Forwarded headers
// only count when middleware.RealIP has already rewritten RemoteAddr.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
