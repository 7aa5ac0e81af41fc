// Package guard keeps anonymous visitors out of protected pages.
//
// The check is token presence only. Whether the token is still accepted is
// decided by the library service on each call; a 401 from it clears the
// session (see Unauthorized).
package guard

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

// LoginPath is where anonymous visitors are sent.
const LoginPath = "/login"

// Decision is the outcome of a guard check.
type Decision int

// Decisions.
const (
	RedirectToLogin Decision = iota
	Allow
)

// Decide allows s if it carries a token.
func Decide(s *session.Session) Decision {
	if s.Authenticated() {
		return Allow
	}
	return RedirectToLogin
}

// FromContext returns the session admitted by Require.
func FromContext(ctx context.Context) *session.Session {
	return session.FromContext(ctx)
}

// Require redirects to the login page, before next writes anything, unless
// the request context carries an authenticated session.
func Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Decide(session.FromContext(r.Context())) != Allow {
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole serves forbidden instead of next when the session's role is
// not role. It only spares users a page that cannot work for them; the
// library service still authorizes every call.
func RequireRole(role domain.Role, forbidden http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session.FromContext(r.Context()).RoleOrNone() != role {
				forbidden.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// LoginURL returns the login page URL that returns to next afterwards.
func LoginURL(next string) string {
	next = SafeNext(next)
	if next == "" || next == "/" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// SafeNext returns next if it is a path on this site, else "".
func SafeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	if u.Path == LoginPath {
		return ""
	}
	return next
}

// Unauthorized reports whether err means the library service no longer
// accepts the session's token.
func Unauthorized(err error) bool {
	return errors.Is(err, errors.ErrUnauthorized)
}
