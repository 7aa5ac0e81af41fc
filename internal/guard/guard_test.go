package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/errors"
	"github.com/libraryhub/libraryhub-web/internal/session"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("protected content"))
})

var forbiddenHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte("not for you"))
})

func request(path string, s *session.Session) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if s != nil {
		req = req.WithContext(session.WithSession(req.Context(), s))
	}
	return req
}

func TestDecide(t *testing.T) {
	assert.Equal(t, RedirectToLogin, Decide(nil))
	assert.Equal(t, RedirectToLogin, Decide(&session.Session{Role: domain.RoleStudent}))
	assert.Equal(t, Allow, Decide(&session.Session{Token: "abc"}))
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name         string
		session      *session.Session
		wantStatus   int
		wantLocation string
	}{
		{
			name:         "no session",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?next=%2Fbooks%3Fsearch%3Ddune",
		},
		{
			name:         "empty token",
			session:      &session.Session{ID: "ses-1", Name: "Ann"},
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/login?next=%2Fbooks%3Fsearch%3Ddune",
		},
		{
			name:       "token present",
			session:    &session.Session{ID: "ses-1", Token: "abc", Role: domain.RoleStudent},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Require(okHandler).ServeHTTP(rec, request("/books?search=dune", tt.session))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			if tt.wantStatus != http.StatusOK {
				assert.NotContains(t, rec.Body.String(), "protected content")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	mw := RequireRole(domain.RoleLibrarian, forbiddenHandler)

	rec := httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, request("/students", &session.Session{Token: "abc", Role: domain.RoleStudent}))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, request("/students", &session.Session{Token: "abc", Role: domain.RoleLibrarian}))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mw(okHandler).ServeHTTP(rec, request("/students", nil))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"/books":               "/books",
		"/issues?view=active":  "/issues?view=active",
		"":                     "",
		"books":                "",
		"//evil.example":       "",
		"/\\evil.example":      "",
		"https://evil.example": "",
		"/login":               "",
	}
	for in, want := range tests {
		assert.Equal(t, want, SafeNext(in), in)
	}
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", LoginURL("/"))
	assert.Equal(t, "/login", LoginURL("https://evil.example/"))
	assert.Equal(t, "/login?next=%2Fprofile", LoginURL("/profile"))
}

func TestUnauthorized(t *testing.T) {
	assert.True(t, Unauthorized(errors.Business(http.StatusUnauthorized, "expired")))
	assert.False(t, Unauthorized(errors.Business(http.StatusForbidden, "nope")))
	assert.False(t, Unauthorized(nil))
}
