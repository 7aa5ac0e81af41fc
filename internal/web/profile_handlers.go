package web

import (
	"net/http"

	"github.com/libraryhub/libraryhub-web/internal/apiclient"
	"github.com/libraryhub/libraryhub-web/internal/domain"
	"github.com/libraryhub/libraryhub-web/internal/guard"
	"github.com/libraryhub/libraryhub-web/internal/nav"
)

// historyContent is the data of the my-books and profile pages.
type historyContent struct {
	Student domain.Student
	Cards   []IssueCard
	Loaded  bool
	// SessionExpires is when the library service token runs out, if it says.
	SessionExpires string
}

func (s *Server) handleMyBooks(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)

	err := ws.MyBooks.Load(r.Context())
	if s.expired(w, r, err, nav.PathMyBooks) {
		return
	}
	s.logFailure(r, "load my books", err)

	p := s.newPage(w, r, "My Books", nav.PathMyBooks)
	p.setError(err)

	state := ws.MyBooks.State()
	p.Content = historyContent{
		Cards:  s.issueCards(state.Items, p),
		Loaded: state.Loaded,
	}
	s.render(w, r, http.StatusOK, "my_books", p)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	ws := s.workspace(r)

	err := ws.Profile.Load(r.Context())
	if s.expired(w, r, err, nav.PathProfile) {
		return
	}
	s.logFailure(r, "load profile", err)

	p := s.newPage(w, r, "Profile", nav.PathProfile)
	p.setError(err)

	state := ws.Profile.History.State()
	content := historyContent{
		Student: ws.Profile.Student(),
		Cards:   s.issueCards(state.Items, p),
		Loaded:  state.Loaded,
	}
	if claims, ok := apiclient.TokenClaims(guard.FromContext(r.Context()).Token); ok && !claims.ExpiresAt.IsZero() {
		content.SessionExpires = claims.ExpiresAt.Local().Format("2 Jan 2006 15:04")
	}
	p.Content = content
	s.render(w, r, http.StatusOK, "profile", p)
}

func (s *Server) issueCards(items []domain.Issue, p *Page) []IssueCard {
	now := s.now()
	cards := make([]IssueCard, 0, len(items))
	for _, i := range items {
		c := NewIssueCard(i, p.Role, RowState{}, now)
		c.CSRF = p.CSRF
		cards = append(cards, c)
	}
	return cards
}
