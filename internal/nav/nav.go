// Package nav decides which navigation entries and page controls a role sees.
//
// This is presentation only. The library service enforces authorization on
// every call regardless of what is rendered here.
package nav

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/libraryhub/libraryhub-web/internal/domain"
)

// Item is one navigation entry.
type Item struct {
	Label  string
	Href   string
	Active bool
	// Post marks entries that must be submitted as a form (logout).
	Post bool
}

// Paths of the pages the menu links to.
const (
	PathHome      = "/"
	PathLogin     = "/login"
	PathRegister  = "/register"
	PathLogout    = "/logout"
	PathBooks     = "/books"
	PathMyBooks   = "/my-books"
	PathProfile   = "/profile"
	PathStudents  = "/students"
	PathIssueDesk = "/issues?view=active"
	PathRequests  = "/issues?view=pending"
)

var (
	anonymousMenu = []Item{
		{Label: "Home", Href: PathHome},
		{Label: "Login", Href: PathLogin},
		{Label: "Register", Href: PathRegister},
	}
	studentMenu = []Item{
		{Label: "Books", Href: PathBooks},
		{Label: "My Books", Href: PathMyBooks},
		{Label: "Profile", Href: PathProfile},
		{Label: "Logout", Href: PathLogout, Post: true},
	}
	librarianMenu = []Item{
		{Label: "Books", Href: PathBooks},
		{Label: "Students", Href: PathStudents},
		{Label: "Issue Desk", Href: PathIssueDesk},
		{Label: "Requests", Href: PathRequests},
		{Label: "Logout", Href: PathLogout, Post: true},
	}
)

// Menu returns the ordered entries for role with the one matching active
// marked. An unknown role gets the anonymous menu.
func Menu(role domain.Role, active string) []Item {
	var base []Item
	switch role {
	case domain.RoleStudent:
		base = studentMenu
	case domain.RoleLibrarian:
		base = librarianMenu
	default:
		base = anonymousMenu
	}

	items := make([]Item, len(base))
	for i, it := range base {
		it.Active = it.Href == active
		items[i] = it
	}
	return items
}

// Capability is a UI affordance gated by role.
type Capability string

// Capabilities.
const (
	CapManageBooks    Capability = "manage_books"
	CapManageStudents Capability = "manage_students"
	CapRequestBook    Capability = "request_book"
	CapReviewRequests Capability = "review_requests"
	CapViewProfile    Capability = "view_profile"
)

// Can reports whether controls for c are shown to role.
func Can(role domain.Role, c Capability) bool {
	switch c {
	case CapManageBooks, CapManageStudents, CapReviewRequests:
		return role == domain.RoleLibrarian
	case CapRequestBook, CapViewProfile:
		return role == domain.RoleStudent
	default:
		return false
	}
}

// RoleName is the display form of role ("Librarian"), or "Guest".
func RoleName(role domain.Role) string {
	if !role.Valid() {
		return "Guest"
	}
	// A Caser is stateful, so one is built per call.
	return cases.Title(language.English).String(string(role))
}

// Home is where role lands after login.
func Home(role domain.Role) string {
	switch role {
	case domain.RoleLibrarian:
		return PathRequests
	case domain.RoleStudent:
		return PathBooks
	default:
		return PathHome
	}
}
