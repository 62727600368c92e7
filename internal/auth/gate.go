package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

// LoginPath is where a request without a session is sent.
const LoginPath = "/login"

// Section is a gated part of the portal.
type Section string

const (
	SectionDashboard    Section = "dashboard"
	SectionCalendar     Section = "calendar"
	SectionLeaders      Section = "leaders"
	SectionRegistration Section = "registration"
)

var GatedSections = []Section{SectionDashboard, SectionCalendar, SectionLeaders, SectionRegistration}

// Capability is the capability that reveals the section.
func (s Section) Capability() Capability {
	switch s {
	case SectionDashboard:
		return ViewDashboard
	case SectionCalendar:
		return ViewCalendar
	case SectionLeaders:
		return ViewLeaders
	default:
		return Register
	}
}

func (s Section) Title() string {
	switch s {
	case SectionDashboard:
		return "Dashboard"
	case SectionCalendar:
		return "Calendar"
	case SectionLeaders:
		return "Board of Leaders"
	default:
		return "Registration"
	}
}

// Visibility is the pure projection of a user's permission set onto the UI.
type Visibility struct {
	User               *session.User
	Permissions        PermissionSet
	Sections           map[Section]bool
	Nav                map[Section]bool
	DepartmentBanner   string
	ShowCreateActions  bool
	RegistrationNotice string
	RoleBadge          string
	Welcome            string
}

func (v *Visibility) Shows(s Section) bool {
	return v != nil && v.Sections[s]
}

func (v *Visibility) Can(c Capability) bool {
	return v != nil && v.Permissions.Has(c)
}

// Project builds the visibility for a user and derived permission set.
func Project(user *session.User, perms PermissionSet) *Visibility {
	v := &Visibility{
		User:        user,
		Permissions: perms,
		Sections:    make(map[Section]bool, len(GatedSections)),
		Nav:         make(map[Section]bool, len(GatedSections)),
		RoleBadge:   RoleBadgeClass(user.Role),
		Welcome:     fmt.Sprintf("Welcome, %s", user.Name),
	}
	for _, s := range GatedSections {
		shown := perms.Has(s.Capability())
		v.Sections[s] = shown
		v.Nav[s] = shown
	}
	if perms.Has(DepartmentRestricted) {
		v.DepartmentBanner = fmt.Sprintf("You can only register staff from your department: %s", user.Department)
	}
	if !perms.Has(Register) {
		v.RegistrationNotice = "You do not have permission to register for events. Contact your administrator if you need access."
	}
	v.ShowCreateActions = user.Role == session.RoleAdmin && perms.Has(ManageContent)
	return v
}

// RoleBadgeClass is the badge colour of a role.
func RoleBadgeClass(role session.Role) string {
	switch role {
	case session.RoleAdmin:
		return "bg-danger"
	case session.RoleModerator:
		return "bg-info"
	case session.RoleLeader:
		return "bg-primary"
	default:
		return "bg-secondary"
	}
}

// Decision is either a redirect (no session) or the visibility to render.
type Decision struct {
	Redirect   string
	Visibility *Visibility
}

type SessionLoader interface {
	Load(ctx context.Context) (*session.User, bool)
}

// Gate decides what a browser profile may see.
type Gate struct {
	sessions SessionLoader
	logger   *slog.Logger
}

func NewGate(sessions SessionLoader, logger *slog.Logger) *Gate {
	return &Gate{sessions: sessions, logger: logger}
}

// Initialize loads the session and projects it. Without a session the only
// outcome is a redirect to the login page.
func (g *Gate) Initialize(ctx context.Context) Decision {
	user, ok := g.sessions.Load(ctx)
	if !ok {
		return Decision{Redirect: LoginPath}
	}
	perms := DeriveWithLogger(user, g.logger)
	return Decision{Visibility: Project(user, perms)}
}

// AccessDenied describes the panel shown in place of a section the user's
// role cannot open.
type AccessDenied struct {
	Section string
	Role    session.Role
	Message string
}

func NewAccessDenied(section string, role session.Role) AccessDenied {
	return AccessDenied{
		Section: section,
		Role:    role,
		Message: fmt.Sprintf("You do not have permission to access %s.", section),
	}
}
