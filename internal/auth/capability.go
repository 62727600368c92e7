package auth

import (
	"log/slog"
	"strings"

	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

// Capability is one thing a signed-in user may be allowed to do.
type Capability uint8

const (
	ViewDashboard Capability = iota
	ViewCalendar
	ViewLeaders
	Register
	DepartmentRestricted
	ManageContent
)

var AllCapabilities = []Capability{
	ViewDashboard,
	ViewCalendar,
	ViewLeaders,
	Register,
	DepartmentRestricted,
	ManageContent,
}

func (c Capability) String() string {
	switch c {
	case ViewDashboard:
		return "view_dashboard"
	case ViewCalendar:
		return "view_calendar"
	case ViewLeaders:
		return "view_leaders"
	case Register:
		return "register"
	case DepartmentRestricted:
		return "department_restricted"
	case ManageContent:
		return "manage_content"
	default:
		return "unknown"
	}
}

// backendKeys maps the keys of the login payload's permissions object.
// ManageContent is role-only and has no backend key.
var backendKeys = map[string]Capability{
	"canViewDashboard":     ViewDashboard,
	"canViewCalendar":      ViewCalendar,
	"canViewLeaders":       ViewLeaders,
	"canRegister":          Register,
	"departmentRestricted": DepartmentRestricted,
}

// CapabilityFromKey resolves a backend permission key.
func CapabilityFromKey(key string) (Capability, bool) {
	c, ok := backendKeys[key]
	return c, ok
}

// PermissionSet is a bitset of capabilities.
type PermissionSet uint32

func NewPermissionSet(caps ...Capability) PermissionSet {
	var p PermissionSet
	for _, c := range caps {
		p = p.With(c)
	}
	return p
}

func (p PermissionSet) Has(c Capability) bool {
	return p&(1<<c) != 0
}

func (p PermissionSet) With(c Capability) PermissionSet {
	return p | (1 << c)
}

func (p PermissionSet) Without(c Capability) PermissionSet {
	return p &^ (1 << c)
}

func (p PermissionSet) Capabilities() []Capability {
	var out []Capability
	for _, c := range AllCapabilities {
		if p.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (p PermissionSet) String() string {
	caps := p.Capabilities()
	names := make([]string, len(caps))
	for i, c := range caps {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// RoleCapabilities holds the default set of every role.
var RoleCapabilities = map[session.Role]PermissionSet{
	session.RoleAdmin:     NewPermissionSet(ViewDashboard, ViewCalendar, ViewLeaders, Register, ManageContent),
	session.RoleModerator: NewPermissionSet(ViewDashboard, ViewCalendar, ViewLeaders, Register),
	session.RoleLeader:    NewPermissionSet(ViewCalendar, ViewLeaders, Register, DepartmentRestricted),
	session.RoleUser:      NewPermissionSet(ViewCalendar, ViewLeaders),
}

// DefaultsFor returns the role's default set. Unknown roles get the User set.
func DefaultsFor(role session.Role) PermissionSet {
	if set, ok := RoleCapabilities[role]; ok {
		return set
	}
	return RoleCapabilities[session.RoleUser]
}

// Derive computes the effective permission set of a user: role defaults,
// then each known backend key overrides its capability.
func Derive(user *session.User) PermissionSet {
	return DeriveWithLogger(user, nil)
}

func DeriveWithLogger(user *session.User, logger *slog.Logger) PermissionSet {
	if user == nil {
		return 0
	}
	set := DefaultsFor(user.Role)
	for key, granted := range user.Permissions {
		c, ok := CapabilityFromKey(key)
		if !ok {
			if logger != nil {
				logger.Debug("ignoring unknown permission key", "key", key, "staff_id", user.StaffID)
			}
			continue
		}
		if granted {
			set = set.With(c)
		} else {
			set = set.Without(c)
		}
	}
	return set
}
