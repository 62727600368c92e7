package user

import (
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

// Profile is the signed-in user as shown on the profile page.
type Profile struct {
	StaffID     string       `json:"staffId"`
	Name        string       `json:"name"`
	Designation string       `json:"designation"`
	Department  string       `json:"department"`
	Email       string       `json:"email"`
	Phone       string       `json:"phone"`
	Role        session.Role `json:"role"`
}

func FromSession(u *session.User) *Profile {
	return &Profile{
		StaffID:     u.StaffID,
		Name:        u.Name,
		Designation: u.Designation,
		Department:  u.Department,
		Email:       u.Email,
		Phone:       u.Phone,
		Role:        u.Role,
	}
}

// ToUpdate is the editable part of a profile. Staff ID, department and role
// are owned by the backend.
func (p *Profile) ToUpdate() cpd.ProfileUpdate {
	return cpd.ProfileUpdate{
		StaffID:     p.StaffID,
		Name:        p.Name,
		Designation: p.Designation,
		Email:       p.Email,
		Phone:       p.Phone,
	}
}

// apply mutates the stored record in place with an acknowledged update.
func apply(u *session.User, update cpd.ProfileUpdate) {
	u.Name = update.Name
	u.Designation = update.Designation
	u.Email = update.Email
	u.Phone = update.Phone
}
