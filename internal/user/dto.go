package user

import (
	"net/url"
	"strings"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
)

func UpdateFromForm(form url.Values) cpd.ProfileUpdate {
	return cpd.ProfileUpdate{
		Name:        strings.TrimSpace(form.Get("name")),
		Designation: strings.TrimSpace(form.Get("designation")),
		Email:       strings.TrimSpace(form.Get("email")),
		Phone:       strings.TrimSpace(form.Get("phone")),
	}
}

// ProfilePage is the data of the profile page.
type ProfilePage struct {
	Profile *Profile
	Errors  map[string]string
	Error   string
	Saved   string
}
