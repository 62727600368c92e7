package auth

import (
	"strings"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/common/validation"
)

// LoginDTO is the login form.
type LoginDTO struct {
	StaffID  string
	Password string
}

// Validate checks required fields and returns a validation AppError on failure.
func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("staffId", strings.TrimSpace(d.StaffID)).
		RequiredWithMessage("Please enter Staff ID", internal.ErrCodeMissingStaffID)
	v.Field("password", d.Password).
		RequiredWithMessage("Please enter your password", internal.ErrCodeMissingField)
	return v.Validate()
}

// LoginView is the data of the login page.
type LoginView struct {
	StaffID string
	Error   string
}
