package cpd

// Staff is a directory entry from getStaffDetails / getStaffByDepartment.
type Staff struct {
	StaffID     Text   `json:"staffId"`
	Name        string `json:"name"`
	Department  string `json:"department"`
	Unit        string `json:"unit"`
	Designation string `json:"designation"`
	Email       string `json:"email"`
	Phone       Text   `json:"phone"`
}

// ProfileUpdate carries the editable profile fields for updateProfile.
type ProfileUpdate struct {
	StaffID     string `form:"staffId" validate:"required"`
	Name        string `form:"name" validate:"required,max=120"`
	Designation string `form:"designation" validate:"max=120"`
	Email       string `form:"email" validate:"omitempty,email"`
	Phone       string `form:"phone" validate:"max=30"`
}
