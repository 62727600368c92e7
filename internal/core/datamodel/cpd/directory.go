package cpd

type Leader struct {
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Department  string `json:"department"`
	Email       string `json:"email"`
	Phone       Text   `json:"phone"`
}

type Announcement struct {
	Title       string `json:"title"`
	Message     string `json:"message"`
	Priority    string `json:"priority"`
	CreatedDate Text   `json:"createdDate"`
	ExpiryDate  Text   `json:"expiryDate"`
}

// AnnouncementDraft is the createAnnouncement form payload.
type AnnouncementDraft struct {
	Title      string `form:"title" validate:"required,max=200"`
	Message    string `form:"message" validate:"required,max=5000"`
	Priority   string `form:"priority" validate:"required,oneof=High Medium Normal Low"`
	ExpiryDate string `form:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
}
