package cpd

// Event is one row of the events sheet as returned by getUpcomingEvents.
type Event struct {
	EventID              Text   `json:"eventId"`
	EventName            string `json:"eventName"`
	EventDate            Text   `json:"eventDate"`
	Duration             Text   `json:"duration"`
	Venue                string `json:"venue"`
	Facilitator          string `json:"facilitator"`
	Department           string `json:"department"`
	Unit                 string `json:"unit"`
	Description          string `json:"description"`
	ApprovalStatus       string `json:"approvalStatus"`
	MaxCapacity          Number `json:"maxCapacity"`
	CurrentRegistrations Number `json:"currentRegistrations"`
}

// EventDraft is the createEvent form payload.
type EventDraft struct {
	EventName   string `form:"eventName" validate:"required,max=200"`
	EventDate   string `form:"eventDate" validate:"required,datetime=2006-01-02"`
	Duration    string `form:"duration" validate:"required"`
	Venue       string `form:"venue" validate:"required"`
	Facilitator string `form:"facilitator" validate:"required"`
	Department  string `form:"department" validate:"required"`
	Unit        string `form:"unit"`
	Description string `form:"description" validate:"max=2000"`
	MaxCapacity int    `form:"maxCapacity" validate:"min=1,max=1000"`
}
