package remoteapi

import (
	"context"
	"net/url"
	"strconv"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

func (c *Client) malformed(ctx context.Context, action Action, err error) error {
	return c.fail(ctx, action, internal.NewExternalError("Unexpected response from the CPD service", internal.ErrCodeMalformedResponse, err))
}

// Login exchanges credentials for the user record to persist.
func (c *Client) Login(ctx context.Context, staffID, password string) (*session.User, error) {
	env, err := c.Post(ctx, ActionLogin, url.Values{
		"staffId":  {staffID},
		"password": {password},
	})
	if err != nil {
		return nil, err
	}

	var wire loginUser
	if err := env.Field("user", &wire); err != nil {
		return nil, c.malformed(ctx, ActionLogin, err)
	}
	user := wire.toSession()
	if user.StaffID == "" {
		user.StaffID = staffID
	}
	return user, nil
}

// loginUser tolerates spreadsheet cells that arrive as numbers.
type loginUser struct {
	StaffID     cpd.Text        `json:"staffId"`
	Name        string          `json:"name"`
	Designation string          `json:"designation"`
	Department  string          `json:"department"`
	Email       string          `json:"email"`
	Phone       cpd.Text        `json:"phone"`
	Role        string          `json:"role"`
	Permissions map[string]bool `json:"permissions"`
}

func (u loginUser) toSession() *session.User {
	return &session.User{
		StaffID:     u.StaffID.String(),
		Name:        u.Name,
		Designation: u.Designation,
		Department:  u.Department,
		Email:       u.Email,
		Phone:       u.Phone.String(),
		Role:        session.Role(u.Role),
		Permissions: u.Permissions,
	}
}

func (c *Client) UpcomingEvents(ctx context.Context) ([]cpd.Event, error) {
	env, err := c.Get(ctx, ActionGetUpcomingEvents, nil)
	if err != nil {
		return nil, err
	}

	var events []cpd.Event
	if err := env.Field("events", &events); err != nil {
		return nil, c.malformed(ctx, ActionGetUpcomingEvents, err)
	}
	return events, nil
}

// RegisterStaff returns the backend's confirmation message, possibly empty.
func (c *Client) RegisterStaff(ctx context.Context, eventID, staffID string) (string, error) {
	env, err := c.Post(ctx, ActionRegisterStaff, url.Values{
		"eventId": {eventID},
		"staffId": {staffID},
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// DashboardData fetches analytics; an empty year means the backend default.
func (c *Client) DashboardData(ctx context.Context, year string) (*cpd.Dashboard, error) {
	params := url.Values{}
	if year != "" {
		params.Set("year", year)
	}
	env, err := c.Get(ctx, ActionGetDashboardData, params)
	if err != nil {
		return nil, err
	}

	var payload cpd.Dashboard
	if err := env.Into(&payload); err != nil {
		return nil, c.malformed(ctx, ActionGetDashboardData, err)
	}
	return &payload, nil
}

// StaffDetails returns nil without error when the backend has no such staff.
func (c *Client) StaffDetails(ctx context.Context, staffID string) (*cpd.Staff, error) {
	env, err := c.Get(ctx, ActionGetStaffDetails, url.Values{"staffId": {staffID}})
	if err != nil {
		return nil, err
	}
	if !env.Has("staff") {
		return nil, nil
	}

	var staff cpd.Staff
	if err := env.Field("staff", &staff); err != nil {
		return nil, c.malformed(ctx, ActionGetStaffDetails, err)
	}
	return &staff, nil
}

func (c *Client) StaffByDepartment(ctx context.Context, department string) ([]cpd.Staff, error) {
	env, err := c.Get(ctx, ActionGetStaffByDepartment, url.Values{"department": {department}})
	if err != nil {
		return nil, err
	}

	var staff []cpd.Staff
	if err := env.Field("staff", &staff); err != nil {
		return nil, c.malformed(ctx, ActionGetStaffByDepartment, err)
	}
	return staff, nil
}

func (c *Client) BoardOfLeaders(ctx context.Context) ([]cpd.Leader, error) {
	env, err := c.Get(ctx, ActionGetBoardOfLeaders, nil)
	if err != nil {
		return nil, err
	}

	var leaders []cpd.Leader
	if err := env.Field("leaders", &leaders); err != nil {
		return nil, c.malformed(ctx, ActionGetBoardOfLeaders, err)
	}
	return leaders, nil
}

func (c *Client) Announcements(ctx context.Context) ([]cpd.Announcement, error) {
	env, err := c.Get(ctx, ActionGetAnnouncements, nil)
	if err != nil {
		return nil, err
	}

	var announcements []cpd.Announcement
	if err := env.Field("announcements", &announcements); err != nil {
		return nil, c.malformed(ctx, ActionGetAnnouncements, err)
	}
	return announcements, nil
}

func (c *Client) UpdateProfile(ctx context.Context, update cpd.ProfileUpdate) (string, error) {
	env, err := c.Post(ctx, ActionUpdateProfile, url.Values{
		"staffId":     {update.StaffID},
		"name":        {update.Name},
		"designation": {update.Designation},
		"email":       {update.Email},
		"phone":       {update.Phone},
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// CreateEvent returns the new event's ID when the backend reports one.
func (c *Client) CreateEvent(ctx context.Context, draft cpd.EventDraft, createdBy string) (string, error) {
	env, err := c.Post(ctx, ActionCreateEvent, url.Values{
		"eventName":   {draft.EventName},
		"eventDate":   {draft.EventDate},
		"duration":    {draft.Duration},
		"venue":       {draft.Venue},
		"facilitator": {draft.Facilitator},
		"department":  {draft.Department},
		"unit":        {draft.Unit},
		"description": {draft.Description},
		"maxCapacity": {strconv.Itoa(draft.MaxCapacity)},
		"createdBy":   {createdBy},
	})
	if err != nil {
		return "", err
	}

	var eventID cpd.Text
	if err := env.Field("eventId", &eventID); err != nil {
		return "", c.malformed(ctx, ActionCreateEvent, err)
	}
	return eventID.String(), nil
}

func (c *Client) CreateAnnouncement(ctx context.Context, draft cpd.AnnouncementDraft, createdBy string) error {
	_, err := c.Post(ctx, ActionCreateAnnouncement, url.Values{
		"title":      {draft.Title},
		"message":    {draft.Message},
		"priority":   {draft.Priority},
		"expiryDate": {draft.ExpiryDate},
		"createdBy":  {createdBy},
	})
	return err
}
