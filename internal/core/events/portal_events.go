package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeRegistrationSucceeded = "registration.succeeded"
	EventTypeEventCreated          = "catalog.event_created"
	EventTypeAnnouncementCreated   = "directory.announcement_created"
)

type RegistrationSucceededEvent struct {
	BaseEvent
	ProfileID  string `json:"profile_id"`
	CPDEventID string `json:"event_id"`
	EventName  string `json:"event_name"`
	StaffID    string `json:"staff_id"`
	StaffName  string `json:"staff_name"`
	StaffEmail string `json:"staff_email"`
}

func NewRegistrationSucceededEvent(profileID, eventID, eventName, staffID, staffName, staffEmail string) *RegistrationSucceededEvent {
	return &RegistrationSucceededEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRegistrationSucceeded,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"profile_id": profileID,
				"event_id":   eventID,
				"staff_id":   staffID,
			},
		},
		ProfileID:  profileID,
		CPDEventID: eventID,
		EventName:  eventName,
		StaffID:    staffID,
		StaffName:  staffName,
		StaffEmail: staffEmail,
	}
}

type ContentCreatedEvent struct {
	BaseEvent
	ResourceID string `json:"resource_id"`
	Title      string `json:"title"`
	CreatedBy  string `json:"created_by"`
}

func NewEventCreatedEvent(eventID, name, createdBy string) *ContentCreatedEvent {
	return newContentCreated(EventTypeEventCreated, eventID, name, createdBy)
}

func NewAnnouncementCreatedEvent(title, createdBy string) *ContentCreatedEvent {
	return newContentCreated(EventTypeAnnouncementCreated, "", title, createdBy)
}

func newContentCreated(eventType, resourceID, title, createdBy string) *ContentCreatedEvent {
	return &ContentCreatedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"resource_id": resourceID,
				"title":       title,
				"created_by":  createdBy,
			},
		},
		ResourceID: resourceID,
		Title:      title,
		CreatedBy:  createdBy,
	}
}
