package event

import (
	"context"
	"log/slog"
	"time"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/common/validation"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/core/events"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

type Creator interface {
	CreateEvent(ctx context.Context, draft cpd.EventDraft, createdBy string) (string, error)
}

// Publisher announces acknowledged writes to the profile's views.
type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// Service handles admin event creation
type Service struct {
	remote Creator
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

func NewService(remote Creator, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{remote: remote, loc: loc, now: time.Now, logger: logger}
}

// CreateEvent validates the draft, sends it to the backend and, once the
// backend acknowledges it, publishes EventCreated so the catalog re-reads.
func (s *Service) CreateEvent(ctx context.Context, draft cpd.EventDraft, actor *session.User, bus Publisher) (string, error) {
	if appErr := s.validate(draft); appErr != nil {
		s.logger.WarnContext(ctx, "event draft rejected", "error", appErr, "staff_id", actor.StaffID)
		return "", appErr
	}

	eventID, err := s.remote.CreateEvent(ctx, draft, actor.StaffID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create event", "error", err, "staff_id", actor.StaffID)
		return "", err
	}

	s.logger.InfoContext(ctx, "event created",
		"event_id", eventID,
		"event_name", draft.EventName,
		"staff_id", actor.StaffID)

	if err := bus.PublishSync(ctx, events.NewEventCreatedEvent(eventID, draft.EventName, actor.StaffID)); err != nil {
		s.logger.WarnContext(ctx, "event created handlers failed", "error", err, "event_id", eventID)
	}
	return eventID, nil
}

func (s *Service) validate(draft cpd.EventDraft) *internal.AppError {
	if appErr := validation.Struct(draft); appErr != nil {
		return appErr
	}
	date, err := time.ParseInLocation("2006-01-02", draft.EventDate, s.loc)
	if err != nil {
		return internal.NewValidationFieldError("eventDate", "Event date must be a date (YYYY-MM-DD)", internal.ErrCodeValidationFailed)
	}
	v := validation.NewValidator()
	v.Field("eventDate", date).Labeled("Event date").NotPast(cpd.StartOfDay(s.now().In(s.loc)))
	return v.Validate()
}
