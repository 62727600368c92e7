package directory

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
	CreateAnnouncement(ctx context.Context, draft cpd.AnnouncementDraft, createdBy string) error
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

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

// CreateAnnouncement posts a new announcement and, once acknowledged,
// publishes AnnouncementCreated.
func (s *Service) CreateAnnouncement(ctx context.Context, draft cpd.AnnouncementDraft, actor *session.User, bus Publisher) error {
	if appErr := s.validate(draft); appErr != nil {
		s.logger.WarnContext(ctx, "announcement draft rejected", "error", appErr, "staff_id", actor.StaffID)
		return appErr
	}

	if err := s.remote.CreateAnnouncement(ctx, draft, actor.StaffID); err != nil {
		s.logger.ErrorContext(ctx, "failed to create announcement", "error", err, "staff_id", actor.StaffID)
		return err
	}
	s.logger.InfoContext(ctx, "announcement created", "title", draft.Title, "priority", draft.Priority, "staff_id", actor.StaffID)

	if bus == nil {
		return nil
	}
	if err := bus.PublishSync(ctx, events.NewAnnouncementCreatedEvent(draft.Title, actor.StaffID)); err != nil {
		s.logger.WarnContext(ctx, "announcement created handlers failed", "error", err)
	}
	return nil
}

func (s *Service) validate(draft cpd.AnnouncementDraft) *internal.AppError {
	if appErr := validation.Struct(draft); appErr != nil {
		return appErr
	}
	if draft.ExpiryDate == "" {
		return nil
	}
	expiry, err := time.ParseInLocation("2006-01-02", draft.ExpiryDate, s.loc)
	if err != nil {
		return internal.NewValidationFieldError("expiryDate", "Expiry date must be a date (YYYY-MM-DD)", internal.ErrCodeValidationFailed)
	}
	v := validation.NewValidator()
	v.Field("expiryDate", expiry).Labeled("Expiry date").NotPast(cpd.StartOfDay(s.now().In(s.loc)))
	return v.Validate()
}
