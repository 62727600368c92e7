package user

import (
	"context"
	"log/slog"

	"github.com/nizwa-nursing/cpd-portal/internal"
	"github.com/nizwa-nursing/cpd-portal/internal/core/common/validation"
	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/cpd"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

const MsgProfileUpdated = "Profile updated successfully"

type Updater interface {
	UpdateProfile(ctx context.Context, update cpd.ProfileUpdate) (string, error)
}

type Service struct {
	remote Updater
	logger *slog.Logger
}

func NewService(remote Updater, logger *slog.Logger) *Service {
	return &Service{remote: remote, logger: logger}
}

// UpdateProfile sends the editable fields to the backend and, once accepted,
// saves them into the profile's stored user record. The staff ID always
// comes from the session, never from the form.
func (s *Service) UpdateProfile(ctx context.Context, store *session.Store, update cpd.ProfileUpdate) (*session.User, string, error) {
	current, ok := store.Load(ctx)
	if !ok {
		return nil, "", internal.NewUnauthorizedError("Please sign in again", internal.ErrCodeSessionMissing)
	}
	update.StaffID = current.StaffID

	if appErr := validation.Struct(update); appErr != nil {
		return nil, "", appErr
	}

	message, err := s.remote.UpdateProfile(ctx, update)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update profile", "staff_id", current.StaffID, "error", err)
		return nil, "", err
	}
	if message == "" {
		message = MsgProfileUpdated
	}

	apply(current, update)
	if err := store.Save(ctx, current); err != nil {
		return nil, "", internal.NewInternalError("failed to save profile", err)
	}

	s.logger.InfoContext(ctx, "profile updated", "staff_id", current.StaffID)
	return current, message, nil
}
