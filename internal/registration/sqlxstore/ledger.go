package sqlxstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	registrationDatamodel "github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/registration"
)

const insertAttempt = `INSERT INTO registration_attempts
	(id, profile_id, actor_staff_id, event_id, staff_id, outcome, error_type, message, created_at)
	VALUES (:id, :profile_id, :actor_staff_id, :event_id, :staff_id, :outcome, :error_type, :message, :created_at)`

const recentAttempts = `SELECT id, profile_id, actor_staff_id, event_id, staff_id, outcome, error_type, message, created_at
	FROM registration_attempts
	WHERE profile_id = ?
	ORDER BY created_at DESC
	LIMIT ?`

// LedgerRepository appends registration outcomes to the local audit table.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Record(ctx context.Context, attempt *registrationDatamodel.Attempt) error {
	if attempt.ID == "" {
		attempt.ID = uuid.New().String()
	}
	if attempt.CreatedAt.IsZero() {
		attempt.CreatedAt = time.Now().UTC()
	}
	if _, err := r.db.NamedExecContext(ctx, insertAttempt, attempt); err != nil {
		return fmt.Errorf("record registration attempt: %w", err)
	}
	return nil
}

// Recent returns a profile's latest attempts, newest first.
func (r *LedgerRepository) Recent(ctx context.Context, profileID string, limit int) ([]registrationDatamodel.Attempt, error) {
	if limit <= 0 {
		limit = 20
	}
	var attempts []registrationDatamodel.Attempt
	if err := r.db.SelectContext(ctx, &attempts, r.db.Rebind(recentAttempts), profileID, limit); err != nil {
		return nil, fmt.Errorf("list registration attempts: %w", err)
	}
	return attempts, nil
}
