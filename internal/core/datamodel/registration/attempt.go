package registration

import "time"

// Attempt is one terminal outcome of the registration form.
type Attempt struct {
	ID        string    `db:"id"`
	ProfileID string    `db:"profile_id"`
	ActorID   string    `db:"actor_staff_id"`
	EventID   string    `db:"event_id"`
	StaffID   string    `db:"staff_id"`
	Outcome   string    `db:"outcome"`
	ErrorType string    `db:"error_type"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}
