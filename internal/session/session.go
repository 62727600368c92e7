package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// StorageKey is the single local-storage key holding the signed-in user.
const StorageKey = "cpdUser"

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleModerator Role = "Moderator"
	RoleLeader    Role = "Leader"
	RoleUser      Role = "User"
)

// AllRoles lists every role the backend can assign.
var AllRoles = []Role{RoleAdmin, RoleModerator, RoleLeader, RoleUser}

// User is the record returned by the login action and persisted per profile.
type User struct {
	StaffID     string          `json:"staffId"`
	Name        string          `json:"name"`
	Designation string          `json:"designation"`
	Department  string          `json:"department"`
	Email       string          `json:"email"`
	Phone       string          `json:"phone"`
	Role        Role            `json:"role"`
	Permissions map[string]bool `json:"permissions"`
}

// KeyValue is string storage partitioned by browser profile.
type KeyValue interface {
	Get(ctx context.Context, profileID, key string) (string, bool, error)
	Set(ctx context.Context, profileID, key, value string) error
	Delete(ctx context.Context, profileID, key string) error
}

// Store reads and writes the one user record of one browser profile.
type Store struct {
	kv        KeyValue
	profileID string
	logger    *slog.Logger
}

func NewStore(kv KeyValue, profileID string, logger *slog.Logger) *Store {
	return &Store{kv: kv, profileID: profileID, logger: logger}
}

func (s *Store) ProfileID() string {
	return s.profileID
}

// Load returns the persisted user. Missing, unreadable and malformed records
// are all reported as absence; the latter two are logged.
func (s *Store) Load(ctx context.Context) (*User, bool) {
	raw, ok, err := s.kv.Get(ctx, s.profileID, StorageKey)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read session record",
			"profile_id", s.profileID, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var user *User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed session record",
			"profile_id", s.profileID, "error", err)
		return nil, false
	}
	if user == nil {
		return nil, false
	}
	return user, true
}

// Save overwrites the record.
func (s *Store) Save(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("cannot save nil user")
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode session record: %w", err)
	}
	if err := s.kv.Set(ctx, s.profileID, StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to save session record: %w", err)
	}
	s.logger.DebugContext(ctx, "session saved", "profile_id", s.profileID, "staff_id", user.StaffID)
	return nil
}

// Clear removes the record; clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Delete(ctx, s.profileID, StorageKey); err != nil {
		return fmt.Errorf("failed to clear session record: %w", err)
	}
	s.logger.DebugContext(ctx, "session cleared", "profile_id", s.profileID)
	return nil
}
