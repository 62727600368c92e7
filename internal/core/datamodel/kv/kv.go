package kv

import "time"

// Entry is one key of one browser profile's local storage.
type Entry struct {
	ProfileID string    `gorm:"column:profile_id;primaryKey;size:64"`
	Key       string    `gorm:"column:entry_key;primaryKey;size:128"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Entry) TableName() string {
	return "kv_entries"
}
