package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nizwa-nursing/cpd-portal/internal/core/datamodel/kv"
	"github.com/nizwa-nursing/cpd-portal/internal/session"
)

type KVRepository struct {
	db *gorm.DB
}

func NewKVRepository(db *gorm.DB) session.KeyValue {
	return &KVRepository{db: db}
}

func (r *KVRepository) Get(ctx context.Context, profileID, key string) (string, bool, error) {
	var entry kv.Entry
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND entry_key = ?", profileID, key).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return entry.Value, true, nil
}

func (r *KVRepository) Set(ctx context.Context, profileID, key, value string) error {
	entry := kv.Entry{
		ProfileID: profileID,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "profile_id"}, {Name: "entry_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (r *KVRepository) Delete(ctx context.Context, profileID, key string) error {
	err := r.db.WithContext(ctx).
		Where("profile_id = ? AND entry_key = ?", profileID, key).
		Delete(&kv.Entry{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
