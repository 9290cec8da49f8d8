package db

import (
	"context"
	"time"

	"github.com/yooncheol/pricewatch/internal/domain"
	"gorm.io/gorm"
)

// FiringStore commits one firing atomically: the condition's last-fired stamp
// and the alert row go in the same transaction. The stamp is a
// compare-and-set guarded by the cooldown window, so when two passes race
// only one of them fires; the loser rolls back and reports ErrFiringRaced.
type FiringStore struct {
	db *gorm.DB
}

func NewFiringStore(db *gorm.DB) *FiringStore {
	return &FiringStore{db: db}
}

func (s *FiringStore) RecordFiring(ctx context.Context, alert *domain.Alert, firedAt time.Time, cooldown time.Duration) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&conditionModel{}).
			Where("id = ? AND (last_fired_at IS NULL OR last_fired_at <= ?)",
				alert.ConditionID, firedAt.Add(-cooldown)).
			Update("last_fired_at", firedAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrFiringRaced
		}

		model := mapAlertToModel(*alert)
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		alert.ID = model.ID
		alert.CreatedAt = model.CreatedAt
		return nil
	})
}
