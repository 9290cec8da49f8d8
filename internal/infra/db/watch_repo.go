package db

import (
	"context"

	"github.com/yooncheol/pricewatch/internal/domain"
	"gorm.io/gorm"
)

type WatchEntryRepository struct {
	db *gorm.DB
}

func NewWatchEntryRepository(db *gorm.DB) *WatchEntryRepository {
	return &WatchEntryRepository{db: db}
}

func (r *WatchEntryRepository) GetByID(ctx context.Context, entryID uint) (*domain.WatchEntry, error) {
	var model watchEntryModel
	if err := r.db.WithContext(ctx).First(&model, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	entry := mapWatchEntryToDomain(model)
	return &entry, nil
}

func (r *WatchEntryRepository) GetActiveByUserAndSymbol(ctx context.Context, userID uint, symbolCode string) (*domain.WatchEntry, error) {
	var model watchEntryModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND symbol_code = ? AND active = ?", userID, symbolCode, true).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	entry := mapWatchEntryToDomain(model)
	return &entry, nil
}

func (r *WatchEntryRepository) SetNotificationEnabled(ctx context.Context, entryID uint, enabled bool) error {
	result := r.db.WithContext(ctx).Model(&watchEntryModel{}).
		Where("id = ?", entryID).
		Update("notification_enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func mapWatchEntryToDomain(model watchEntryModel) domain.WatchEntry {
	return domain.WatchEntry{
		ID:                  model.ID,
		UserID:              model.UserID,
		SymbolCode:          model.SymbolCode,
		SymbolName:          model.SymbolName,
		Active:              model.Active,
		NotificationEnabled: model.NotificationEnabled,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}
