package db

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yooncheol/pricewatch/internal/domain"
	"gorm.io/gorm"
)

type ConditionRepository struct {
	db *gorm.DB
}

func NewConditionRepository(db *gorm.DB) *ConditionRepository {
	return &ConditionRepository{db: db}
}

func (r *ConditionRepository) Create(ctx context.Context, condition *domain.Condition) error {
	model := mapConditionToModel(*condition)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	condition.ID = model.ID
	condition.CreatedAt = model.CreatedAt
	condition.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *ConditionRepository) GetByID(ctx context.Context, conditionID uint) (*domain.Condition, error) {
	var model conditionModel
	if err := r.db.WithContext(ctx).First(&model, conditionID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	condition := mapConditionToDomain(model)
	return &condition, nil
}

func (r *ConditionRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Condition, error) {
	var models []conditionModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapConditionsToDomain(models), nil
}

func (r *ConditionRepository) ListActiveByUser(ctx context.Context, userID uint) ([]domain.Condition, error) {
	var models []conditionModel
	if err := r.db.WithContext(ctx).Where("user_id = ? AND active = ?", userID, true).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapConditionsToDomain(models), nil
}

func (r *ConditionRepository) ListActiveByWatchEntry(ctx context.Context, watchEntryID uint) ([]domain.Condition, error) {
	var models []conditionModel
	if err := r.db.WithContext(ctx).Where("watch_entry_id = ? AND active = ?", watchEntryID, true).Order("id").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapConditionsToDomain(models), nil
}

func (r *ConditionRepository) ListMonitorable(ctx context.Context) ([]domain.Condition, error) {
	var models []conditionModel
	err := r.db.WithContext(ctx).
		Joins("JOIN watch_entries ON watch_entries.id = alert_conditions.watch_entry_id").
		Where("alert_conditions.active = ?", true).
		Where("watch_entries.active = ? AND watch_entries.notification_enabled = ?", true, true).
		Where("watch_entries.deleted_at IS NULL").
		Order("alert_conditions.id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapConditionsToDomain(models), nil
}

func (r *ConditionRepository) ListMonitorableBySymbol(ctx context.Context, symbolCode string) ([]domain.Condition, error) {
	var models []conditionModel
	err := r.db.WithContext(ctx).
		Joins("JOIN watch_entries ON watch_entries.id = alert_conditions.watch_entry_id").
		Where("alert_conditions.symbol_code = ? AND alert_conditions.active = ?", symbolCode, true).
		Where("watch_entries.active = ? AND watch_entries.notification_enabled = ?", true, true).
		Where("watch_entries.deleted_at IS NULL").
		Order("alert_conditions.id").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapConditionsToDomain(models), nil
}

func (r *ConditionRepository) ExistsActive(ctx context.Context, userID, watchEntryID uint, conditionType domain.ConditionType) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&conditionModel{}).
		Where("user_id = ? AND watch_entry_id = ? AND condition_type = ? AND active = ?",
			userID, watchEntryID, string(conditionType), true).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *ConditionRepository) Update(ctx context.Context, condition *domain.Condition) error {
	model := mapConditionToModel(*condition)
	result := r.db.WithContext(ctx).Model(&conditionModel{}).Where("id = ?", condition.ID).
		Select("Threshold", "BasePrice", "Active", "Description").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ConditionRepository) SetBasePrice(ctx context.Context, conditionID uint, basePrice decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&conditionModel{}).Where("id = ?", conditionID).
		Update("base_price", basePrice)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ConditionRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("active = ? AND updated_at < ?", false, cutoff).
		Delete(&conditionModel{})
	return result.RowsAffected, result.Error
}

func mapConditionsToDomain(models []conditionModel) []domain.Condition {
	conditions := make([]domain.Condition, 0, len(models))
	for _, model := range models {
		conditions = append(conditions, mapConditionToDomain(model))
	}
	return conditions
}

func mapConditionToDomain(model conditionModel) domain.Condition {
	var basePrice *decimal.Decimal
	if model.BasePrice.Valid {
		value := model.BasePrice.Decimal
		basePrice = &value
	}
	return domain.Condition{
		ID:           model.ID,
		WatchEntryID: model.WatchEntryID,
		UserID:       model.UserID,
		SymbolCode:   model.SymbolCode,
		SymbolName:   model.SymbolName,
		Type:         domain.ConditionType(model.Type),
		Threshold:    model.Threshold,
		BasePrice:    basePrice,
		Active:       model.Active,
		Description:  model.Description,
		LastFiredAt:  model.LastFiredAt,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func mapConditionToModel(condition domain.Condition) conditionModel {
	var basePrice decimal.NullDecimal
	if condition.BasePrice != nil {
		basePrice = decimal.NewNullDecimal(*condition.BasePrice)
	}
	return conditionModel{
		ID:           condition.ID,
		WatchEntryID: condition.WatchEntryID,
		UserID:       condition.UserID,
		SymbolCode:   condition.SymbolCode,
		SymbolName:   condition.SymbolName,
		Type:         string(condition.Type),
		Threshold:    condition.Threshold,
		BasePrice:    basePrice,
		Active:       condition.Active,
		Description:  condition.Description,
		LastFiredAt:  condition.LastFiredAt,
		CreatedAt:    condition.CreatedAt,
		UpdatedAt:    condition.UpdatedAt,
	}
}
