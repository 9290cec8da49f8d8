package db

import (
	"context"
	"time"

	"github.com/yooncheol/pricewatch/internal/domain"
	"gorm.io/gorm"
)

type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) GetByID(ctx context.Context, alertID uint) (*domain.Alert, error) {
	var model alertModel
	if err := r.db.WithContext(ctx).First(&model, alertID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	alert := mapAlertToDomain(model)
	return &alert, nil
}

func (r *AlertRepository) ListByUser(ctx context.Context, userID uint) ([]domain.Alert, error) {
	var models []alertModel
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("triggered_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) ListUnreadByUser(ctx context.Context, userID uint) ([]domain.Alert, error) {
	var models []alertModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_read = ? AND alert_status = ?", userID, false, string(domain.AlertStatusActive)).
		Order("triggered_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) CountUnreadByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&alertModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *AlertRepository) ListByUserSince(ctx context.Context, userID uint, since time.Time) ([]domain.Alert, error) {
	var models []alertModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND triggered_at >= ?", userID, since).
		Order("triggered_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) ListHighPriorityByUser(ctx context.Context, userID uint) ([]domain.Alert, error) {
	var models []alertModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND priority IN ? AND alert_status = ?",
			userID, []string{string(domain.PriorityHigh), string(domain.PriorityUrgent)}, string(domain.AlertStatusActive)).
		Order("triggered_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return mapAlertsToDomain(models), nil
}

func (r *AlertRepository) CountSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&alertModel{}).
		Where("triggered_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *AlertRepository) MarkRead(ctx context.Context, userID, alertID uint, readAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&alertModel{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepository) MarkUnread(ctx context.Context, userID, alertID uint) error {
	result := r.db.WithContext(ctx).Model(&alertModel{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Updates(map[string]interface{}{"is_read": false, "read_at": nil})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepository) MarkAllRead(ctx context.Context, userID uint, readAt time.Time) error {
	return r.db.WithContext(ctx).Model(&alertModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": readAt}).Error
}

func (r *AlertRepository) Dismiss(ctx context.Context, userID, alertID uint, readAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&alertModel{}).
		Where("id = ? AND user_id = ?", alertID, userID).
		Updates(map[string]interface{}{
			"alert_status": string(domain.AlertStatusDismissed),
			"is_read":      true,
			"read_at":      readAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *AlertRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("is_read = ? AND triggered_at < ?", true, cutoff).
		Delete(&alertModel{})
	return result.RowsAffected, result.Error
}

func (r *AlertRepository) DeleteByStatus(ctx context.Context, status domain.AlertStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("alert_status = ?", string(status)).
		Delete(&alertModel{})
	return result.RowsAffected, result.Error
}

func mapAlertsToDomain(models []alertModel) []domain.Alert {
	alerts := make([]domain.Alert, 0, len(models))
	for _, model := range models {
		alerts = append(alerts, mapAlertToDomain(model))
	}
	return alerts
}

func mapAlertToDomain(model alertModel) domain.Alert {
	return domain.Alert{
		ID:               model.ID,
		ConditionID:      model.ConditionID,
		WatchEntryID:     model.WatchEntryID,
		UserID:           model.UserID,
		SymbolCode:       model.SymbolCode,
		SymbolName:       model.SymbolName,
		Type:             domain.AlertType(model.Type),
		Title:            model.Title,
		Message:          model.Message,
		TriggerPrice:     model.TriggerPrice,
		BasePrice:        model.BasePrice,
		ChangePercentage: model.ChangePercentage,
		ChangeAmount:     model.ChangeAmount,
		Priority:         domain.Priority(model.Priority),
		Status:           domain.AlertStatus(model.Status),
		Read:             model.Read,
		ReadAt:           model.ReadAt,
		TriggeredAt:      model.TriggeredAt,
		CreatedAt:        model.CreatedAt,
	}
}

func mapAlertToModel(alert domain.Alert) alertModel {
	return alertModel{
		ID:               alert.ID,
		ConditionID:      alert.ConditionID,
		WatchEntryID:     alert.WatchEntryID,
		UserID:           alert.UserID,
		SymbolCode:       alert.SymbolCode,
		SymbolName:       alert.SymbolName,
		Type:             string(alert.Type),
		Title:            alert.Title,
		Message:          alert.Message,
		TriggerPrice:     alert.TriggerPrice,
		BasePrice:        alert.BasePrice,
		ChangePercentage: alert.ChangePercentage,
		ChangeAmount:     alert.ChangeAmount,
		Priority:         string(alert.Priority),
		Status:           string(alert.Status),
		Read:             alert.Read,
		ReadAt:           alert.ReadAt,
		TriggeredAt:      alert.TriggeredAt,
		CreatedAt:        alert.CreatedAt,
	}
}
