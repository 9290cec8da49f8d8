package usecase

import (
	"context"
	"time"

	"github.com/yooncheol/pricewatch/internal/domain"
	"go.uber.org/zap"
)

// retentionWindow is how long read alerts and deactivated conditions are kept
// before cleanup removes them.
const retentionWindow = 30 * 24 * time.Hour

// CleanupUsecase trims aged alert data: read alerts past retention, dismissed
// and expired alerts, and conditions that have been inactive past retention.
type CleanupUsecase struct {
	alerts     domain.AlertRepository
	conditions domain.ConditionRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewCleanupUsecase(alerts domain.AlertRepository, conditions domain.ConditionRepository, logger *zap.Logger) *CleanupUsecase {
	return &CleanupUsecase{alerts: alerts, conditions: conditions, logger: logger, now: time.Now}
}

// Run performs one cleanup sweep. Each step fails soft; a failing delete is
// logged and retried on the next sweep.
func (u *CleanupUsecase) Run(ctx context.Context) {
	cutoff := u.now().Add(-retentionWindow)

	readDeleted, err := u.alerts.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		u.logger.Warn("failed to delete aged read alerts", zap.Error(err))
	}

	dismissedDeleted, err := u.alerts.DeleteByStatus(ctx, domain.AlertStatusDismissed)
	if err != nil {
		u.logger.Warn("failed to delete dismissed alerts", zap.Error(err))
	}
	expiredDeleted, err := u.alerts.DeleteByStatus(ctx, domain.AlertStatusExpired)
	if err != nil {
		u.logger.Warn("failed to delete expired alerts", zap.Error(err))
	}

	conditionsDeleted, err := u.conditions.DeleteInactiveBefore(ctx, cutoff)
	if err != nil {
		u.logger.Warn("failed to delete inactive conditions", zap.Error(err))
	}

	u.logger.Info("cleanup sweep finished",
		zap.Int64("read_alerts_deleted", readDeleted),
		zap.Int64("dismissed_alerts_deleted", dismissedDeleted),
		zap.Int64("expired_alerts_deleted", expiredDeleted),
		zap.Int64("conditions_deleted", conditionsDeleted))
}
