package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yooncheol/pricewatch/internal/domain"
	"go.uber.org/zap"
)

var (
	ErrWatchEntryNotFound   = errors.New("watch entry not found")
	ErrConditionNotFound    = errors.New("condition not found")
	ErrConditionExists      = errors.New("condition already exists")
	ErrConditionInactive    = errors.New("condition is inactive")
	ErrInvalidThreshold     = errors.New("invalid threshold")
	ErrNotConditionOwner    = errors.New("not the condition owner")
	ErrUnknownConditionType = errors.New("unknown condition type")
)

// ConditionUsecase manages the standing rules: creation with threshold
// validation and duplicate rejection, updates, soft deletion, toggling and
// per-user statistics.
type ConditionUsecase struct {
	conditions domain.ConditionRepository
	entries    domain.WatchEntryRepository
	prices     domain.PriceSource
	logger     *zap.Logger
}

func NewConditionUsecase(conditions domain.ConditionRepository, entries domain.WatchEntryRepository, prices domain.PriceSource, logger *zap.Logger) *ConditionUsecase {
	return &ConditionUsecase{conditions: conditions, entries: entries, prices: prices, logger: logger}
}

// Create registers a new condition on an active watch entry. At most one
// active condition may exist per (user, entry, type). The base price is
// seeded from the current price when the source can serve it; otherwise it
// stays unset and the first monitoring pass bootstraps it.
func (u *ConditionUsecase) Create(ctx context.Context, userID uint, symbolCode string, conditionType domain.ConditionType, threshold decimal.Decimal, description string) (*domain.Condition, error) {
	if !knownConditionType(conditionType) {
		return nil, ErrUnknownConditionType
	}
	if !domain.ValidThreshold(conditionType, threshold) {
		return nil, ErrInvalidThreshold
	}

	entry, err := u.entries.GetActiveByUserAndSymbol(ctx, userID, strings.TrimSpace(symbolCode))
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, ErrWatchEntryNotFound
		}
		return nil, err
	}

	exists, err := u.conditions.ExistsActive(ctx, userID, entry.ID, conditionType)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrConditionExists
	}

	condition := &domain.Condition{
		WatchEntryID: entry.ID,
		UserID:       userID,
		SymbolCode:   entry.SymbolCode,
		SymbolName:   entry.SymbolName,
		Type:         conditionType,
		Threshold:    threshold,
		BasePrice:    u.currentPrice(ctx, entry.SymbolCode),
		Active:       true,
		Description:  description,
	}

	if err := u.conditions.Create(ctx, condition); err != nil {
		return nil, err
	}

	u.logger.Info("condition created",
		zap.Uint("condition_id", condition.ID),
		zap.Uint("user_id", userID),
		zap.String("symbol", condition.SymbolCode),
		zap.String("type", string(conditionType)),
		zap.String("threshold", threshold.String()))
	return condition, nil
}

// Update changes a condition's threshold and/or description. A changed
// threshold re-seeds the base price from the current market price so the new
// rule measures from now, not from when the old rule was set.
func (u *ConditionUsecase) Update(ctx context.Context, userID, conditionID uint, threshold *decimal.Decimal, description *string) (*domain.Condition, error) {
	condition, err := u.ownedCondition(ctx, userID, conditionID)
	if err != nil {
		return nil, err
	}
	if !condition.Active {
		return nil, ErrConditionInactive
	}

	if threshold != nil {
		if !domain.ValidThreshold(condition.Type, *threshold) {
			return nil, ErrInvalidThreshold
		}
		condition.Threshold = *threshold
		if base := u.currentPrice(ctx, condition.SymbolCode); base != nil {
			condition.BasePrice = base
		}
	}
	if description != nil {
		condition.Description = *description
	}

	if err := u.conditions.Update(ctx, condition); err != nil {
		return nil, err
	}
	return condition, nil
}

// Deactivate soft-deletes a condition. Conditions are never hard-deleted by
// their owner; retention cleanup removes them later.
func (u *ConditionUsecase) Deactivate(ctx context.Context, userID, conditionID uint) error {
	condition, err := u.ownedCondition(ctx, userID, conditionID)
	if err != nil {
		return err
	}
	condition.Active = false
	return u.conditions.Update(ctx, condition)
}

// Toggle flips a condition's active flag and returns the new state.
// Re-activation re-seeds the base price when the source can serve one.
func (u *ConditionUsecase) Toggle(ctx context.Context, userID, conditionID uint) (bool, error) {
	condition, err := u.ownedCondition(ctx, userID, conditionID)
	if err != nil {
		return false, err
	}

	condition.Active = !condition.Active
	if condition.Active {
		if base := u.currentPrice(ctx, condition.SymbolCode); base != nil {
			condition.BasePrice = base
		}
	}

	if err := u.conditions.Update(ctx, condition); err != nil {
		return false, err
	}
	return condition.Active, nil
}

// SetWatchEntryNotifications bulk-enables or -disables alerting for one watch
// entry: the entry's notification flag and every one of its active conditions
// move together. Enabling re-seeds base prices.
func (u *ConditionUsecase) SetWatchEntryNotifications(ctx context.Context, userID uint, symbolCode string, enabled bool) (int, error) {
	entry, err := u.entries.GetActiveByUserAndSymbol(ctx, userID, symbolCode)
	if err != nil {
		if err == domain.ErrNotFound {
			return 0, ErrWatchEntryNotFound
		}
		return 0, err
	}

	if err := u.entries.SetNotificationEnabled(ctx, entry.ID, enabled); err != nil {
		return 0, err
	}

	conditions, err := u.conditions.ListActiveByWatchEntry(ctx, entry.ID)
	if err != nil {
		return 0, err
	}

	affected := 0
	for i := range conditions {
		condition := conditions[i]
		condition.Active = enabled
		if enabled {
			if base := u.currentPrice(ctx, condition.SymbolCode); base != nil {
				condition.BasePrice = base
			}
		}
		if err := u.conditions.Update(ctx, &condition); err != nil {
			u.logger.Warn("failed to toggle condition",
				zap.Uint("condition_id", condition.ID),
				zap.Error(err))
			continue
		}
		affected++
	}

	u.logger.Info("watch entry notifications toggled",
		zap.Uint("user_id", userID),
		zap.String("symbol", symbolCode),
		zap.Bool("enabled", enabled),
		zap.Int("conditions", affected))
	return affected, nil
}

func (u *ConditionUsecase) ListByUser(ctx context.Context, userID uint) ([]domain.Condition, error) {
	return u.conditions.ListActiveByUser(ctx, userID)
}

func (u *ConditionUsecase) ListForWatchEntry(ctx context.Context, userID uint, symbolCode string) ([]domain.Condition, error) {
	entry, err := u.entries.GetActiveByUserAndSymbol(ctx, userID, symbolCode)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, ErrWatchEntryNotFound
		}
		return nil, err
	}
	return u.conditions.ListActiveByWatchEntry(ctx, entry.ID)
}

func (u *ConditionUsecase) Get(ctx context.Context, userID, conditionID uint) (*domain.Condition, error) {
	return u.ownedCondition(ctx, userID, conditionID)
}

// ConditionStats counts a user's conditions, overall and per active type.
type ConditionStats struct {
	Total       int
	Active      int
	PercentDrop int
	PercentRise int
	PriceTarget int
}

func (u *ConditionUsecase) StatsByUser(ctx context.Context, userID uint) (ConditionStats, error) {
	conditions, err := u.conditions.ListByUser(ctx, userID)
	if err != nil {
		return ConditionStats{}, err
	}

	stats := ConditionStats{Total: len(conditions)}
	for _, condition := range conditions {
		if !condition.Active {
			continue
		}
		stats.Active++
		switch condition.Type {
		case domain.ConditionPercentDrop:
			stats.PercentDrop++
		case domain.ConditionPercentRise:
			stats.PercentRise++
		case domain.ConditionPriceTarget:
			stats.PriceTarget++
		}
	}
	return stats, nil
}

func (u *ConditionUsecase) ownedCondition(ctx context.Context, userID, conditionID uint) (*domain.Condition, error) {
	condition, err := u.conditions.GetByID(ctx, conditionID)
	if err != nil {
		if err == domain.ErrNotFound {
			return nil, ErrConditionNotFound
		}
		return nil, err
	}
	if condition.UserID != userID {
		return nil, ErrNotConditionOwner
	}
	return condition, nil
}

// currentPrice fetches the instrument's current price for base seeding.
// Lookup failures degrade to a nil base; the monitoring pass bootstraps it
// later.
func (u *ConditionUsecase) currentPrice(ctx context.Context, symbolCode string) *decimal.Decimal {
	summary, err := u.prices.GetSummary(ctx, symbolCode)
	if err != nil {
		u.logger.Warn("price lookup for base seeding failed",
			zap.String("symbol", symbolCode),
			zap.Error(err))
		return nil
	}
	if !summary.CurrentPrice.IsPositive() {
		return nil
	}
	price := summary.CurrentPrice
	return &price
}

func knownConditionType(conditionType domain.ConditionType) bool {
	switch conditionType {
	case domain.ConditionPriceDrop, domain.ConditionPriceRise,
		domain.ConditionPercentDrop, domain.ConditionPercentRise,
		domain.ConditionPriceTarget, domain.ConditionVolumeSpike:
		return true
	default:
		return false
	}
}
