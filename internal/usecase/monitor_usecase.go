package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yooncheol/pricewatch/internal/domain"
	"go.uber.org/zap"
)

// Monitor runs the periodic evaluation passes over all monitorable
// conditions. One pass fetches the monitorable set, checks each condition
// independently (a failing condition is logged and skipped, never aborts the
// pass) and returns how many alerts fired.
type Monitor struct {
	conditions domain.ConditionRepository
	alerts     domain.AlertRepository
	firings    domain.FiringStore
	prices     domain.PriceSource
	logger     *zap.Logger
	workers    int

	// now is swappable for tests.
	now func() time.Time
}

func NewMonitor(conditions domain.ConditionRepository, alerts domain.AlertRepository, firings domain.FiringStore, prices domain.PriceSource, workers int, logger *zap.Logger) *Monitor {
	if workers < 1 {
		workers = 1
	}
	return &Monitor{
		conditions: conditions,
		alerts:     alerts,
		firings:    firings,
		prices:     prices,
		logger:     logger,
		workers:    workers,
		now:        time.Now,
	}
}

// RunOnce performs one monitoring pass. Failure to enumerate the monitorable
// set is fatal for the pass and surfaced to the caller; everything after that
// fails soft per condition.
func (m *Monitor) RunOnce(ctx context.Context) (int, error) {
	conditions, err := m.conditions.ListMonitorable(ctx)
	if err != nil {
		return 0, fmt.Errorf("list monitorable conditions: %w", err)
	}
	if len(conditions) == 0 {
		m.logger.Debug("no monitorable conditions")
		return 0, nil
	}

	m.logger.Info("monitoring pass started", zap.Int("conditions", len(conditions)))
	fired := m.runPass(ctx, conditions)
	m.logger.Info("monitoring pass finished", zap.Int("fired", fired))
	return fired, nil
}

// RunSymbol evaluates only the monitorable conditions bound to one symbol,
// for on-demand checks outside the scheduled passes.
func (m *Monitor) RunSymbol(ctx context.Context, symbolCode string) (int, error) {
	conditions, err := m.conditions.ListMonitorableBySymbol(ctx, symbolCode)
	if err != nil {
		return 0, fmt.Errorf("list conditions for %s: %w", symbolCode, err)
	}
	if len(conditions) == 0 {
		return 0, nil
	}
	return m.runPass(ctx, conditions), nil
}

func (m *Monitor) runPass(ctx context.Context, conditions []domain.Condition) int {
	jobs := make(chan domain.Condition)
	var fired atomic.Int64
	var wg sync.WaitGroup

	workers := m.workers
	if workers > len(conditions) {
		workers = len(conditions)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for condition := range jobs {
				if m.checkCondition(ctx, condition) {
					fired.Add(1)
				}
			}
		}()
	}

	for _, condition := range conditions {
		jobs <- condition
	}
	close(jobs)
	wg.Wait()

	return int(fired.Load())
}

// checkCondition runs the full pipeline for one condition: cooldown guard,
// price lookup, base-price bootstrap, evaluation, and on a fire the atomic
// alert-plus-stamp persist. Any failure is a no-fire for this pass only.
func (m *Monitor) checkCondition(ctx context.Context, condition domain.Condition) bool {
	now := m.now()

	if !AllowedToFire(condition, now) {
		m.logger.Debug("condition cooling down",
			zap.Uint("condition_id", condition.ID),
			zap.Timep("last_fired_at", condition.LastFiredAt))
		return false
	}

	summary, err := m.prices.GetSummary(ctx, condition.SymbolCode)
	if err != nil {
		m.logger.Warn("price lookup failed",
			zap.Uint("condition_id", condition.ID),
			zap.String("symbol", condition.SymbolCode),
			zap.Error(err))
		return false
	}
	if !summary.CurrentPrice.IsPositive() {
		m.logger.Warn("invalid current price",
			zap.String("symbol", condition.SymbolCode),
			zap.String("price", summary.CurrentPrice.String()))
		return false
	}

	if condition.BasePrice == nil {
		// A condition needs a stable base before it can ever fire. Seed it
		// from the prior close and wait for the next pass, so the first
		// evaluation never compares a price against itself.
		if !summary.PriorClose.IsPositive() {
			m.logger.Warn("no usable base price",
				zap.Uint("condition_id", condition.ID),
				zap.String("symbol", condition.SymbolCode))
			return false
		}
		if err := m.conditions.SetBasePrice(ctx, condition.ID, summary.PriorClose); err != nil {
			m.logger.Warn("failed to seed base price",
				zap.Uint("condition_id", condition.ID),
				zap.Error(err))
		}
		return false
	}

	if !Evaluate(condition, summary.CurrentPrice, *condition.BasePrice) {
		return false
	}

	alert := BuildAlert(condition, summary.CurrentPrice, *condition.BasePrice, now)
	if err := m.firings.RecordFiring(ctx, &alert, now, FireCooldown); err != nil {
		if err == domain.ErrFiringRaced {
			m.logger.Debug("firing lost cooldown race", zap.Uint("condition_id", condition.ID))
		} else {
			m.logger.Error("failed to persist firing",
				zap.Uint("condition_id", condition.ID),
				zap.Error(err))
		}
		return false
	}

	m.logger.Info("alert fired",
		zap.Uint("condition_id", condition.ID),
		zap.Uint("user_id", condition.UserID),
		zap.String("symbol", condition.SymbolCode),
		zap.String("type", string(condition.Type)),
		zap.String("priority", string(alert.Priority)),
		zap.String("trigger_price", alert.TriggerPrice.String()),
		zap.String("base_price", alert.BasePrice.String()))
	return true
}

// MonitorStats summarizes the monitoring workload.
type MonitorStats struct {
	ActiveConditions int
	RecentAlerts     int64
}

// Stats reports the active condition count and alerts fired in the last 24
// hours.
func (m *Monitor) Stats(ctx context.Context) (MonitorStats, error) {
	conditions, err := m.conditions.ListMonitorable(ctx)
	if err != nil {
		return MonitorStats{}, err
	}
	recent, err := m.alerts.CountSince(ctx, m.now().Add(-24*time.Hour))
	if err != nil {
		return MonitorStats{}, err
	}
	return MonitorStats{ActiveConditions: len(conditions), RecentAlerts: recent}, nil
}
