package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yooncheol/pricewatch/internal/domain"
	"go.uber.org/zap"
)

type fakeConditionRepo struct {
	mu         sync.Mutex
	conditions map[uint]*domain.Condition
	nextID     uint
	listErr    error
}

func newFakeConditionRepo() *fakeConditionRepo {
	return &fakeConditionRepo{conditions: make(map[uint]*domain.Condition)}
}

func (r *fakeConditionRepo) add(condition domain.Condition) uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	condition.ID = r.nextID
	r.conditions[condition.ID] = &condition
	return condition.ID
}

func (r *fakeConditionRepo) get(id uint) domain.Condition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.conditions[id]
}

func (r *fakeConditionRepo) Create(_ context.Context, condition *domain.Condition) error {
	condition.ID = r.add(*condition)
	return nil
}

func (r *fakeConditionRepo) GetByID(_ context.Context, conditionID uint) (*domain.Condition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	condition, ok := r.conditions[conditionID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *condition
	return &copied, nil
}

func (r *fakeConditionRepo) ListByUser(_ context.Context, userID uint) ([]domain.Condition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Condition
	for _, condition := range r.conditions {
		if condition.UserID == userID {
			out = append(out, *condition)
		}
	}
	return out, nil
}

func (r *fakeConditionRepo) ListActiveByUser(ctx context.Context, userID uint) ([]domain.Condition, error) {
	all, _ := r.ListByUser(ctx, userID)
	var out []domain.Condition
	for _, condition := range all {
		if condition.Active {
			out = append(out, condition)
		}
	}
	return out, nil
}

func (r *fakeConditionRepo) ListActiveByWatchEntry(_ context.Context, watchEntryID uint) ([]domain.Condition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Condition
	for _, condition := range r.conditions {
		if condition.WatchEntryID == watchEntryID && condition.Active {
			out = append(out, *condition)
		}
	}
	return out, nil
}

func (r *fakeConditionRepo) ListMonitorable(_ context.Context) ([]domain.Condition, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Condition
	for _, condition := range r.conditions {
		if condition.Active {
			out = append(out, *condition)
		}
	}
	return out, nil
}

func (r *fakeConditionRepo) ListMonitorableBySymbol(ctx context.Context, symbolCode string) ([]domain.Condition, error) {
	all, err := r.ListMonitorable(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Condition
	for _, condition := range all {
		if condition.SymbolCode == symbolCode {
			out = append(out, condition)
		}
	}
	return out, nil
}

func (r *fakeConditionRepo) ExistsActive(_ context.Context, userID, watchEntryID uint, conditionType domain.ConditionType) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, condition := range r.conditions {
		if condition.UserID == userID && condition.WatchEntryID == watchEntryID &&
			condition.Type == conditionType && condition.Active {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeConditionRepo) Update(_ context.Context, condition *domain.Condition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.conditions[condition.ID]
	if !ok {
		return domain.ErrNotFound
	}
	stored.Threshold = condition.Threshold
	stored.BasePrice = condition.BasePrice
	stored.Active = condition.Active
	stored.Description = condition.Description
	return nil
}

func (r *fakeConditionRepo) SetBasePrice(_ context.Context, conditionID uint, basePrice decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	condition, ok := r.conditions[conditionID]
	if !ok {
		return domain.ErrNotFound
	}
	condition.BasePrice = &basePrice
	return nil
}

func (r *fakeConditionRepo) DeleteInactiveBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, condition := range r.conditions {
		if !condition.Active && condition.UpdatedAt.Before(cutoff) {
			delete(r.conditions, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakePriceSource struct {
	mu        sync.Mutex
	summaries map[string]domain.InstrumentSummary
	errs      map[string]error
	onGet     func(symbolCode string)
}

func newFakePriceSource() *fakePriceSource {
	return &fakePriceSource{
		summaries: make(map[string]domain.InstrumentSummary),
		errs:      make(map[string]error),
	}
}

func (s *fakePriceSource) GetSummary(_ context.Context, symbolCode string) (*domain.InstrumentSummary, error) {
	if s.onGet != nil {
		s.onGet(symbolCode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.errs[symbolCode]; ok {
		return nil, err
	}
	summary, ok := s.summaries[symbolCode]
	if !ok {
		return nil, domain.ErrSymbolNotFound
	}
	return &summary, nil
}

// fakeFiringStore mirrors the transactional compare-and-set of the real
// store against the fake condition repo.
type fakeFiringStore struct {
	mu         sync.Mutex
	conditions *fakeConditionRepo
	alerts     []domain.Alert
	saveErr    error
}

func (s *fakeFiringStore) RecordFiring(_ context.Context, alert *domain.Alert, firedAt time.Time, cooldown time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}

	s.conditions.mu.Lock()
	defer s.conditions.mu.Unlock()
	condition, ok := s.conditions.conditions[alert.ConditionID]
	if !ok {
		return domain.ErrNotFound
	}
	if condition.LastFiredAt != nil && condition.LastFiredAt.After(firedAt.Add(-cooldown)) {
		return domain.ErrFiringRaced
	}
	stamp := firedAt
	condition.LastFiredAt = &stamp
	alert.ID = uint(len(s.alerts) + 1)
	s.alerts = append(s.alerts, *alert)
	return nil
}

type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts map[uint]*domain.Alert
	nextID uint
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: make(map[uint]*domain.Alert)}
}

func (r *fakeAlertRepo) add(alert domain.Alert) uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	alert.ID = r.nextID
	r.alerts[alert.ID] = &alert
	return alert.ID
}

func (r *fakeAlertRepo) GetByID(_ context.Context, alertID uint) (*domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *alert
	return &copied, nil
}

func (r *fakeAlertRepo) ListByUser(_ context.Context, userID uint) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Alert
	for _, alert := range r.alerts {
		if alert.UserID == userID {
			out = append(out, *alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) ListUnreadByUser(ctx context.Context, userID uint) ([]domain.Alert, error) {
	all, _ := r.ListByUser(ctx, userID)
	var out []domain.Alert
	for _, alert := range all {
		if !alert.Read && alert.Status == domain.AlertStatusActive {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) CountUnreadByUser(ctx context.Context, userID uint) (int64, error) {
	all, _ := r.ListByUser(ctx, userID)
	var count int64
	for _, alert := range all {
		if !alert.Read {
			count++
		}
	}
	return count, nil
}

func (r *fakeAlertRepo) ListByUserSince(ctx context.Context, userID uint, since time.Time) ([]domain.Alert, error) {
	all, _ := r.ListByUser(ctx, userID)
	var out []domain.Alert
	for _, alert := range all {
		if !alert.TriggeredAt.Before(since) {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) ListHighPriorityByUser(ctx context.Context, userID uint) ([]domain.Alert, error) {
	all, _ := r.ListByUser(ctx, userID)
	var out []domain.Alert
	for _, alert := range all {
		if (alert.Priority == domain.PriorityHigh || alert.Priority == domain.PriorityUrgent) &&
			alert.Status == domain.AlertStatusActive {
			out = append(out, alert)
		}
	}
	return out, nil
}

func (r *fakeAlertRepo) CountSince(_ context.Context, since time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, alert := range r.alerts {
		if !alert.TriggeredAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *fakeAlertRepo) MarkRead(_ context.Context, userID, alertID uint, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok || alert.UserID != userID {
		return domain.ErrNotFound
	}
	alert.Read = true
	alert.ReadAt = &readAt
	return nil
}

func (r *fakeAlertRepo) MarkUnread(_ context.Context, userID, alertID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok || alert.UserID != userID {
		return domain.ErrNotFound
	}
	alert.Read = false
	alert.ReadAt = nil
	return nil
}

func (r *fakeAlertRepo) MarkAllRead(_ context.Context, userID uint, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.alerts {
		if alert.UserID == userID && !alert.Read {
			alert.Read = true
			at := readAt
			alert.ReadAt = &at
		}
	}
	return nil
}

func (r *fakeAlertRepo) Dismiss(_ context.Context, userID, alertID uint, readAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alert, ok := r.alerts[alertID]
	if !ok || alert.UserID != userID {
		return domain.ErrNotFound
	}
	alert.Status = domain.AlertStatusDismissed
	alert.Read = true
	alert.ReadAt = &readAt
	return nil
}

func (r *fakeAlertRepo) DeleteReadBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, alert := range r.alerts {
		if alert.Read && alert.TriggeredAt.Before(cutoff) {
			delete(r.alerts, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeAlertRepo) DeleteByStatus(_ context.Context, status domain.AlertStatus) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for id, alert := range r.alerts {
		if alert.Status == status {
			delete(r.alerts, id)
			deleted++
		}
	}
	return deleted, nil
}

type monitorFixture struct {
	monitor    *Monitor
	conditions *fakeConditionRepo
	alerts     *fakeAlertRepo
	firings    *fakeFiringStore
	prices     *fakePriceSource
	now        time.Time
}

func newMonitorFixture(workers int) *monitorFixture {
	conditions := newFakeConditionRepo()
	alerts := newFakeAlertRepo()
	firings := &fakeFiringStore{conditions: conditions}
	prices := newFakePriceSource()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	monitor := NewMonitor(conditions, alerts, firings, prices, workers, zap.NewNop())
	monitor.now = func() time.Time { return now }
	return &monitorFixture{
		monitor:    monitor,
		conditions: conditions,
		alerts:     alerts,
		firings:    firings,
		prices:     prices,
		now:        now,
	}
}

func (f *monitorFixture) addCondition(symbol string, conditionType domain.ConditionType, threshold string, basePrice *string) uint {
	condition := domain.Condition{
		UserID:     1,
		SymbolCode: symbol,
		SymbolName: symbol,
		Type:       conditionType,
		Threshold:  dec(threshold),
		Active:     true,
	}
	if basePrice != nil {
		base := dec(*basePrice)
		condition.BasePrice = &base
	}
	return f.conditions.add(condition)
}

func (f *monitorFixture) setPrice(symbol, current, priorClose string) {
	f.prices.summaries[symbol] = domain.InstrumentSummary{
		SymbolCode:   symbol,
		SymbolName:   symbol,
		CurrentPrice: dec(current),
		PriorClose:   dec(priorClose),
	}
}

func strPtr(value string) *string { return &value }

func TestMonitorRunOnce(t *testing.T) {
	t.Run("qualifying condition fires", func(t *testing.T) {
		f := newMonitorFixture(1)
		id := f.addCondition("069500", domain.ConditionPercentDrop, "-5", strPtr("10000"))
		f.setPrice("069500", "9400", "9800")

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, fired)

		require.Len(t, f.firings.alerts, 1)
		alert := f.firings.alerts[0]
		assert.True(t, alert.ChangePercentage.Equal(dec("-6")))
		assert.Equal(t, domain.PriorityHigh, alert.Priority)

		stored := f.conditions.get(id)
		require.NotNil(t, stored.LastFiredAt)
		assert.Equal(t, f.now, *stored.LastFiredAt)
	})

	t.Run("non-qualifying condition holds", func(t *testing.T) {
		f := newMonitorFixture(1)
		f.addCondition("069500", domain.ConditionPercentDrop, "-5", strPtr("10000"))
		f.setPrice("069500", "9600", "9800")

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, fired)
		assert.Empty(t, f.firings.alerts)
	})

	t.Run("first pass seeds base from prior close without firing", func(t *testing.T) {
		f := newMonitorFixture(1)
		id := f.addCondition("069500", domain.ConditionPercentDrop, "-5", nil)
		f.setPrice("069500", "9000", "10000")

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, fired)
		assert.Empty(t, f.firings.alerts)

		stored := f.conditions.get(id)
		require.NotNil(t, stored.BasePrice)
		assert.True(t, stored.BasePrice.Equal(dec("10000")))

		// Next pass evaluates against the seeded base and fires.
		fired, err = f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, fired)
	})

	t.Run("cooldown blocks refiring within the hour", func(t *testing.T) {
		f := newMonitorFixture(1)
		id := f.addCondition("069500", domain.ConditionPercentDrop, "-5", strPtr("10000"))
		f.setPrice("069500", "9400", "9800")

		firedAt := f.now.Add(-45 * time.Minute)
		f.conditions.conditions[id].LastFiredAt = &firedAt

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, fired)

		// Past the cooldown boundary the same price fires again.
		earlier := f.now.Add(-65 * time.Minute)
		f.conditions.conditions[id].LastFiredAt = &earlier
		fired, err = f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 1, fired)
	})

	t.Run("price lookup failure skips only that condition", func(t *testing.T) {
		f := newMonitorFixture(2)
		symbols := []string{"A", "B", "C", "D", "E"}
		for _, symbol := range symbols {
			f.addCondition(symbol, domain.ConditionPercentDrop, "-5", strPtr("10000"))
			f.setPrice(symbol, "9400", "9800")
		}
		delete(f.prices.summaries, "E")

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, fired)
	})

	t.Run("non-positive price is a skip", func(t *testing.T) {
		f := newMonitorFixture(1)
		f.addCondition("069500", domain.ConditionPercentDrop, "-5", strPtr("10000"))
		f.setPrice("069500", "0", "9800")

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, fired)
	})

	t.Run("persistence failure is a no-fire for that pass", func(t *testing.T) {
		f := newMonitorFixture(1)
		f.addCondition("069500", domain.ConditionPercentDrop, "-5", strPtr("10000"))
		f.setPrice("069500", "9400", "9800")
		f.firings.saveErr = errors.New("db down")

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, fired)
	})

	t.Run("raced firing counts as no-fire", func(t *testing.T) {
		f := newMonitorFixture(1)
		id := f.addCondition("069500", domain.ConditionPercentDrop, "-5", strPtr("10000"))
		f.setPrice("069500", "9400", "9800")

		// Another pass stamps the condition between our cooldown check and
		// the persist.
		f.prices.onGet = func(string) {
			f.conditions.mu.Lock()
			stamp := f.now.Add(-time.Second)
			f.conditions.conditions[id].LastFiredAt = &stamp
			f.conditions.mu.Unlock()
		}

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, fired)
		assert.Empty(t, f.firings.alerts)
	})

	t.Run("listing failure is fatal for the pass", func(t *testing.T) {
		f := newMonitorFixture(1)
		f.conditions.listErr = errors.New("store unreachable")

		_, err := f.monitor.RunOnce(context.Background())
		assert.Error(t, err)
	})

	t.Run("empty monitorable set returns zero", func(t *testing.T) {
		f := newMonitorFixture(4)
		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0, fired)
	})

	t.Run("worker pool evaluates the whole set", func(t *testing.T) {
		f := newMonitorFixture(8)
		for i := 0; i < 40; i++ {
			symbol := string(rune('a'+i%26)) + string(rune('0'+i/26))
			f.addCondition(symbol, domain.ConditionPercentDrop, "-5", strPtr("10000"))
			f.setPrice(symbol, "9400", "9800")
		}

		fired, err := f.monitor.RunOnce(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 40, fired)
	})
}

func TestMonitorRunSymbol(t *testing.T) {
	f := newMonitorFixture(2)
	f.addCondition("069500", domain.ConditionPercentDrop, "-5", strPtr("10000"))
	f.addCondition("069500", domain.ConditionPriceTarget, "9000", strPtr("10000"))
	f.addCondition("229200", domain.ConditionPercentRise, "5", strPtr("10000"))
	f.setPrice("069500", "9400", "9800")
	f.setPrice("229200", "10600", "9800")

	fired, err := f.monitor.RunSymbol(context.Background(), "069500")
	require.NoError(t, err)
	assert.Equal(t, 2, fired)
}

func TestMonitorStats(t *testing.T) {
	f := newMonitorFixture(1)
	f.addCondition("069500", domain.ConditionPercentDrop, "-5", strPtr("10000"))
	f.alerts.add(domain.Alert{UserID: 1, TriggeredAt: f.now.Add(-2 * time.Hour)})
	f.alerts.add(domain.Alert{UserID: 1, TriggeredAt: f.now.Add(-48 * time.Hour)})

	stats, err := f.monitor.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveConditions)
	assert.Equal(t, int64(1), stats.RecentAlerts)
}
