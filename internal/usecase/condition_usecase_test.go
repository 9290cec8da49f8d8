package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yooncheol/pricewatch/internal/domain"
	"go.uber.org/zap"
)

type fakeWatchEntryRepo struct {
	entries map[uint]*domain.WatchEntry
}

func newFakeWatchEntryRepo() *fakeWatchEntryRepo {
	return &fakeWatchEntryRepo{entries: make(map[uint]*domain.WatchEntry)}
}

func (r *fakeWatchEntryRepo) GetByID(_ context.Context, entryID uint) (*domain.WatchEntry, error) {
	entry, ok := r.entries[entryID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *entry
	return &copied, nil
}

func (r *fakeWatchEntryRepo) GetActiveByUserAndSymbol(_ context.Context, userID uint, symbolCode string) (*domain.WatchEntry, error) {
	for _, entry := range r.entries {
		if entry.UserID == userID && entry.SymbolCode == symbolCode && entry.Active {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeWatchEntryRepo) SetNotificationEnabled(_ context.Context, entryID uint, enabled bool) error {
	entry, ok := r.entries[entryID]
	if !ok {
		return domain.ErrNotFound
	}
	entry.NotificationEnabled = enabled
	return nil
}

type conditionFixture struct {
	usecase    *ConditionUsecase
	conditions *fakeConditionRepo
	entries    *fakeWatchEntryRepo
	prices     *fakePriceSource
}

func newConditionFixture() *conditionFixture {
	conditions := newFakeConditionRepo()
	entries := newFakeWatchEntryRepo()
	prices := newFakePriceSource()
	return &conditionFixture{
		usecase:    NewConditionUsecase(conditions, entries, prices, zap.NewNop()),
		conditions: conditions,
		entries:    entries,
		prices:     prices,
	}
}

func (f *conditionFixture) addEntry(id, userID uint, symbol string) {
	f.entries.entries[id] = &domain.WatchEntry{
		ID:                  id,
		UserID:              userID,
		SymbolCode:          symbol,
		SymbolName:          symbol,
		Active:              true,
		NotificationEnabled: true,
	}
}

func TestConditionCreate(t *testing.T) {
	t.Run("creates with base seeded from current price", func(t *testing.T) {
		f := newConditionFixture()
		f.addEntry(1, 10, "069500")
		f.prices.summaries["069500"] = domain.InstrumentSummary{
			SymbolCode:   "069500",
			CurrentPrice: dec("10000"),
			PriorClose:   dec("9900"),
		}

		condition, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "dip watch")
		require.NoError(t, err)
		assert.NotZero(t, condition.ID)
		assert.True(t, condition.Active)
		require.NotNil(t, condition.BasePrice)
		assert.True(t, condition.BasePrice.Equal(dec("10000")))
		assert.Equal(t, "dip watch", condition.Description)
	})

	t.Run("price lookup failure leaves base unset", func(t *testing.T) {
		f := newConditionFixture()
		f.addEntry(1, 10, "069500")

		condition, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "")
		require.NoError(t, err)
		assert.Nil(t, condition.BasePrice)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		f := newConditionFixture()
		f.addEntry(1, 10, "069500")

		_, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionType("MOON_PHASE"), dec("-3"), "")
		assert.ErrorIs(t, err, ErrUnknownConditionType)
	})

	t.Run("rejects out-of-range thresholds", func(t *testing.T) {
		f := newConditionFixture()
		f.addEntry(1, 10, "069500")

		cases := []struct {
			conditionType domain.ConditionType
			threshold     string
		}{
			{domain.ConditionPercentDrop, "0"},
			{domain.ConditionPercentDrop, "3"},
			{domain.ConditionPercentDrop, "-50.01"},
			{domain.ConditionPercentRise, "0"},
			{domain.ConditionPercentRise, "-3"},
			{domain.ConditionPercentRise, "100.01"},
			{domain.ConditionPriceDrop, "500"},
			{domain.ConditionPriceRise, "0"},
			{domain.ConditionPriceRise, "-500"},
			{domain.ConditionPriceTarget, "0"},
			{domain.ConditionVolumeSpike, "2"},
		}
		for _, tc := range cases {
			_, err := f.usecase.Create(context.Background(), 10, "069500", tc.conditionType, dec(tc.threshold), "")
			assert.ErrorIs(t, err, ErrInvalidThreshold, "%s %s", tc.conditionType, tc.threshold)
		}
	})

	t.Run("accepts boundary thresholds", func(t *testing.T) {
		f := newConditionFixture()
		f.addEntry(1, 10, "069500")
		f.addEntry(2, 10, "229200")
		f.addEntry(3, 10, "114800")
		f.addEntry(4, 10, "122630")

		cases := []struct {
			symbol        string
			conditionType domain.ConditionType
			threshold     string
		}{
			{"069500", domain.ConditionPercentDrop, "-50"},
			{"229200", domain.ConditionPercentRise, "100"},
			{"114800", domain.ConditionPriceDrop, "0"},
			{"122630", domain.ConditionPriceTarget, "0.01"},
		}
		for _, tc := range cases {
			_, err := f.usecase.Create(context.Background(), 10, tc.symbol, tc.conditionType, dec(tc.threshold), "")
			assert.NoError(t, err, "%s %s", tc.conditionType, tc.threshold)
		}
	})

	t.Run("rejects duplicate active condition of same type", func(t *testing.T) {
		f := newConditionFixture()
		f.addEntry(1, 10, "069500")

		_, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "")
		require.NoError(t, err)

		_, err = f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-5"), "")
		assert.ErrorIs(t, err, ErrConditionExists)

		// A different type on the same entry is fine.
		_, err = f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentRise, dec("5"), "")
		assert.NoError(t, err)
	})

	t.Run("requires an active watch entry", func(t *testing.T) {
		f := newConditionFixture()

		_, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "")
		assert.ErrorIs(t, err, ErrWatchEntryNotFound)
	})
}

func TestConditionUpdate(t *testing.T) {
	f := newConditionFixture()
	f.addEntry(1, 10, "069500")
	created, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "")
	require.NoError(t, err)

	t.Run("changed threshold re-seeds base", func(t *testing.T) {
		f.prices.summaries["069500"] = domain.InstrumentSummary{
			SymbolCode:   "069500",
			CurrentPrice: dec("10500"),
		}
		threshold := dec("-5")
		updated, err := f.usecase.Update(context.Background(), 10, created.ID, &threshold, nil)
		require.NoError(t, err)
		assert.True(t, updated.Threshold.Equal(dec("-5")))
		require.NotNil(t, updated.BasePrice)
		assert.True(t, updated.BasePrice.Equal(dec("10500")))
	})

	t.Run("rejects invalid new threshold", func(t *testing.T) {
		threshold := dec("7")
		_, err := f.usecase.Update(context.Background(), 10, created.ID, &threshold, nil)
		assert.ErrorIs(t, err, ErrInvalidThreshold)
	})

	t.Run("description-only update keeps threshold", func(t *testing.T) {
		description := "deeper dip"
		updated, err := f.usecase.Update(context.Background(), 10, created.ID, nil, &description)
		require.NoError(t, err)
		assert.Equal(t, "deeper dip", updated.Description)
		assert.True(t, updated.Threshold.Equal(dec("-5")))
	})

	t.Run("only the owner may update", func(t *testing.T) {
		threshold := dec("-4")
		_, err := f.usecase.Update(context.Background(), 99, created.ID, &threshold, nil)
		assert.ErrorIs(t, err, ErrNotConditionOwner)
	})

	t.Run("missing condition", func(t *testing.T) {
		threshold := dec("-4")
		_, err := f.usecase.Update(context.Background(), 10, 12345, &threshold, nil)
		assert.ErrorIs(t, err, ErrConditionNotFound)
	})
}

func TestConditionToggle(t *testing.T) {
	f := newConditionFixture()
	f.addEntry(1, 10, "069500")
	created, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "")
	require.NoError(t, err)

	active, err := f.usecase.Toggle(context.Background(), 10, created.ID)
	require.NoError(t, err)
	assert.False(t, active)

	// Re-activation re-seeds the base from the current price.
	f.prices.summaries["069500"] = domain.InstrumentSummary{
		SymbolCode:   "069500",
		CurrentPrice: dec("11000"),
	}
	active, err = f.usecase.Toggle(context.Background(), 10, created.ID)
	require.NoError(t, err)
	assert.True(t, active)

	stored := f.conditions.get(created.ID)
	require.NotNil(t, stored.BasePrice)
	assert.True(t, stored.BasePrice.Equal(dec("11000")))
}

func TestConditionDeactivate(t *testing.T) {
	f := newConditionFixture()
	f.addEntry(1, 10, "069500")
	created, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "")
	require.NoError(t, err)

	require.NoError(t, f.usecase.Deactivate(context.Background(), 10, created.ID))
	assert.False(t, f.conditions.get(created.ID).Active)

	// Deactivation frees the (user, entry, type) slot.
	_, err = f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-7"), "")
	assert.NoError(t, err)
}

func TestSetWatchEntryNotifications(t *testing.T) {
	f := newConditionFixture()
	f.addEntry(1, 10, "069500")
	first, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "")
	require.NoError(t, err)
	second, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentRise, dec("5"), "")
	require.NoError(t, err)

	affected, err := f.usecase.SetWatchEntryNotifications(context.Background(), 10, "069500", false)
	require.NoError(t, err)
	assert.Equal(t, 2, affected)
	assert.False(t, f.entries.entries[1].NotificationEnabled)
	assert.False(t, f.conditions.get(first.ID).Active)
	assert.False(t, f.conditions.get(second.ID).Active)

	_, err = f.usecase.SetWatchEntryNotifications(context.Background(), 10, "114800", true)
	assert.ErrorIs(t, err, ErrWatchEntryNotFound)
}

func TestConditionStatsByUser(t *testing.T) {
	f := newConditionFixture()
	f.addEntry(1, 10, "069500")
	f.addEntry(2, 10, "229200")

	_, err := f.usecase.Create(context.Background(), 10, "069500", domain.ConditionPercentDrop, dec("-3"), "")
	require.NoError(t, err)
	_, err = f.usecase.Create(context.Background(), 10, "229200", domain.ConditionPercentRise, dec("5"), "")
	require.NoError(t, err)
	deactivated, err := f.usecase.Create(context.Background(), 10, "229200", domain.ConditionPriceTarget, dec("12000"), "")
	require.NoError(t, err)
	require.NoError(t, f.usecase.Deactivate(context.Background(), 10, deactivated.ID))

	stats, err := f.usecase.StatsByUser(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, 1, stats.PercentDrop)
	assert.Equal(t, 1, stats.PercentRise)
	assert.Equal(t, 0, stats.PriceTarget)
}
