package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrFiringRaced means another monitoring pass stamped the condition's
	// cooldown first; the firing must be discarded.
	ErrFiringRaced = errors.New("firing raced")
)

type ConditionRepository interface {
	Create(ctx context.Context, condition *Condition) error
	GetByID(ctx context.Context, conditionID uint) (*Condition, error)
	ListByUser(ctx context.Context, userID uint) ([]Condition, error)
	ListActiveByUser(ctx context.Context, userID uint) ([]Condition, error)
	ListActiveByWatchEntry(ctx context.Context, watchEntryID uint) ([]Condition, error)
	// ListMonitorable returns active conditions whose watch entry is active
	// with notifications enabled.
	ListMonitorable(ctx context.Context) ([]Condition, error)
	ListMonitorableBySymbol(ctx context.Context, symbolCode string) ([]Condition, error)
	ExistsActive(ctx context.Context, userID, watchEntryID uint, conditionType ConditionType) (bool, error)
	Update(ctx context.Context, condition *Condition) error
	SetBasePrice(ctx context.Context, conditionID uint, basePrice decimal.Decimal) error
	DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AlertRepository interface {
	GetByID(ctx context.Context, alertID uint) (*Alert, error)
	ListByUser(ctx context.Context, userID uint) ([]Alert, error)
	ListUnreadByUser(ctx context.Context, userID uint) ([]Alert, error)
	CountUnreadByUser(ctx context.Context, userID uint) (int64, error)
	ListByUserSince(ctx context.Context, userID uint, since time.Time) ([]Alert, error)
	ListHighPriorityByUser(ctx context.Context, userID uint) ([]Alert, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	MarkRead(ctx context.Context, userID, alertID uint, readAt time.Time) error
	MarkUnread(ctx context.Context, userID, alertID uint) error
	MarkAllRead(ctx context.Context, userID uint, readAt time.Time) error
	Dismiss(ctx context.Context, userID, alertID uint, readAt time.Time) error
	DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteByStatus(ctx context.Context, status AlertStatus) (int64, error)
}

type WatchEntryRepository interface {
	GetByID(ctx context.Context, entryID uint) (*WatchEntry, error)
	GetActiveByUserAndSymbol(ctx context.Context, userID uint, symbolCode string) (*WatchEntry, error)
	SetNotificationEnabled(ctx context.Context, entryID uint, enabled bool) error
}

// PriceSource serves current market snapshots for watched instruments.
type PriceSource interface {
	GetSummary(ctx context.Context, symbolCode string) (*InstrumentSummary, error)
}

// FiringStore persists one firing: the alert insert and the condition's
// last-fired stamp commit together or not at all. Implementations must
// compare-and-set the stamp so overlapping passes cannot double-fire.
type FiringStore interface {
	RecordFiring(ctx context.Context, alert *Alert, firedAt time.Time, cooldown time.Duration) error
}
