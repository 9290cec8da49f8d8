package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WatchEntry is a user's subscription to one instrument. Conditions hang off
// a watch entry; an inactive entry, or one with notifications disabled, keeps
// its conditions out of the monitorable set.
type WatchEntry struct {
	ID                  uint
	UserID              uint
	SymbolCode          string
	SymbolName          string
	Active              bool
	NotificationEnabled bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// InstrumentSummary is the current market snapshot for one instrument as
// served by the price source.
type InstrumentSummary struct {
	SymbolCode   string
	SymbolName   string
	CurrentPrice decimal.Decimal
	PriorClose   decimal.Decimal
	ChangeRate   decimal.Decimal
	Volume       int64
	BaseDate     time.Time
}
