package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertType mirrors the condition type that produced an alert.
type AlertType string

const (
	AlertPriceDrop   AlertType = "PRICE_DROP"
	AlertPriceRise   AlertType = "PRICE_RISE"
	AlertPercentDrop AlertType = "PERCENT_DROP"
	AlertPercentRise AlertType = "PERCENT_RISE"
	AlertPriceTarget AlertType = "PRICE_TARGET"
	AlertVolumeSpike AlertType = "VOLUME_SPIKE"
)

// Priority ranks an alert by the magnitude of the move that fired it.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityNormal Priority = "NORMAL"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// AlertStatus tracks what the owner has done with an alert.
type AlertStatus string

const (
	AlertStatusActive    AlertStatus = "ACTIVE"
	AlertStatusDismissed AlertStatus = "DISMISSED"
	AlertStatusExpired   AlertStatus = "EXPIRED"
)

// Alert is an immutable record of one condition firing. Prices and deltas are
// computed at fire time and never recomputed. Symbol code, name and user are
// denormalized for fast inbox reads.
type Alert struct {
	ID               uint
	ConditionID      uint
	WatchEntryID     uint
	UserID           uint
	SymbolCode       string
	SymbolName       string
	Type             AlertType
	Title            string
	Message          string
	TriggerPrice     decimal.Decimal
	BasePrice        decimal.Decimal
	ChangePercentage decimal.Decimal
	ChangeAmount     decimal.Decimal
	Priority         Priority
	Status           AlertStatus
	Read             bool
	ReadAt           *time.Time
	TriggeredAt      time.Time
	CreatedAt        time.Time
}

// PriorityForChange derives an alert priority from the absolute percent
// change: >=10 urgent, >=5 high, >=2 normal, below that low.
func PriorityForChange(changePercentage decimal.Decimal) Priority {
	abs := changePercentage.Abs()
	switch {
	case abs.GreaterThanOrEqual(decimal.NewFromInt(10)):
		return PriorityUrgent
	case abs.GreaterThanOrEqual(decimal.NewFromInt(5)):
		return PriorityHigh
	case abs.GreaterThanOrEqual(decimal.NewFromInt(2)):
		return PriorityNormal
	default:
		return PriorityLow
	}
}

// AlertTypeFor maps a condition type onto the alert type recorded at fire
// time. The mapping is identity; VolumeSpike never reaches the factory
// because the evaluator rejects it upstream.
func AlertTypeFor(conditionType ConditionType) AlertType {
	switch conditionType {
	case ConditionPriceDrop:
		return AlertPriceDrop
	case ConditionPriceRise:
		return AlertPriceRise
	case ConditionPercentRise:
		return AlertPercentRise
	case ConditionPriceTarget:
		return AlertPriceTarget
	case ConditionVolumeSpike:
		return AlertVolumeSpike
	default:
		return AlertPercentDrop
	}
}
