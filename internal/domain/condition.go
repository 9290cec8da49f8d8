package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ConditionType selects how a condition's threshold is interpreted.
type ConditionType string

const (
	// ConditionPriceDrop fires when currentPrice - basePrice <= threshold.
	ConditionPriceDrop ConditionType = "PRICE_DROP"
	// ConditionPriceRise fires when currentPrice - basePrice >= threshold.
	ConditionPriceRise ConditionType = "PRICE_RISE"
	// ConditionPercentDrop fires when the percent change from base <= threshold
	// (threshold is negative, e.g. -3.0 means a 3% decline).
	ConditionPercentDrop ConditionType = "PERCENT_DROP"
	// ConditionPercentRise fires when the percent change from base >= threshold.
	ConditionPercentRise ConditionType = "PERCENT_RISE"
	// ConditionPriceTarget fires when currentPrice >= threshold, ignoring base.
	ConditionPriceTarget ConditionType = "PRICE_TARGET"
	// ConditionVolumeSpike is reserved and never fires.
	ConditionVolumeSpike ConditionType = "VOLUME_SPIKE"
)

// Condition is a standing price-threshold rule owned by one user against one
// watched instrument. BasePrice stays nil until the first monitoring pass
// seeds it; LastFiredAt drives the cooldown between firings.
type Condition struct {
	ID           uint
	WatchEntryID uint
	UserID       uint
	SymbolCode   string
	SymbolName   string
	Type         ConditionType
	Threshold    decimal.Decimal
	BasePrice    *decimal.Decimal
	Active       bool
	Description  string
	LastFiredAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidThreshold reports whether threshold is acceptable for the given type:
// percent drops sit in [-50, 0), percent rises in (0, 100], drop amounts must
// be negative or zero, rise amounts and targets must be positive.
func ValidThreshold(conditionType ConditionType, threshold decimal.Decimal) bool {
	switch conditionType {
	case ConditionPercentDrop:
		return threshold.IsNegative() && threshold.GreaterThanOrEqual(decimal.NewFromInt(-50))
	case ConditionPercentRise:
		return threshold.IsPositive() && threshold.LessThanOrEqual(decimal.NewFromInt(100))
	case ConditionPriceDrop:
		return !threshold.IsPositive()
	case ConditionPriceRise, ConditionPriceTarget:
		return threshold.IsPositive()
	default:
		return false
	}
}
