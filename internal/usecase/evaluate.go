package usecase

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yooncheol/pricewatch/internal/domain"
)

// FireCooldown is the minimum interval between two firings of the same
// condition. It is deliberately coarse so a price oscillating around a
// threshold produces at most one alert per hour.
const FireCooldown = time.Hour

var hundred = decimal.NewFromInt(100)

// PercentChange returns the percent move from base to current. The quotient
// is rounded half-up to four decimal places before scaling, matching how the
// stored change percentages are computed everywhere else. A zero base yields
// zero.
func PercentChange(basePrice, currentPrice decimal.Decimal) decimal.Decimal {
	if basePrice.IsZero() {
		return decimal.Zero
	}
	return currentPrice.Sub(basePrice).Div(basePrice).Round(4).Mul(hundred)
}

// Evaluate decides whether a condition fires at the given prices. It is pure:
// no state is read or written, and identical inputs always produce the same
// answer. Unrecognized types never fire so a bad row cannot poison a pass.
func Evaluate(condition domain.Condition, currentPrice, basePrice decimal.Decimal) bool {
	switch condition.Type {
	case domain.ConditionPercentDrop:
		return PercentChange(basePrice, currentPrice).LessThanOrEqual(condition.Threshold)
	case domain.ConditionPercentRise:
		return PercentChange(basePrice, currentPrice).GreaterThanOrEqual(condition.Threshold)
	case domain.ConditionPriceDrop:
		return currentPrice.Sub(basePrice).LessThanOrEqual(condition.Threshold)
	case domain.ConditionPriceRise:
		return currentPrice.Sub(basePrice).GreaterThanOrEqual(condition.Threshold)
	case domain.ConditionPriceTarget:
		return currentPrice.GreaterThanOrEqual(condition.Threshold)
	case domain.ConditionVolumeSpike:
		// Reserved type, declared but not evaluable.
		return false
	default:
		return false
	}
}

// AllowedToFire applies the cooldown guard: a condition that fired less than
// FireCooldown ago may not fire again. At exactly the cooldown boundary it is
// eligible again.
func AllowedToFire(condition domain.Condition, now time.Time) bool {
	if condition.LastFiredAt == nil {
		return true
	}
	return now.Sub(*condition.LastFiredAt) >= FireCooldown
}
