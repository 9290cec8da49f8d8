package usecase

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yooncheol/pricewatch/internal/domain"
)

// BuildAlert constructs the immutable alert record for one firing. Deltas are
// computed here, once, and the priority follows the absolute percent change.
// Persistence is the caller's concern.
func BuildAlert(condition domain.Condition, currentPrice, basePrice decimal.Decimal, firedAt time.Time) domain.Alert {
	changePercentage := PercentChange(basePrice, currentPrice)
	changeAmount := currentPrice.Sub(basePrice)

	return domain.Alert{
		ConditionID:      condition.ID,
		WatchEntryID:     condition.WatchEntryID,
		UserID:           condition.UserID,
		SymbolCode:       condition.SymbolCode,
		SymbolName:       condition.SymbolName,
		Type:             domain.AlertTypeFor(condition.Type),
		Title:            alertTitle(condition.SymbolName, changePercentage),
		Message:          alertMessage(condition.SymbolName, currentPrice, basePrice, changePercentage, changeAmount, firedAt),
		TriggerPrice:     currentPrice,
		BasePrice:        basePrice,
		ChangePercentage: changePercentage,
		ChangeAmount:     changeAmount,
		Priority:         domain.PriorityForChange(changePercentage),
		Status:           domain.AlertStatusActive,
		TriggeredAt:      firedAt,
	}
}

func alertTitle(symbolName string, changePercentage decimal.Decimal) string {
	direction := "rise"
	if changePercentage.IsNegative() {
		direction = "fall"
	}
	return fmt.Sprintf("[%s] %s%% %s", symbolName, changePercentage.Abs().StringFixed(2), direction)
}

func alertMessage(symbolName string, currentPrice, basePrice, changePercentage, changeAmount decimal.Decimal, firedAt time.Time) string {
	return fmt.Sprintf(
		"%s reached an alert threshold.\n\n"+
			"Current price: %s\n"+
			"Base price: %s\n"+
			"Change amount: %s\n"+
			"Change rate: %s%%\n\n"+
			"Triggered at: %s",
		symbolName,
		currentPrice.StringFixed(2),
		basePrice.StringFixed(2),
		signed(changeAmount.StringFixed(2), changeAmount),
		signed(changePercentage.StringFixed(2), changePercentage),
		firedAt.Format(time.RFC3339),
	)
}

func signed(formatted string, value decimal.Decimal) string {
	if value.IsNegative() {
		return formatted
	}
	return "+" + formatted
}
