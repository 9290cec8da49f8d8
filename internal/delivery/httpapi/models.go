package httpapi

import (
	"time"

	"github.com/yooncheol/pricewatch/internal/domain"
)

// Decimal fields go out as strings so clients never lose precision to float
// parsing.
type alertResponse struct {
	ID               uint       `json:"id"`
	ConditionID      uint       `json:"conditionId"`
	SymbolCode       string     `json:"symbolCode"`
	SymbolName       string     `json:"symbolName"`
	Type             string     `json:"type"`
	Title            string     `json:"title"`
	Message          string     `json:"message"`
	TriggerPrice     string     `json:"triggerPrice"`
	BasePrice        string     `json:"basePrice"`
	ChangePercentage string     `json:"changePercentage"`
	ChangeAmount     string     `json:"changeAmount"`
	Priority         string     `json:"priority"`
	Status           string     `json:"status"`
	Read             bool       `json:"read"`
	ReadAt           *time.Time `json:"readAt,omitempty"`
	TriggeredAt      time.Time  `json:"triggeredAt"`
}

type conditionResponse struct {
	ID          uint       `json:"id"`
	SymbolCode  string     `json:"symbolCode"`
	SymbolName  string     `json:"symbolName"`
	Type        string     `json:"type"`
	Threshold   string     `json:"threshold"`
	BasePrice   *string    `json:"basePrice,omitempty"`
	Active      bool       `json:"active"`
	Description string     `json:"description,omitempty"`
	LastFiredAt *time.Time `json:"lastFiredAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func mapAlert(alert domain.Alert) alertResponse {
	return alertResponse{
		ID:               alert.ID,
		ConditionID:      alert.ConditionID,
		SymbolCode:       alert.SymbolCode,
		SymbolName:       alert.SymbolName,
		Type:             string(alert.Type),
		Title:            alert.Title,
		Message:          alert.Message,
		TriggerPrice:     alert.TriggerPrice.String(),
		BasePrice:        alert.BasePrice.String(),
		ChangePercentage: alert.ChangePercentage.String(),
		ChangeAmount:     alert.ChangeAmount.String(),
		Priority:         string(alert.Priority),
		Status:           string(alert.Status),
		Read:             alert.Read,
		ReadAt:           alert.ReadAt,
		TriggeredAt:      alert.TriggeredAt,
	}
}

func mapAlerts(alerts []domain.Alert) []alertResponse {
	responses := make([]alertResponse, 0, len(alerts))
	for _, alert := range alerts {
		responses = append(responses, mapAlert(alert))
	}
	return responses
}

func mapCondition(condition domain.Condition) conditionResponse {
	var basePrice *string
	if condition.BasePrice != nil {
		value := condition.BasePrice.String()
		basePrice = &value
	}
	return conditionResponse{
		ID:          condition.ID,
		SymbolCode:  condition.SymbolCode,
		SymbolName:  condition.SymbolName,
		Type:        string(condition.Type),
		Threshold:   condition.Threshold.String(),
		BasePrice:   basePrice,
		Active:      condition.Active,
		Description: condition.Description,
		LastFiredAt: condition.LastFiredAt,
		CreatedAt:   condition.CreatedAt,
	}
}

func mapConditions(conditions []domain.Condition) []conditionResponse {
	responses := make([]conditionResponse, 0, len(conditions))
	for _, condition := range conditions {
		responses = append(responses, mapCondition(condition))
	}
	return responses
}
