package marketdata

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

type summaryResponse struct {
	SymbolCode string          `json:"symbolCode"`
	SymbolName string          `json:"symbolName"`
	ClosePrice NullableDecimal `json:"closePrice"`
	PriorClose NullableDecimal `json:"priorClose"`
	ChangeRate NullableDecimal `json:"changeRate"`
	Volume     int64           `json:"volume"`
	BaseDate   string          `json:"baseDate"`
}

// NullableDecimal accepts numbers, quoted numbers, and null; upstream feeds
// are inconsistent about which they send.
type NullableDecimal struct {
	Decimal decimal.Decimal
	Valid   bool
}

func (n *NullableDecimal) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		n.Valid = false
		return nil
	}
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) == 0 {
		n.Valid = false
		return nil
	}
	if trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		trimmed = strings.Trim(trimmed, "\"")
	}
	if trimmed == "" || trimmed == "-" {
		n.Valid = false
		return nil
	}
	dec, err := decimal.NewFromString(trimmed)
	if err != nil {
		n.Valid = false
		return err
	}
	n.Decimal = dec
	n.Valid = true
	return nil
}

func (n NullableDecimal) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Decimal.String())
}
