package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Result is returned by POST /api/ordenes.
type Result struct {
	OrderID      uuid.UUID       `json:"order_id"`
	PaymentURL   string          `json:"payment_url"`
	PreferenceID string          `json:"preference_id"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Shipping     decimal.Decimal `json:"envio"`
	Total        decimal.Decimal `json:"total"`
}
