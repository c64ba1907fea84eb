package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/petfood-backend/pkg/checkout"
)

// AddItemRequest is the body of POST /api/carrito.
type AddItemRequest struct {
	ProductID uuid.UUID `json:"id_producto" validate:"required"`
	Quantity  int       `json:"cantidad" validate:"required,gt=0"`
}

// UpdateQuantityRequest is the body of PUT /api/carrito/editarCantidad.
type UpdateQuantityRequest struct {
	ProductID uuid.UUID `json:"id_producto" validate:"required"`
	Quantity  int       `json:"cantidad" validate:"required,gt=0"`
}

// ItemDTO is a cart row joined with its product.
type ItemDTO struct {
	ProductID uuid.UUID       `json:"id_producto"`
	Name      string          `json:"nombre"`
	Price     decimal.Decimal `json:"precio"`
	Stock     int             `json:"stock"`
	Quantity  int             `json:"cantidad"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	ImageURL  *string         `json:"image_url,omitempty"`
	AddedAt   time.Time       `json:"agregado_en"`
}

// LineDTO echoes the stored row after a write.
type LineDTO struct {
	ProductID uuid.UUID `json:"id_producto"`
	Quantity  int       `json:"cantidad"`
}

// TotalDTO is the priced cart.
type TotalDTO struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
	Items    int             `json:"items"`
}

// FromTotals maps a checkout quote.
func FromTotals(t checkout.Totals) *TotalDTO {
	return &TotalDTO{
		Subtotal: t.Subtotal,
		Shipping: t.Shipping,
		Total:    t.Total,
		Items:    t.Items,
	}
}
