package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

// LineItemDTO is an order line as stored at checkout.
type LineItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   *uuid.UUID      `json:"id_producto"`
	ProductName string          `json:"nombre"`
	UnitPrice   decimal.Decimal `json:"precio_unitario"`
	Quantity    int             `json:"cantidad"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the public order representation.
type OrderDTO struct {
	ID            uuid.UUID           `json:"id"`
	UserID        uuid.UUID           `json:"id_usuario"`
	Subtotal      decimal.Decimal     `json:"subtotal"`
	Shipping      decimal.Decimal     `json:"envio"`
	Total         decimal.Decimal     `json:"total"`
	PaymentStatus enums.PaymentStatus `json:"estado_pago"`
	OrderStatus   enums.OrderStatus   `json:"estado_orden"`
	PaymentMethod *string             `json:"metodo_pago,omitempty"`
	PaymentID     *string             `json:"id_pago,omitempty"`
	PaymentURL    *string             `json:"payment_url,omitempty"`
	Items         []LineItemDTO       `json:"items"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// OrderList is one page of the admin listing.
type OrderList struct {
	Orders     []OrderDTO `json:"ordenes"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// UpdateStatusRequest is the body of PUT /api/ordenes/editar-estado/{id}.
type UpdateStatusRequest struct {
	Status string `json:"estado" validate:"required"`
}

// PaymentUpdate carries what the gateway reported for an order.
type PaymentUpdate struct {
	Status    enums.PaymentStatus
	Method    string
	PaymentID string
}

// CleanupPolicy selects which unpaid orders are purged.
type CleanupPolicy struct {
	Now            time.Time
	ExpiredMaxAge  time.Duration
	RejectedMaxAge time.Duration
}

// CleanupResult reports what a cleanup pass removed.
type CleanupResult struct {
	Deleted   int `json:"eliminadas"`
	Restocked int `json:"unidades_repuestas"`
}

func FromModel(m *models.Order) OrderDTO {
	items := make([]LineItemDTO, 0, len(m.LineItems))
	for _, li := range m.LineItems {
		items = append(items, LineItemDTO{
			ID:          li.ID,
			ProductID:   li.ProductID,
			ProductName: li.ProductName,
			UnitPrice:   li.UnitPrice,
			Quantity:    li.Quantity,
			Subtotal:    li.Subtotal,
		})
	}
	return OrderDTO{
		ID:            m.ID,
		UserID:        m.UserID,
		Subtotal:      m.Subtotal,
		Shipping:      m.Shipping,
		Total:         m.Total,
		PaymentStatus: m.PaymentStatus,
		OrderStatus:   m.OrderStatus,
		PaymentMethod: m.PaymentMethod,
		PaymentID:     m.PaymentID,
		PaymentURL:    m.PaymentURL,
		Items:         items,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func FromModels(list []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(list))
	for i := range list {
		out = append(out, FromModel(&list[i]))
	}
	return out
}
