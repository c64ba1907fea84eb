package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

// Order is created at checkout. OrderStatus follows fulfillment and is
// driven by staff; PaymentStatus mirrors the gateway and is driven by webhooks.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        uuid.UUID           `gorm:"column:user_id;type:uuid;not null"`
	Subtotal      decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Shipping      decimal.Decimal     `gorm:"column:shipping;type:numeric(12,2);not null"`
	Total         decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:'Pendiente'"`
	OrderStatus   enums.OrderStatus   `gorm:"column:order_status;not null;default:'Preparando'"`
	PaymentMethod *string             `gorm:"column:payment_method"`
	PaymentID     *string             `gorm:"column:payment_id"`
	PreferenceID  *string             `gorm:"column:preference_id"`
	PaymentURL    *string             `gorm:"column:payment_url"`
	LineItems     []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
