package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/pkg/enums"
	"github.com/angelmondragon/petfood-backend/pkg/types"
)

// Product is a catalog entry.
type Product struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string            `gorm:"column:name;not null"`
	Description string            `gorm:"column:description;not null"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Stock       int               `gorm:"column:stock;not null;default:0"`
	Brand       string            `gorm:"column:brand;not null"`
	Breed       string            `gorm:"column:breed;not null"`
	AgeClass    enums.AgeClass    `gorm:"column:age_class;not null"`
	Ingredients types.Ingredients `gorm:"column:ingredients;type:jsonb;not null;default:'{}'"`
	Images      []ProductImage    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
