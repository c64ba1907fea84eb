package products

import (
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	"github.com/angelmondragon/petfood-backend/pkg/types"
)

// ImageDTO is one product picture.
type ImageDTO struct {
	ID       uuid.UUID `json:"id"`
	URL      string    `json:"url"`
	Position int       `json:"posicion"`
}

// ProductDTO is the full product shape with every image.
type ProductDTO struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"nombre"`
	Description string            `json:"descripcion"`
	Price       decimal.Decimal   `json:"precio"`
	Stock       int               `json:"stock"`
	Brand       string            `json:"marca"`
	Breed       string            `json:"raza"`
	AgeClass    enums.AgeClass    `json:"edad"`
	Ingredients types.Ingredients `json:"ingredientes"`
	Images      []ImageDTO        `json:"imagenes"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ProductSummary is a list row carrying only the first image.
type ProductSummary struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"nombre"`
	Price     decimal.Decimal `json:"precio"`
	Stock     int             `json:"stock"`
	Brand     string          `json:"marca"`
	Breed     string          `json:"raza"`
	AgeClass  enums.AgeClass  `json:"edad"`
	ImageURL  *string         `json:"image_url"`
	CreatedAt time.Time       `json:"created_at"`
}

// BestSellerDTO is the top selling product with its units sold.
type BestSellerDTO struct {
	ProductSummary
	UnitsSold int64 `json:"unidades_vendidas"`
}

// ListFilters narrows List. Empty fields are ignored.
type ListFilters struct {
	Brand    string
	Breed    string
	AgeClass string
	Query    string
}

// ImageUpload is one file received with a create request.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CreateProductInput holds the validated fields of a new product.
type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Brand       string
	Breed       string
	AgeClass    enums.AgeClass
	Ingredients types.Ingredients
	Images      []ImageUpload
}

// UpdateProductInput is a partial update; nil fields are left untouched.
type UpdateProductInput struct {
	Name        *string            `json:"nombre,omitempty"`
	Description *string            `json:"descripcion,omitempty"`
	Price       *decimal.Decimal   `json:"precio,omitempty"`
	Stock       *int               `json:"stock,omitempty"`
	Brand       *string            `json:"marca,omitempty"`
	Breed       *string            `json:"raza,omitempty"`
	AgeClass    *string            `json:"edad,omitempty"`
	Ingredients *types.Ingredients `json:"ingredientes,omitempty"`
}

// StockInput is the body of the stock patch endpoint.
type StockInput struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

func FromModel(p *models.Product) *ProductDTO {
	if p == nil {
		return nil
	}
	images := make([]ImageDTO, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, ImageDTO{ID: img.ID, URL: img.URL, Position: img.Position})
	}
	ingredients := p.Ingredients
	if ingredients == nil {
		ingredients = types.Ingredients{}
	}
	return &ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Brand:       p.Brand,
		Breed:       p.Breed,
		AgeClass:    p.AgeClass,
		Ingredients: ingredients,
		Images:      images,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
