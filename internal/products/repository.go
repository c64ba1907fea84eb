package products

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

const (
	// MostRecentLimit is the size of the "recientes" shelf.
	MostRecentLimit = 8

	firstImageColumn = "(SELECT pi.url FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.position ASC, pi.created_at ASC LIMIT 1) AS image_url"
)

var summaryColumns = []string{
	"p.id",
	"p.name",
	"p.price",
	"p.stock",
	"p.brand",
	"p.breed",
	"p.age_class",
	"p.created_at",
	firstImageColumn,
}

// Repository persists products and their images.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts the product together with its images.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// FindByID loads a product and every image ordered by position.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC").Order("created_at ASC")
		}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindForUpdate loads the product row and locks it until the transaction ends.
func (r *Repository) FindForUpdate(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// List returns product summaries, newest first, with the first image joined
// in the same query.
func (r *Repository) List(ctx context.Context, filters ListFilters) ([]ProductSummary, error) {
	qb := r.summaryQuery(ctx)
	if v := strings.TrimSpace(filters.Brand); v != "" {
		qb = qb.Where("LOWER(p.brand) = ?", strings.ToLower(v))
	}
	if v := strings.TrimSpace(filters.Breed); v != "" {
		qb = qb.Where("LOWER(p.breed) = ?", strings.ToLower(v))
	}
	if v := strings.TrimSpace(filters.AgeClass); v != "" {
		qb = qb.Where("p.age_class = ?", strings.ToLower(v))
	}
	if v := strings.TrimSpace(filters.Query); v != "" {
		qb = qb.Where("LOWER(p.name) LIKE ?", "%"+strings.ToLower(v)+"%")
	}
	return scanSummaries(qb.Order("p.created_at DESC").Order("p.id DESC"))
}

// MostRecent returns the newest limit products.
func (r *Repository) MostRecent(ctx context.Context, limit int) ([]ProductSummary, error) {
	return scanSummaries(r.summaryQuery(ctx).Order("p.created_at DESC").Order("p.id DESC").Limit(limit))
}

// BestSeller returns the product with the most units across all order line
// items. Ties go to the newest product. gorm.ErrRecordNotFound when nothing sold.
func (r *Repository) BestSeller(ctx context.Context) (*BestSellerDTO, error) {
	var row summaryRecord
	err := r.db.WithContext(ctx).
		Table("products p").
		Select(strings.Join(append(append([]string{}, summaryColumns...), "SUM(li.quantity) AS units_sold"), ", ")).
		Joins("JOIN order_line_items li ON li.product_id = p.id").
		Group("p.id, p.name, p.price, p.stock, p.brand, p.breed, p.age_class, p.created_at").
		Order("units_sold DESC").
		Order("p.created_at DESC").
		Limit(1).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	return &BestSellerDTO{ProductSummary: row.toSummary(), UnitsSold: row.UnitsSold}, nil
}

// Update writes the given columns. gorm.ErrRecordNotFound when no row matched.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetStock overwrites the stock level.
func (r *Repository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	return r.Update(ctx, id, map[string]any{"stock": stock})
}

// DecrementStock subtracts qty only when enough units remain. Returns false
// when the guard rejected the update.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		"UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?",
		qty, id, qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// IncrementStock returns qty units to the product. Missing products are ignored.
func (r *Repository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	return r.db.WithContext(ctx).Exec(
		"UPDATE products SET stock = stock + ? WHERE id = ?",
		qty, id,
	).Error
}

// ListImages returns the product's image rows.
func (r *Repository) ListImages(ctx context.Context, productID uuid.UUID) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("position ASC").
		Find(&images).Error
	return images, err
}

// Delete removes the image rows and then the product row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) summaryQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("products p").
		Select(strings.Join(summaryColumns, ", "))
}

type summaryRecord struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Stock     int
	Brand     string
	Breed     string
	AgeClass  string
	CreatedAt time.Time
	ImageURL  sql.NullString
	// UnitsSold is only selected by BestSeller.
	UnitsSold int64
}

func (r summaryRecord) toSummary() ProductSummary {
	var image *string
	if r.ImageURL.Valid {
		v := r.ImageURL.String
		image = &v
	}
	return ProductSummary{
		ID:        r.ID,
		Name:      r.Name,
		Price:     r.Price,
		Stock:     r.Stock,
		Brand:     r.Brand,
		Breed:     r.Breed,
		AgeClass:  enums.AgeClass(r.AgeClass),
		ImageURL:  image,
		CreatedAt: r.CreatedAt,
	}
}

func scanSummaries(qb *gorm.DB) ([]ProductSummary, error) {
	var records []summaryRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}
	out := make([]ProductSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toSummary())
	}
	return out, nil
}
