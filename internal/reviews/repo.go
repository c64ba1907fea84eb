package reviews

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/pkg/db/models"
)

// RecentLimit is the size of the storefront's latest reviews strip.
const RecentLimit = 12

const joinedColumns = "r.id, r.user_id, r.product_id, r.rating, r.comment, r.created_at, r.updated_at, u.name AS author_name, p.name AS product_name"

// Repository persists reviews.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Review, error) {
	var review models.Review
	if err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// FindJoined loads one review with author and product names.
func (r *Repository) FindJoined(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	var rows []reviewRecord
	if err := r.joined(ctx).Where("r.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	dto := rows[0].toDTO()
	return &dto, nil
}

func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	return scanReviews(r.joined(ctx).Where("r.product_id = ?", productID).Order("r.created_at DESC").Order("r.id DESC"))
}

func (r *Repository) ListAll(ctx context.Context) ([]ReviewDTO, error) {
	return scanReviews(r.joined(ctx).Order("r.created_at DESC").Order("r.id DESC"))
}

func (r *Repository) Recent(ctx context.Context, limit int) ([]ReviewDTO, error) {
	return scanReviews(r.joined(ctx).Order("r.created_at DESC").Order("r.id DESC").Limit(limit))
}

// Stats returns the mean rating and the review count. The mean is zero when
// there are no reviews.
func (r *Repository) Stats(ctx context.Context) (float64, int64, error) {
	var row struct {
		Average *float64
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Table("reviews").
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	if row.Average == nil {
		return 0, row.Count, nil
	}
	return *row.Average, row.Count, nil
}

// ProductExists reports whether the product row is present.
func (r *Repository) ProductExists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error
	return count > 0, err
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&models.Review{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("reviews r").
		Select(joinedColumns).
		Joins("JOIN users u ON u.id = r.user_id").
		Joins("JOIN products p ON p.id = r.product_id")
}

type reviewRecord struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	ProductID   uuid.UUID
	Rating      int
	Comment     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AuthorName  string
	ProductName string
}

func (rec reviewRecord) toDTO() ReviewDTO {
	return ReviewDTO{
		ID:          rec.ID,
		UserID:      rec.UserID,
		ProductID:   rec.ProductID,
		AuthorName:  rec.AuthorName,
		ProductName: rec.ProductName,
		Rating:      rec.Rating,
		Comment:     rec.Comment,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
}

func scanReviews(qb *gorm.DB) ([]ReviewDTO, error) {
	var records []reviewRecord
	if err := qb.Scan(&records).Error; err != nil {
		return nil, err
	}
	out := make([]ReviewDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDTO())
	}
	return out, nil
}
