package subscriptions

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/pkg/db/models"
)

// Repository persists newsletter signups.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *Repository) Create(ctx context.Context, sub *models.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// List returns every signup, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Find(&subs).Error
	return subs, err
}
