package reviews

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/pkg/auth"
	"github.com/angelmondragon/petfood-backend/pkg/db"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
)

const notFoundMessage = "reseña no encontrada"

// Service covers customer reviews and their moderation.
type Service interface {
	Create(ctx context.Context, author auth.Principal, in CreateReviewRequest) (*ReviewDTO, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error)
	ListAll(ctx context.Context) ([]ReviewDTO, error)
	Average(ctx context.Context) (*AverageDTO, error)
	Recent(ctx context.Context) ([]ReviewDTO, error)
	Update(ctx context.Context, actor auth.Principal, id uuid.UUID, in UpdateReviewRequest) (*ReviewDTO, error)
	Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error
	AdminUpdate(ctx context.Context, id uuid.UUID, in UpdateReviewRequest) (*ReviewDTO, error)
	AdminDelete(ctx context.Context, id uuid.UUID) error
}

type deliveryChecker interface {
	HasDeliveredProduct(ctx context.Context, userID, productID uuid.UUID) (bool, error)
}

type service struct {
	repo       *Repository
	deliveries deliveryChecker
}

func NewService(repo *Repository, deliveries deliveryChecker) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("review repository required")
	}
	if deliveries == nil {
		return nil, fmt.Errorf("delivery checker required")
	}
	return &service{repo: repo, deliveries: deliveries}, nil
}

func (s *service) Create(ctx context.Context, author auth.Principal, in CreateReviewRequest) (*ReviewDTO, error) {
	if err := validateRating(in.Rating); err != nil {
		return nil, err
	}

	exists, err := s.repo.ProductExists(ctx, in.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check product")
	}
	if !exists {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
	}

	delivered, err := s.deliveries.HasDeliveredProduct(ctx, author.UserID, in.ProductID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check delivered orders")
	}
	if !delivered {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "solo puedes reseñar productos que ya recibiste")
	}

	review := &models.Review{
		UserID:    author.UserID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}
	if err := s.repo.Create(ctx, review); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "ya reseñaste este producto")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create review")
	}
	return s.load(ctx, review.ID)
}

func (s *service) ListByProduct(ctx context.Context, productID uuid.UUID) ([]ReviewDTO, error) {
	list, err := s.repo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list product reviews")
	}
	return list, nil
}

func (s *service) ListAll(ctx context.Context) ([]ReviewDTO, error) {
	list, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list reviews")
	}
	return list, nil
}

func (s *service) Average(ctx context.Context) (*AverageDTO, error) {
	avg, count, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "review stats")
	}
	return &AverageDTO{Average: int(math.Round(avg)), Count: count}, nil
}

func (s *service) Recent(ctx context.Context) ([]ReviewDTO, error) {
	list, err := s.repo.Recent(ctx, RecentLimit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list recent reviews")
	}
	return list, nil
}

func (s *service) Update(ctx context.Context, actor auth.Principal, id uuid.UUID, in UpdateReviewRequest) (*ReviewDTO, error) {
	if err := s.requireOwner(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.AdminUpdate(ctx, id, in)
}

func (s *service) Delete(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	if err := s.requireOwner(ctx, actor, id); err != nil {
		return err
	}
	return s.AdminDelete(ctx, id)
}

func (s *service) AdminUpdate(ctx context.Context, id uuid.UUID, in UpdateReviewRequest) (*ReviewDTO, error) {
	fields := map[string]any{}
	if in.Rating != nil {
		if err := validateRating(*in.Rating); err != nil {
			return nil, err
		}
		fields["rating"] = *in.Rating
	}
	if in.Comment != nil {
		fields["comment"] = strings.TrimSpace(*in.Comment)
	}
	if len(fields) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no hay campos para actualizar")
	}
	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, mapLookupError(err, "update review")
	}
	return s.load(ctx, id)
}

func (s *service) AdminDelete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapLookupError(err, "delete review")
	}
	return nil
}

func (s *service) requireOwner(ctx context.Context, actor auth.Principal, id uuid.UUID) error {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapLookupError(err, "load review")
	}
	if review.UserID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "no puedes modificar la reseña de otro usuario")
	}
	return nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*ReviewDTO, error) {
	dto, err := s.repo.FindJoined(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "load review")
	}
	return dto, nil
}

func validateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return pkgerrors.New(pkgerrors.CodeValidation, "la calificación debe estar entre 1 y 5")
	}
	return nil
}

func mapLookupError(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
