package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/products"
	"github.com/angelmondragon/petfood-backend/pkg/checkout"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the caller's cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error)
	Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*LineDTO, error)
	UpdateQuantity(ctx context.Context, userID uuid.UUID, req UpdateQuantityRequest) (*LineDTO, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Total(ctx context.Context, userID uuid.UUID) (*TotalDTO, error)
}

type service struct {
	repo     *Repository
	products *products.Repository
	tx       txRunner
	shipping checkout.ShippingRule
}

// ServiceParams bundles the cart dependencies.
type ServiceParams struct {
	Repo         *Repository
	Products     *products.Repository
	TxRunner     txRunner
	ShippingRule checkout.ShippingRule
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     params.Repo,
		products: params.Products,
		tx:       params.TxRunner,
		shipping: params.ShippingRule,
	}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) ([]ItemDTO, error) {
	lines, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	out := make([]ItemDTO, 0, len(lines))
	for _, line := range lines {
		item := ItemDTO{
			ProductID: line.ProductID,
			Name:      line.Name,
			Price:     line.Price,
			Stock:     line.Stock,
			Quantity:  line.Quantity,
			Subtotal:  checkout.Line{UnitPrice: line.Price, Quantity: line.Quantity}.Subtotal(),
			AddedAt:   line.CreatedAt,
		}
		if line.ImageURL.Valid {
			url := line.ImageURL.String
			item.ImageURL = &url
		}
		out = append(out, item)
	}
	return out, nil
}

// Add locks the product row so the existing plus requested quantity is
// checked against stock without a concurrent add slipping in between.
func (s *service) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*LineDTO, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "la cantidad debe ser mayor a 0")
	}

	var line LineDTO
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.lockProduct(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}

		cartRepo := s.repo.WithTx(tx)
		existing := 0
		current, err := cartRepo.Find(ctx, userID, req.ProductID)
		switch {
		case err == nil:
			existing = current.Quantity
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart row")
		}

		desired := existing + req.Quantity
		if err := checkStock(product, desired); err != nil {
			return err
		}

		item := &models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: desired}
		if err := cartRepo.Upsert(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save cart row")
		}
		line = LineDTO{ProductID: req.ProductID, Quantity: desired}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &line, nil
}

func (s *service) UpdateQuantity(ctx context.Context, userID uuid.UUID, req UpdateQuantityRequest) (*LineDTO, error) {
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "la cantidad debe ser mayor a 0")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		product, err := s.lockProduct(ctx, tx, req.ProductID)
		if err != nil {
			return err
		}
		if err := checkStock(product, req.Quantity); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).SetQuantity(ctx, userID, req.ProductID, req.Quantity); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "el producto no está en el carrito")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart row")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &LineDTO{ProductID: req.ProductID, Quantity: req.Quantity}, nil
}

func (s *service) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "el producto no está en el carrito")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "remove cart row")
	}
	return nil
}

func (s *service) Total(ctx context.Context, userID uuid.UUID) (*TotalDTO, error) {
	lines, err := s.repo.ListLines(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	priced := make([]checkout.Line, 0, len(lines))
	for _, line := range lines {
		priced = append(priced, checkout.Line{UnitPrice: line.Price, Quantity: line.Quantity})
	}
	return FromTotals(checkout.Quote(priced, s.shipping)), nil
}

func (s *service) lockProduct(ctx context.Context, tx *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.WithTx(tx).FindForUpdate(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "producto no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock product")
	}
	return product, nil
}

func checkStock(product *models.Product, quantity int) error {
	return checkout.ValidateStock([]checkout.StockValidationInput{{
		ProductID:   product.ID,
		ProductName: product.Name,
		Stock:       product.Stock,
		Quantity:    quantity,
	}})
}
