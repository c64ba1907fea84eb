package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/products"
	"github.com/angelmondragon/petfood-backend/pkg/auth"
	"github.com/angelmondragon/petfood-backend/pkg/authz"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/pagination"
)

const notFoundMessage = "orden no encontrada"

// ErrPaymentSuperseded is returned by ApplyPayment when the order was already
// captured by a different gateway payment.
var ErrPaymentSuperseded = errors.New("order already captured by another payment")

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// InventoryReleaser returns units to stock when an order is cancelled or purged.
type InventoryReleaser interface {
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

// Service defines order operations beyond checkout.
type Service interface {
	List(ctx context.Context, params pagination.Params) (*OrderList, error)
	Mine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error)
	Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*OrderDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*OrderDTO, error)
	ApplyPayment(ctx context.Context, id uuid.UUID, update PaymentUpdate) error
	ExpirePending(ctx context.Context, before time.Time) (int64, error)
	Cleanup(ctx context.Context, policy CleanupPolicy) (CleanupResult, error)
}

type service struct {
	repo      Repository
	tx        txRunner
	checker   authz.Checker
	inventory InventoryReleaser
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, checker authz.Checker, inventory InventoryReleaser) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if checker == nil {
		return nil, fmt.Errorf("authorization checker required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory releaser required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		checker:   checker,
		inventory: inventory,
	}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*OrderList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cursor inválido")
	}

	rows, err := s.repo.List(ctx, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	page, next := pagination.Window(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return &OrderList{Orders: FromModels(page), NextCursor: next}, nil
}

func (s *service) Mine(ctx context.Context, userID uuid.UUID) ([]OrderDTO, error) {
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list user orders")
	}
	return FromModels(rows), nil
}

// Get returns the order to its owner or to staff holding order:read_all.
func (s *service) Get(ctx context.Context, actor auth.Principal, id uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLookupError(err, "load order")
	}
	if order.UserID != actor.UserID {
		if decision := s.checker.Can(actor.Role, enums.PermOrderReadAll); !decision.Allowed {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no tienes acceso a esta orden").
				WithDetails(map[string]string{"reason": string(decision.Reason)})
		}
	}
	dto := FromModel(order)
	return &dto, nil
}

// Delete removes an order. Orders still in Preparando give their units back.
func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return mapLookupError(err, "load order")
		}
		if order.OrderStatus == enums.OrderStatusPreparing {
			if _, err := s.restock(ctx, tx, order); err != nil {
				return err
			}
		}
		if err := repo.Delete(ctx, id); err != nil {
			return mapLookupError(err, "delete order")
		}
		return nil
	})
}

// UpdateStatus moves the order along the fulfillment state machine.
// Re-applying the current status is a no-op; moving to Cancelado restocks.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, raw string) (*OrderDTO, error) {
	next, err := enums.ParseOrderStatus(strings.TrimSpace(raw))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estado de orden inválido")
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return mapLookupError(err, "load order")
		}
		if order.OrderStatus == next {
			updated = order
			return nil
		}
		if !order.OrderStatus.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "transición de estado no permitida").
				WithDetails(map[string]any{
					"actual":     order.OrderStatus,
					"solicitado": next,
					"permitidos": order.OrderStatus.AllowedTransitions(),
				})
		}
		if next == enums.OrderStatusCancelled {
			if _, err := s.restock(ctx, tx, order); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, id, map[string]any{"order_status": next}); err != nil {
			return mapLookupError(err, "update order status")
		}
		order.OrderStatus = next
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(updated)
	return &dto, nil
}

// ApplyPayment records the gateway state on the order. The write is absolute,
// so repeating it with the same update leaves the row unchanged. Once a
// payment has been captured, notifications about any other payment id are
// refused with ErrPaymentSuperseded.
func (s *service) ApplyPayment(ctx context.Context, id uuid.UUID, update PaymentUpdate) error {
	if !update.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "estado de pago inválido")
	}
	paymentID := strings.TrimSpace(update.PaymentID)
	fields := map[string]any{"payment_status": update.Status}
	if v := strings.TrimSpace(update.Method); v != "" {
		fields["payment_method"] = v
	}
	if paymentID != "" {
		fields["payment_id"] = paymentID
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return mapLookupError(err, "load order")
		}
		if order.PaymentStatus.IsCaptured() && order.PaymentID != nil && paymentID != "" && *order.PaymentID != paymentID {
			return ErrPaymentSuperseded
		}
		if err := repo.Update(ctx, id, fields); err != nil {
			return mapLookupError(err, "apply payment")
		}
		return nil
	})
}

func (s *service) ExpirePending(ctx context.Context, before time.Time) (int64, error) {
	n, err := s.repo.MarkExpired(ctx, before)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "expire pending orders")
	}
	return n, nil
}

// Cleanup deletes Expirado orders older than ExpiredMaxAge and Rechazado
// orders older than RejectedMaxAge. Each order is re-read under lock and
// purged in its own transaction together with its restock; failures are
// collected and the pass continues.
func (s *service) Cleanup(ctx context.Context, policy CleanupPolicy) (CleanupResult, error) {
	now := policy.Now
	if now.IsZero() {
		now = time.Now()
	}
	targets := []struct {
		status enums.PaymentStatus
		maxAge time.Duration
	}{
		{enums.PaymentStatusExpired, policy.ExpiredMaxAge},
		{enums.PaymentStatusRejected, policy.RejectedMaxAge},
	}

	var (
		result CleanupResult
		errs   error
	)
	for _, target := range targets {
		if target.maxAge <= 0 {
			continue
		}
		cutoff := now.Add(-target.maxAge).UTC()
		stale, err := s.repo.FindStale(ctx, target.status, cutoff)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("find %s orders: %w", target.status, err))
			continue
		}
		for i := range stale {
			id := stale[i].ID
			var (
				purged bool
				units  int
			)
			err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
				repo := s.repo.WithTx(tx)
				order, err := repo.FindForUpdate(ctx, id)
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				// A webhook may have moved the order on since the scan.
				if order.PaymentStatus != target.status || !order.CreatedAt.Before(cutoff) {
					return nil
				}
				// Only Preparando still holds reserved units. Cancelled orders
				// were restocked on cancel; shipped ones left the warehouse.
				if order.OrderStatus == enums.OrderStatusPreparing {
					if units, err = s.restock(ctx, tx, order); err != nil {
						return err
					}
				}
				if err := repo.Delete(ctx, id); err != nil {
					return err
				}
				purged = true
				return nil
			})
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("purge order %s: %w", id, err))
				continue
			}
			if purged {
				result.Deleted++
				result.Restocked += units
			}
		}
	}
	if errs != nil {
		return result, pkgerrors.Wrap(pkgerrors.CodeInternal, errs, "cleanup orders")
	}
	return result, nil
}

func (s *service) restock(ctx context.Context, tx *gorm.DB, order *models.Order) (int, error) {
	units := 0
	for _, line := range order.LineItems {
		if line.ProductID == nil {
			continue
		}
		if err := s.inventory.Release(ctx, tx, *line.ProductID, line.Quantity); err != nil {
			return units, err
		}
		units += line.Quantity
	}
	return units, nil
}

func mapLookupError(err error, op string) error {
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

type inventoryReleaserImpl struct{}

// NewInventoryReleaser returns units through the product repository.
func NewInventoryReleaser() InventoryReleaser {
	return inventoryReleaserImpl{}
}

func (inventoryReleaserImpl) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if qty <= 0 {
		return nil
	}
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}
	if err := products.NewRepository(tx).IncrementStock(ctx, productID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "release inventory")
	}
	return nil
}
