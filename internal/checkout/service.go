package checkout

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/cart"
	"github.com/angelmondragon/petfood-backend/internal/checkout/reservation"
	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/internal/products"
	"github.com/angelmondragon/petfood-backend/pkg/auth"
	pricing "github.com/angelmondragon/petfood-backend/pkg/checkout"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/mercadopago"
)

// EmptyCartMessage is returned when checkout finds nothing to buy.
const EmptyCartMessage = "El carrito está vacío"

const mpTimeLayout = "2006-01-02T15:04:05.000-07:00"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type reservationRunner interface {
	Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockReservationRequest) error
}

type reservationEngine struct{}

func (reservationEngine) Reserve(ctx context.Context, tx *gorm.DB, requests []reservation.StockReservationRequest) error {
	return reservation.ReserveStock(ctx, tx, requests)
}

// Service turns the caller's cart into an order.
type Service interface {
	Execute(ctx context.Context, buyer auth.Principal) (*Result, error)
}

type service struct {
	tx            txRunner
	cartRepo      *cart.Repository
	ordersRepo    orders.Repository
	productRepo   *products.Repository
	gateway       mercadopago.Gateway
	reservation   reservationRunner
	shipping      pricing.ShippingRule
	currency      string
	backendURL    string
	frontendURL   string
	preferenceTTL time.Duration
	now           func() time.Time
	logg          *logger.Logger
}

// ServiceParams bundles the checkout dependencies.
type ServiceParams struct {
	TxRunner      txRunner
	CartRepo      *cart.Repository
	OrdersRepo    orders.Repository
	ProductRepo   *products.Repository
	Gateway       mercadopago.Gateway
	Reservation   reservationRunner
	ShippingRule  pricing.ShippingRule
	Currency      string
	BackendURL    string
	FrontendURL   string
	PreferenceTTL time.Duration
	Now           func() time.Time
	Logger        *logger.Logger
}

// NewService builds the checkout service.
func NewService(params ServiceParams) (Service, error) {
	if params.TxRunner == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if params.CartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.OrdersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.ProductRepo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	res := params.Reservation
	if res == nil {
		res = reservationEngine{}
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	currency := strings.TrimSpace(params.Currency)
	if currency == "" {
		currency = "MXN"
	}
	return &service{
		tx:            params.TxRunner,
		cartRepo:      params.CartRepo,
		ordersRepo:    params.OrdersRepo,
		productRepo:   params.ProductRepo,
		gateway:       params.Gateway,
		reservation:   res,
		shipping:      params.ShippingRule,
		currency:      currency,
		backendURL:    strings.TrimRight(params.BackendURL, "/"),
		frontendURL:   strings.TrimRight(params.FrontendURL, "/"),
		preferenceTTL: params.PreferenceTTL,
		now:           now,
		logg:          params.Logger,
	}, nil
}

// Execute runs the whole checkout in one transaction: lock the cart's
// products, price, insert the order and its lines, take the stock, clear the
// cart and register the payment preference. Any failure rolls all of it back.
func (s *service) Execute(ctx context.Context, buyer auth.Principal) (*Result, error) {
	var result *Result
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		lines, err := s.cartRepo.WithTx(tx).ListLines(ctx, buyer.UserID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
		}
		if len(lines) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, EmptyCartMessage)
		}

		locked, err := s.lockProducts(ctx, tx, lines)
		if err != nil {
			return err
		}

		checks := make([]pricing.StockValidationInput, 0, len(lines))
		priced := make([]pricing.Line, 0, len(lines))
		for _, line := range lines {
			product := locked[line.ProductID]
			checks = append(checks, pricing.StockValidationInput{
				ProductID:   product.ID,
				ProductName: product.Name,
				Stock:       product.Stock,
				Quantity:    line.Quantity,
			})
			priced = append(priced, pricing.Line{UnitPrice: product.Price, Quantity: line.Quantity})
		}
		if err := pricing.ValidateStock(checks); err != nil {
			return err
		}
		totals := pricing.Quote(priced, s.shipping)

		order := buildOrder(buyer.UserID, lines, locked, totals)
		ordersRepo := s.ordersRepo.WithTx(tx)
		if err := ordersRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create order")
		}

		requests := make([]reservation.StockReservationRequest, 0, len(lines))
		for _, line := range lines {
			requests = append(requests, reservation.StockReservationRequest{ProductID: line.ProductID, Qty: line.Quantity})
		}
		if err := s.reservation.Reserve(ctx, tx, requests); err != nil {
			return err
		}

		if err := s.cartRepo.WithTx(tx).Clear(ctx, buyer.UserID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear cart")
		}

		pref, err := s.gateway.CreatePreference(ctx, s.preferenceRequest(buyer, order, totals))
		if err != nil {
			return err
		}
		if err := ordersRepo.Update(ctx, order.ID, map[string]any{
			"preference_id": pref.ID,
			"payment_url":   pref.InitPoint,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store payment preference")
		}

		result = &Result{
			OrderID:      order.ID,
			PaymentURL:   pref.InitPoint,
			PreferenceID: pref.ID,
			Subtotal:     totals.Subtotal,
			Shipping:     totals.Shipping,
			Total:        totals.Total,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, result.OrderID.String())
		s.logg.Info(logCtx, "checkout.completed")
	}
	return result, nil
}

// lockProducts takes FOR UPDATE locks in product id order.
func (s *service) lockProducts(ctx context.Context, tx *gorm.DB, lines []cart.Line) (map[uuid.UUID]*models.Product, error) {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	repo := s.productRepo.WithTx(tx)
	out := make(map[uuid.UUID]*models.Product, len(ids))
	for _, id := range ids {
		product, err := repo.FindForUpdate(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lock product")
		}
		out[id] = product
	}
	return out, nil
}

func buildOrder(userID uuid.UUID, lines []cart.Line, locked map[uuid.UUID]*models.Product, totals pricing.Totals) *models.Order {
	order := &models.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Subtotal:      totals.Subtotal,
		Shipping:      totals.Shipping,
		Total:         totals.Total,
		PaymentStatus: enums.PaymentStatusPending,
		OrderStatus:   enums.OrderStatusPreparing,
	}
	for _, line := range lines {
		product := locked[line.ProductID]
		productID := product.ID
		order.LineItems = append(order.LineItems, models.OrderLineItem{
			OrderID:     order.ID,
			ProductID:   &productID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    line.Quantity,
			Subtotal:    pricing.Line{UnitPrice: product.Price, Quantity: line.Quantity}.Subtotal(),
		})
	}
	return order
}

func (s *service) preferenceRequest(buyer auth.Principal, order *models.Order, totals pricing.Totals) mercadopago.PreferenceRequest {
	items := make([]mercadopago.Item, 0, len(order.LineItems))
	for _, li := range order.LineItems {
		items = append(items, mercadopago.Item{
			ID:         li.ProductID.String(),
			Title:      li.ProductName,
			Quantity:   li.Quantity,
			UnitPrice:  li.UnitPrice.InexactFloat64(),
			CurrencyID: s.currency,
		})
	}

	req := mercadopago.PreferenceRequest{
		Items:             items,
		ExternalReference: order.ID.String(),
	}
	if s.frontendURL != "" {
		req.BackURLs = mercadopago.BackURLs{
			Success: s.frontendURL + "/pago/exito",
			Failure: s.frontendURL + "/pago/error",
			Pending: s.frontendURL + "/pago/pendiente",
		}
		req.AutoReturn = "approved"
	}
	if buyer.Email != "" {
		req.Payer = &mercadopago.Payer{Email: buyer.Email}
	}
	if s.backendURL != "" {
		req.NotificationURL = s.backendURL + "/api/ordenes/webhook"
	}
	if totals.Shipping.IsPositive() {
		req.Shipments = &mercadopago.Shipments{Cost: totals.Shipping.InexactFloat64(), Mode: "not_specified"}
	}
	if s.preferenceTTL > 0 {
		req.Expires = true
		req.ExpirationDateTo = s.now().Add(s.preferenceTTL).Format(mpTimeLayout)
	}
	return req
}
