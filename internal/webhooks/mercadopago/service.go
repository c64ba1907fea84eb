package mpwebhook

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/mercadopago"
)

// Outcome describes what happened to a notification. Every outcome is
// acknowledged to the gateway with 200.
type Outcome string

const (
	OutcomeApplied      Outcome = "applied"
	OutcomeIgnored      Outcome = "ignored"
	OutcomeDuplicate    Outcome = "duplicate"
	OutcomeUnknownOrder Outcome = "unknown_order"
	OutcomeSuperseded   Outcome = "superseded"
)

type paymentFetcher interface {
	GetPayment(ctx context.Context, paymentID string) (*mercadopago.Payment, error)
}

type paymentApplier interface {
	ApplyPayment(ctx context.Context, id uuid.UUID, update orders.PaymentUpdate) error
}

// Service turns Mercado Pago notifications into order payment updates.
type Service struct {
	gateway  paymentFetcher
	orders   paymentApplier
	guard    *IdempotencyGuard
	verifier *mercadopago.SignatureVerifier
	logg     *logger.Logger
}

// ServiceParams wires the webhook service. A nil Verifier disables
// signature checks.
type ServiceParams struct {
	Gateway  paymentFetcher
	Orders   paymentApplier
	Guard    *IdempotencyGuard
	Verifier *mercadopago.SignatureVerifier
	Logger   *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Gateway == nil {
		return nil, errors.New("payment gateway required")
	}
	if params.Orders == nil {
		return nil, errors.New("orders service required")
	}
	if params.Guard == nil {
		return nil, errors.New("idempotency guard required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &Service{
		gateway:  params.Gateway,
		orders:   params.Orders,
		guard:    params.Guard,
		verifier: params.Verifier,
		logg:     params.Logger,
	}, nil
}

// Handle processes one notification. A returned error means the gateway
// should retry.
func (s *Service) Handle(ctx context.Context, n Notification) (Outcome, error) {
	ctx = s.logg.WithFields(ctx, map[string]any{
		"webhook_topic": n.Topic,
		"payment_id":    n.PaymentID,
	})

	if !n.IsPayment() {
		s.logg.Info(ctx, "mercadopago notification ignored")
		return OutcomeIgnored, nil
	}
	if n.PaymentID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "falta el id del pago")
	}

	if err := s.verifier.Verify(n.Signature, n.RequestID, n.PaymentID); err != nil {
		s.logg.Warn(ctx, "mercadopago signature rejected: "+err.Error())
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "firma inválida")
	}

	payment, err := s.gateway.GetPayment(ctx, n.PaymentID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(ctx, "mercadopago payment not found")
			return OutcomeIgnored, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch mercadopago payment")
	}

	status := enums.PaymentStatusFromGateway(payment.Status)
	paymentID := strconv.FormatInt(payment.ID, 10)
	if payment.ID == 0 {
		paymentID = n.PaymentID
	}
	ctx = s.logg.WithField(ctx, "payment_status", string(status))

	orderID, err := uuid.Parse(strings.TrimSpace(payment.ExternalReference))
	if err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("mercadopago payment has no usable external reference %q", payment.ExternalReference))
		return OutcomeUnknownOrder, nil
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	duplicate, err := s.guard.CheckAndMark(ctx, paymentID, string(status))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "webhook dedup")
	}
	if duplicate {
		s.logg.Info(ctx, "mercadopago notification already processed")
		return OutcomeDuplicate, nil
	}

	err = s.orders.ApplyPayment(ctx, orderID, orders.PaymentUpdate{
		Status:    status,
		Method:    payment.PaymentMethodID,
		PaymentID: paymentID,
	})
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			s.logg.Warn(ctx, "mercadopago payment references an unknown order")
			return OutcomeUnknownOrder, nil
		}
		if errors.Is(err, orders.ErrPaymentSuperseded) {
			s.logg.Warn(ctx, "order already captured by another payment, notification dropped")
			return OutcomeSuperseded, nil
		}
		if relErr := s.guard.Release(ctx, paymentID, string(status)); relErr != nil {
			s.logg.Error(ctx, "release webhook dedup key", relErr)
		}
		return "", err
	}

	s.logg.Info(ctx, "order payment updated")
	return OutcomeApplied, nil
}
