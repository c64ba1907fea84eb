package mpwebhook

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/mercadopago"
)

type memoryStore struct {
	keys map[string]bool
	err  error
}

func newMemoryStore() *memoryStore { return &memoryStore{keys: map[string]bool{}} }

func (m *memoryStore) SetNX(_ context.Context, key string, _ any, _ time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.keys, k)
	}
	return nil
}

func (m *memoryStore) WebhookKey(provider, id string) string {
	return fmt.Sprintf("webhook:%s:%s", provider, id)
}

type stubGateway struct {
	payment *mercadopago.Payment
	err     error
	calls   int
}

func (g *stubGateway) GetPayment(context.Context, string) (*mercadopago.Payment, error) {
	g.calls++
	return g.payment, g.err
}

type recordingOrders struct {
	updates []orders.PaymentUpdate
	ids     []uuid.UUID
	err     error
}

func (r *recordingOrders) ApplyPayment(_ context.Context, id uuid.UUID, update orders.PaymentUpdate) error {
	if r.err != nil {
		return r.err
	}
	r.ids = append(r.ids, id)
	r.updates = append(r.updates, update)
	return nil
}

func newTestService(t *testing.T, gw *stubGateway, ord *recordingOrders, store *memoryStore, verifier *mercadopago.SignatureVerifier) *Service {
	t.Helper()
	guard, err := NewIdempotencyGuard(store, time.Hour)
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Gateway:  gw,
		Orders:   ord,
		Guard:    guard,
		Verifier: verifier,
		Logger:   logger.New(logger.Options{ServiceName: "test"}),
	})
	require.NoError(t, err)
	return svc
}

func approved(orderID uuid.UUID) *mercadopago.Payment {
	return &mercadopago.Payment{
		ID:                123,
		Status:            "approved",
		ExternalReference: orderID.String(),
		PaymentMethodID:   "visa",
	}
}

func TestHandleAppliesPaymentOnce(t *testing.T) {
	orderID := uuid.New()
	gw := &stubGateway{payment: approved(orderID)}
	ord := &recordingOrders{}
	store := newMemoryStore()
	svc := newTestService(t, gw, ord, store, nil)

	n := Notification{Topic: "payment", PaymentID: "123"}
	outcome, err := svc.Handle(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	require.Len(t, ord.updates, 1)
	assert.Equal(t, orderID, ord.ids[0])
	assert.Equal(t, enums.PaymentStatusCompleted, ord.updates[0].Status)
	assert.Equal(t, "visa", ord.updates[0].Method)
	assert.Equal(t, "123", ord.updates[0].PaymentID)
	assert.True(t, store.keys["webhook:mercadopago:123:Completado"])

	outcome, err = svc.Handle(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
	assert.Len(t, ord.updates, 1)
}

func TestHandleNewStatusForSamePaymentIsApplied(t *testing.T) {
	orderID := uuid.New()
	gw := &stubGateway{payment: &mercadopago.Payment{ID: 9, Status: "pending", ExternalReference: orderID.String()}}
	ord := &recordingOrders{}
	svc := newTestService(t, gw, ord, newMemoryStore(), nil)

	_, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "9"})
	require.NoError(t, err)

	gw.payment = &mercadopago.Payment{ID: 9, Status: "approved", ExternalReference: orderID.String()}
	outcome, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "9"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
	require.Len(t, ord.updates, 2)
	assert.Equal(t, enums.PaymentStatusPending, ord.updates[0].Status)
	assert.Equal(t, enums.PaymentStatusCompleted, ord.updates[1].Status)
}

func TestHandleIgnoresOtherTopics(t *testing.T) {
	gw := &stubGateway{}
	svc := newTestService(t, gw, &recordingOrders{}, newMemoryStore(), nil)

	outcome, err := svc.Handle(context.Background(), Notification{Topic: "merchant_order", PaymentID: "1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
	assert.Zero(t, gw.calls)
}

func TestHandleUnknownOrderIsAcknowledged(t *testing.T) {
	ord := &recordingOrders{err: pkgerrors.New(pkgerrors.CodeNotFound, "orden no encontrada")}
	svc := newTestService(t, &stubGateway{payment: approved(uuid.New())}, ord, newMemoryStore(), nil)

	outcome, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "123"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownOrder, outcome)

	badRef := &stubGateway{payment: &mercadopago.Payment{ID: 5, Status: "approved", ExternalReference: "not-a-uuid"}}
	svc = newTestService(t, badRef, &recordingOrders{}, newMemoryStore(), nil)
	outcome, err = svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "5"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeUnknownOrder, outcome)
}

func TestHandleReleasesKeyWhenApplyFails(t *testing.T) {
	orderID := uuid.New()
	ord := &recordingOrders{err: errors.New("db down")}
	store := newMemoryStore()
	svc := newTestService(t, &stubGateway{payment: approved(orderID)}, ord, store, nil)

	_, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "123"})
	require.Error(t, err)
	assert.Empty(t, store.keys)

	ord.err = nil
	outcome, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "123"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
}

func TestHandleSupersededPaymentIsAcknowledged(t *testing.T) {
	orderID := uuid.New()
	ord := &recordingOrders{err: fmt.Errorf("apply: %w", orders.ErrPaymentSuperseded)}
	store := newMemoryStore()
	gw := &stubGateway{payment: &mercadopago.Payment{ID: 111, Status: "rejected", ExternalReference: orderID.String()}}
	svc := newTestService(t, gw, ord, store, nil)

	outcome, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "111"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuperseded, outcome)
	assert.True(t, store.keys["webhook:mercadopago:111:Rechazado"], "key is kept so retries stay duplicates")

	outcome, err = svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "111"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeDuplicate, outcome)
}

func TestHandleGatewayFailures(t *testing.T) {
	svc := newTestService(t, &stubGateway{err: errors.New("timeout")}, &recordingOrders{}, newMemoryStore(), nil)
	_, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	notFound := pkgerrors.Wrap(pkgerrors.CodeNotFound, mercadopago.ErrPaymentNotFound, "pago no encontrado")
	svc = newTestService(t, &stubGateway{err: notFound}, &recordingOrders{}, newMemoryStore(), nil)
	outcome, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "1"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, outcome)
}

func TestHandleVerifiesSignature(t *testing.T) {
	orderID := uuid.New()
	verifier := mercadopago.NewSignatureVerifier("s3cret", 0)
	svc := newTestService(t, &stubGateway{payment: approved(orderID)}, &recordingOrders{}, newMemoryStore(), verifier)

	_, err := svc.Handle(context.Background(), Notification{Topic: "payment", PaymentID: "123", RequestID: "req-1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	ts := "1714557600"
	sig := mercadopago.Sign([]byte("s3cret"), "id:123;request-id:req-1;ts:"+ts+";")
	outcome, err := svc.Handle(context.Background(), Notification{
		Topic:     "payment",
		PaymentID: "123",
		RequestID: "req-1",
		Signature: "ts=" + ts + ",v1=" + sig,
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeApplied, outcome)
}

func TestHandleRequiresPaymentID(t *testing.T) {
	svc := newTestService(t, &stubGateway{}, &recordingOrders{}, newMemoryStore(), nil)
	_, err := svc.Handle(context.Background(), Notification{Topic: "payment"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseNotification(t *testing.T) {
	q := url.Values{}
	q.Set("type", "payment")
	q.Set("data.id", "77")
	n := ParseNotification(q, nil)
	assert.Equal(t, Notification{Topic: "payment", PaymentID: "77"}, n)

	n = ParseNotification(url.Values{}, []byte(`{"action":"payment.updated","data":{"id":"88"}}`))
	assert.Equal(t, "payment", n.Topic)
	assert.Equal(t, "88", n.PaymentID)

	n = ParseNotification(url.Values{}, []byte(`{"type":"payment","data":{"id":99}}`))
	assert.Equal(t, "99", n.PaymentID)
	assert.True(t, n.IsPayment())

	n = ParseNotification(url.Values{"topic": {"merchant_order"}, "id": {"5"}}, nil)
	assert.False(t, n.IsPayment())
}
