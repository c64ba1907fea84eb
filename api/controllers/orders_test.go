package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/petfood-backend/internal/cart"
	checkoutsvc "github.com/angelmondragon/petfood-backend/internal/checkout"
	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/internal/products"
	"github.com/angelmondragon/petfood-backend/internal/testdb"
	mpwebhook "github.com/angelmondragon/petfood-backend/internal/webhooks/mercadopago"
	"github.com/angelmondragon/petfood-backend/pkg/auth"
	pricing "github.com/angelmondragon/petfood-backend/pkg/checkout"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/mercadopago"
)

type recordingWebhook struct {
	got     []mpwebhook.Notification
	outcome mpwebhook.Outcome
	err     error
}

func (r *recordingWebhook) Handle(_ context.Context, n mpwebhook.Notification) (mpwebhook.Outcome, error) {
	r.got = append(r.got, n)
	return r.outcome, r.err
}

func TestMercadoPagoWebhookMergesQueryAndBody(t *testing.T) {
	svc := &recordingWebhook{outcome: mpwebhook.OutcomeApplied}
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago?type=payment",
		strings.NewReader(`{"action":"payment.updated","data":{"id":987654}}`))
	req.Header.Set("x-signature", "ts=1700000000,v1=abc123")
	req.Header.Set("x-request-id", "req-42")
	w := httptest.NewRecorder()

	MercadoPagoWebhook(svc, testLogger())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.got, 1)
	n := svc.got[0]
	assert.Equal(t, "payment", n.Topic)
	assert.Equal(t, "987654", n.PaymentID)
	assert.Equal(t, "ts=1700000000,v1=abc123", n.Signature)
	assert.Equal(t, "req-42", n.RequestID)

	var body struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "applied", body.Data["status"])
}

func TestMercadoPagoWebhookQueryIDWins(t *testing.T) {
	svc := &recordingWebhook{outcome: mpwebhook.OutcomeIgnored}
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago?data.id=111&topic=Payment",
		strings.NewReader(`{"type":"merchant_order","data":{"id":"222"}}`))
	w := httptest.NewRecorder()

	MercadoPagoWebhook(svc, testLogger())(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.got, 1)
	assert.Equal(t, "111", svc.got[0].PaymentID)
	assert.Equal(t, "payment", svc.got[0].Topic)
	assert.Empty(t, svc.got[0].Signature)
}

func TestMercadoPagoWebhookErrorStatuses(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
	}{
		"bad signature":   {pkgerrors.Wrap(pkgerrors.CodeUnauthorized, errors.New("mismatch"), "firma inválida"), http.StatusUnauthorized},
		"gateway down":    {pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("timeout"), "fetch mercadopago payment"), http.StatusInternalServerError},
		"missing payment": {pkgerrors.New(pkgerrors.CodeValidation, "falta el id del pago"), http.StatusBadRequest},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &recordingWebhook{err: tc.err}
			req := httptest.NewRequest(http.MethodPost, "/api/webhooks/mercadopago?type=payment&data.id=1", nil)
			w := httptest.NewRecorder()

			MercadoPagoWebhook(svc, testLogger())(w, req)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

type unusedGateway struct{}

func (unusedGateway) CreatePreference(context.Context, mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	return nil, errors.New("gateway must not be called")
}

func (unusedGateway) GetPayment(context.Context, string) (*mercadopago.Payment, error) {
	return nil, errors.New("gateway must not be called")
}

func TestCheckoutEmptyCart(t *testing.T) {
	client, conn := testdb.Client(t)
	user := &models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: enums.RoleCustomer}
	require.NoError(t, conn.Create(user).Error)

	svc, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		TxRunner:      client,
		CartRepo:      cart.NewRepository(conn),
		OrdersRepo:    orders.NewRepository(conn),
		ProductRepo:   products.NewRepository(conn),
		Gateway:       unusedGateway{},
		ShippingRule:  pricing.DefaultShippingRule,
		BackendURL:    "https://api.example.com",
		FrontendURL:   "https://shop.example.com",
		PreferenceTTL: time.Hour,
	})
	require.NoError(t, err)
	handler := Checkout(svc, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/checkout", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), auth.Principal{UserID: user.ID, Role: enums.RoleCustomer}))
	w := httptest.NewRecorder()
	handler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decodeError(t, w)
	assert.Equal(t, string(pkgerrors.CodeValidation), apiErr.Code)
	assert.Equal(t, checkoutsvc.EmptyCartMessage, apiErr.Message)

	var count int64
	require.NoError(t, conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)

	w = httptest.NewRecorder()
	handler(w, httptest.NewRequest(http.MethodPost, "/api/checkout", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
