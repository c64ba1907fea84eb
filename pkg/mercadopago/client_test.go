package mercadopago

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/petfood-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/metrics"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, sandbox bool) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.MercadoPagoConfig{
		AccessToken: "TEST-token",
		BaseURL:     srv.URL,
		Sandbox:     sandbox,
	}, WithMetrics(metrics.NewBreakerMetrics(prometheus.NewRegistry())))
	require.NoError(t, err)
	return client
}

func TestNewClientRequiresToken(t *testing.T) {
	_, err := NewClient(config.MercadoPagoConfig{})
	assert.Error(t, err)
}

func TestCreatePreference(t *testing.T) {
	var body PreferenceRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout/preferences", r.URL.Path)
		assert.Equal(t, "Bearer TEST-token", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp/checkout","sandbox_init_point":"https://sandbox.mp/checkout"}`))
	}, false)

	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items:             []Item{{ID: "p1", Title: "Croquetas", Quantity: 2, UnitPrice: 250.5, CurrencyID: "MXN"}},
		ExternalReference: "order-1",
		Shipments:         &Shipments{Cost: 199},
	})
	require.NoError(t, err)
	assert.Equal(t, "pref-1", pref.ID)
	assert.Equal(t, "https://mp/checkout", pref.InitPoint)
	assert.Equal(t, "order-1", body.ExternalReference)
	assert.Equal(t, 250.5, body.Items[0].UnitPrice)
	assert.Equal(t, float64(199), body.Shipments.Cost)
}

func TestCreatePreferenceSandboxURL(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp/checkout","sandbox_init_point":"https://sandbox.mp/checkout"}`))
	}, true)

	pref, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items:             []Item{{Title: "x", Quantity: 1, UnitPrice: 1}},
		ExternalReference: "order-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://sandbox.mp/checkout", pref.InitPoint)
}

func TestCreatePreferenceValidatesInput(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("gateway must not be called")
	}, false)

	_, err := client.CreatePreference(context.Background(), PreferenceRequest{ExternalReference: "o"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreatePreferenceUpstreamFailureIsDependencyError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"message":"upstream down","error":"bad_gateway","status":502}`))
	}, false)

	_, err := client.CreatePreference(context.Background(), PreferenceRequest{
		Items:             []Item{{Title: "x", Quantity: 1, UnitPrice: 1}},
		ExternalReference: "order-1",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.True(t, apiErr.Temporary())
}

func TestGetPayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/payments/123", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":123,"status":"approved","external_reference":"order-1","payment_type_id":"credit_card"}`))
	}, false)

	payment, err := client.GetPayment(context.Background(), "123")
	require.NoError(t, err)
	assert.Equal(t, int64(123), payment.ID)
	assert.Equal(t, "approved", payment.Status)
	assert.Equal(t, "order-1", payment.ExternalReference)
	assert.Equal(t, "credit_card", payment.PaymentTypeID)
}

func TestGetPaymentNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Payment not found","error":"not_found","status":404}`))
	}, false)

	_, err := client.GetPayment(context.Background(), "999")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}, false)

	for i := 0; i < 5; i++ {
		_, _ = client.GetPayment(context.Background(), "1")
	}
	_, err := client.GetPayment(context.Background(), "1")
	require.Error(t, err)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, false)

	for i := 0; i < 10; i++ {
		_, err := client.GetPayment(context.Background(), "1")
		assert.ErrorIs(t, err, ErrPaymentNotFound)
	}
}
