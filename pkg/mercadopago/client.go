// Package mercadopago is a minimal REST client for the two Mercado Pago calls
// the shop makes: creating a checkout preference and reading a payment.
package mercadopago

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/petfood-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
	"github.com/angelmondragon/petfood-backend/pkg/metrics"
)

const (
	defaultBaseURL              = "https://api.mercadopago.com"
	defaultTimeout              = 10 * time.Second
	breakerName                 = "mercadopago"
	responseBodyReadLimit int64 = 4096
)

var (
	errAccessTokenRequired = errors.New("mercado pago access token is required")

	// ErrPaymentNotFound is returned when the gateway has no such payment.
	ErrPaymentNotFound = errors.New("mercado pago payment not found")
)

// Gateway is the surface used by checkout and the webhook.
type Gateway interface {
	CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

// Client calls the Mercado Pago REST API behind a circuit breaker.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	sandbox     bool
	breaker     *gobreaker.CircuitBreaker[any]
	metrics     *metrics.BreakerMetrics
	logg        *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithMetrics exports breaker state on the given metrics.
func WithMetrics(m *metrics.BreakerMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger logs breaker transitions.
func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds the gateway client from configuration.
func NewClient(cfg config.MercadoPagoConfig, opts ...Option) (*Client, error) {
	token := strings.TrimSpace(cfg.AccessToken)
	if token == "" {
		return nil, errAccessTokenRequired
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     defaultBaseURL,
		accessToken: token,
		sandbox:     cfg.Sandbox,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		client.baseURL = strings.TrimSpace(cfg.BaseURL)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	client.metrics.SetState(breakerName, metrics.BreakerClosed)
	client.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		// Client errors (bad request, unknown payment) say nothing about
		// gateway health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return !apiErr.Temporary()
			}
			return false
		},
		OnStateChange: client.onStateChange,
	})

	return client, nil
}

func (c *Client) onStateChange(name string, from, to gobreaker.State) {
	c.metrics.SetState(name, stateValue(to))
	c.metrics.Transition(name, from.String(), to.String())
	if c.logg != nil {
		ctx := c.logg.WithFields(context.Background(), map[string]any{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		})
		c.logg.Warn(ctx, "payment gateway circuit breaker state change")
	}
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	default:
		return metrics.BreakerClosed
	}
}

// CreatePreference registers a checkout preference and returns the buyer
// redirect URL in InitPoint (the sandbox URL when configured for sandbox).
func (c *Client) CreatePreference(ctx context.Context, req PreferenceRequest) (*Preference, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	if len(req.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference requires at least one item")
	}
	if strings.TrimSpace(req.ExternalReference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "preference requires an external reference")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal preference request")
	}

	var pref Preference
	if err := c.do(ctx, http.MethodPost, "/checkout/preferences", payload, &pref); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment preference")
	}
	if c.sandbox && pref.SandboxInitPoint != "" {
		pref.InitPoint = pref.SandboxInitPoint
	}
	if pref.ID == "" || pref.InitPoint == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment preference response missing id or init point")
	}
	return &pref, nil
}

// GetPayment reads a payment by id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "mercado pago client not configured")
	}
	trimmed := strings.TrimSpace(paymentID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment id is required")
	}

	var payment Payment
	err := c.do(ctx, http.MethodGet, "/v1/payments/"+url.PathEscape(trimmed), nil, &payment)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrPaymentNotFound, "pago no encontrado")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get payment")
	}
	return &payment, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, body, out)
	})
	switch {
	case err == nil:
		c.metrics.Result(breakerName, "success")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.Result(breakerName, "rejected")
	default:
		c.metrics.Result(breakerName, "failure")
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	endpoint := strings.TrimRight(c.baseURL, "/") + path
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.accessToken)
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		apiErr := &APIError{}
		_ = json.Unmarshal(raw, apiErr)
		apiErr.StatusCode = resp.StatusCode
		if apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
