package mercadopago

import "fmt"

// Item is one preference line.
type Item struct {
	ID         string  `json:"id,omitempty"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id,omitempty"`
}

// BackURLs are the storefront pages the buyer returns to.
type BackURLs struct {
	Success string `json:"success,omitempty"`
	Failure string `json:"failure,omitempty"`
	Pending string `json:"pending,omitempty"`
}

// Shipments carries a flat shipping cost.
type Shipments struct {
	Cost float64 `json:"cost"`
	Mode string  `json:"mode,omitempty"`
}

// Payer identifies the buyer to the gateway.
type Payer struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// PreferenceRequest is the body of POST /checkout/preferences.
type PreferenceRequest struct {
	Items               []Item     `json:"items"`
	Payer               *Payer     `json:"payer,omitempty"`
	ExternalReference   string     `json:"external_reference"`
	BackURLs            BackURLs   `json:"back_urls"`
	AutoReturn          string     `json:"auto_return,omitempty"`
	NotificationURL     string     `json:"notification_url,omitempty"`
	Shipments           *Shipments `json:"shipments,omitempty"`
	Expires             bool       `json:"expires"`
	ExpirationDateTo    string     `json:"expiration_date_to,omitempty"`
	StatementDescriptor string     `json:"statement_descriptor,omitempty"`
}

// Preference is the subset of the created preference we keep.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}

// Payment is the subset of GET /v1/payments/{id} we consume.
type Payment struct {
	ID                int64   `json:"id"`
	Status            string  `json:"status"`
	StatusDetail      string  `json:"status_detail"`
	ExternalReference string  `json:"external_reference"`
	PaymentTypeID     string  `json:"payment_type_id"`
	PaymentMethodID   string  `json:"payment_method_id"`
	TransactionAmount float64 `json:"transaction_amount"`
}

// APIError is returned for non-2xx gateway responses.
type APIError struct {
	StatusCode int    `json:"status"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mercadopago: status %d: %s %s", e.StatusCode, e.Code, e.Message)
}

// Temporary reports whether retrying may succeed.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}
