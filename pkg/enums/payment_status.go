package enums

import (
	"fmt"
	"strings"
)

// PaymentStatus is the local label for the gateway's payment state.
type PaymentStatus string

const (
	PaymentStatusPending     PaymentStatus = "Pendiente"
	PaymentStatusCompleted   PaymentStatus = "Completado"
	PaymentStatusRejected    PaymentStatus = "Rechazado"
	PaymentStatusCancelled   PaymentStatus = "Cancelado"
	PaymentStatusExpired     PaymentStatus = "Expirado"
	PaymentStatusAuthorized  PaymentStatus = "Autorizado"
	PaymentStatusInProcess   PaymentStatus = "En proceso"
	PaymentStatusInMediation PaymentStatus = "En mediación"
	PaymentStatusRefunded    PaymentStatus = "Reembolsado"
	PaymentStatusChargedBack PaymentStatus = "Contracargo"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusCompleted,
	PaymentStatusRejected,
	PaymentStatusCancelled,
	PaymentStatusExpired,
	PaymentStatusAuthorized,
	PaymentStatusInProcess,
	PaymentStatusInMediation,
	PaymentStatusRefunded,
	PaymentStatusChargedBack,
}

var gatewayPaymentStatuses = map[string]PaymentStatus{
	"pending":      PaymentStatusPending,
	"approved":     PaymentStatusCompleted,
	"rejected":     PaymentStatusRejected,
	"cancelled":    PaymentStatusCancelled,
	"expired":      PaymentStatusExpired,
	"authorized":   PaymentStatusAuthorized,
	"in_process":   PaymentStatusInProcess,
	"in_mediation": PaymentStatusInMediation,
	"refunded":     PaymentStatusRefunded,
	"charged_back": PaymentStatusChargedBack,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsCaptured reports whether the gateway took the customer's money at some
// point, which includes later refunds, disputes and chargebacks.
func (p PaymentStatus) IsCaptured() bool {
	switch p {
	case PaymentStatusCompleted, PaymentStatusAuthorized, PaymentStatusInMediation,
		PaymentStatusRefunded, PaymentStatusChargedBack:
		return true
	}
	return false
}

// PaymentStatusFromGateway maps a Mercado Pago payment status to the local
// label. Unknown values map to Pendiente.
func PaymentStatusFromGateway(status string) PaymentStatus {
	if mapped, ok := gatewayPaymentStatuses[strings.ToLower(strings.TrimSpace(status))]; ok {
		return mapped
	}
	return PaymentStatusPending
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}
