package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatusIsCaptured(t *testing.T) {
	captured := []PaymentStatus{
		PaymentStatusCompleted, PaymentStatusAuthorized, PaymentStatusInMediation,
		PaymentStatusRefunded, PaymentStatusChargedBack,
	}
	for _, s := range captured {
		assert.True(t, s.IsCaptured(), s)
	}
	open := []PaymentStatus{
		PaymentStatusPending, PaymentStatusRejected, PaymentStatusCancelled,
		PaymentStatusExpired, PaymentStatusInProcess, "",
	}
	for _, s := range open {
		assert.False(t, s.IsCaptured(), s)
	}
}
