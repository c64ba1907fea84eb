package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrMissingSignature = errors.New("missing webhook signature")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

// Signature is the parsed x-signature header ("ts=...,v1=...").
type Signature struct {
	Timestamp string
	V1        string
}

// ParseSignature splits the x-signature header.
func ParseSignature(header string) (Signature, error) {
	var sig Signature
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "ts":
			sig.Timestamp = strings.TrimSpace(value)
		case "v1":
			sig.V1 = strings.TrimSpace(value)
		}
	}
	if sig.Timestamp == "" || sig.V1 == "" {
		return Signature{}, ErrMissingSignature
	}
	return sig, nil
}

// SignatureVerifier checks notification signatures against the webhook secret.
type SignatureVerifier struct {
	secret    []byte
	tolerance time.Duration
	now       func() time.Time
}

// NewSignatureVerifier returns nil when no secret is configured, which
// disables verification.
func NewSignatureVerifier(secret string, tolerance time.Duration) *SignatureVerifier {
	if strings.TrimSpace(secret) == "" {
		return nil
	}
	return &SignatureVerifier{secret: []byte(secret), tolerance: tolerance, now: time.Now}
}

// Verify validates the x-signature header for the notified resource id and
// the x-request-id header. The signed manifest is
// "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func (v *SignatureVerifier) Verify(header, requestID, dataID string) error {
	if v == nil {
		return nil
	}
	sig, err := ParseSignature(header)
	if err != nil {
		return err
	}

	if v.tolerance > 0 {
		if ts, err := strconv.ParseInt(sig.Timestamp, 10, 64); err == nil {
			signedAt := time.UnixMilli(ts)
			if ts < 1e12 {
				signedAt = time.Unix(ts, 0)
			}
			if v.now().Sub(signedAt) > v.tolerance {
				return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
			}
		}
	}

	expected := Sign(v.secret, manifest(dataID, requestID, sig.Timestamp))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(sig.V1))) {
		return ErrInvalidSignature
	}
	return nil
}

// Sign computes the hex HMAC-SHA256 of manifest.
func Sign(secret []byte, manifest string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(manifest))
	return hex.EncodeToString(mac.Sum(nil))
}

func manifest(dataID, requestID, ts string) string {
	var b strings.Builder
	if dataID != "" {
		b.WriteString("id:" + strings.ToLower(dataID) + ";")
	}
	if requestID != "" {
		b.WriteString("request-id:" + requestID + ";")
	}
	b.WriteString("ts:" + ts + ";")
	return b.String()
}
