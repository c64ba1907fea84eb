package mpwebhook

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const provider = "mercadopago"

// dedupStore is the Redis surface the guard needs.
type dedupStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	WebhookKey(provider, id string) string
}

// IdempotencyGuard marks (payment id, status) pairs as processed.
type IdempotencyGuard struct {
	store dedupStore
	ttl   time.Duration
}

func NewIdempotencyGuard(store dedupStore, ttl time.Duration) (*IdempotencyGuard, error) {
	if store == nil {
		return nil, errors.New("dedup store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &IdempotencyGuard{store: store, ttl: ttl}, nil
}

// CheckAndMark reports whether the pair was already seen, marking it otherwise.
func (g *IdempotencyGuard) CheckAndMark(ctx context.Context, paymentID, status string) (bool, error) {
	if paymentID == "" {
		return false, errors.New("payment id is required")
	}
	set, err := g.store.SetNX(ctx, g.key(paymentID, status), "1", g.ttl)
	if err != nil {
		return false, fmt.Errorf("set webhook dedup key: %w", err)
	}
	return !set, nil
}

// Release forgets the pair so a redelivery is processed again.
func (g *IdempotencyGuard) Release(ctx context.Context, paymentID, status string) error {
	if paymentID == "" {
		return errors.New("payment id is required")
	}
	return g.store.Del(ctx, g.key(paymentID, status))
}

func (g *IdempotencyGuard) key(paymentID, status string) string {
	return g.store.WebhookKey(provider, paymentID+":"+status)
}
