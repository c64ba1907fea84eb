package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/pkg/config"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
)

const (
	OrderExpiryJobName  = "order-expiry"
	OrderCleanupJobName = "order-cleanup"
)

type pendingExpirer interface {
	ExpirePending(ctx context.Context, before time.Time) (int64, error)
}

type orderCleaner interface {
	Cleanup(ctx context.Context, policy orders.CleanupPolicy) (orders.CleanupResult, error)
}

// OrderExpiryJob marks Pendiente orders older than the preference lifetime
// as Expirado.
type OrderExpiryJob struct {
	orders pendingExpirer
	maxAge time.Duration
	logg   *logger.Logger
	now    func() time.Time
}

func NewOrderExpiryJob(svc pendingExpirer, maxAge time.Duration, logg *logger.Logger) (*OrderExpiryJob, error) {
	if svc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("expiry max age must be positive")
	}
	return &OrderExpiryJob{orders: svc, maxAge: maxAge, logg: logg, now: time.Now}, nil
}

func (j *OrderExpiryJob) Name() string { return OrderExpiryJobName }

func (j *OrderExpiryJob) Run(ctx context.Context) error {
	n, err := j.orders.ExpirePending(ctx, j.now().UTC().Add(-j.maxAge))
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithField(ctx, "expired", n), "pending orders expired")
	return nil
}

// OrderCleanupJob purges stale Expirado and Rechazado orders. It also backs
// the HTTP cleanup endpoint.
type OrderCleanupJob struct {
	orders         orderCleaner
	expiredMaxAge  time.Duration
	rejectedMaxAge time.Duration
	logg           *logger.Logger
	now            func() time.Time
}

func NewOrderCleanupJob(svc orderCleaner, cfg config.CronConfig, logg *logger.Logger) (*OrderCleanupJob, error) {
	if svc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OrderCleanupJob{
		orders:         svc,
		expiredMaxAge:  cfg.ExpiredMaxAge,
		rejectedMaxAge: cfg.RejectedMaxAge,
		logg:           logg,
		now:            time.Now,
	}, nil
}

func (j *OrderCleanupJob) Name() string { return OrderCleanupJobName }

func (j *OrderCleanupJob) Run(ctx context.Context) error {
	_, err := j.Cleanup(ctx)
	return err
}

// Cleanup runs one purge pass and returns what it removed. Partial results
// are returned alongside the aggregated error.
func (j *OrderCleanupJob) Cleanup(ctx context.Context) (orders.CleanupResult, error) {
	res, err := j.orders.Cleanup(ctx, orders.CleanupPolicy{
		Now:            j.now().UTC(),
		ExpiredMaxAge:  j.expiredMaxAge,
		RejectedMaxAge: j.rejectedMaxAge,
	})
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"deleted":   res.Deleted,
		"restocked": res.Restocked,
	}), "order cleanup pass finished")
	return res, err
}
