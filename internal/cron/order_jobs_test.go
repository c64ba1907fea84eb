package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/petfood-backend/internal/orders"
	"github.com/angelmondragon/petfood-backend/pkg/config"
	"github.com/angelmondragon/petfood-backend/pkg/logger"
)

type fakeOrders struct {
	expireBefore time.Time
	policy       orders.CleanupPolicy
	result       orders.CleanupResult
	err          error
}

func (f *fakeOrders) ExpirePending(_ context.Context, before time.Time) (int64, error) {
	f.expireBefore = before
	return 3, f.err
}

func (f *fakeOrders) Cleanup(_ context.Context, policy orders.CleanupPolicy) (orders.CleanupResult, error) {
	f.policy = policy
	return f.result, f.err
}

var fixedNow = time.Date(2025, 7, 10, 8, 0, 0, 0, time.UTC)

func TestOrderExpiryJobUsesMaxAge(t *testing.T) {
	svc := &fakeOrders{}
	job, err := NewOrderExpiryJob(svc, 24*time.Hour, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	job.now = func() time.Time { return fixedNow }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, fixedNow.Add(-24*time.Hour), svc.expireBefore)
	assert.Equal(t, OrderExpiryJobName, job.Name())

	_, err = NewOrderExpiryJob(svc, 0, logger.New(logger.Options{ServiceName: "test"}))
	assert.Error(t, err)
}

func TestOrderCleanupJobPassesPolicy(t *testing.T) {
	svc := &fakeOrders{result: orders.CleanupResult{Deleted: 2, Restocked: 5}}
	job, err := NewOrderCleanupJob(svc, config.CronConfig{ExpiredMaxAge: 24 * time.Hour, RejectedMaxAge: 3 * time.Hour},
		logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)
	job.now = func() time.Time { return fixedNow }

	res, err := job.Cleanup(context.Background())
	require.NoError(t, err)
	assert.Equal(t, orders.CleanupResult{Deleted: 2, Restocked: 5}, res)
	assert.Equal(t, orders.CleanupPolicy{Now: fixedNow, ExpiredMaxAge: 24 * time.Hour, RejectedMaxAge: 3 * time.Hour}, svc.policy)
}

func TestOrderCleanupJobReturnsPartialResult(t *testing.T) {
	svc := &fakeOrders{result: orders.CleanupResult{Deleted: 1}, err: errors.New("one order failed")}
	job, err := NewOrderCleanupJob(svc, config.CronConfig{ExpiredMaxAge: time.Hour}, logger.New(logger.Options{ServiceName: "test"}))
	require.NoError(t, err)

	res, err := job.Cleanup(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, res.Deleted)
	assert.Error(t, job.Run(context.Background()))
}
