package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

func TestHasDeliveredProduct(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)
	ctx := context.Background()

	ok, err := repo.HasDeliveredProduct(ctx, f.user.ID, f.product.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	f.order(t, enums.PaymentStatusCompleted, enums.OrderStatusShipped, baseTime, 1)
	ok, err = repo.HasDeliveredProduct(ctx, f.user.ID, f.product.ID)
	require.NoError(t, err)
	assert.False(t, ok, "shipped is not delivered")

	f.order(t, enums.PaymentStatusCompleted, enums.OrderStatusDelivered, baseTime, 1)
	ok, err = repo.HasDeliveredProduct(ctx, f.user.ID, f.product.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFindStaleFiltersByStatusAndAge(t *testing.T) {
	f := newFixture(t)
	repo := NewRepository(f.conn)
	old := f.order(t, enums.PaymentStatusRejected, enums.OrderStatusPreparing, baseTime.Add(-5*time.Hour), 2)
	f.order(t, enums.PaymentStatusRejected, enums.OrderStatusPreparing, baseTime, 1)

	stale, err := repo.FindStale(context.Background(), enums.PaymentStatusRejected, baseTime.Add(-3*time.Hour))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, old.ID, stale[0].ID)
	require.Len(t, stale[0].LineItems, 1)
	assert.Equal(t, 2, stale[0].LineItems[0].Quantity)
}
