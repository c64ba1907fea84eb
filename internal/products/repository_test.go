package products

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/petfood-backend/internal/testdb"
	"github.com/angelmondragon/petfood-backend/pkg/db"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
)

func TestListJoinsFirstImageAndFilters(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	withImages := seedProduct(t, conn, "Croqueta Salmón", base)
	require.NoError(t, conn.Create(&models.ProductImage{ProductID: withImages.ID, URL: "second", StorageKey: "k2", Position: 1}).Error)
	require.NoError(t, conn.Create(&models.ProductImage{ProductID: withImages.ID, URL: "first", StorageKey: "k1", Position: 0}).Error)
	bare := seedProduct(t, conn, "Snack Pollo", base.Add(time.Hour))
	require.NoError(t, conn.Model(bare).Update("brand", "OtraMarca").Error)

	list, err := repo.List(ctx, ListFilters{})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, bare.ID, list[0].ID)
	assert.Nil(t, list[0].ImageURL)
	require.NotNil(t, list[1].ImageURL)
	assert.Equal(t, "first", *list[1].ImageURL)

	filtered, err := repo.List(ctx, ListFilters{Brand: "otramarca"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, bare.ID, filtered[0].ID)

	searched, err := repo.List(ctx, ListFilters{Query: "salm"})
	require.NoError(t, err)
	require.Len(t, searched, 1)
	assert.Equal(t, withImages.ID, searched[0].ID)
}

func TestDecrementStockGuardsNegative(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	p := seedProduct(t, conn, "Stock", time.Now().UTC())

	ok, err := repo.DecrementStock(ctx, p.ID, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, p.ID, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.IncrementStock(ctx, p.ID, 2))
	reloaded, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Stock)

	err = repo.SetStock(ctx, p.ID, -3)
	require.Error(t, err)
	assert.True(t, db.IsCheckViolation(err, "products_stock_check"))
}

func TestBestSellerScansSummaryAndUnits(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	p := seedProduct(t, conn, "Croqueta Cordero", time.Now().UTC())
	require.NoError(t, conn.Create(&models.ProductImage{ProductID: p.ID, URL: "portada", StorageKey: "k", Position: 0}).Error)
	user := &models.User{Name: "Ana", Email: "ana@example.com", PasswordHash: "x", Role: enums.RoleCustomer}
	require.NoError(t, conn.Create(user).Error)
	order := &models.Order{UserID: user.ID, Subtotal: decimal.NewFromInt(4), Shipping: decimal.Zero, Total: decimal.NewFromInt(4),
		PaymentStatus: enums.PaymentStatusCompleted, OrderStatus: enums.OrderStatusDelivered}
	require.NoError(t, conn.Create(order).Error)
	for _, qty := range []int{1, 3} {
		require.NoError(t, conn.Create(&models.OrderLineItem{OrderID: order.ID, ProductID: &p.ID, ProductName: p.Name,
			UnitPrice: decimal.NewFromInt(1), Quantity: qty, Subtotal: decimal.NewFromInt(int64(qty))}).Error)
	}

	best, err := repo.BestSeller(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, best.ID)
	assert.Equal(t, p.Name, best.Name)
	assert.Equal(t, int64(4), best.UnitsSold)
	require.NotNil(t, best.ImageURL)
	assert.Equal(t, "portada", *best.ImageURL)
}
