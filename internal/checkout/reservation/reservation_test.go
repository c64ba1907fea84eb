package reservation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/testdb"
	"github.com/angelmondragon/petfood-backend/pkg/db/models"
	"github.com/angelmondragon/petfood-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
)

func seed(t *testing.T, db *gorm.DB, stock int) uuid.UUID {
	t.Helper()
	p := &models.Product{Name: "p", Description: "d", Price: decimal.NewFromInt(1), Stock: stock,
		Brand: "b", Breed: "r", AgeClass: enums.AgeClassAll}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return p.ID
}

func stockOf(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var p models.Product
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	return p.Stock
}

func TestReserveStock(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	productA := seed(t, db, 5)
	productB := seed(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ReserveStock(ctx, tx, []StockReservationRequest{
			{ProductID: productA, Qty: 3},
			{ProductID: productA, Qty: 2},
			{ProductID: productB, Qty: 1},
		})
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if got := stockOf(t, db, productA); got != 0 {
		t.Fatalf("expected product A stock 0, got %d", got)
	}
	if got := stockOf(t, db, productB); got != 0 {
		t.Fatalf("expected product B stock 0, got %d", got)
	}
}

func TestReserveStockShortfallRollsBack(t *testing.T) {
	db := testdb.Open(t)
	ctx := context.Background()
	productA := seed(t, db, 5)
	productB := seed(t, db, 1)

	err := db.Transaction(func(tx *gorm.DB) error {
		return ReserveStock(ctx, tx, []StockReservationRequest{
			{ProductID: productA, Qty: 2},
			{ProductID: productB, Qty: 2},
		})
	})
	if !pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if got := stockOf(t, db, productA); got != 5 {
		t.Fatalf("expected rollback to keep stock 5, got %d", got)
	}
}

func TestReserveStockRequiresTx(t *testing.T) {
	err := ReserveStock(context.Background(), nil, nil)
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
