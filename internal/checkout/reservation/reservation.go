// Package reservation takes units out of stock for a checkout.
package reservation

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/petfood-backend/internal/products"
	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
)

// StockReservationRequest asks for Qty units of ProductID.
type StockReservationRequest struct {
	ProductID uuid.UUID
	Qty       int
}

// ReserveStock decrements stock for every request inside tx. Requests are
// applied in product id order so concurrent checkouts lock rows in the same
// order. Any shortfall aborts with a conflict; the caller rolls back.
func ReserveStock(ctx context.Context, tx *gorm.DB, requests []StockReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for stock reservation")
	}

	merged := map[uuid.UUID]int{}
	for _, req := range requests {
		if req.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "la cantidad debe ser mayor a 0")
		}
		merged[req.ProductID] += req.Qty
	}
	ids := make([]uuid.UUID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	repo := products.NewRepository(tx)
	for _, id := range ids {
		ok, err := repo.DecrementStock(ctx, id, merged[id])
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decrement stock")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "Stock insuficiente").
				WithDetails(map[string]any{"id_producto": id, "solicitado": merged[id]})
		}
	}
	return nil
}
