package checkout

import (
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/petfood-backend/pkg/errors"
)

// InsufficientStockMessage is the public message for any stock shortfall.
const InsufficientStockMessage = "Stock insuficiente"

// StockValidationInput describes the data required to verify a line against stock.
type StockValidationInput struct {
	ProductID   uuid.UUID
	ProductName string
	Stock       int
	Quantity    int
}

// StockViolationDetail exposes the data returned to callers when a validation fails.
type StockViolationDetail struct {
	ProductID    uuid.UUID `json:"id_producto"`
	ProductName  string    `json:"nombre,omitempty"`
	Available    int       `json:"disponible"`
	RequestedQty int       `json:"solicitado"`
}

// ValidateStock ensures every line asks for at most the units in stock.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Quantity <= item.Stock {
			continue
		}
		violations = append(violations, StockViolationDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Available:    item.Stock,
			RequestedQty: item.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, InsufficientStockMessage).WithDetails(map[string]any{
		"productos": violations,
	})
}
