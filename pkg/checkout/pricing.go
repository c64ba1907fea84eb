package checkout

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/petfood-backend/pkg/config"
)

// ShippingRule charges Fee unless the subtotal reaches Threshold.
type ShippingRule struct {
	Threshold decimal.Decimal
	Fee       decimal.Decimal
}

// DefaultShippingRule is free shipping from 999, otherwise 199.
var DefaultShippingRule = ShippingRule{
	Threshold: decimal.NewFromInt(999),
	Fee:       decimal.NewFromInt(199),
}

// ShippingRuleFromConfig parses the shop settings.
func ShippingRuleFromConfig(cfg config.ShopConfig) (ShippingRule, error) {
	threshold, fee, err := cfg.ShippingRule()
	if err != nil {
		return ShippingRule{}, err
	}
	return ShippingRule{Threshold: threshold, Fee: fee}, nil
}

// ShippingFor returns the shipping charge for subtotal. An empty cart ships free.
func (r ShippingRule) ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() || subtotal.GreaterThanOrEqual(r.Threshold) {
		return decimal.Zero
	}
	return r.Fee
}

// Line is one priced quantity.
type Line struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Round(2)
}

// Totals is the priced summary of a set of lines.
type Totals struct {
	Subtotal decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
	Items    int
}

// Quote prices lines under rule. Items counts units, not lines.
func Quote(lines []Line, rule ShippingRule) Totals {
	subtotal := decimal.Zero
	units := 0
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
		units += line.Quantity
	}
	shipping := rule.ShippingFor(subtotal)
	return Totals{
		Subtotal: subtotal,
		Shipping: shipping,
		Total:    subtotal.Add(shipping),
		Items:    units,
	}
}
