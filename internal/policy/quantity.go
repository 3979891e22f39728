package policy

import "github.com/shopspring/decimal"

// QuantityBreakAdjustment maps (category, quantity) to a percentage
// adjustment via the category's tiered bands. The first band containing
// the quantity wins; an unknown category or no matching band yields 0.
func QuantityBreakAdjustment(cfg Config, category string, quantity decimal.Decimal) decimal.Decimal {
	bands, ok := cfg.QuantityBreaks[category]
	if !ok {
		return decimal.Zero
	}
	for _, band := range bands {
		if quantity.LessThan(band.MinQty) {
			continue
		}
		if band.MaxQty.IsZero() || quantity.LessThanOrEqual(band.MaxQty) {
			return band.AdjPct
		}
	}
	return decimal.Zero
}

// ApplyQuantityBreak returns the quantity-adjusted cost: base × (1 + adj/100).
func ApplyQuantityBreak(baseCost, adjPct decimal.Decimal) decimal.Decimal {
	return baseCost.Mul(hundred.Add(adjPct)).Div(hundred)
}
