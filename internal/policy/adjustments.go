package policy

import "github.com/shopspring/decimal"

var two = decimal.NewFromInt(2)

// RegionalAdjustmentPct returns the midpoint of the region's adjustment
// band, or zero for an unknown region.
func RegionalAdjustmentPct(cfg Config, region string) decimal.Decimal {
	band, ok := cfg.RegionalAdjustments[region]
	if !ok {
		return decimal.Zero
	}
	return band.MinAdjPct.Add(band.MaxAdjPct).Div(two)
}

// IndustryAdjustmentPct returns the midpoint of the industry's adjustment
// band, or zero for an unknown industry.
func IndustryAdjustmentPct(cfg Config, industry string) decimal.Decimal {
	band, ok := cfg.IndustryAdjustments[industry]
	if !ok {
		return decimal.Zero
	}
	return band.MinAdjPct.Add(band.MaxAdjPct).Div(two)
}

// ApplyAdjustment applies a percentage adjustment multiplicatively to a
// running price: price × (1 + pct/100).
func ApplyAdjustment(price, adjPct decimal.Decimal) decimal.Decimal {
	if adjPct.IsZero() {
		return price
	}
	return price.Mul(hundred.Add(adjPct)).Div(hundred)
}
