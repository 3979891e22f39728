package policy

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// EffectiveMarginPolicy merges a segment policy with a category override by
// taking the elementwise maximum of the min and target margins. The
// maximum discount comes from the segment alone.
func EffectiveMarginPolicy(segment MarginPolicy, categoryOverride *MarginPolicy) MarginPolicy {
	merged := segment
	if categoryOverride == nil {
		return merged
	}
	if categoryOverride.MinMarginPct.GreaterThan(merged.MinMarginPct) {
		merged.MinMarginPct = categoryOverride.MinMarginPct
	}
	if categoryOverride.TargetMarginPct.GreaterThan(merged.TargetMarginPct) {
		merged.TargetMarginPct = categoryOverride.TargetMarginPct
	}
	return merged
}

// MarginOfMarkup converts a markup percentage into the margin percentage it
// yields when the markup is the only uplift on cost:
// margin = markup / (100 + markup) × 100.
func MarginOfMarkup(markupPct decimal.Decimal) decimal.Decimal {
	denom := hundred.Add(markupPct)
	if denom.IsZero() {
		return decimal.Zero
	}
	return markupPct.Div(denom).Mul(hundred)
}

// MarkupForMargin is the inverse: the markup percentage needed to achieve a
// given margin. Undefined at 100% margin; callers never ask for that.
func MarkupForMargin(marginPct decimal.Decimal) decimal.Decimal {
	denom := hundred.Sub(marginPct)
	if denom.IsZero() {
		return decimal.Zero
	}
	return marginPct.Div(denom).Mul(hundred)
}

// ApplyFixedMarginOverride forces the markup of a fixed-margin client up to
// the target margin's markup when it would otherwise fall below target.
// Runs before the floor clamp.
func ApplyFixedMarginOverride(cfg Config, clientName string, markupPct, targetMarginPct decimal.Decimal) (decimal.Decimal, bool) {
	if !cfg.FixedMarginClients[clientName] {
		return markupPct, false
	}
	targetMarkup := MarkupForMargin(targetMarginPct)
	if markupPct.LessThan(targetMarkup) {
		return targetMarkup, true
	}
	return markupPct, false
}

// ClampToMarginFloor raises the markup when its implied margin is below the
// floor. Returns the (possibly raised) markup and whether it was clamped.
func ClampToMarginFloor(markupPct, minMarginPct decimal.Decimal) (decimal.Decimal, bool) {
	if MarginOfMarkup(markupPct).GreaterThanOrEqual(minMarginPct) {
		return markupPct, false
	}
	return MarkupForMargin(minMarginPct), true
}

// ActualMarginPct computes the realized margin of a final unit price over
// its base cost: (price − cost) / price × 100. Zero price yields zero.
func ActualMarginPct(baseCost, unitPrice decimal.Decimal) decimal.Decimal {
	if unitPrice.IsZero() {
		return decimal.Zero
	}
	return unitPrice.Sub(baseCost).Div(unitPrice).Mul(hundred)
}

// ApprovalFlags reports the advisory review flags: margin below the alert
// threshold, and discount from target above the alert threshold. Neither
// flag blocks pricing.
func ApprovalFlags(cfg Config, actualMarginPct, discountFromTargetPct decimal.Decimal) (marginBelow, discountAbove bool) {
	marginBelow = actualMarginPct.LessThan(cfg.MarginAlertPct)
	discountAbove = discountFromTargetPct.GreaterThan(cfg.DiscountAlertPct)
	return marginBelow, discountAbove
}
