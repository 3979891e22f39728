// Package policy implements the stateless pricing-policy resolver:
// quantity breaks, margin floors, fixed-margin overrides, regional and
// industry adjustments, rounding and approval flags. Every function is
// deterministic on its inputs; all tunable business values live in Config,
// which is built once per request and passed explicitly.
package policy

import "github.com/shopspring/decimal"

// QuantityBand is one volume tier. An undefined (zero) MaxQty means the
// band is open-ended; bands are evaluated in order and the first match wins.
type QuantityBand struct {
	MinQty decimal.Decimal
	MaxQty decimal.Decimal
	AdjPct decimal.Decimal
}

// MarginPolicy holds the margin guardrails for a client segment or a
// category override.
type MarginPolicy struct {
	MinMarginPct    decimal.Decimal
	TargetMarginPct decimal.Decimal
	MaxDiscountPct  decimal.Decimal
}

// AdjustmentBand is a {min,max} percentage band; the midpoint is applied.
type AdjustmentBand struct {
	MinAdjPct decimal.Decimal
	MaxAdjPct decimal.Decimal
}

type Config struct {
	QuantityBreaks          map[string][]QuantityBand
	SegmentMargins          map[string]MarginPolicy
	CategoryMarginOverrides map[string]MarginPolicy
	FixedMarginClients      map[string]bool
	RegionalAdjustments     map[string]AdjustmentBand
	IndustryAdjustments     map[string]AdjustmentBand
	MarginAlertPct          decimal.Decimal
	DiscountAlertPct        decimal.Decimal
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultConfig returns the stock policy tables. Tenant settings may
// override the alert thresholds after loading.
func DefaultConfig() Config {
	return Config{
		QuantityBreaks: map[string][]QuantityBand{
			"carbon_steel": {
				{MinQty: dec("1"), MaxQty: dec("9"), AdjPct: dec("0")},
				{MinQty: dec("10"), MaxQty: dec("49"), AdjPct: dec("-2")},
				{MinQty: dec("50"), MaxQty: dec("199"), AdjPct: dec("-5")},
				{MinQty: dec("200"), AdjPct: dec("-8")},
			},
			"stainless_steel": {
				{MinQty: dec("1"), MaxQty: dec("19"), AdjPct: dec("0")},
				{MinQty: dec("20"), MaxQty: dec("99"), AdjPct: dec("-3")},
				{MinQty: dec("100"), AdjPct: dec("-6")},
			},
			"alloy": {
				{MinQty: dec("1"), MaxQty: dec("24"), AdjPct: dec("0")},
				{MinQty: dec("25"), MaxQty: dec("99"), AdjPct: dec("-2.5")},
				{MinQty: dec("100"), AdjPct: dec("-5")},
			},
		},
		SegmentMargins: map[string]MarginPolicy{
			"strategic": {MinMarginPct: dec("12"), TargetMarginPct: dec("18"), MaxDiscountPct: dec("8")},
			"key":       {MinMarginPct: dec("15"), TargetMarginPct: dec("20"), MaxDiscountPct: dec("5")},
			"standard":  {MinMarginPct: dec("18"), TargetMarginPct: dec("24"), MaxDiscountPct: dec("3")},
			"new":       {MinMarginPct: dec("20"), TargetMarginPct: dec("26"), MaxDiscountPct: dec("2")},
		},
		CategoryMarginOverrides: map[string]MarginPolicy{
			"fabrication": {MinMarginPct: dec("22"), TargetMarginPct: dec("28")},
			"alloy":       {MinMarginPct: dec("16"), TargetMarginPct: dec("22")},
		},
		FixedMarginClients: map[string]bool{},
		RegionalAdjustments: map[string]AdjustmentBand{
			"gulf":       {MinAdjPct: dec("1"), MaxAdjPct: dec("3")},
			"east_coast": {MinAdjPct: dec("0"), MaxAdjPct: dec("2")},
			"west_coast": {MinAdjPct: dec("2"), MaxAdjPct: dec("4")},
		},
		IndustryAdjustments: map[string]AdjustmentBand{
			"oil_gas":      {MinAdjPct: dec("2"), MaxAdjPct: dec("6")},
			"construction": {MinAdjPct: dec("0"), MaxAdjPct: dec("2")},
			"marine":       {MinAdjPct: dec("1"), MaxAdjPct: dec("3")},
		},
		MarginAlertPct:   dec("18"),
		DiscountAlertPct: dec("2"),
	}
}
