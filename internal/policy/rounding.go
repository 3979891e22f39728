package policy

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	ClassMaterial    = "material"
	ClassFabrication = "fabrication"
)

var ten = decimal.NewFromInt(10)

var fabricationKeywords = []string{
	"fabricat", "weld", "machin", "cut to", "assembl", "coating", "galvaniz",
}

// Classify decides the rounding class of an item: fabrication when the
// category says so or the description carries a fabrication keyword,
// material otherwise.
func Classify(category, description string) string {
	if strings.Contains(strings.ToLower(category), "fabrication") {
		return ClassFabrication
	}
	desc := strings.ToLower(description)
	for _, kw := range fabricationKeywords {
		if strings.Contains(desc, kw) {
			return ClassFabrication
		}
	}
	return ClassMaterial
}

// RoundPrice rounds a unit price per the item's class: fabrication to the
// nearest whole currency unit, material to the nearest 10. Applied last,
// after every additive and multiplicative adjustment. Returns the rounded
// price and the rounding delta (rounded − input).
func RoundPrice(class string, price decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	var rounded decimal.Decimal
	switch class {
	case ClassFabrication:
		rounded = price.Round(0)
	default:
		rounded = price.Div(ten).Round(0).Mul(ten)
	}
	return rounded, rounded.Sub(price)
}
