package policy

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name        string
		category    string
		description string
		want        string
	}{
		{name: "fabrication_category", category: "fabrication", description: "gusset plate", want: ClassFabrication},
		{name: "fabrication_keyword_in_description", category: "carbon_steel", description: "welded frame assembly", want: ClassFabrication},
		{name: "machining_keyword", category: "alloy", description: "machined flange", want: ClassFabrication},
		{name: "plain_material", category: "carbon_steel", description: "seamless pipe", want: ClassMaterial},
		{name: "empty_inputs", category: "", description: "", want: ClassMaterial},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.category, tc.description)
			if got != tc.want {
				t.Fatalf("Classify(%q, %q)=%q, want %q", tc.category, tc.description, got, tc.want)
			}
		})
	}
}

func TestRoundPrice(t *testing.T) {
	cases := []struct {
		name      string
		class     string
		price     string
		want      string
		wantDelta string
	}{
		{name: "material_rounds_to_nearest_10", class: ClassMaterial, price: "120.65", want: "120", wantDelta: "-0.65"},
		{name: "material_rounds_up", class: ClassMaterial, price: "126", want: "130", wantDelta: "4"},
		{name: "fabrication_rounds_to_nearest_1", class: ClassFabrication, price: "635.4", want: "635", wantDelta: "-0.4"},
		{name: "fabrication_already_round", class: ClassFabrication, price: "635", want: "635", wantDelta: "0"},
		{name: "material_already_multiple_of_10", class: ClassMaterial, price: "640", want: "640", wantDelta: "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rounded, delta := RoundPrice(tc.class, decimal.RequireFromString(tc.price))
			if !rounded.Equal(decimal.RequireFromString(tc.want)) {
				t.Fatalf("rounded=%s, want %s", rounded, tc.want)
			}
			if !delta.Equal(decimal.RequireFromString(tc.wantDelta)) {
				t.Fatalf("delta=%s, want %s", delta, tc.wantDelta)
			}
		})
	}
}

// Rounding an already-rounded price must be a no-op with zero delta.
func TestRoundPriceIdempotent(t *testing.T) {
	for _, class := range []string{ClassMaterial, ClassFabrication} {
		price := decimal.RequireFromString("480")
		once, _ := RoundPrice(class, price)
		twice, delta := RoundPrice(class, once)
		if !twice.Equal(once) || !delta.IsZero() {
			t.Fatalf("class %s: re-rounding %s gave %s (delta %s)", class, once, twice, delta)
		}
	}
}
