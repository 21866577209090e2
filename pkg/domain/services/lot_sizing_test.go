package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestResolveOrderQty(t *testing.T) {
	testCases := []struct {
		name     string
		required float64
		multiple float64
		minimum  float64
		expected float64
	}{
		{"minimum dominates", 450, 100, 1000, 1000},
		{"round up to multiple", 1234, 100, 500, 1300},
		{"round up above minimum", 7250, 1000, 5000, 8000},
		{"already a multiple", 1300, 100, 500, 1300},
		{"minimum already a multiple is untouched", 10, 250, 1000, 1000},
		{"minimum not a multiple is rounded after clamp", 10, 300, 1000, 1200},
		{"multiple of one skips rounding", 17.5, 1, 0, 17.5},
		{"zero multiple skips rounding", 17.5, 0, 0, 17.5},
		{"negative multiple skips rounding", 17.5, -5, 0, 17.5},
		{"zero required", 0, 100, 1000, 0},
		{"negative required", -40, 100, 1000, 0},
		{"negative minimum clamps to zero", 40, 25, -10, 50},
		{"fractional multiple", 1.1, 0.5, 0, 1.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveOrderQty(
				decimal.NewFromFloat(tc.required),
				decimal.NewFromFloat(tc.multiple),
				decimal.NewFromFloat(tc.minimum),
			)
			if !got.Equal(decimal.NewFromFloat(tc.expected)) {
				t.Errorf("Expected %v, got %s", tc.expected, got)
			}
		})
	}
}

func TestResolveOrderQty_NeverBelowRequirement(t *testing.T) {
	multiple := decimal.NewFromInt(3)
	for req := int64(1); req <= 100; req++ {
		required := decimal.NewFromInt(req)
		got := ResolveOrderQty(required, multiple, decimal.Zero)
		if got.LessThan(required) {
			t.Fatalf("Expected at least %s, got %s", required, got)
		}
		if !got.Mod(multiple).IsZero() {
			t.Fatalf("Expected a multiple of 3, got %s", got)
		}
		if got.Sub(required).GreaterThanOrEqual(multiple) {
			t.Fatalf("Expected less than one extra lot for %s, got %s", required, got)
		}
	}
}
