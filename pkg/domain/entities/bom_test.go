package entities

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBOMEdge_Validation(t *testing.T) {
	edge, err := NewBOMEdge("WIDGET", "BOLT", decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("Expected valid edge creation to succeed: %v", err)
	}
	if edge.Key() != "WIDGET|BOLT" {
		t.Errorf("Expected key WIDGET|BOLT, got %s", edge.Key())
	}

	if _, err := NewBOMEdge("WIDGET", "PAINT", decimal.Zero); err != nil {
		t.Errorf("Expected zero quantity per to be accepted: %v", err)
	}

	testCases := []struct {
		name        string
		parent      ItemID
		component   ItemID
		qty         decimal.Decimal
		expectError string
	}{
		{"empty parent", "", "BOLT", decimal.NewFromInt(1), "parent item id cannot be empty"},
		{"empty component", "WIDGET", "", decimal.NewFromInt(1), "component item id cannot be empty"},
		{"self edge", "WIDGET", "WIDGET", decimal.NewFromInt(1), "parent and component cannot be the same: WIDGET"},
		{"negative qty", "WIDGET", "BOLT", decimal.NewFromInt(-2), "quantity per cannot be negative, got -2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBOMEdge(tc.parent, tc.component, tc.qty)
			if err == nil {
				t.Fatalf("Expected error %q, got nil", tc.expectError)
			}
			if err.Error() != tc.expectError {
				t.Errorf("Expected error %q, got %q", tc.expectError, err.Error())
			}
		})
	}
}

func TestFormatPath(t *testing.T) {
	got := FormatPath([]ItemID{"A", "B", "A"})
	if got != "A -> B -> A" {
		t.Errorf("Expected A -> B -> A, got %s", got)
	}
}

func TestBOMEdge_Sanitized(t *testing.T) {
	valid := BOMEdge{ParentID: "WIDGET", ComponentID: "BOLT", QuantityPer: decimal.NewFromInt(4)}
	clean, diags := valid.Sanitized()
	if len(diags) != 0 || !clean.QuantityPer.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected a valid edge to pass through unchanged, got %s with %v", clean.QuantityPer, diags)
	}

	negative := BOMEdge{ParentID: "WIDGET", ComponentID: "BOLT", QuantityPer: decimal.NewFromInt(-2)}
	clean, diags = negative.Sanitized()
	if !clean.QuantityPer.IsZero() {
		t.Errorf("Expected quantity per clamped to 0, got %s", clean.QuantityPer)
	}
	if len(diags) != 1 || diags[0].Kind != InvalidInput {
		t.Fatalf("Expected one InvalidInput diagnostic, got %v", diags)
	}
	if FormatPath(diags[0].Path) != "WIDGET -> BOLT" {
		t.Errorf("Expected path WIDGET -> BOLT, got %s", FormatPath(diags[0].Path))
	}
	if !negative.QuantityPer.Equal(decimal.NewFromInt(-2)) {
		t.Errorf("Expected the original edge to be left alone, got %s", negative.QuantityPer)
	}
}
