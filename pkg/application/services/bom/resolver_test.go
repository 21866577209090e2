package bom

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	testhelpers "github.com/vsinha/mrpcalc/pkg/application/services/testing"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
)

func TestResolver_DiamondAggregation(t *testing.T) {
	items, edges := testhelpers.BuildDiamondTestData()
	resolver := NewResolver(items, edges, Config{}, nil)

	result, err := resolver.Explode("A", testhelpers.Qty(1))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	expected := map[entities.ItemID]decimal.Decimal{
		"B": testhelpers.Qty(1),
		"C": testhelpers.Qty(5), // 2 direct + 1*3 via B
	}
	if diff := cmp.Diff(expected, result.Requirements, testhelpers.DecimalComparer); diff != "" {
		t.Errorf("Requirements mismatch (-want +got):\n%s", diff)
	}
	if result.Status != Ok {
		t.Errorf("Expected status Ok, got %s", result.Status)
	}
}

func TestResolver_Linearity(t *testing.T) {
	store := testhelpers.BuildLampTestData()
	snap, err := store.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	resolver := NewResolver(snap.Items, snap.Edges, Config{}, nil)

	quantities := []decimal.Decimal{
		testhelpers.Qty(0),
		testhelpers.Qty(1),
		testhelpers.Qty(7),
		decimal.RequireFromString("12.5"),
	}
	scalars := []decimal.Decimal{
		testhelpers.Qty(0),
		testhelpers.Qty(3),
		decimal.RequireFromString("0.25"),
	}

	for _, root := range []entities.ItemID{"LAMP_STD", "LAMP_PRO", "BASE_ASSY"} {
		for _, q := range quantities {
			for _, k := range scalars {
				t.Run(fmt.Sprintf("%s_q%s_k%s", root, q, k), func(t *testing.T) {
					base, err := resolver.Explode(root, q)
					if err != nil {
						t.Fatalf("Explode failed: %v", err)
					}
					scaled, err := resolver.Explode(root, k.Mul(q))
					if err != nil {
						t.Fatalf("Explode failed: %v", err)
					}

					expected := make(map[entities.ItemID]decimal.Decimal, len(base.Requirements))
					for id, v := range base.Requirements {
						expected[id] = v.Mul(k)
					}
					if diff := cmp.Diff(expected, scaled.Requirements, testhelpers.DecimalComparer); diff != "" {
						t.Errorf("explode(k*q) != k*explode(q) (-want +got):\n%s", diff)
					}
				})
			}
		}
	}
}

func TestResolver_CycleSafety(t *testing.T) {
	items := testhelpers.Values([]*entities.Item{
		testhelpers.MustCreateItem("A", entities.SubAssembly, 1, 0),
		testhelpers.MustCreateItem("B", entities.SubAssembly, 1, 0),
	})
	edges := testhelpers.Values([]*entities.BOMEdge{
		testhelpers.MustCreateBOMEdge("A", "B", 2),
		testhelpers.MustCreateBOMEdge("B", "A", 1),
	})
	resolver := NewResolver(items, edges, Config{}, nil)

	result, err := resolver.Explode("A", testhelpers.Qty(10))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}

	if result.Status != PartialWithCycle {
		t.Fatalf("Expected PartialWithCycle, got %s", result.Status)
	}
	if len(result.CyclePaths) != 1 {
		t.Fatalf("Expected 1 cycle path, got %v", result.CyclePaths)
	}
	if got := entities.FormatPath(result.CyclePaths[0]); got != "A -> B -> A" {
		t.Errorf("Expected cycle path A -> B -> A, got %s", got)
	}
	if !result.Requirements["B"].Equal(testhelpers.Qty(20)) {
		t.Errorf("Expected B = 20 above the cycle point, got %s", result.Requirements["B"])
	}
	if _, exists := result.Requirements["A"]; exists {
		t.Errorf("Expected no contribution below the cycle point, got A = %s", result.Requirements["A"])
	}

	found := false
	for _, d := range result.Diagnostics {
		if d.Kind == entities.CycleDetected {
			found = true
		}
	}
	if !found {
		t.Error("Expected a CycleDetected diagnostic")
	}
}

func TestResolver_CycleDoesNotPoisonSiblingBranches(t *testing.T) {
	items := testhelpers.Values([]*entities.Item{
		testhelpers.MustCreateItem("ROOT", entities.FinishedGood, 0, 0),
		testhelpers.MustCreateItem("LOOP", entities.SubAssembly, 1, 0),
		testhelpers.MustCreateItem("BACK", entities.SubAssembly, 1, 0),
		testhelpers.MustCreateItem("GOOD", entities.SubAssembly, 1, 0),
		testhelpers.MustCreateItem("LEAF", entities.Component, 1, 0),
	})
	edges := testhelpers.Values([]*entities.BOMEdge{
		testhelpers.MustCreateBOMEdge("ROOT", "LOOP", 1),
		testhelpers.MustCreateBOMEdge("LOOP", "BACK", 1),
		testhelpers.MustCreateBOMEdge("BACK", "LOOP", 1),
		testhelpers.MustCreateBOMEdge("ROOT", "GOOD", 2),
		testhelpers.MustCreateBOMEdge("GOOD", "LEAF", 3),
	})
	resolver := NewResolver(items, edges, Config{}, nil)

	result, err := resolver.Explode("ROOT", testhelpers.Qty(1))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if result.Status != PartialWithCycle {
		t.Errorf("Expected PartialWithCycle, got %s", result.Status)
	}
	if !result.Requirements["LEAF"].Equal(testhelpers.Qty(6)) {
		t.Errorf("Expected LEAF = 6, got %s", result.Requirements["LEAF"])
	}
}

func TestResolver_DepthLimit(t *testing.T) {
	// chain L0 -> L1 -> ... -> L12
	var items []entities.Item
	var edges []entities.BOMEdge
	for i := 0; i <= 12; i++ {
		items = append(items, *testhelpers.MustCreateItem(fmt.Sprintf("L%d", i), entities.SubAssembly, 1, 0))
		if i > 0 {
			edges = append(edges, *testhelpers.MustCreateBOMEdge(fmt.Sprintf("L%d", i-1), fmt.Sprintf("L%d", i), 1))
		}
	}
	resolver := NewResolver(items, edges, Config{MaxDepth: 10}, nil)

	result, err := resolver.Explode("L0", testhelpers.Qty(1))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if result.Status != Truncated {
		t.Fatalf("Expected Truncated, got %s", result.Status)
	}
	if _, exists := result.Requirements["L10"]; !exists {
		t.Error("Expected level 10 to be accumulated")
	}
	if _, exists := result.Requirements["L11"]; exists {
		t.Error("Expected level 11 to be omitted")
	}

	depthDiags := 0
	for _, d := range result.Diagnostics {
		if d.Kind == entities.DepthExceeded {
			depthDiags++
			if d.ItemID != "L10" {
				t.Errorf("Expected truncation at L10, got %s", d.ItemID)
			}
		}
	}
	if depthDiags != 1 {
		t.Errorf("Expected 1 DepthExceeded diagnostic, got %d", depthDiags)
	}
}

func TestResolver_DanglingReference(t *testing.T) {
	items := testhelpers.Values([]*entities.Item{
		testhelpers.MustCreateItem("A", entities.FinishedGood, 0, 0),
		testhelpers.MustCreateItem("B", entities.Component, 1, 0),
	})
	edges := testhelpers.Values([]*entities.BOMEdge{
		testhelpers.MustCreateBOMEdge("A", "B", 2),
		testhelpers.MustCreateBOMEdge("A", "GHOST", 5),
	})
	resolver := NewResolver(items, edges, Config{}, nil)

	result, err := resolver.Explode("A", testhelpers.Qty(1))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if _, exists := result.Requirements["GHOST"]; exists {
		t.Error("Expected dangling component to be skipped")
	}
	if !result.Requirements["B"].Equal(testhelpers.Qty(2)) {
		t.Errorf("Expected B = 2, got %s", result.Requirements["B"])
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0].Kind != entities.DanglingReference {
		t.Errorf("Expected one DanglingReference diagnostic, got %v", result.Diagnostics)
	}
}

func TestResolver_UnknownRoot(t *testing.T) {
	items, edges := testhelpers.BuildDiamondTestData()
	resolver := NewResolver(items, edges, Config{}, nil)

	_, err := resolver.Explode("NOPE", testhelpers.Qty(1))
	if !errors.Is(err, repositories.ErrItemNotFound) {
		t.Errorf("Expected ErrItemNotFound, got %v", err)
	}
}

func TestResolver_NegativeQuantityClamped(t *testing.T) {
	items, edges := testhelpers.BuildDiamondTestData()
	resolver := NewResolver(items, edges, Config{}, nil)

	result, err := resolver.Explode("A", testhelpers.Qty(-4))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	for id, qty := range result.Requirements {
		if !qty.IsZero() {
			t.Errorf("Expected %s = 0 after clamping, got %s", id, qty)
		}
	}
	last := result.Diagnostics[len(result.Diagnostics)-1]
	if last.Kind != entities.InvalidInput {
		t.Errorf("Expected InvalidInput diagnostic, got %s", last.Kind)
	}
}

func TestResolver_ZeroQuantityPer(t *testing.T) {
	items := testhelpers.Values([]*entities.Item{
		testhelpers.MustCreateItem("A", entities.FinishedGood, 0, 0),
		testhelpers.MustCreateItem("GLUE", entities.RawMaterial, 1, 0),
	})
	edges := []entities.BOMEdge{{ParentID: "A", ComponentID: "GLUE", QuantityPer: decimal.Zero}}
	resolver := NewResolver(items, edges, Config{}, nil)

	result, err := resolver.Explode("A", testhelpers.Qty(100))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if !result.Requirements["GLUE"].IsZero() {
		t.Errorf("Expected GLUE = 0, got %s", result.Requirements["GLUE"])
	}
	if result.Status != Ok {
		t.Errorf("Expected Ok, got %s", result.Status)
	}
}

func TestResolver_KindMismatchStillExplodes(t *testing.T) {
	items := testhelpers.Values([]*entities.Item{
		testhelpers.MustCreateItem("A", entities.FinishedGood, 0, 0),
		testhelpers.MustCreateItem("MISLABELLED", entities.Component, 1, 0),
		testhelpers.MustCreateItem("LEAF", entities.RawMaterial, 1, 0),
	})
	edges := testhelpers.Values([]*entities.BOMEdge{
		testhelpers.MustCreateBOMEdge("A", "MISLABELLED", 2),
		testhelpers.MustCreateBOMEdge("MISLABELLED", "LEAF", 3),
	})
	resolver := NewResolver(items, edges, Config{}, nil)

	result, err := resolver.Explode("A", testhelpers.Qty(1))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if !result.Requirements["LEAF"].Equal(testhelpers.Qty(6)) {
		t.Errorf("Expected LEAF = 6 from the edge set, got %s", result.Requirements["LEAF"])
	}
	if len(result.Diagnostics) != 1 || result.Diagnostics[0].Kind != entities.KindMismatch {
		t.Errorf("Expected one KindMismatch diagnostic, got %v", result.Diagnostics)
	}
}

func TestResolver_Memoization(t *testing.T) {
	items, edges := testhelpers.BuildDiamondTestData()
	resolver := NewResolver(items, edges, Config{}, nil)

	for i := 1; i <= 5; i++ {
		result, err := resolver.Explode("A", testhelpers.Qty(int64(i)))
		if err != nil {
			t.Fatalf("Explode failed: %v", err)
		}
		if !result.Requirements["C"].Equal(testhelpers.Qty(int64(5 * i))) {
			t.Errorf("Expected C = %d, got %s", 5*i, result.Requirements["C"])
		}
	}

	stats := resolver.Stats()
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.Hits != 4 {
		t.Errorf("Expected 4 hits, got %d", stats.Hits)
	}
}

func TestResolver_ScaledResultsDoNotShareState(t *testing.T) {
	items, edges := testhelpers.BuildDiamondTestData()
	resolver := NewResolver(items, edges, Config{}, nil)

	first, _ := resolver.Explode("A", testhelpers.Qty(1))
	first.Requirements["C"] = testhelpers.Qty(999)

	second, _ := resolver.Explode("A", testhelpers.Qty(1))
	if !second.Requirements["C"].Equal(testhelpers.Qty(5)) {
		t.Errorf("Expected cached explosion to be unaffected, got %s", second.Requirements["C"])
	}

	cyclic := NewResolver(
		testhelpers.Values([]*entities.Item{
			testhelpers.MustCreateItem("A", entities.SubAssembly, 1, 0),
			testhelpers.MustCreateItem("B", entities.SubAssembly, 1, 0),
		}),
		testhelpers.Values([]*entities.BOMEdge{
			testhelpers.MustCreateBOMEdge("A", "B", 2),
			testhelpers.MustCreateBOMEdge("B", "A", 1),
		}),
		Config{}, nil,
	)
	looped, _ := cyclic.Explode("A", testhelpers.Qty(1))
	looped.CyclePaths[0][0] = "MUTATED"
	looped.Diagnostics[0].Path[0] = "MUTATED"

	again, _ := cyclic.Explode("A", testhelpers.Qty(5))
	if got := entities.FormatPath(again.CyclePaths[0]); got != "A -> B -> A" {
		t.Errorf("Expected cached cycle path A -> B -> A, got %s", got)
	}
	for _, d := range again.Diagnostics {
		if len(d.Path) > 0 && d.Path[0] == "MUTATED" {
			t.Errorf("Expected cached diagnostic paths to be unaffected, got %s", d)
		}
	}
}

func TestResolver_NegativeQuantityPerClamped(t *testing.T) {
	items := testhelpers.Values([]*entities.Item{
		testhelpers.MustCreateItem("FG", entities.FinishedGood, 0, 0),
		testhelpers.MustCreateItem("C", entities.Component, 1, 0),
		testhelpers.MustCreateItem("D", entities.Component, 1, 0),
	})
	edges := []entities.BOMEdge{
		{ParentID: "FG", ComponentID: "C", QuantityPer: testhelpers.Qty(-2)},
		{ParentID: "FG", ComponentID: "D", QuantityPer: testhelpers.Qty(3)},
	}
	resolver := NewResolver(items, edges, Config{}, nil)

	result, err := resolver.Explode("FG", testhelpers.Qty(10))
	if err != nil {
		t.Fatalf("Explode failed: %v", err)
	}
	if !result.Requirements["C"].IsZero() {
		t.Errorf("Expected C = 0 after clamping, got %s", result.Requirements["C"])
	}
	if !result.Requirements["D"].Equal(testhelpers.Qty(30)) {
		t.Errorf("Expected D = 30, got %s", result.Requirements["D"])
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("Expected one diagnostic, got %v", result.Diagnostics)
	}
	if d := result.Diagnostics[0]; d.Kind != entities.InvalidInput || d.ItemID != "C" {
		t.Errorf("Expected InvalidInput for C, got %s", d)
	}
}

func TestResolver_WhereUsed(t *testing.T) {
	items, edges := testhelpers.BuildDiamondTestData()
	resolver := NewResolver(items, edges, Config{}, nil)

	parents := resolver.WhereUsed("C")
	if diff := cmp.Diff([]entities.ItemID{"A", "B"}, parents); diff != "" {
		t.Errorf("WhereUsed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]entities.ItemID{"B", "C"}, resolver.ComponentIDs()); diff != "" {
		t.Errorf("ComponentIDs mismatch (-want +got):\n%s", diff)
	}
}
