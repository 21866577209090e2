package testing

import (
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/repositories/memory"
)

// ScenarioStart is Monday 2025-03-10, the start date shared by the fixtures
var ScenarioStart = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// DecimalComparer lets cmp.Diff compare decimals by value
var DecimalComparer = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// Qty is shorthand for an integer decimal
func Qty(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

// MustCreateItem is a helper for tests - panics on validation error
func MustCreateItem(id string, kind entities.ItemKind, leadTime int, safetyStock int64) *entities.Item {
	item, err := entities.NewItem(entities.ItemID(id), id, kind, "EA", leadTime, Qty(safetyStock))
	if err != nil {
		panic(err)
	}
	return item
}

// MustCreateBOMEdge is a helper for tests - panics on validation error
func MustCreateBOMEdge(parent, component string, qtyPer int64) *entities.BOMEdge {
	edge, err := entities.NewBOMEdge(entities.ItemID(parent), entities.ItemID(component), Qty(qtyPer))
	if err != nil {
		panic(err)
	}
	return edge
}

// Values dereferences a slice of pointers, for feeding resolvers and projectors directly
func Values[T any](ptrs []*T) []T {
	out := make([]T, 0, len(ptrs))
	for _, p := range ptrs {
		out = append(out, *p)
	}
	return out
}

// BuildDiamondTestData builds A -> C x2, A -> B x1, B -> C x3
func BuildDiamondTestData() ([]entities.Item, []entities.BOMEdge) {
	items := []*entities.Item{
		MustCreateItem("A", entities.FinishedGood, 0, 0),
		MustCreateItem("B", entities.SubAssembly, 5, 0),
		MustCreateItem("C", entities.Component, 10, 0),
	}
	edges := []*entities.BOMEdge{
		MustCreateBOMEdge("A", "C", 2),
		MustCreateBOMEdge("A", "B", 1),
		MustCreateBOMEdge("B", "C", 3),
	}
	return Values(items), Values(edges)
}

// BuildLampTestData builds a two-product lamp catalog sharing a base sub-assembly and screws.
//
//	LAMP_STD: BASE_ASSY x1, SHADE x1, BULB x1
//	LAMP_PRO: BASE_ASSY x1, SHADE x1, BULB x2, SCREW x2
//	BASE_ASSY: SCREW x4, STEEL x2
//
// Both lamps have a weekly goal of 500 starting ScenarioStart, so each ships 100 per weekday.
func BuildLampTestData() *memory.Store {
	store := memory.NewStore(8, 8)

	lampStd := MustCreateItem("LAMP_STD", entities.FinishedGood, 0, 0)
	lampPro := MustCreateItem("LAMP_PRO", entities.FinishedGood, 0, 0)
	base := MustCreateItem("BASE_ASSY", entities.SubAssembly, 3, 0)
	shade := MustCreateItem("SHADE", entities.Component, 10, 50)
	bulb := MustCreateItem("BULB", entities.Component, 5, 0)
	screw := MustCreateItem("SCREW", entities.Component, 14, 500)
	steel := MustCreateItem("STEEL", entities.RawMaterial, 21, 0)

	if _, err := screw.WithLotSizing(Qty(1000), Qty(5000)); err != nil {
		panic(err)
	}
	if _, err := bulb.WithReorder(Qty(600), Qty(2000)); err != nil {
		panic(err)
	}

	items := []*entities.Item{lampStd, lampPro, base, shade, bulb, screw, steel}
	if err := store.Items().LoadItems(items); err != nil {
		panic(err)
	}

	edges := []*entities.BOMEdge{
		MustCreateBOMEdge("LAMP_STD", "BASE_ASSY", 1),
		MustCreateBOMEdge("LAMP_STD", "SHADE", 1),
		MustCreateBOMEdge("LAMP_STD", "BULB", 1),
		MustCreateBOMEdge("LAMP_PRO", "BASE_ASSY", 1),
		MustCreateBOMEdge("LAMP_PRO", "SHADE", 1),
		MustCreateBOMEdge("LAMP_PRO", "BULB", 2),
		MustCreateBOMEdge("LAMP_PRO", "SCREW", 2),
		MustCreateBOMEdge("BASE_ASSY", "SCREW", 4),
		MustCreateBOMEdge("BASE_ASSY", "STEEL", 2),
	}
	if err := store.BOM().LoadBOMEdges(edges); err != nil {
		panic(err)
	}

	stock := []*entities.InventorySnapshot{
		{ItemID: "BASE_ASSY", OnHand: Qty(10000)},
		{ItemID: "SHADE", OnHand: Qty(5000)},
		{ItemID: "BULB", OnHand: Qty(900)},
		{ItemID: "SCREW", OnHand: Qty(3000)},
		{ItemID: "STEEL", OnHand: Qty(100000)},
	}
	if err := store.Inventory().LoadSnapshots(stock); err != nil {
		panic(err)
	}

	var goals []*entities.WeeklyGoal
	for week := 0; week < 6; week++ {
		monday := ScenarioStart.AddDate(0, 0, 7*week)
		goals = append(goals,
			&entities.WeeklyGoal{ItemID: "LAMP_STD", WeekStart: monday, Goal: Qty(500)},
			&entities.WeeklyGoal{ItemID: "LAMP_PRO", WeekStart: monday, Goal: Qty(500)},
		)
	}
	if err := store.Demand().LoadWeeklyGoals(goals); err != nil {
		panic(err)
	}

	receipts := []*entities.IncomingReceipt{
		{ItemID: "BULB", Reference: "PO-100", ExpectedDate: ScenarioStart.AddDate(0, 0, 2), Quantity: Qty(1000)},
	}
	if err := store.Receipts().LoadReceipts(receipts); err != nil {
		panic(err)
	}

	return store
}
