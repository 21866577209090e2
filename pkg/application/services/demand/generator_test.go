package demand

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	testhelpers "github.com/vsinha/mrpcalc/pkg/application/services/testing"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

var monday = testhelpers.ScenarioStart

func TestDailyDemand_SplitsOverWeekdays(t *testing.T) {
	slots := DailyDemand(testhelpers.Qty(500), monday.AddDate(0, 0, 2))

	for i, slot := range slots {
		expectedDate := monday.AddDate(0, 0, i)
		if !slot.Date.Equal(expectedDate) {
			t.Errorf("slot %d: expected date %s, got %s", i, expectedDate, slot.Date)
		}
		expected := testhelpers.Qty(100)
		if i >= 5 {
			expected = decimal.Zero
		}
		if !slot.Quantity.Equal(expected) {
			t.Errorf("slot %d: expected %s, got %s", i, expected, slot.Quantity)
		}
	}
}

func TestDailyDemand_FractionalSplit(t *testing.T) {
	slots := DailyDemand(testhelpers.Qty(7), monday)
	if !slots[0].Quantity.Equal(decimal.RequireFromString("1.4")) {
		t.Errorf("Expected 1.4 per day, got %s", slots[0].Quantity)
	}
	total := decimal.Zero
	for _, s := range slots {
		total = total.Add(s.Quantity)
	}
	if !total.Equal(testhelpers.Qty(7)) {
		t.Errorf("Expected weekly total 7, got %s", total)
	}
}

func TestCatchUpTarget(t *testing.T) {
	testCases := []struct {
		name     string
		goal     int64
		shipped  int64
		today    time.Time
		expected decimal.Decimal
		defined  bool
	}{
		{"monday nothing shipped", 500, 0, monday, testhelpers.Qty(100), true},
		{"wednesday behind", 500, 140, monday.AddDate(0, 0, 2), testhelpers.Qty(120), true},
		{"friday", 500, 450, monday.AddDate(0, 0, 4), testhelpers.Qty(50), true},
		{"already over goal", 500, 600, monday.AddDate(0, 0, 3), decimal.Zero, true},
		{"saturday", 500, 100, monday.AddDate(0, 0, 5), decimal.Zero, false},
		{"sunday", 500, 100, monday.AddDate(0, 0, 6), decimal.Zero, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := CatchUpTarget(testhelpers.Qty(tc.goal), testhelpers.Qty(tc.shipped), tc.today)
			if ok != tc.defined {
				t.Fatalf("Expected defined=%v, got %v", tc.defined, ok)
			}
			if !got.Equal(tc.expected) {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestWorkdaysRemaining(t *testing.T) {
	expected := []int{5, 4, 3, 2, 1, 0, 0}
	for i, want := range expected {
		if got := WorkdaysRemaining(monday.AddDate(0, 0, i)); got != want {
			t.Errorf("day %d: expected %d, got %d", i, want, got)
		}
	}
}

func TestGenerator_SeriesFromWeeklyGoals(t *testing.T) {
	goals := []entities.WeeklyGoal{
		{ItemID: "WIDGET", WeekStart: monday, Goal: testhelpers.Qty(500)},
		{ItemID: "WIDGET", WeekStart: monday.AddDate(0, 0, 7), Goal: testhelpers.Qty(1000)},
	}
	gen := NewGenerator(goals, nil)

	// start on Thursday so the series spans a weekend and a goal change
	series, diags := gen.Series(monday.AddDate(0, 0, 3), 7)
	if len(diags) != 0 {
		t.Errorf("Expected no diagnostics, got %v", diags)
	}

	expected := []decimal.Decimal{
		testhelpers.Qty(100), // Thu
		testhelpers.Qty(100), // Fri
		decimal.Zero,         // Sat
		decimal.Zero,         // Sun
		testhelpers.Qty(200), // Mon, next week's goal
		testhelpers.Qty(200),
		testhelpers.Qty(200),
	}
	if diff := cmp.Diff(expected, series["WIDGET"], testhelpers.DecimalComparer); diff != "" {
		t.Errorf("Series mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerator_WeekWithoutGoalIsZero(t *testing.T) {
	gen := NewGenerator([]entities.WeeklyGoal{
		{ItemID: "WIDGET", WeekStart: monday, Goal: testhelpers.Qty(500)},
	}, nil)

	series, _ := gen.Series(monday, 14)
	for d := 7; d < 14; d++ {
		if !series["WIDGET"][d].IsZero() {
			t.Errorf("day %d: expected 0 without a goal, got %s", d, series["WIDGET"][d])
		}
	}
}

func TestGenerator_DirectDemandTakesPrecedence(t *testing.T) {
	goals := []entities.WeeklyGoal{{ItemID: "WIDGET", WeekStart: monday, Goal: testhelpers.Qty(500)}}
	direct := []entities.DailyDemand{
		{ItemID: "WIDGET", Date: monday.AddDate(0, 0, 1), Quantity: testhelpers.Qty(920)},
		{ItemID: "WIDGET", Date: monday.AddDate(0, 0, 5), Quantity: testhelpers.Qty(30)},
		{ItemID: "GADGET", Date: monday, Quantity: testhelpers.Qty(-3)},
	}
	gen := NewGenerator(goals, direct)

	series, diags := gen.Series(monday, 7)
	expected := []decimal.Decimal{
		decimal.Zero, testhelpers.Qty(920), decimal.Zero, decimal.Zero, decimal.Zero, testhelpers.Qty(30), decimal.Zero,
	}
	if diff := cmp.Diff(expected, series["WIDGET"], testhelpers.DecimalComparer); diff != "" {
		t.Errorf("Series mismatch (-want +got):\n%s", diff)
	}
	if !series["GADGET"][0].IsZero() {
		t.Errorf("Expected negative demand clamped to 0, got %s", series["GADGET"][0])
	}
	if len(diags) != 1 || diags[0].Kind != entities.InvalidInput || diags[0].ItemID != "GADGET" {
		t.Errorf("Expected one InvalidInput diagnostic for GADGET, got %v", diags)
	}
}

func TestGenerator_WeeklyGoalLookup(t *testing.T) {
	gen := NewGenerator([]entities.WeeklyGoal{
		{ItemID: "WIDGET", WeekStart: monday, Goal: testhelpers.Qty(500)},
	}, nil)

	goal, ok := gen.WeeklyGoal("WIDGET", monday.AddDate(0, 0, 4))
	if !ok || !goal.Equal(testhelpers.Qty(500)) {
		t.Errorf("Expected goal 500, got %s (ok=%v)", goal, ok)
	}
	if _, ok := gen.WeeklyGoal("WIDGET", monday.AddDate(0, 0, 7)); ok {
		t.Error("Expected no goal for the following week")
	}
}
