package demand

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	testhelpers "github.com/vsinha/mrpcalc/pkg/application/services/testing"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

func shipped(day int, qty int64) entities.ShipmentRecord {
	return entities.ShipmentRecord{ItemID: "WIDGET", Date: monday.AddDate(0, 0, day), Quantity: testhelpers.Qty(qty)}
}

func TestProgress(t *testing.T) {
	testCases := []struct {
		name          string
		today         int
		shipments     []entities.ShipmentRecord
		status        WeekStatus
		daily         DailyStatus
		catchUp       decimal.Decimal
		workdaysLeft  int
		progressPct   decimal.Decimal
		shippedBefore decimal.Decimal
	}{
		{
			name:          "met today's target",
			today:         2,
			shipments:     []entities.ShipmentRecord{shipped(0, 100), shipped(1, 100), shipped(2, 100)},
			status:        OnPace,
			daily:         DayComplete,
			catchUp:       testhelpers.Qty(100),
			workdaysLeft:  3,
			progressPct:   testhelpers.Qty(60),
			shippedBefore: testhelpers.Qty(200),
		},
		{
			name:          "close to today's target",
			today:         2,
			shipments:     []entities.ShipmentRecord{shipped(0, 100), shipped(1, 100), shipped(2, 85)},
			status:        Behind, // 215 left over the 2 days after today is 107.5 a day, above the even 100
			daily:         DayClose,
			catchUp:       testhelpers.Qty(100),
			workdaysLeft:  3,
			progressPct:   testhelpers.Qty(57),
			shippedBefore: testhelpers.Qty(200),
		},
		{
			name:          "behind",
			today:         3,
			shipments:     []entities.ShipmentRecord{shipped(0, 50), shipped(3, 10)},
			status:        Behind,
			daily:         DayBehind,
			catchUp:       testhelpers.Qty(225),
			workdaysLeft:  2,
			progressPct:   testhelpers.Qty(12),
			shippedBefore: testhelpers.Qty(50),
		},
		{
			name:          "complete",
			today:         3,
			shipments:     []entities.ShipmentRecord{shipped(0, 300), shipped(1, 250)},
			status:        Complete,
			daily:         DayComplete,
			catchUp:       decimal.Zero,
			workdaysLeft:  2,
			progressPct:   testhelpers.Qty(110),
			shippedBefore: testhelpers.Qty(550),
		},
		{
			name:          "weekend",
			today:         5,
			shipments:     []entities.ShipmentRecord{shipped(0, 100)},
			status:        Behind,
			daily:         DayWeekend,
			catchUp:       decimal.Zero,
			workdaysLeft:  5,
			progressPct:   testhelpers.Qty(20),
			shippedBefore: testhelpers.Qty(100),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := Progress("WIDGET", testhelpers.Qty(500), tc.shipments, monday.AddDate(0, 0, tc.today))

			if p.Status != tc.status {
				t.Errorf("Expected status %s, got %s", tc.status, p.Status)
			}
			if p.DailyStatus != tc.daily {
				t.Errorf("Expected daily status %s, got %s", tc.daily, p.DailyStatus)
			}
			if !p.CatchUpTarget.Equal(tc.catchUp) {
				t.Errorf("Expected catch-up target %s, got %s", tc.catchUp, p.CatchUpTarget)
			}
			if p.WorkdaysRemaining != tc.workdaysLeft {
				t.Errorf("Expected %d workdays remaining, got %d", tc.workdaysLeft, p.WorkdaysRemaining)
			}
			if !p.ProgressPct.Equal(tc.progressPct) {
				t.Errorf("Expected progress %s%%, got %s%%", tc.progressPct, p.ProgressPct)
			}
			if !p.ShippedBeforeToday.Equal(tc.shippedBefore) {
				t.Errorf("Expected shipped before today %s, got %s", tc.shippedBefore, p.ShippedBeforeToday)
			}
		})
	}
}

func TestProgress_IgnoresOtherWeeksAndItems(t *testing.T) {
	shipments := []entities.ShipmentRecord{
		{ItemID: "WIDGET", Date: monday.AddDate(0, 0, -1), Quantity: testhelpers.Qty(999)},
		{ItemID: "WIDGET", Date: monday.AddDate(0, 0, 4), Quantity: testhelpers.Qty(999)},
		{ItemID: "GADGET", Date: monday, Quantity: testhelpers.Qty(999)},
		{ItemID: "WIDGET", Date: monday.Add(15 * time.Hour), Quantity: testhelpers.Qty(40)},
	}

	p := Progress("WIDGET", testhelpers.Qty(500), shipments, monday.AddDate(0, 0, 1))
	if !p.ShippedThisWeek.Equal(testhelpers.Qty(40)) {
		t.Errorf("Expected 40 shipped this week, got %s", p.ShippedThisWeek)
	}
	if !p.Variance.Equal(testhelpers.Qty(-460)) {
		t.Errorf("Expected variance -460, got %s", p.Variance)
	}
}

func TestSortByProgress(t *testing.T) {
	progress := []WeekProgress{
		{ItemID: "B", ProgressPct: testhelpers.Qty(80)},
		{ItemID: "A", ProgressPct: testhelpers.Qty(20)},
		{ItemID: "C", ProgressPct: testhelpers.Qty(20)},
	}
	SortByProgress(progress)

	got := []entities.ItemID{progress[0].ItemID, progress[1].ItemID, progress[2].ItemID}
	want := []entities.ItemID{"A", "C", "B"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}
}
