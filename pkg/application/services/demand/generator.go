package demand

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// WorkdaysPerWeek is the fixed Monday to Friday split applied to weekly goals
const WorkdaysPerWeek = 5

var workdays = decimal.NewFromInt(WorkdaysPerWeek)

// DailySlot is one day of a split weekly goal
type DailySlot struct {
	Date     time.Time
	Quantity decimal.Decimal
}

// DailyDemand splits a weekly goal evenly over Monday to Friday of weekStart's week.
// Slot 0 is the Monday; slots 5 and 6 (the weekend) are zero.
func DailyDemand(goal decimal.Decimal, weekStart time.Time) [7]DailySlot {
	var slots [7]DailySlot
	monday := entities.WeekStart(weekStart)

	perDay := goal.Div(workdays)
	for i := range slots {
		slots[i].Date = monday.AddDate(0, 0, i)
		if i < WorkdaysPerWeek {
			slots[i].Quantity = perDay
		} else {
			slots[i].Quantity = decimal.Zero
		}
	}
	return slots
}

// IsWeekday reports whether t falls Monday to Friday
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WorkdaysRemaining counts weekdays from today through Friday inclusive; zero at the weekend
func WorkdaysRemaining(today time.Time) int {
	if !IsWeekday(today) {
		return 0
	}
	return WorkdaysPerWeek - (int(today.Weekday()) - 1)
}

// CatchUpTarget is what must ship today, and each remaining weekday, to reach the goal.
// It is undefined at the weekend, reported by the false return.
func CatchUpTarget(goal, shippedBeforeToday decimal.Decimal, today time.Time) (decimal.Decimal, bool) {
	remainingDays := WorkdaysRemaining(today)
	if remainingDays == 0 {
		return decimal.Zero, false
	}

	remaining := goal.Sub(shippedBeforeToday)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return remaining.Div(decimal.NewFromInt(int64(remainingDays))), true
}

// Generator turns weekly goals and directly supplied daily demand into day-indexed series
type Generator struct {
	goals  map[entities.ItemID]map[time.Time]decimal.Decimal
	direct map[entities.ItemID]map[time.Time]decimal.Decimal
}

// NewGenerator indexes goals by item and Monday, and direct demand by item and day.
// An item with any directly supplied demand uses it instead of its weekly goals.
func NewGenerator(goals []entities.WeeklyGoal, direct []entities.DailyDemand) *Generator {
	g := &Generator{
		goals:  make(map[entities.ItemID]map[time.Time]decimal.Decimal),
		direct: make(map[entities.ItemID]map[time.Time]decimal.Decimal),
	}

	for _, goal := range goals {
		if g.goals[goal.ItemID] == nil {
			g.goals[goal.ItemID] = make(map[time.Time]decimal.Decimal)
		}
		g.goals[goal.ItemID][entities.WeekStart(goal.WeekStart)] = goal.Goal
	}

	for _, d := range direct {
		if g.direct[d.ItemID] == nil {
			g.direct[d.ItemID] = make(map[time.Time]decimal.Decimal)
		}
		day := entities.Day(d.Date)
		g.direct[d.ItemID][day] = g.direct[d.ItemID][day].Add(d.Quantity)
	}

	return g
}

// Series builds the demand series for every item with goals or direct demand.
// Negative quantities are clamped to zero and reported.
func (g *Generator) Series(start time.Time, horizonDays int) (entities.DemandSeries, []entities.Diagnostic) {
	start = entities.Day(start)
	if horizonDays < 0 {
		horizonDays = 0
	}

	series := make(entities.DemandSeries)
	var diags []entities.Diagnostic
	clamped := make(map[entities.ItemID]bool)

	for itemID, byWeek := range g.goals {
		if _, overridden := g.direct[itemID]; overridden {
			continue
		}
		days := make([]decimal.Decimal, horizonDays)
		for d := 0; d < horizonDays; d++ {
			date := start.AddDate(0, 0, d)
			goal, exists := byWeek[entities.WeekStart(date)]
			if !exists || !IsWeekday(date) {
				days[d] = decimal.Zero
				continue
			}
			if goal.IsNegative() {
				clamped[itemID] = true
				goal = decimal.Zero
			}
			days[d] = DailyDemand(goal, date)[weekdayIndex(date)].Quantity
		}
		series[itemID] = days
	}

	for itemID, byDay := range g.direct {
		days := make([]decimal.Decimal, horizonDays)
		for d := 0; d < horizonDays; d++ {
			qty := byDay[start.AddDate(0, 0, d)]
			if qty.IsNegative() {
				clamped[itemID] = true
				qty = decimal.Zero
			}
			days[d] = qty
		}
		series[itemID] = days
	}

	ids := make([]entities.ItemID, 0, len(clamped))
	for itemID := range clamped {
		ids = append(ids, itemID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, itemID := range ids {
		diags = append(diags, entities.Diagnostic{
			Kind:    entities.InvalidInput,
			ItemID:  itemID,
			Message: "negative demand clamped to 0",
		})
	}

	return series, diags
}

// WeeklyGoal returns the goal for an item in the week containing date
func (g *Generator) WeeklyGoal(itemID entities.ItemID, date time.Time) (decimal.Decimal, bool) {
	goal, exists := g.goals[itemID][entities.WeekStart(date)]
	return goal, exists
}

// weekdayIndex maps Monday to 0 and Sunday to 6
func weekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
