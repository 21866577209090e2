package entities

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DemandSeries maps a finished good to its day-indexed demand, day 0 being the run start date
type DemandSeries map[ItemID][]decimal.Decimal

// WeeklyGoal represents the shipment goal for a finished good in the week starting WeekStart (a Monday)
type WeeklyGoal struct {
	ItemID    ItemID
	WeekStart time.Time
	Goal      decimal.Decimal
}

// NewWeeklyGoal creates a validated WeeklyGoal; the week start is normalised to its Monday
func NewWeeklyGoal(itemID ItemID, weekStart time.Time, goal decimal.Decimal) (*WeeklyGoal, error) {
	if string(itemID) == "" {
		return nil, fmt.Errorf("item id cannot be empty")
	}
	if goal.IsNegative() {
		return nil, fmt.Errorf("goal cannot be negative, got %s", goal)
	}

	return &WeeklyGoal{
		ItemID:    itemID,
		WeekStart: WeekStart(weekStart),
		Goal:      goal,
	}, nil
}

// ShipmentRecord represents quantity shipped for a finished good on a given day
type ShipmentRecord struct {
	ItemID   ItemID
	Date     time.Time
	Quantity decimal.Decimal
}

// Day truncates a time to midnight UTC of its calendar date
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Monday of the week containing t
func WeekStart(t time.Time) time.Time {
	day := Day(t)
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return day.AddDate(0, 0, -offset)
}

// DaysBetween returns the whole number of calendar days from a to b
func DaysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}

// DailyDemand is a directly supplied demand quantity for a finished good on one day
type DailyDemand struct {
	ItemID   ItemID
	Date     time.Time
	Quantity decimal.Decimal
}
