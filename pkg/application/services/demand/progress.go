package demand

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// WeekStatus summarises progress toward a weekly goal
type WeekStatus int

const (
	OnPace WeekStatus = iota
	Behind
	Complete
)

// String method for WeekStatus enum
func (s WeekStatus) String() string {
	switch s {
	case OnPace:
		return "on_pace"
	case Behind:
		return "behind"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// DailyStatus summarises today's shipments against the catch-up target
type DailyStatus int

const (
	DayComplete DailyStatus = iota
	DayClose
	DayBehind
	DayWeekend
)

// String method for DailyStatus enum
func (s DailyStatus) String() string {
	switch s {
	case DayComplete:
		return "complete"
	case DayClose:
		return "close"
	case DayBehind:
		return "behind"
	case DayWeekend:
		return "weekend"
	default:
		return "unknown"
	}
}

// closeRatio is the share of today's target that counts as close
var closeRatio = decimal.RequireFromString("0.8")

var hundred = decimal.NewFromInt(100)

// WeekProgress reports how a finished good is tracking against this week's goal
type WeekProgress struct {
	ItemID             entities.ItemID
	WeekStart          time.Time
	Goal               decimal.Decimal
	ShippedThisWeek    decimal.Decimal
	ShippedToday       decimal.Decimal
	ShippedBeforeToday decimal.Decimal
	ProgressPct        decimal.Decimal
	Variance           decimal.Decimal
	CatchUpTarget      decimal.Decimal
	HasCatchUpTarget   bool
	WorkdaysRemaining  int
	Status             WeekStatus
	DailyStatus        DailyStatus
}

// Progress evaluates one item's week containing today. Shipments outside that week, or after today, are ignored.
func Progress(itemID entities.ItemID, goal decimal.Decimal, shipments []entities.ShipmentRecord, today time.Time) WeekProgress {
	today = entities.Day(today)
	monday := entities.WeekStart(today)

	p := WeekProgress{
		ItemID:             itemID,
		WeekStart:          monday,
		Goal:               goal,
		ShippedThisWeek:    decimal.Zero,
		ShippedToday:       decimal.Zero,
		ShippedBeforeToday: decimal.Zero,
	}

	for _, s := range shipments {
		if s.ItemID != itemID {
			continue
		}
		day := entities.Day(s.Date)
		if day.Before(monday) || day.After(today) {
			continue
		}
		p.ShippedThisWeek = p.ShippedThisWeek.Add(s.Quantity)
		if day.Equal(today) {
			p.ShippedToday = p.ShippedToday.Add(s.Quantity)
		} else {
			p.ShippedBeforeToday = p.ShippedBeforeToday.Add(s.Quantity)
		}
	}

	if goal.IsPositive() {
		p.ProgressPct = p.ShippedThisWeek.Div(goal).Mul(hundred).Round(1)
	}
	p.Variance = p.ShippedThisWeek.Sub(goal)

	if !IsWeekday(today) {
		p.WorkdaysRemaining = WorkdaysPerWeek
		p.DailyStatus = DayWeekend
		p.Status = Behind
		if p.ShippedThisWeek.GreaterThanOrEqual(goal) {
			p.Status = Complete
		}
		return p
	}

	p.WorkdaysRemaining = WorkdaysRemaining(today)
	p.CatchUpTarget, p.HasCatchUpTarget = CatchUpTarget(goal, p.ShippedBeforeToday, today)

	if p.ShippedThisWeek.GreaterThanOrEqual(goal) {
		p.Status = Complete
		p.DailyStatus = DayComplete
		return p
	}

	switch {
	case p.ShippedToday.GreaterThanOrEqual(p.CatchUpTarget):
		p.DailyStatus = DayComplete
		p.Status = OnPace
		return p
	case p.ShippedToday.GreaterThanOrEqual(p.CatchUpTarget.Mul(closeRatio)):
		p.DailyStatus = DayClose
	default:
		p.DailyStatus = DayBehind
	}

	// on pace if the rest of the week needs no more than the even daily split
	daysAfterToday := p.WorkdaysRemaining - 1
	if daysAfterToday <= 0 {
		p.Status = Behind
		return p
	}
	neededPerDay := goal.Sub(p.ShippedThisWeek).Div(decimal.NewFromInt(int64(daysAfterToday)))
	if neededPerDay.LessThanOrEqual(goal.Div(workdays)) {
		p.Status = OnPace
	} else {
		p.Status = Behind
	}
	return p
}

// SortByProgress orders the slowest items first
func SortByProgress(progress []WeekProgress) {
	sort.SliceStable(progress, func(i, j int) bool {
		if progress[i].ProgressPct.Equal(progress[j].ProgressPct) {
			return progress[i].ItemID < progress[j].ItemID
		}
		return progress[i].ProgressPct.LessThan(progress[j].ProgressPct)
	})
}
