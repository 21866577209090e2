package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Urgency classifies how soon a shortage will bite
type Urgency int

const (
	Normal Urgency = iota
	Caution
	Warning
	Critical
)

// String method for Urgency enum
func (u Urgency) String() string {
	switch u {
	case Normal:
		return "Normal"
	case Caution:
		return "Caution"
	case Warning:
		return "Warning"
	case Critical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// ParseUrgency parses an urgency label, case-insensitively
func ParseUrgency(s string) (Urgency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal":
		return Normal, nil
	case "caution":
		return Caution, nil
	case "warning":
		return Warning, nil
	case "critical":
		return Critical, nil
	default:
		return Normal, fmt.Errorf("invalid urgency: %s", s)
	}
}

// DailyProjection is one day of a component's projected inventory
type DailyProjection struct {
	Date          time.Time
	Consumption   decimal.Decimal
	Incoming      decimal.Decimal
	Projected     decimal.Decimal
	NeedsOrdering bool
}

// ProjectionResult is the projected inventory series and derived scalars for one component
type ProjectionResult struct {
	ItemID              ItemID
	StartDate           time.Time
	Days                []DailyProjection
	OnHand              decimal.Decimal
	ShortageDate        *time.Time
	DaysOfInventory     int
	OrderByDate         *time.Time
	Overdue             bool
	Urgency             Urgency
	RecommendedOrderQty decimal.Decimal
	ReorderPoint        decimal.Decimal
	LeadTimeDays        int
	TotalConsumption    decimal.Decimal
	Stagnant            bool
	UsedIn              []ItemID
}

// HasShortage reports whether the projection goes negative within the horizon
func (p *ProjectionResult) HasShortage() bool {
	return p.ShortageDate != nil
}

// MinProjected returns the lowest projected value over the horizon, or on hand for an empty series
func (p *ProjectionResult) MinProjected() decimal.Decimal {
	if len(p.Days) == 0 {
		return p.OnHand
	}
	lowest := p.Days[0].Projected
	for _, day := range p.Days[1:] {
		if day.Projected.LessThan(lowest) {
			lowest = day.Projected
		}
	}
	return lowest
}

// ShortageAlert is an actionable shortage surfaced to planners
type ShortageAlert struct {
	ItemID              ItemID
	OnHand              decimal.Decimal
	ShortageDate        time.Time
	OrderByDate         time.Time
	Overdue             bool
	Urgency             Urgency
	RecommendedOrderQty decimal.Decimal
	LeadTimeDays        int
	DaysOfInventory     int
}
