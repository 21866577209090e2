package shortage

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/services"
)

// Detector classifies projections and turns them into actionable alerts
type Detector struct {
	items map[entities.ItemID]entities.Item
}

// NewDetector creates a detector over the (sanitized) item catalog
func NewDetector(items []entities.Item) *Detector {
	d := &Detector{items: make(map[entities.ItemID]entities.Item, len(items))}
	for _, item := range items {
		d.items[item.ID] = item
	}
	return d
}

// Annotate fills urgency, order-by date and recommended order quantity on every result
func (d *Detector) Annotate(results map[entities.ItemID]*entities.ProjectionResult) {
	for id, result := range results {
		item, known := d.items[id]
		if !known {
			continue
		}
		d.annotate(item, result)
	}
}

func (d *Detector) annotate(item entities.Item, result *entities.ProjectionResult) {
	result.Urgency = services.ClassifyUrgency(result.DaysOfInventory, result.HasShortage(), item.Thresholds)
	result.RecommendedOrderQty = RecommendedOrderQty(item, result)

	if !result.HasShortage() {
		result.OrderByDate = nil
		result.Overdue = false
		return
	}

	orderBy := result.ShortageDate.AddDate(0, 0, -item.LeadTimeDays)
	result.OrderByDate = &orderBy
	result.Overdue = orderBy.Before(result.StartDate)
}

// RecommendedOrderQty sizes an order for a short item: the item's reorder quantity, or the
// shortfall below safety stock when no reorder quantity is set, rounded up to the supplier's lots.
func RecommendedOrderQty(item entities.Item, result *entities.ProjectionResult) decimal.Decimal {
	if !result.HasShortage() {
		return decimal.Zero
	}

	base := item.ReorderQty
	if !base.IsPositive() {
		base = result.MinProjected().Neg().Add(item.SafetyStock)
	}
	return services.ResolveOrderQty(base, item.OrderMultiple, item.MinimumOrderQty)
}

// Alerts returns shortages whose order-by date falls on or before start + alertDays,
// most urgent first: ascending order-by date, then shortage date, then item id.
func (d *Detector) Alerts(results map[entities.ItemID]*entities.ProjectionResult, start time.Time, alertDays int) []entities.ShortageAlert {
	cutoff := entities.Day(start).AddDate(0, 0, alertDays)

	alerts := make([]entities.ShortageAlert, 0)
	for _, result := range results {
		if !result.HasShortage() || result.OrderByDate == nil {
			continue
		}
		if result.OrderByDate.After(cutoff) {
			continue
		}
		alerts = append(alerts, entities.ShortageAlert{
			ItemID:              result.ItemID,
			OnHand:              result.OnHand,
			ShortageDate:        *result.ShortageDate,
			OrderByDate:         *result.OrderByDate,
			Overdue:             result.Overdue,
			Urgency:             result.Urgency,
			RecommendedOrderQty: result.RecommendedOrderQty,
			LeadTimeDays:        result.LeadTimeDays,
			DaysOfInventory:     result.DaysOfInventory,
		})
	}

	SortAlerts(alerts)
	return alerts
}

// SortAlerts orders alerts by ascending order-by date, then shortage date, then item id
func SortAlerts(alerts []entities.ShortageAlert) {
	sort.Slice(alerts, func(i, j int) bool {
		a, b := alerts[i], alerts[j]
		if !a.OrderByDate.Equal(b.OrderByDate) {
			return a.OrderByDate.Before(b.OrderByDate)
		}
		if !a.ShortageDate.Equal(b.ShortageDate) {
			return a.ShortageDate.Before(b.ShortageDate)
		}
		return a.ItemID < b.ItemID
	})
}

// CountByUrgency tallies short items per urgency level
func CountByUrgency(results map[entities.ItemID]*entities.ProjectionResult) map[entities.Urgency]int {
	counts := map[entities.Urgency]int{
		entities.Normal:   0,
		entities.Caution:  0,
		entities.Warning:  0,
		entities.Critical: 0,
	}
	for _, result := range results {
		if result.HasShortage() {
			counts[result.Urgency]++
		}
	}
	return counts
}
