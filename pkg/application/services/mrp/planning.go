package mrp

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/application/dto"
	"github.com/vsinha/mrpcalc/pkg/application/services/bom"
	"github.com/vsinha/mrpcalc/pkg/application/services/demand"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/services"
)

// DynamicReorderPoints derives a reorder point for every active non-finished item from the
// weekly goals planned over the reorder window (starting with the current week).
// Rows are sorted by dynamic reorder point, highest first.
func (e *Engine) DynamicReorderPoints(ctx context.Context) ([]dto.ReorderPointRow, []entities.Diagnostic, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, nil, err
	}
	if len(snap.Items) == 0 {
		return nil, nil, ErrEmptyCatalog
	}

	items, _ := sanitizeItems(snap.Items)
	resolver := bom.NewResolver(items, snap.Edges, bom.Config{MaxDepth: e.config.MaxBOMDepth}, e.logger)

	// goals[week][finished good]
	weeks := make([]time.Time, e.config.ReorderWindowWeeks)
	current := entities.WeekStart(e.Today())
	goals := make(map[time.Time]map[entities.ItemID]decimal.Decimal, len(weeks))
	for i := range weeks {
		weeks[i] = current.AddDate(0, 0, 7*i)
		goals[weeks[i]] = make(map[entities.ItemID]decimal.Decimal)
	}
	for _, g := range snap.WeeklyGoals {
		byItem, inWindow := goals[entities.WeekStart(g.WeekStart)]
		if !inWindow {
			continue
		}
		byItem[g.ItemID] = byItem[g.ItemID].Add(g.Goal)
	}

	// usage[component][week index]
	usage := make(map[entities.ItemID][]decimal.Decimal)
	diags := newDiagnosticLog()
	for w, week := range weeks {
		for _, fg := range sortedIDs(goals[week]) {
			goal := goals[week][fg]
			if !goal.IsPositive() {
				continue
			}
			exploded, err := resolver.Explode(fg, goal)
			if err != nil {
				continue
			}
			diags.add(exploded.Diagnostics...)
			for component, qty := range exploded.Requirements {
				if usage[component] == nil {
					usage[component] = make([]decimal.Decimal, len(weeks))
				}
				usage[component][w] = usage[component][w].Add(qty)
			}
		}
	}

	rows := make([]dto.ReorderPointRow, 0)
	listed := make(map[entities.ItemID]bool, len(items))
	for _, item := range items {
		if !item.Active || item.Kind == entities.FinishedGood || listed[item.ID] {
			continue
		}
		listed[item.ID] = true
		id := item.ID

		var periods []decimal.Decimal
		for _, qty := range usage[id] {
			if qty.IsPositive() {
				periods = append(periods, qty)
			}
		}
		average, degenerate := services.AverageWeeklyUsage(id, periods)
		if degenerate != nil {
			diags.add(*degenerate)
		}

		rows = append(rows, dto.ReorderPointRow{
			ItemID:              id,
			Name:                item.Name,
			LeadTimeDays:        item.LeadTimeDays,
			SafetyStock:         item.SafetyStock,
			AverageWeeklyUsage:  average,
			WeeksWithUsage:      len(periods),
			CurrentReorderPoint: item.ReorderPoint,
			DynamicReorderPoint: services.ReorderPoint(item, average),
			UsedIn:              resolver.WhereUsed(id),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DynamicReorderPoint.Equal(rows[j].DynamicReorderPoint) {
			return rows[i].ItemID < rows[j].ItemID
		}
		return rows[i].DynamicReorderPoint.GreaterThan(rows[j].DynamicReorderPoint)
	})

	return rows, diags.list(), nil
}

// WeekSummary reports this week's shipment progress for every finished good with a goal,
// slowest first
func (e *Engine) WeekSummary(ctx context.Context) (*dto.WeekSummary, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	today := e.Today()
	generator := demand.NewGenerator(snap.WeeklyGoals, nil)

	summary := &dto.WeekSummary{
		Today:        today,
		WeekStart:    entities.WeekStart(today),
		TotalGoal:    decimal.Zero,
		TotalShipped: decimal.Zero,
	}
	if demand.IsWeekday(today) {
		summary.WorkdaysRemaining = demand.WorkdaysRemaining(today)
	} else {
		summary.WorkdaysRemaining = demand.WorkdaysPerWeek
	}

	for _, item := range snap.Items {
		if item.Kind != entities.FinishedGood {
			continue
		}
		goal, exists := generator.WeeklyGoal(item.ID, today)
		if !exists {
			continue
		}
		progress := demand.Progress(item.ID, goal, snap.Shipments, today)
		summary.Products = append(summary.Products, progress)
		summary.TotalGoal = summary.TotalGoal.Add(goal)
		summary.TotalShipped = summary.TotalShipped.Add(progress.ShippedThisWeek)
	}
	demand.SortByProgress(summary.Products)

	return summary, nil
}

func sortedIDs(m map[entities.ItemID]decimal.Decimal) []entities.ItemID {
	ids := make([]entities.ItemID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
