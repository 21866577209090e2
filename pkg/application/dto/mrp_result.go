package dto

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/application/services/demand"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// CalculationResult contains the complete output of one projection run
type CalculationResult struct {
	AsOf        time.Time
	HorizonDays int
	Results     map[entities.ItemID]*entities.ProjectionResult
	// Alerts lists every shortage in the horizon, most urgent first
	Alerts      []entities.ShortageAlert
	Diagnostics []entities.Diagnostic
	Cache       ExplosionCacheStats
	// Run is set when the result was produced by a recorded recalculation
	Run         *entities.RunRecord
}

// ExplosionCacheStats reports BOM explosion memoization for the run
type ExplosionCacheStats struct {
	Hits    int `json:"hits"`
	Misses  int `json:"misses"`
	Entries int `json:"entries"`
}

// SortedResults returns the projections ordered by item id
func (r *CalculationResult) SortedResults() []*entities.ProjectionResult {
	sorted := make([]*entities.ProjectionResult, 0, len(r.Results))
	for _, result := range r.Results {
		sorted = append(sorted, result)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ItemID < sorted[j].ItemID })
	return sorted
}

// StructuralDiagnostics returns the diagnostics describing malformed BOM data
func (r *CalculationResult) StructuralDiagnostics() []entities.Diagnostic {
	var structural []entities.Diagnostic
	for _, d := range r.Diagnostics {
		if d.Kind.IsStructural() {
			structural = append(structural, d)
		}
	}
	return structural
}

// ShortageCount returns how many projected items run short within the horizon
func (r *CalculationResult) ShortageCount() int {
	count := 0
	for _, result := range r.Results {
		if result.HasShortage() {
			count++
		}
	}
	return count
}

// CachedProjection is an item's projection as stored by the latest recorded run
type CachedProjection struct {
	Item entities.Item
	Run  entities.RunRecord
	// Rows are ordered by date; each carries the run that last wrote it
	Rows []entities.ProjectionRow
	// Recalculated is set when no run was recorded and one had to be made first
	Recalculated bool
}

// ReorderPointRow compares an item's stored reorder point with the one implied by planned usage
type ReorderPointRow struct {
	ItemID              entities.ItemID
	Name                string
	LeadTimeDays        int
	SafetyStock         decimal.Decimal
	AverageWeeklyUsage  decimal.Decimal
	WeeksWithUsage      int
	CurrentReorderPoint decimal.Decimal
	DynamicReorderPoint decimal.Decimal
	UsedIn              []entities.ItemID
}

// Difference returns dynamic minus current reorder point
func (r ReorderPointRow) Difference() decimal.Decimal {
	return r.DynamicReorderPoint.Sub(r.CurrentReorderPoint)
}

// WeekSummary reports shipment progress for every finished good with a goal this week
type WeekSummary struct {
	Today             time.Time
	WeekStart         time.Time
	WorkdaysRemaining int
	TotalGoal         decimal.Decimal
	TotalShipped      decimal.Decimal
	Products          []demand.WeekProgress
}
