package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/application/dto"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// table is a CSV header plus its records
type table struct {
	header  []string
	records [][]string
}

// writeJSON prints v to the renderer output, or saves it as name under the output directory
func (r *Renderer) writeJSON(name string, v interface{}) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if r.config.OutputDir == "" {
		_, err = fmt.Fprintln(r.out, string(jsonData))
		return err
	}

	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(r.config.OutputDir, name)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	if r.config.Verbose {
		fmt.Fprintf(r.out, "JSON results saved to: %s\n", filename)
	}
	return nil
}

func (r *Renderer) writeCSV(name string, t table) error {
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(r.config.OutputDir, name)
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if err := writer.WriteAll(t.records); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}

	if r.config.Verbose {
		fmt.Fprintf(r.out, "CSV written to: %s\n", filename)
	}
	return file.Close()
}

type dayView struct {
	Date          string          `json:"date"`
	Consumption   decimal.Decimal `json:"consumption"`
	Incoming      decimal.Decimal `json:"incoming"`
	Projected     decimal.Decimal `json:"projected"`
	NeedsOrdering bool            `json:"needs_ordering"`
}

type projectionView struct {
	ItemID              string          `json:"item_id"`
	OnHand              decimal.Decimal `json:"on_hand"`
	ShortageDate        string          `json:"shortage_date,omitempty"`
	DaysOfInventory     int             `json:"days_of_inventory"`
	OrderByDate         string          `json:"order_by_date,omitempty"`
	Overdue             bool            `json:"overdue"`
	Urgency             string          `json:"urgency"`
	RecommendedOrderQty decimal.Decimal `json:"recommended_order_qty"`
	ReorderPoint        decimal.Decimal `json:"reorder_point"`
	LeadTimeDays        int             `json:"lead_time_days"`
	TotalConsumption    decimal.Decimal `json:"total_consumption"`
	Stagnant            bool            `json:"stagnant"`
	UsedIn              []string        `json:"used_in"`
	Days                []dayView       `json:"days"`
}

type alertView struct {
	ItemID              string          `json:"item_id"`
	OnHand              decimal.Decimal `json:"on_hand"`
	ShortageDate        string          `json:"shortage_date"`
	OrderByDate         string          `json:"order_by_date"`
	Overdue             bool            `json:"overdue"`
	Urgency             string          `json:"urgency"`
	RecommendedOrderQty decimal.Decimal `json:"recommended_order_qty"`
	LeadTimeDays        int             `json:"lead_time_days"`
	DaysOfInventory     int             `json:"days_of_inventory"`
}

type diagnosticView struct {
	Kind    string   `json:"kind"`
	ItemID  string   `json:"item_id"`
	Path    []string `json:"path,omitempty"`
	Message string   `json:"message"`
}

type calculationView struct {
	RunID       string                  `json:"run_id,omitempty"`
	AsOf        string                  `json:"as_of"`
	HorizonDays int                     `json:"horizon_days"`
	Shortages   int                     `json:"shortages"`
	Alerts      []alertView             `json:"alerts"`
	Items       []projectionView        `json:"items"`
	Diagnostics []diagnosticView        `json:"diagnostics"`
	Cache       dto.ExplosionCacheStats `json:"explosion_cache"`
}

type requirementView struct {
	ItemID   string          `json:"item_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

type explosionView struct {
	ItemID       string            `json:"item_id"`
	Quantity     decimal.Decimal   `json:"quantity"`
	Status       string            `json:"status"`
	Requirements []requirementView `json:"requirements"`
	CyclePaths   [][]string        `json:"cycle_paths,omitempty"`
	Diagnostics  []diagnosticView  `json:"diagnostics"`
}

type reorderPointView struct {
	ItemID              string          `json:"item_id"`
	Name                string          `json:"name"`
	LeadTimeDays        int             `json:"lead_time_days"`
	SafetyStock         decimal.Decimal `json:"safety_stock"`
	AverageWeeklyUsage  decimal.Decimal `json:"average_weekly_usage"`
	WeeksWithUsage      int             `json:"weeks_with_usage"`
	CurrentReorderPoint decimal.Decimal `json:"current_reorder_point"`
	DynamicReorderPoint decimal.Decimal `json:"dynamic_reorder_point"`
	Difference          decimal.Decimal `json:"difference"`
	UsedIn              []string        `json:"used_in"`
}

type reorderPointsView struct {
	Items       []reorderPointView `json:"items"`
	Diagnostics []diagnosticView   `json:"diagnostics"`
}

type progressView struct {
	ItemID            string          `json:"item_id"`
	Goal              decimal.Decimal `json:"goal"`
	ShippedThisWeek   decimal.Decimal `json:"shipped_this_week"`
	ShippedToday      decimal.Decimal `json:"shipped_today"`
	ProgressPct       decimal.Decimal `json:"progress_pct"`
	Variance          decimal.Decimal `json:"variance"`
	CatchUpTarget     *string         `json:"catch_up_target"`
	WorkdaysRemaining int             `json:"workdays_remaining"`
	Status            string          `json:"status"`
	DailyStatus       string          `json:"daily_status"`
}

type weekView struct {
	Today             string          `json:"today"`
	WeekStart         string          `json:"week_start"`
	WorkdaysRemaining int             `json:"workdays_remaining"`
	TotalGoal         decimal.Decimal `json:"total_goal"`
	TotalShipped      decimal.Decimal `json:"total_shipped"`
	Products          []progressView  `json:"products"`
}

type cachedRowView struct {
	Date        string          `json:"date"`
	Consumption decimal.Decimal `json:"consumption"`
	Incoming    decimal.Decimal `json:"incoming"`
	Projected   decimal.Decimal `json:"projected"`
	RunID       string          `json:"run_id"`
}

type cachedProjectionView struct {
	ItemID       string          `json:"item_id"`
	Name         string          `json:"name"`
	RunID        string          `json:"run_id"`
	AsOf         string          `json:"as_of"`
	HorizonDays  int             `json:"horizon_days"`
	CompletedAt  string          `json:"completed_at"`
	Recalculated bool            `json:"recalculated"`
	Rows         []cachedRowView `json:"rows"`
}

func newCalculationView(result *dto.CalculationResult) calculationView {
	view := calculationView{
		AsOf:        result.AsOf.Format(dateLayout),
		HorizonDays: result.HorizonDays,
		Shortages:   result.ShortageCount(),
		Alerts:      newAlertViews(result.Alerts),
		Items:       make([]projectionView, 0, len(result.Results)),
		Diagnostics: newDiagnosticViews(result.Diagnostics),
		Cache:       result.Cache,
	}
	if result.Run != nil {
		view.RunID = result.Run.RunID.String()
	}

	for _, p := range result.SortedResults() {
		pv := projectionView{
			ItemID:              string(p.ItemID),
			OnHand:              p.OnHand,
			ShortageDate:        optionalDate(p.ShortageDate),
			DaysOfInventory:     p.DaysOfInventory,
			OrderByDate:         optionalDate(p.OrderByDate),
			Overdue:             p.Overdue,
			Urgency:             p.Urgency.String(),
			RecommendedOrderQty: p.RecommendedOrderQty,
			ReorderPoint:        p.ReorderPoint,
			LeadTimeDays:        p.LeadTimeDays,
			TotalConsumption:    p.TotalConsumption,
			Stagnant:            p.Stagnant,
			UsedIn:              idStrings(p.UsedIn),
			Days:                make([]dayView, 0, len(p.Days)),
		}
		for _, d := range p.Days {
			pv.Days = append(pv.Days, dayView{
				Date:          d.Date.Format(dateLayout),
				Consumption:   d.Consumption,
				Incoming:      d.Incoming,
				Projected:     d.Projected,
				NeedsOrdering: d.NeedsOrdering,
			})
		}
		view.Items = append(view.Items, pv)
	}
	return view
}

func newAlertViews(alerts []entities.ShortageAlert) []alertView {
	views := make([]alertView, 0, len(alerts))
	for _, a := range alerts {
		views = append(views, alertView{
			ItemID:              string(a.ItemID),
			OnHand:              a.OnHand,
			ShortageDate:        a.ShortageDate.Format(dateLayout),
			OrderByDate:         a.OrderByDate.Format(dateLayout),
			Overdue:             a.Overdue,
			Urgency:             a.Urgency.String(),
			RecommendedOrderQty: a.RecommendedOrderQty,
			LeadTimeDays:        a.LeadTimeDays,
			DaysOfInventory:     a.DaysOfInventory,
		})
	}
	return views
}

func newDiagnosticViews(diags []entities.Diagnostic) []diagnosticView {
	views := make([]diagnosticView, 0, len(diags))
	for _, d := range diags {
		views = append(views, diagnosticView{
			Kind:    d.Kind.String(),
			ItemID:  string(d.ItemID),
			Path:    idStrings(d.Path),
			Message: d.Message,
		})
	}
	return views
}

func newExplosionView(explosion Explosion) explosionView {
	result := explosion.Result
	view := explosionView{
		ItemID:       string(explosion.ItemID),
		Quantity:     explosion.Quantity,
		Status:       result.Status.String(),
		Requirements: make([]requirementView, 0, len(result.Requirements)),
		Diagnostics:  newDiagnosticViews(result.Diagnostics),
	}
	for _, id := range sortedRequirementIDs(result.Requirements) {
		view.Requirements = append(view.Requirements, requirementView{ItemID: string(id), Quantity: result.Requirements[id]})
	}
	for _, cycle := range result.CyclePaths {
		view.CyclePaths = append(view.CyclePaths, idStrings(cycle))
	}
	return view
}

func newReorderPointsView(rows []dto.ReorderPointRow, diags []entities.Diagnostic) reorderPointsView {
	view := reorderPointsView{
		Items:       make([]reorderPointView, 0, len(rows)),
		Diagnostics: newDiagnosticViews(diags),
	}
	for _, row := range rows {
		view.Items = append(view.Items, reorderPointView{
			ItemID:              string(row.ItemID),
			Name:                row.Name,
			LeadTimeDays:        row.LeadTimeDays,
			SafetyStock:         row.SafetyStock,
			AverageWeeklyUsage:  row.AverageWeeklyUsage,
			WeeksWithUsage:      row.WeeksWithUsage,
			CurrentReorderPoint: row.CurrentReorderPoint,
			DynamicReorderPoint: row.DynamicReorderPoint,
			Difference:          row.Difference(),
			UsedIn:              idStrings(row.UsedIn),
		})
	}
	return view
}

func newWeekView(summary *dto.WeekSummary) weekView {
	view := weekView{
		Today:             summary.Today.Format(dateLayout),
		WeekStart:         summary.WeekStart.Format(dateLayout),
		WorkdaysRemaining: summary.WorkdaysRemaining,
		TotalGoal:         summary.TotalGoal,
		TotalShipped:      summary.TotalShipped,
		Products:          make([]progressView, 0, len(summary.Products)),
	}
	for _, p := range summary.Products {
		pv := progressView{
			ItemID:            string(p.ItemID),
			Goal:              p.Goal,
			ShippedThisWeek:   p.ShippedThisWeek,
			ShippedToday:      p.ShippedToday,
			ProgressPct:       p.ProgressPct,
			Variance:          p.Variance,
			WorkdaysRemaining: p.WorkdaysRemaining,
			Status:            p.Status.String(),
			DailyStatus:       p.DailyStatus.String(),
		}
		if p.HasCatchUpTarget {
			target := p.CatchUpTarget.String()
			pv.CatchUpTarget = &target
		}
		view.Products = append(view.Products, pv)
	}
	return view
}

func newCachedProjectionView(cached *dto.CachedProjection) cachedProjectionView {
	view := cachedProjectionView{
		ItemID:       string(cached.Item.ID),
		Name:         cached.Item.Name,
		RunID:        cached.Run.RunID.String(),
		AsOf:         cached.Run.AsOf.Format(dateLayout),
		HorizonDays:  cached.Run.HorizonDays,
		CompletedAt:  cached.Run.CompletedAt.Format(time.RFC3339),
		Recalculated: cached.Recalculated,
		Rows:         make([]cachedRowView, 0, len(cached.Rows)),
	}
	for _, row := range cached.Rows {
		view.Rows = append(view.Rows, cachedRowView{
			Date:        row.Date.Format(dateLayout),
			Consumption: row.Consumption,
			Incoming:    row.Incoming,
			Projected:   row.Projected,
			RunID:       row.RunID.String(),
		})
	}
	return view
}

func projectionsTable(result *dto.CalculationResult) table {
	t := table{header: []string{"item_id", "date", "consumption", "incoming", "projected", "needs_ordering"}}
	for _, p := range result.SortedResults() {
		for _, d := range p.Days {
			t.records = append(t.records, []string{
				string(p.ItemID),
				d.Date.Format(dateLayout),
				d.Consumption.String(),
				d.Incoming.String(),
				d.Projected.String(),
				strconv.FormatBool(d.NeedsOrdering),
			})
		}
	}
	return t
}

func cachedProjectionTable(cached *dto.CachedProjection) table {
	t := table{header: []string{"item_id", "date", "consumption", "incoming", "projected", "run_id"}}
	for _, row := range cached.Rows {
		t.records = append(t.records, []string{
			string(row.ItemID),
			row.Date.Format(dateLayout),
			row.Consumption.String(),
			row.Incoming.String(),
			row.Projected.String(),
			row.RunID.String(),
		})
	}
	return t
}

func alertsTable(alerts []entities.ShortageAlert) table {
	t := table{header: []string{
		"item_id", "urgency", "on_hand", "shortage_date", "days_of_inventory",
		"order_by_date", "overdue", "lead_time_days", "recommended_order_qty",
	}}
	for _, a := range alerts {
		t.records = append(t.records, []string{
			string(a.ItemID),
			a.Urgency.String(),
			a.OnHand.String(),
			a.ShortageDate.Format(dateLayout),
			strconv.Itoa(a.DaysOfInventory),
			a.OrderByDate.Format(dateLayout),
			strconv.FormatBool(a.Overdue),
			strconv.Itoa(a.LeadTimeDays),
			a.RecommendedOrderQty.String(),
		})
	}
	return t
}

func diagnosticsTable(diags []entities.Diagnostic) table {
	t := table{header: []string{"kind", "item_id", "path", "message"}}
	for _, d := range diags {
		t.records = append(t.records, []string{d.Kind.String(), string(d.ItemID), entities.FormatPath(d.Path), d.Message})
	}
	return t
}

func explosionTable(explosion Explosion) table {
	t := table{header: []string{"root_id", "root_qty", "component_id", "quantity"}}
	for _, id := range sortedRequirementIDs(explosion.Result.Requirements) {
		t.records = append(t.records, []string{
			string(explosion.ItemID),
			explosion.Quantity.String(),
			string(id),
			explosion.Result.Requirements[id].String(),
		})
	}
	return t
}

func reorderPointsTable(rows []dto.ReorderPointRow) table {
	t := table{header: []string{
		"item_id", "name", "lead_time_days", "safety_stock", "average_weekly_usage",
		"weeks_with_usage", "current_reorder_point", "dynamic_reorder_point", "difference",
	}}
	for _, row := range rows {
		t.records = append(t.records, []string{
			string(row.ItemID),
			row.Name,
			strconv.Itoa(row.LeadTimeDays),
			row.SafetyStock.String(),
			row.AverageWeeklyUsage.StringFixed(2),
			strconv.Itoa(row.WeeksWithUsage),
			row.CurrentReorderPoint.String(),
			row.DynamicReorderPoint.StringFixed(2),
			row.Difference().StringFixed(2),
		})
	}
	return t
}

func weekTable(summary *dto.WeekSummary) table {
	t := table{header: []string{
		"item_id", "week_start", "goal", "shipped_this_week", "shipped_today",
		"progress_pct", "variance", "catch_up_target", "status",
	}}
	for _, p := range summary.Products {
		target := ""
		if p.HasCatchUpTarget {
			target = p.CatchUpTarget.String()
		}
		t.records = append(t.records, []string{
			string(p.ItemID),
			p.WeekStart.Format(dateLayout),
			p.Goal.String(),
			p.ShippedThisWeek.String(),
			p.ShippedToday.String(),
			p.ProgressPct.StringFixed(1),
			p.Variance.String(),
			target,
			p.Status.String(),
		})
	}
	return t
}

func sortedRequirementIDs(requirements map[entities.ItemID]decimal.Decimal) []entities.ItemID {
	ids := make([]entities.ItemID, 0, len(requirements))
	for id := range requirements {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func optionalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func idStrings(ids []entities.ItemID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
