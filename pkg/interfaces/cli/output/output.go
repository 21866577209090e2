package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/mrpcalc/pkg/application/dto"
	"github.com/vsinha/mrpcalc/pkg/application/services/bom"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

const dateLayout = "2006-01-02"

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Verbose   bool
	// Out receives text output and JSON when no output directory is set; defaults to stdout
	Out io.Writer
}

// Explosion is a standalone BOM explosion request and its result
type Explosion struct {
	ItemID   entities.ItemID
	Quantity decimal.Decimal
	Result   *bom.ExplodeResult
}

// Renderer writes engine results in the configured format
type Renderer struct {
	config Config
	out    io.Writer
}

// NewRenderer creates a renderer for config
func NewRenderer(config Config) (*Renderer, error) {
	switch config.Format {
	case "":
		config.Format = "text"
	case "text", "json":
	case "csv":
		if config.OutputDir == "" {
			return nil, fmt.Errorf("CSV output requires an output directory (--output)")
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", config.Format)
	}

	out := config.Out
	if out == nil {
		out = os.Stdout
	}
	return &Renderer{config: config, out: out}, nil
}

// Calculation renders a full projection run
func (r *Renderer) Calculation(result *dto.CalculationResult) error {
	switch r.config.Format {
	case "json":
		return r.writeJSON("calculation.json", newCalculationView(result))
	case "csv":
		if err := r.writeCSV("projections.csv", projectionsTable(result)); err != nil {
			return err
		}
		if err := r.writeCSV("shortages.csv", alertsTable(result.Alerts)); err != nil {
			return err
		}
		return r.writeCSV("diagnostics.csv", diagnosticsTable(result.Diagnostics))
	default:
		r.textCalculation(result)
		return nil
	}
}

// Shortages renders the shortage alerts within the alert window
func (r *Renderer) Shortages(alerts []entities.ShortageAlert, alertDays int) error {
	switch r.config.Format {
	case "json":
		return r.writeJSON("shortages.json", newAlertViews(alerts))
	case "csv":
		return r.writeCSV("shortages.csv", alertsTable(alerts))
	default:
		fmt.Fprintf(r.out, "Shortages requiring orders within %d days: %d\n\n", alertDays, len(alerts))
		r.textAlerts(alerts)
		return nil
	}
}

// Explosion renders a standalone BOM explosion
func (r *Renderer) Explosion(explosion Explosion) error {
	switch r.config.Format {
	case "json":
		return r.writeJSON("explosion.json", newExplosionView(explosion))
	case "csv":
		return r.writeCSV("explosion.csv", explosionTable(explosion))
	default:
		r.textExplosion(explosion)
		return nil
	}
}

// ReorderPoints renders current versus dynamic reorder points
func (r *Renderer) ReorderPoints(rows []dto.ReorderPointRow, diags []entities.Diagnostic) error {
	switch r.config.Format {
	case "json":
		return r.writeJSON("reorder_points.json", newReorderPointsView(rows, diags))
	case "csv":
		return r.writeCSV("reorder_points.csv", reorderPointsTable(rows))
	default:
		r.textReorderPoints(rows, diags)
		return nil
	}
}

// Week renders this week's shipment progress
func (r *Renderer) Week(summary *dto.WeekSummary) error {
	switch r.config.Format {
	case "json":
		return r.writeJSON("week.json", newWeekView(summary))
	case "csv":
		return r.writeCSV("week_progress.csv", weekTable(summary))
	default:
		r.textWeek(summary)
		return nil
	}
}

// Projection renders an item's cached projection rows
func (r *Renderer) Projection(cached *dto.CachedProjection) error {
	switch r.config.Format {
	case "json":
		return r.writeJSON("projection.json", newCachedProjectionView(cached))
	case "csv":
		return r.writeCSV("projection.csv", cachedProjectionTable(cached))
	default:
		r.textProjection(cached)
		return nil
	}
}

func (r *Renderer) textCalculation(result *dto.CalculationResult) {
	fmt.Fprintf(r.out, "MRP Projection as of %s (%d days)\n", result.AsOf.Format(dateLayout), result.HorizonDays)
	fmt.Fprintf(r.out, "==========================================\n\n")

	if result.Run != nil {
		fmt.Fprintf(r.out, "Run: %s\n", result.Run.RunID)
	}
	fmt.Fprintf(r.out, "Items projected: %d\n", len(result.Results))
	fmt.Fprintf(r.out, "Shortages: %d\n", result.ShortageCount())
	fmt.Fprintf(r.out, "Diagnostics: %d\n", len(result.Diagnostics))
	if r.config.Verbose {
		fmt.Fprintf(r.out, "Explosion cache: %d hits, %d misses\n", result.Cache.Hits, result.Cache.Misses)
	}
	fmt.Fprintln(r.out)

	fmt.Fprintf(r.out, "%-15s %-10s %-10s %-12s %-6s %-9s\n",
		"Item", "On Hand", "Min", "Shortage", "Days", "Urgency")
	fmt.Fprintf(r.out, "%-15s %-10s %-10s %-12s %-6s %-9s\n",
		"---------------", "----------", "----------", "------------", "------", "---------")
	for _, p := range result.SortedResults() {
		fmt.Fprintf(r.out, "%-15s %-10s %-10s %-12s %-6d %-9s\n",
			p.ItemID,
			p.OnHand.String(),
			p.MinProjected().String(),
			formatOptionalDate(p.ShortageDate),
			p.DaysOfInventory,
			p.Urgency)
	}
	fmt.Fprintln(r.out)

	if len(result.Alerts) > 0 {
		r.textAlerts(result.Alerts)
	}
	r.textDiagnostics(result.Diagnostics)
}

func (r *Renderer) textAlerts(alerts []entities.ShortageAlert) {
	if len(alerts) == 0 {
		fmt.Fprintln(r.out, "No shortages.")
		return
	}

	fmt.Fprintf(r.out, "Shortage Alerts:\n")
	fmt.Fprintf(r.out, "%-15s %-9s %-12s %-12s %-8s %-12s\n",
		"Item", "Urgency", "Shortage", "Order By", "Overdue", "Order Qty")
	fmt.Fprintf(r.out, "%-15s %-9s %-12s %-12s %-8s %-12s\n",
		"---------------", "---------", "------------", "------------", "--------", "------------")
	for _, a := range alerts {
		overdue := ""
		if a.Overdue {
			overdue = "yes"
		}
		fmt.Fprintf(r.out, "%-15s %-9s %-12s %-12s %-8s %-12s\n",
			a.ItemID,
			a.Urgency,
			a.ShortageDate.Format(dateLayout),
			a.OrderByDate.Format(dateLayout),
			overdue,
			a.RecommendedOrderQty.String())
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) textDiagnostics(diags []entities.Diagnostic) {
	if len(diags) == 0 {
		return
	}
	fmt.Fprintf(r.out, "Diagnostics:\n")
	for _, d := range diags {
		fmt.Fprintf(r.out, "  %s\n", d)
	}
	fmt.Fprintln(r.out)
}

func (r *Renderer) textExplosion(explosion Explosion) {
	result := explosion.Result
	fmt.Fprintf(r.out, "BOM explosion: %s x %s (%s)\n\n", explosion.ItemID, explosion.Quantity, result.Status)

	fmt.Fprintf(r.out, "%-15s %-12s\n", "Component", "Quantity")
	fmt.Fprintf(r.out, "%-15s %-12s\n", "---------------", "------------")
	for _, id := range sortedRequirementIDs(result.Requirements) {
		fmt.Fprintf(r.out, "%-15s %-12s\n", id, result.Requirements[id].String())
	}
	fmt.Fprintln(r.out)

	for _, cycle := range result.CyclePaths {
		fmt.Fprintf(r.out, "Cycle: %s\n", entities.FormatPath(cycle))
	}
	r.textDiagnostics(result.Diagnostics)
}

func (r *Renderer) textReorderPoints(rows []dto.ReorderPointRow, diags []entities.Diagnostic) {
	fmt.Fprintf(r.out, "Dynamic Reorder Points\n")
	fmt.Fprintf(r.out, "======================\n\n")

	fmt.Fprintf(r.out, "%-15s %-5s %-12s %-12s %-12s %-12s %s\n",
		"Item", "Lead", "Avg/Week", "Current", "Dynamic", "Difference", "Used In")
	fmt.Fprintf(r.out, "%-15s %-5s %-12s %-12s %-12s %-12s %s\n",
		"---------------", "-----", "------------", "------------", "------------", "------------", "-------")
	for _, row := range rows {
		fmt.Fprintf(r.out, "%-15s %-5d %-12s %-12s %-12s %-12s %s\n",
			row.ItemID,
			row.LeadTimeDays,
			row.AverageWeeklyUsage.StringFixed(1),
			row.CurrentReorderPoint.StringFixed(0),
			row.DynamicReorderPoint.StringFixed(0),
			row.Difference().StringFixed(0),
			joinIDs(row.UsedIn))
	}
	fmt.Fprintln(r.out)

	if r.config.Verbose {
		r.textDiagnostics(diags)
	}
}

func (r *Renderer) textWeek(summary *dto.WeekSummary) {
	fmt.Fprintf(r.out, "Week of %s (today %s, %d workdays remaining)\n\n",
		summary.WeekStart.Format(dateLayout), summary.Today.Format(dateLayout), summary.WorkdaysRemaining)

	fmt.Fprintf(r.out, "%-15s %-8s %-8s %-8s %-9s %-10s %-9s\n",
		"Product", "Goal", "Shipped", "Pct", "Variance", "Today", "Status")
	fmt.Fprintf(r.out, "%-15s %-8s %-8s %-8s %-9s %-10s %-9s\n",
		"---------------", "--------", "--------", "--------", "---------", "----------", "---------")
	for _, p := range summary.Products {
		today := "-"
		if p.HasCatchUpTarget {
			today = p.ShippedToday.String() + "/" + p.CatchUpTarget.StringFixed(0)
		}
		fmt.Fprintf(r.out, "%-15s %-8s %-8s %-8s %-9s %-10s %-9s\n",
			p.ItemID,
			p.Goal.String(),
			p.ShippedThisWeek.String(),
			p.ProgressPct.StringFixed(1)+"%",
			p.Variance.String(),
			today,
			p.Status)
	}
	fmt.Fprintln(r.out)
	fmt.Fprintf(r.out, "Total: %s of %s shipped\n", summary.TotalShipped, summary.TotalGoal)
}

func (r *Renderer) textProjection(cached *dto.CachedProjection) {
	run := cached.Run
	fmt.Fprintf(r.out, "Cached projection: %s (%s)\n", cached.Item.ID, cached.Item.Name)
	fmt.Fprintf(r.out, "Run %s as of %s, %d days, completed %s\n",
		run.RunID, run.AsOf.Format(dateLayout), run.HorizonDays, run.CompletedAt.Format(time.RFC3339))
	if cached.Recalculated {
		fmt.Fprintln(r.out, "No earlier run was recorded; recalculated.")
	}
	fmt.Fprintln(r.out)

	if len(cached.Rows) == 0 {
		fmt.Fprintln(r.out, "No projection rows stored for this item.")
		return
	}

	fmt.Fprintf(r.out, "%-12s %-12s %-12s %-12s\n", "Date", "Consumption", "Incoming", "Projected")
	fmt.Fprintf(r.out, "%-12s %-12s %-12s %-12s\n", "------------", "------------", "------------", "------------")
	for _, row := range cached.Rows {
		fmt.Fprintf(r.out, "%-12s %-12s %-12s %-12s\n",
			row.Date.Format(dateLayout),
			row.Consumption.String(),
			row.Incoming.String(),
			row.Projected.String())
	}
	fmt.Fprintln(r.out)
}

func formatOptionalDate(t *time.Time) string {
	if formatted := optionalDate(t); formatted != "" {
		return formatted
	}
	return "-"
}

func joinIDs(ids []entities.ItemID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ",")
}
