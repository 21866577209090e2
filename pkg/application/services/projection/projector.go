package projection

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/mrpcalc/pkg/application/services/bom"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
)

// Input is everything one projection pass reads. Items are expected to be sanitized already.
type Input struct {
	Start       time.Time
	HorizonDays int
	Items       []entities.Item
	Inventory   map[entities.ItemID]entities.InventorySnapshot
	Demand      entities.DemandSeries
	Receipts    map[entities.ItemID][]entities.IncomingReceipt
}

// Projector simulates component inventory day by day
type Projector struct {
	resolver *bom.Resolver
	logger   *zap.Logger
}

// NewProjector creates a projector that explodes demand through resolver
func NewProjector(resolver *bom.Resolver, logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{resolver: resolver, logger: logger}
}

// Project returns one result per projected item: every BOM component plus every catalog item
// that is not a finished good. Per-item problems come back as diagnostics.
func (p *Projector) Project(ctx context.Context, in Input) (map[entities.ItemID]*entities.ProjectionResult, []entities.Diagnostic, error) {
	start := entities.Day(in.Start)
	horizon := in.HorizonDays
	if horizon < 0 {
		horizon = 0
	}

	items := make(map[entities.ItemID]entities.Item, len(in.Items))
	for _, item := range in.Items {
		items[item.ID] = item
	}

	projected := p.projectedItems(in.Items)
	diags := newDiagnosticSet()

	consumption := make(map[entities.ItemID][]decimal.Decimal, len(projected))
	incoming := make(map[entities.ItemID][]decimal.Decimal, len(projected))
	for _, id := range projected {
		consumption[id] = zeros(horizon)
		incoming[id] = zeros(horizon)
	}

	// demand sources in a stable order so diagnostics are reproducible
	sources := make([]entities.ItemID, 0, len(in.Demand))
	for id := range in.Demand {
		sources = append(sources, id)
	}
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })

	for _, source := range sources {
		if item, known := items[source]; known && item.Kind != entities.FinishedGood {
			diags.add(entities.Diagnostic{
				Kind:    entities.KindMismatch,
				ItemID:  source,
				Message: fmt.Sprintf("demand supplied for %s item %s; exploded as a finished good", item.Kind, source),
			})
		}
	}

	for d := 0; d < horizon; d++ {
		if err := ctx.Err(); err != nil {
			return nil, diags.list(), fmt.Errorf("projection cancelled on day %d: %w", d, err)
		}

		for _, source := range sources {
			series := in.Demand[source]
			if d >= len(series) || series[d].IsZero() {
				continue
			}

			exploded, err := p.resolver.Explode(source, series[d])
			if err != nil {
				diags.add(entities.Diagnostic{
					Kind:    entities.DanglingReference,
					ItemID:  source,
					Message: fmt.Sprintf("demand references unknown item %s; ignored", source),
				})
				continue
			}
			diags.add(exploded.Diagnostics...)

			for componentID, qty := range exploded.Requirements {
				if daily, tracked := consumption[componentID]; tracked {
					daily[d] = daily[d].Add(qty)
				}
			}
		}
	}

	receivers := make([]entities.ItemID, 0, len(in.Receipts))
	for id := range in.Receipts {
		receivers = append(receivers, id)
	}
	sort.Slice(receivers, func(i, j int) bool { return receivers[i] < receivers[j] })

	for _, itemID := range receivers {
		daily, tracked := incoming[itemID]
		if !tracked {
			continue
		}
		for _, receipt := range in.Receipts[itemID] {
			qty := receipt.Quantity
			if qty.IsNegative() {
				diags.add(entities.Diagnostic{
					Kind:    entities.InvalidInput,
					ItemID:  itemID,
					Message: fmt.Sprintf("receipt %s has negative quantity %s; clamped to 0", receipt.Reference, qty),
				})
				continue
			}
			offset := entities.DaysBetween(start, receipt.ExpectedDate)
			if offset >= horizon {
				continue
			}
			// late receipts are still expected; count them as arriving today
			if offset < 0 {
				offset = 0
			}
			daily[offset] = daily[offset].Add(qty)
		}
	}

	results := make(map[entities.ItemID]*entities.ProjectionResult, len(projected))
	for _, id := range projected {
		item := items[id]
		onHand := decimal.Zero
		if snap, exists := in.Inventory[id]; exists {
			onHand = snap.OnHand
		}
		results[id] = p.projectItem(item, start, horizon, onHand, consumption[id], incoming[id])
	}

	p.logger.Debug("projection complete",
		zap.Int("items", len(results)),
		zap.Int("horizon_days", horizon),
		zap.Int("diagnostics", len(diags.items)),
	)

	return results, diags.list(), nil
}

// projectItem runs projected[d] = projected[d-1] - consumption[d] + incoming[d] seeded with on hand
func (p *Projector) projectItem(
	item entities.Item,
	start time.Time,
	horizon int,
	onHand decimal.Decimal,
	consumption, incoming []decimal.Decimal,
) *entities.ProjectionResult {
	result := &entities.ProjectionResult{
		ItemID:           item.ID,
		StartDate:        start,
		Days:             make([]entities.DailyProjection, horizon),
		OnHand:           onHand,
		DaysOfInventory:  horizon,
		Urgency:          entities.Normal,
		ReorderPoint:     item.ReorderPoint,
		LeadTimeDays:     item.LeadTimeDays,
		TotalConsumption: decimal.Zero,
		UsedIn:           p.resolver.WhereUsed(item.ID),
	}

	level := onHand
	for d := 0; d < horizon; d++ {
		level = level.Sub(consumption[d]).Add(incoming[d])
		date := start.AddDate(0, 0, d)
		result.Days[d] = entities.DailyProjection{
			Date:          date,
			Consumption:   consumption[d],
			Incoming:      incoming[d],
			Projected:     level,
			NeedsOrdering: level.LessThan(item.ReorderPoint),
		}
		result.TotalConsumption = result.TotalConsumption.Add(consumption[d])

		if result.ShortageDate == nil && level.IsNegative() {
			shortage := date
			result.ShortageDate = &shortage
			result.DaysOfInventory = d
		}
	}
	result.Stagnant = result.TotalConsumption.IsZero()

	return result
}

// projectedItems lists BOM components and non-finished catalog items, sorted
func (p *Projector) projectedItems(catalog []entities.Item) []entities.ItemID {
	set := make(map[entities.ItemID]bool)
	for _, id := range p.resolver.ComponentIDs() {
		if _, known := p.resolver.Item(id); known {
			set[id] = true
		}
	}
	for _, item := range catalog {
		if item.Kind != entities.FinishedGood {
			set[item.ID] = true
		}
	}

	ids := make([]entities.ItemID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

// diagnosticSet keeps the first occurrence of each diagnostic
type diagnosticSet struct {
	seen  map[string]bool
	items []entities.Diagnostic
}

func newDiagnosticSet() *diagnosticSet {
	return &diagnosticSet{seen: make(map[string]bool)}
}

func (s *diagnosticSet) add(diags ...entities.Diagnostic) {
	for _, d := range diags {
		key := d.String()
		if s.seen[key] {
			continue
		}
		s.seen[key] = true
		s.items = append(s.items, d)
	}
}

func (s *diagnosticSet) list() []entities.Diagnostic {
	return append([]entities.Diagnostic(nil), s.items...)
}
