package mrp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/mrpcalc/pkg/application/dto"
	"github.com/vsinha/mrpcalc/pkg/application/services/bom"
	"github.com/vsinha/mrpcalc/pkg/application/services/demand"
	"github.com/vsinha/mrpcalc/pkg/application/services/projection"
	"github.com/vsinha/mrpcalc/pkg/application/services/shortage"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
	"github.com/vsinha/mrpcalc/pkg/domain/services"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/events"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/metrics"
)

// ErrEmptyCatalog is the one condition that aborts a calculation
var ErrEmptyCatalog = errors.New("item catalog is empty")

// Default engine settings
const (
	DefaultHorizonDays        = 90
	DefaultAlertDays          = 14
	DefaultReorderWindowWeeks = 6
)

// EngineConfig holds the planning parameters of an engine
type EngineConfig struct {
	HorizonDays        int
	MaxBOMDepth        int
	ReorderWindowWeeks int
	// CalculationTimeout bounds each run; zero means no limit
	CalculationTimeout time.Duration
	// AsOf pins the planning date; when zero the clock decides
	AsOf  time.Time
	Clock func() time.Time
}

// DefaultEngineConfig returns the 90 day horizon, depth 10, 6 week window defaults
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		HorizonDays:        DefaultHorizonDays,
		MaxBOMDepth:        bom.DefaultMaxDepth,
		ReorderWindowWeeks: DefaultReorderWindowWeeks,
		Clock:              time.Now,
	}
}

// Engine runs inventory projections over snapshots of the planning data
type Engine struct {
	config    EngineConfig
	snapshots repositories.SnapshotProvider
	results   repositories.ResultRepository
	events    events.EventStore
	metrics   *metrics.Recorder
	logger    *zap.Logger

	// gate admits one recalculation at a time
	gate chan struct{}
}

// Option configures optional engine collaborators
type Option func(*Engine)

// WithResultRepository stores recalculated projections
func WithResultRepository(results repositories.ResultRepository) Option {
	return func(e *Engine) { e.results = results }
}

// WithEventStore publishes run, shortage and diagnostic events
func WithEventStore(store events.EventStore) Option {
	return func(e *Engine) { e.events = store }
}

// WithMetrics records run metrics
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = recorder }
}

// WithLogger sets the engine logger
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates an engine reading its inputs from snapshots
func NewEngine(snapshots repositories.SnapshotProvider, config EngineConfig, opts ...Option) *Engine {
	defaults := DefaultEngineConfig()
	if config.HorizonDays <= 0 {
		config.HorizonDays = defaults.HorizonDays
	}
	if config.MaxBOMDepth <= 0 {
		config.MaxBOMDepth = defaults.MaxBOMDepth
	}
	if config.ReorderWindowWeeks <= 0 {
		config.ReorderWindowWeeks = defaults.ReorderWindowWeeks
	}
	if config.Clock == nil {
		config.Clock = defaults.Clock
	}

	e := &Engine{
		config:    config,
		snapshots: snapshots,
		logger:    zap.NewNop(),
		gate:      make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective engine configuration
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Today returns the planning date every operation starts from
func (e *Engine) Today() time.Time {
	if !e.config.AsOf.IsZero() {
		return entities.Day(e.config.AsOf)
	}
	return entities.Day(e.config.Clock())
}

// Calculate projects every component over horizonDays (the configured horizon when <= 0)
func (e *Engine) Calculate(ctx context.Context, horizonDays int) (*dto.CalculationResult, error) {
	return e.calculateAt(ctx, e.Today(), e.horizon(horizonDays))
}

// GetShortages returns the shortages whose order-by date falls within alertDays of today,
// ordered by order-by date
func (e *Engine) GetShortages(ctx context.Context, alertDays int) ([]entities.ShortageAlert, error) {
	if alertDays < 0 {
		alertDays = 0
	}
	horizon := e.config.HorizonDays
	if alertDays > horizon {
		horizon = alertDays
	}

	start := e.Today()
	result, err := e.calculateAt(ctx, start, horizon)
	if err != nil {
		return nil, err
	}

	cutoff := start.AddDate(0, 0, alertDays)
	alerts := make([]entities.ShortageAlert, 0, len(result.Alerts))
	for _, alert := range result.Alerts {
		if !alert.OrderByDate.After(cutoff) {
			alerts = append(alerts, alert)
		}
	}
	return alerts, nil
}

// ExplodeBOM flattens the requirement for qty units of itemID against the current BOM
func (e *Engine) ExplodeBOM(ctx context.Context, itemID entities.ItemID, qty decimal.Decimal) (*bom.ExplodeResult, error) {
	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	items, _ := sanitizeItems(snap.Items)
	resolver := bom.NewResolver(items, snap.Edges, bom.Config{MaxDepth: e.config.MaxBOMDepth}, e.logger)
	return resolver.Explode(itemID, qty)
}

func (e *Engine) horizon(horizonDays int) int {
	if horizonDays <= 0 {
		return e.config.HorizonDays
	}
	return horizonDays
}

// withBudget applies the configured calculation timeout, if any
func (e *Engine) withBudget(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.config.CalculationTimeout > 0 {
		return context.WithTimeout(ctx, e.config.CalculationTimeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) snapshot(ctx context.Context) (*repositories.Snapshot, error) {
	snap, err := e.snapshots.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot planning data: %w", err)
	}
	if e.metrics != nil {
		e.metrics.TrackSnapshot()()
	}
	return snap, nil
}

func (e *Engine) calculateAt(ctx context.Context, start time.Time, horizon int) (*dto.CalculationResult, error) {
	ctx, cancel := e.withBudget(ctx)
	defer cancel()

	snap, err := e.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return e.project(ctx, snap, start, horizon)
}

// project runs one full pass: sanitize, validate, generate demand, project, classify
func (e *Engine) project(ctx context.Context, snap *repositories.Snapshot, start time.Time, horizon int) (*dto.CalculationResult, error) {
	if len(snap.Items) == 0 {
		return nil, ErrEmptyCatalog
	}

	diags := newDiagnosticLog()

	items, sanitizeDiags := sanitizeItems(snap.Items)
	validation := services.NewBOMValidator().ValidateBOM(items, snap.Edges)
	diags.add(validation.Diagnostics...)
	diags.add(sanitizeDiags...)
	diags.add(edgeDiagnostics(snap.Edges)...)
	reported := newCycleSet(validation.CyclePaths)

	resolver := bom.NewResolver(items, snap.Edges, bom.Config{MaxDepth: e.config.MaxBOMDepth}, e.logger)

	series, demandDiags := demand.NewGenerator(snap.WeeklyGoals, snap.DailyDemand).Series(start, horizon)
	diags.add(demandDiags...)

	results, projectionDiags, err := projection.NewProjector(resolver, e.logger).Project(ctx, projection.Input{
		Start:       start,
		HorizonDays: horizon,
		Items:       items,
		Inventory:   snap.Inventory,
		Demand:      series,
		Receipts:    snap.Receipts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to project inventory: %w", err)
	}
	for _, d := range projectionDiags {
		if coveredByValidation(d, reported) {
			continue
		}
		diags.add(d)
	}

	detector := shortage.NewDetector(items)
	detector.Annotate(results)

	stats := resolver.Stats()
	result := &dto.CalculationResult{
		AsOf:        start,
		HorizonDays: horizon,
		Results:     results,
		Alerts:      detector.Alerts(results, start, horizon),
		Diagnostics: diags.list(),
		Cache: dto.ExplosionCacheStats{
			Hits:    stats.Hits,
			Misses:  stats.Misses,
			Entries: stats.Entries,
		},
	}

	if e.metrics != nil {
		e.metrics.RecordCache(stats.Hits, stats.Misses)
		e.metrics.ProjectedItems.Set(float64(len(results)))
		for _, d := range result.Diagnostics {
			e.metrics.RecordDiagnostic(d.Kind.String())
		}
	}

	e.logger.Info("calculation complete",
		zap.Time("as_of", start),
		zap.Int("horizon_days", horizon),
		zap.Int("items", len(results)),
		zap.Int("shortages", result.ShortageCount()),
		zap.Int("diagnostics", len(result.Diagnostics)),
		zap.Int("cache_hits", stats.Hits),
		zap.Int("cache_misses", stats.Misses),
	)

	return result, nil
}

// sanitizeItems clamps every item's planning parameters
func sanitizeItems(raw []entities.Item) ([]entities.Item, []entities.Diagnostic) {
	items := make([]entities.Item, 0, len(raw))
	var diags []entities.Diagnostic
	for _, item := range raw {
		clean, itemDiags := item.Sanitized()
		items = append(items, clean)
		diags = append(diags, itemDiags...)
	}
	return items, diags
}

// edgeDiagnostics reports every BOM edge whose negative quantity per the resolver clamps
func edgeDiagnostics(edges []entities.BOMEdge) []entities.Diagnostic {
	var diags []entities.Diagnostic
	for _, edge := range edges {
		_, edgeDiags := edge.Sanitized()
		diags = append(diags, edgeDiags...)
	}
	return diags
}

// coveredByValidation reports explosion diagnostics the whole-graph validation already raised:
// cycles the validator found and edges pointing at unknown items
func coveredByValidation(d entities.Diagnostic, cycles cycleSet) bool {
	switch d.Kind {
	case entities.CycleDetected:
		return cycles[cycleKey(d.Path)]
	case entities.DanglingReference:
		return len(d.Path) == 2
	default:
		return false
	}
}

// cycleSet holds cycles by their rotation-independent key
type cycleSet map[string]bool

func newCycleSet(paths [][]entities.ItemID) cycleSet {
	set := make(cycleSet, len(paths))
	for _, path := range paths {
		set[cycleKey(path)] = true
	}
	return set
}

// cycleKey identifies the loop at the end of path, which closes on its last item.
// A -> B -> D -> A, B -> D -> A -> B and ROOT -> A -> B -> D -> A share one key.
func cycleKey(path []entities.ItemID) string {
	if len(path) < 2 {
		return entities.FormatPath(path)
	}
	closing := path[len(path)-1]
	start := 0
	for i, id := range path[:len(path)-1] {
		if id == closing {
			start = i
			break
		}
	}
	loop := path[start : len(path)-1]

	lowest := 0
	for i, id := range loop {
		if id < loop[lowest] {
			lowest = i
		}
	}
	rotated := append(append([]entities.ItemID(nil), loop[lowest:]...), loop[:lowest]...)
	return entities.FormatPath(rotated)
}

// diagnosticLog keeps the first occurrence of each diagnostic in arrival order
type diagnosticLog struct {
	seen  map[string]bool
	items []entities.Diagnostic
}

func newDiagnosticLog() *diagnosticLog {
	return &diagnosticLog{seen: make(map[string]bool)}
}

func (l *diagnosticLog) add(diags ...entities.Diagnostic) {
	for _, d := range diags {
		key := d.String()
		if l.seen[key] {
			continue
		}
		l.seen[key] = true
		l.items = append(l.items, d)
	}
}

func (l *diagnosticLog) list() []entities.Diagnostic {
	return append([]entities.Diagnostic(nil), l.items...)
}
