package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/mrpcalc/pkg/application/services/mrp"
	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/config"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/events"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/logging"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/metrics"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/mrpcalc/pkg/interfaces/cli/output"
)

// Planning commands
const (
	CalculateCommand     = "calculate"
	ShortagesCommand     = "shortages"
	ExplodeCommand       = "explode"
	ReorderPointsCommand = "reorder-points"
	WeekCommand          = "week"
	ProjectionCommand    = "projection"
)

// Config holds configuration for the MRP command
type Config struct {
	Command  string
	ItemID   string
	Quantity decimal.Decimal
	Verbose  bool
	App      *config.Config
	// Out receives rendered output; defaults to stdout
	Out io.Writer
}

// MRPCommand loads a scenario and runs one planning command against it
type MRPCommand struct {
	config  Config
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// NewMRPCommand creates a new MRP command with the given configuration
func NewMRPCommand(config Config, recorder *metrics.Recorder) *MRPCommand {
	return &MRPCommand{
		config:  config,
		logger:  zap.NewNop(),
		metrics: recorder,
	}
}

// Execute runs the MRP command, logging through the logger carried by ctx
func (c *MRPCommand) Execute(ctx context.Context) error {
	c.logger = logging.FromContext(ctx)
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}
	app := c.config.App

	renderer, err := output.NewRenderer(output.Config{
		Format:    app.Output.Format,
		OutputDir: app.Output.Dir,
		Verbose:   c.config.Verbose,
		Out:       c.config.Out,
	})
	if err != nil {
		return err
	}

	loadStart := time.Now()
	store, err := csv.NewLoader(c.logger).LoadScenario(app.ScenarioDir)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}
	c.logger.Info("scenario loaded",
		zap.String("scenario", app.ScenarioDir),
		zap.Duration("duration", time.Since(loadStart)),
	)

	results, closeResults, err := c.openResults()
	if err != nil {
		return err
	}
	defer closeResults()

	eventStore := events.NewInMemoryEventStore(c.logger)
	if err := eventStore.Subscribe([]string{events.ShortageIdentifiedEvent}, c.shortageLogger()); err != nil {
		return fmt.Errorf("failed to subscribe to shortage events: %w", err)
	}

	engine := mrp.NewEngine(store, mrp.EngineConfig{
		HorizonDays:        app.HorizonDays,
		MaxBOMDepth:        app.MaxBOMDepth,
		ReorderWindowWeeks: app.ReorderWindowWeeks,
		CalculationTimeout: app.CalculationTimeout,
		AsOf:               app.AsOf,
	},
		mrp.WithResultRepository(results),
		mrp.WithEventStore(eventStore),
		mrp.WithMetrics(c.metrics),
		mrp.WithLogger(c.logger),
	)

	err = c.run(ctx, engine, store, renderer)
	eventStore.Wait()
	if err != nil {
		return err
	}

	if c.metrics != nil && app.Metrics.Textfile != "" {
		if err := c.metrics.WriteTextfile(app.Metrics.Textfile); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

func (c *MRPCommand) run(ctx context.Context, engine *mrp.Engine, store *memory.Store, renderer *output.Renderer) error {
	app := c.config.App

	switch c.config.Command {
	case CalculateCommand:
		result, err := engine.Recalculate(ctx, app.HorizonDays)
		if err != nil {
			return fmt.Errorf("error running calculation: %w", err)
		}
		return renderer.Calculation(result)

	case ShortagesCommand:
		alerts, err := engine.GetShortages(ctx, app.AlertDays)
		if err != nil {
			return fmt.Errorf("error finding shortages: %w", err)
		}
		return renderer.Shortages(alerts, app.AlertDays)

	case ExplodeCommand:
		itemID := entities.ItemID(c.config.ItemID)
		result, err := engine.ExplodeBOM(ctx, itemID, c.config.Quantity)
		if err != nil {
			return fmt.Errorf("error exploding BOM: %w", err)
		}
		return renderer.Explosion(output.Explosion{ItemID: itemID, Quantity: c.config.Quantity, Result: result})

	case ReorderPointsCommand:
		rows, diags, err := engine.DynamicReorderPoints(ctx)
		if err != nil {
			return fmt.Errorf("error calculating reorder points: %w", err)
		}
		return renderer.ReorderPoints(rows, diags)

	case WeekCommand:
		summary, err := engine.WeekSummary(ctx)
		if err != nil {
			return fmt.Errorf("error summarising week: %w", err)
		}
		return renderer.Week(summary)

	case ProjectionCommand:
		item, err := store.Items().GetItem(entities.ItemID(c.config.ItemID))
		if err != nil {
			return err
		}
		cached, err := engine.CachedProjection(ctx, *item)
		if err != nil {
			return fmt.Errorf("error reading cached projection: %w", err)
		}
		return renderer.Projection(cached)

	default:
		return fmt.Errorf("unknown command: %s", c.config.Command)
	}
}

// validateInputs validates the command configuration
func (c *MRPCommand) validateInputs() error {
	if c.config.App == nil {
		return fmt.Errorf("configuration is required")
	}
	if c.config.App.ScenarioDir == "" {
		return fmt.Errorf("must specify a --scenario directory")
	}
	if c.config.Command == ProjectionCommand && c.config.ItemID == "" {
		return fmt.Errorf("projection requires --item")
	}
	if c.config.Command == ExplodeCommand {
		if c.config.ItemID == "" {
			return fmt.Errorf("explode requires --item")
		}
		if c.config.Quantity.IsNegative() {
			return fmt.Errorf("quantity cannot be negative, got %s", c.config.Quantity)
		}
	}
	return nil
}

// openResults returns the sqlite results cache when a path is configured, memory otherwise
func (c *MRPCommand) openResults() (repositories.ResultRepository, func(), error) {
	path := c.config.App.Results.DBPath
	if path == "" {
		return memory.NewResultRepository(), func() {}, nil
	}

	db, err := sqlite.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open results database: %w", err)
	}
	closeDB := func() {
		if err := db.Close(); err != nil {
			c.logger.Warn("failed to close results database", zap.Error(err))
		}
	}
	return sqlite.NewResultRepository(db), closeDB, nil
}

// shortageLogger logs every identified shortage as it is published
func (c *MRPCommand) shortageLogger() *events.HandlerFunc {
	return &events.HandlerFunc{
		Types: []string{events.ShortageIdentifiedEvent},
		Fn: func(event events.Event) error {
			shortage, ok := event.Data().(events.ShortageIdentified)
			if !ok {
				return fmt.Errorf("unexpected payload %T for %s", event.Data(), event.Type())
			}
			c.logger.Info("shortage identified",
				zap.String("item_id", string(shortage.ItemID)),
				zap.String("urgency", shortage.Urgency),
				zap.Time("shortage_date", shortage.ShortageDate),
				zap.Time("order_by", shortage.OrderByDate),
			)
			return nil
		},
	}
}
