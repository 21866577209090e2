package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/vsinha/mrpcalc/pkg/infrastructure/config"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/logging"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/metrics"
	"github.com/vsinha/mrpcalc/pkg/interfaces/cli/commands"
)

const generateCommand = "generate"

const usage = `Usage: mrp <command> [flags]

Commands:
  calculate        Project every component over the horizon and store the run
  shortages        List shortages whose order-by date falls within --alert-days
  explode          Flatten the BOM requirement for --qty units of --item
  reorder-points   Compare current reorder points with ones derived from planned usage
  week             Show this week's shipments against goals
  projection       Show the stored projection of --item from the latest run
  generate         Write a random scenario directory

Run "mrp <command> --help" for the flags of a command.
`

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" || os.Args[1] == "--help" || os.Args[1] == "help" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]
	var err error
	switch command {
	case generateCommand:
		err = runGenerate(ctx, os.Args[2:])
	case commands.CalculateCommand, commands.ShortagesCommand, commands.ExplodeCommand,
		commands.ReorderPointsCommand, commands.WeekCommand, commands.ProjectionCommand:
		err = runPlanning(ctx, command, os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", command, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// runPlanning resolves configuration and runs one planning command
func runPlanning(ctx context.Context, command string, args []string) error {
	flags := pflag.NewFlagSet(command, pflag.ContinueOnError)
	flags.String("scenario", "", "Path to scenario directory containing CSV files")
	flags.Int("horizon", 90, "Projection horizon in days")
	flags.Int("alert-days", 14, "Report shortages whose order-by date falls within this many days")
	flags.Int("max-depth", 10, "Maximum BOM depth to explode")
	flags.Int("window-weeks", 6, "Weeks of planned usage behind dynamic reorder points")
	flags.Duration("timeout", 0, "Calculation time budget (0 for none)")
	flags.String("as-of", "", "Planning date as YYYY-MM-DD (default today)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error")
	flags.String("results-db", "", "SQLite file caching calculation results (default in memory)")
	flags.String("format", "text", "Output format: text, json, csv")
	flags.String("output", "", "Output directory for results (required for csv)")
	flags.String("metrics-file", "", "Write run metrics in Prometheus text format to this file")
	configFile := flags.String("config", "", "Optional configuration file")
	itemID := flags.String("item", "", "Item to explode or show the projection of")
	qty := flags.String("qty", "1", "Quantity to explode")
	verbose := flags.BoolP("verbose", "v", false, "Enable verbose output")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(config.Options{
		ConfigFile: *configFile,
		EnvFiles:   []string{".env"},
		Flags:      flags,
	})
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	quantity, err := decimal.NewFromString(*qty)
	if err != nil {
		return fmt.Errorf("invalid --qty %q: %w", *qty, err)
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Log.Environment,
		ServiceName: "mrp",
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx = logging.WithContext(ctx, logger)

	cmd := commands.NewMRPCommand(commands.Config{
		Command:  command,
		ItemID:   *itemID,
		Quantity: quantity,
		Verbose:  *verbose,
		App:      cfg,
	}, metrics.NewRecorder(cfg.Metrics.Namespace))

	logger.Debug("running command", zap.String("command", command), zap.String("scenario", cfg.ScenarioDir))
	return cmd.Execute(ctx)
}

// runGenerate writes a random scenario directory
func runGenerate(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet(generateCommand, pflag.ContinueOnError)
	output := flags.String("output", "", "Output directory for generated files")
	items := flags.Int("items", 100, "Total number of items to generate")
	maxDepth := flags.Int("max-depth", 5, "Maximum depth of the BOM tree")
	products := flags.Int("products", 3, "Number of finished goods carrying weekly goals")
	weeks := flags.Int("weeks", 6, "Weeks of goals to generate")
	inventory := flags.Float64("inventory", 2.0, "Weeks of usage held on hand")
	start := flags.String("start", "", "First goal week as YYYY-MM-DD (default this week)")
	seed := flags.Int64("seed", 0, "Random seed (default time based)")
	logLevel := flags.String("log-level", "info", "Log level: debug, info, warn, error")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	var startDate time.Time
	if *start != "" {
		var err error
		if startDate, err = time.Parse("2006-01-02", *start); err != nil {
			return fmt.Errorf("invalid --start %q: %w", *start, err)
		}
	}

	logger, err := logging.New(logging.Config{Level: *logLevel, ServiceName: "mrp"})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx = logging.WithContext(ctx, logger)

	return commands.NewGenerateCommand(commands.GenerateConfig{
		Items:     *items,
		MaxDepth:  *maxDepth,
		Products:  *products,
		Weeks:     *weeks,
		Inventory: *inventory,
		Start:     startDate,
		OutputDir: *output,
		Seed:      *seed,
	}).Execute(ctx)
}
