package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vsinha/mrpcalc/pkg/domain/entities"
	"github.com/vsinha/mrpcalc/pkg/domain/repositories"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/config"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/logging"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/metrics"
	"github.com/vsinha/mrpcalc/pkg/infrastructure/repositories/sqlite"
	testhelpers "github.com/vsinha/mrpcalc/pkg/infrastructure/testing"
)

func lampConfig(t *testing.T, format string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, testhelpers.WriteLampScenario(dir))

	return &config.Config{
		ScenarioDir:        dir,
		HorizonDays:        30,
		AlertDays:          14,
		MaxBOMDepth:        10,
		ReorderWindowWeeks: 6,
		AsOf:               testhelpers.LampScenarioStart,
		Output:             config.OutputConfig{Format: format},
		Metrics:            config.MetricsConfig{Namespace: "mrp"},
	}
}

func TestMRPCommand_CalculateStoresRun(t *testing.T) {
	app := lampConfig(t, "text")
	app.Results.DBPath = filepath.Join(t.TempDir(), "results.db")
	app.Metrics.Textfile = filepath.Join(t.TempDir(), "mrp.prom")

	var out bytes.Buffer
	cmd := NewMRPCommand(Config{Command: CalculateCommand, App: app, Out: &out}, metrics.NewRecorder("mrp"))
	require.NoError(t, cmd.Execute(context.Background()))

	assert.Contains(t, out.String(), "Items projected: 5")
	assert.Contains(t, out.String(), "SCREW")

	db, err := sqlite.Open(app.Results.DBPath)
	require.NoError(t, err)
	defer db.Close()

	run, err := sqlite.NewResultRepository(db).LatestRun(context.Background())
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, entities.RunSucceeded, run.Status)
	assert.Equal(t, 30, run.HorizonDays)
	assert.Equal(t, 5, run.ItemCount)

	prom, err := os.ReadFile(app.Metrics.Textfile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(prom), `mrp_calculation_runs_total{status="succeeded"} 1`), "metrics textfile:\n%s", prom)
}

func TestMRPCommand_ShortagesJSON(t *testing.T) {
	app := lampConfig(t, "json")

	var out bytes.Buffer
	cmd := NewMRPCommand(Config{Command: ShortagesCommand, App: app, Out: &out}, nil)
	require.NoError(t, cmd.Execute(context.Background()))

	var alerts []struct {
		ItemID  string `json:"item_id"`
		Urgency string `json:"urgency"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &alerts))
	require.NotEmpty(t, alerts)
	assert.Equal(t, "SCREW", alerts[0].ItemID)
	assert.Equal(t, entities.Critical.String(), alerts[0].Urgency)
}

func TestMRPCommand_Explode(t *testing.T) {
	app := lampConfig(t, "text")

	var out bytes.Buffer
	cmd := NewMRPCommand(Config{
		Command:  ExplodeCommand,
		ItemID:   "LAMP_PRO",
		Quantity: decimal.NewFromInt(10),
		App:      app,
		Out:      &out,
	}, nil)
	require.NoError(t, cmd.Execute(context.Background()))
	assert.Contains(t, out.String(), "BASE_ASSY")

	cmd = NewMRPCommand(Config{Command: ExplodeCommand, ItemID: "NOPE", Quantity: decimal.NewFromInt(1), App: app, Out: &out}, nil)
	assert.ErrorIs(t, cmd.Execute(context.Background()), repositories.ErrItemNotFound)
}

func TestMRPCommand_ProjectionReadsStoredRun(t *testing.T) {
	app := lampConfig(t, "text")
	app.Results.DBPath = filepath.Join(t.TempDir(), "results.db")

	require.NoError(t, NewMRPCommand(Config{Command: CalculateCommand, App: app, Out: &bytes.Buffer{}}, nil).Execute(context.Background()))

	db, err := sqlite.Open(app.Results.DBPath)
	require.NoError(t, err)
	stored, err := sqlite.NewResultRepository(db).LatestRun(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Close())

	app.Output.Format = "json"
	var out bytes.Buffer
	cmd := NewMRPCommand(Config{Command: ProjectionCommand, ItemID: "SCREW", App: app, Out: &out}, nil)
	require.NoError(t, cmd.Execute(context.Background()))

	var view struct {
		ItemID       string `json:"item_id"`
		RunID        string `json:"run_id"`
		Recalculated bool   `json:"recalculated"`
		Rows         []struct {
			Date  string `json:"date"`
			RunID string `json:"run_id"`
		} `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &view))
	assert.Equal(t, "SCREW", view.ItemID)
	assert.Equal(t, stored.RunID.String(), view.RunID)
	assert.False(t, view.Recalculated)
	require.Len(t, view.Rows, 30)
	assert.Equal(t, testhelpers.LampScenarioStart.Format("2006-01-02"), view.Rows[0].Date)
	assert.Equal(t, stored.RunID.String(), view.Rows[29].RunID)
}

func TestMRPCommand_ProjectionRecalculatesWithoutStoredRun(t *testing.T) {
	app := lampConfig(t, "text")

	var out bytes.Buffer
	cmd := NewMRPCommand(Config{Command: ProjectionCommand, ItemID: "BULB", App: app, Out: &out}, nil)
	require.NoError(t, cmd.Execute(context.Background()))
	assert.Contains(t, out.String(), "Cached projection: BULB")
	assert.Contains(t, out.String(), "recalculated")

	cmd = NewMRPCommand(Config{Command: ProjectionCommand, ItemID: "NOPE", App: app, Out: &out}, nil)
	assert.ErrorIs(t, cmd.Execute(context.Background()), repositories.ErrItemNotFound)
}

func TestMRPCommand_LogsThroughContextLogger(t *testing.T) {
	app := lampConfig(t, "text")
	core, logs := observer.New(zap.InfoLevel)
	ctx := logging.WithContext(context.Background(), zap.New(core))

	cmd := NewMRPCommand(Config{Command: CalculateCommand, App: app, Out: &bytes.Buffer{}}, nil)
	require.NoError(t, cmd.Execute(ctx))

	assert.NotZero(t, logs.FilterMessage("scenario loaded").Len())
	assert.Equal(t, 1, logs.FilterMessage("recalculation complete").Len())
}

func TestMRPCommand_ValidationErrors(t *testing.T) {
	app := lampConfig(t, "text")

	testCases := []struct {
		name   string
		config Config
		errMsg string
	}{
		{
			name:   "missing configuration",
			config: Config{Command: CalculateCommand},
			errMsg: "configuration is required",
		},
		{
			name:   "missing scenario",
			config: Config{Command: CalculateCommand, App: &config.Config{}},
			errMsg: "--scenario",
		},
		{
			name:   "explode without item",
			config: Config{Command: ExplodeCommand, App: app},
			errMsg: "explode requires --item",
		},
		{
			name:   "projection without item",
			config: Config{Command: ProjectionCommand, App: app},
			errMsg: "projection requires --item",
		},
		{
			name:   "negative quantity",
			config: Config{Command: ExplodeCommand, ItemID: "LAMP_STD", Quantity: decimal.NewFromInt(-1), App: app},
			errMsg: "cannot be negative",
		},
		{
			name:   "unknown command",
			config: Config{Command: "forecast", App: app, Out: &bytes.Buffer{}},
			errMsg: "unknown command: forecast",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewMRPCommand(tc.config, nil).Execute(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}
