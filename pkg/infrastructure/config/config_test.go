package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{EnvFiles: []string{filepath.Join(t.TempDir(), "missing.env")}})
	require.NoError(t, err)

	assert.Equal(t, 90, cfg.HorizonDays)
	assert.Equal(t, 14, cfg.AlertDays)
	assert.Equal(t, 10, cfg.MaxBOMDepth)
	assert.Equal(t, 6, cfg.ReorderWindowWeeks)
	assert.Equal(t, time.Duration(0), cfg.CalculationTimeout)
	assert.True(t, cfg.AsOf.IsZero())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "development", cfg.Log.Environment)
	assert.Equal(t, "", cfg.Results.DBPath)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.Equal(t, "mrp", cfg.Metrics.Namespace)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "mrp.yaml")
	require.NoError(t, os.WriteFile(file, []byte("horizon_days: 30\nalert_days: 7\nlog:\n  level: debug\n"), 0o600))

	t.Setenv("MRP_ALERT_DAYS", "21")
	t.Setenv("MRP_RESULTS_DB_PATH", filepath.Join(dir, "results.db"))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("horizon", 90, "")
	flags.String("format", "text", "")
	require.NoError(t, flags.Parse([]string{"--format", "JSON"}))

	cfg, err := Load(Options{ConfigFile: file, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.HorizonDays, "file beats an unchanged flag")
	assert.Equal(t, 21, cfg.AlertDays, "environment beats file")
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "results.db"), cfg.Results.DBPath)
	assert.Equal(t, "json", cfg.Output.Format, "changed flag beats everything")
}

func TestLoad_EnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(file, []byte("MRP_CALCULATION_TIMEOUT=2s\nMRP_AS_OF=2025-03-12\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("MRP_CALCULATION_TIMEOUT")
		os.Unsetenv("MRP_AS_OF")
	})

	cfg, err := Load(Options{EnvFiles: []string{file}})
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.CalculationTimeout)
	assert.Equal(t, time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), cfg.AsOf)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		env  map[string]string
	}{
		{name: "bad timeout", env: map[string]string{"MRP_CALCULATION_TIMEOUT": "soon"}},
		{name: "bad date", env: map[string]string{"MRP_AS_OF": "12/03/2025"}},
		{name: "negative horizon", env: map[string]string{"MRP_HORIZON_DAYS": "-1"}},
		{name: "zero depth", env: map[string]string{"MRP_MAX_BOM_DEPTH": "0"}},
		{name: "unknown format", env: map[string]string{"MRP_OUTPUT_FORMAT": "xml"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load(Options{EnvFiles: []string{filepath.Join(t.TempDir(), "none.env")}})
			assert.Error(t, err)
		})
	}
}
