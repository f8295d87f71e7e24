package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/invoicer/config"
	"github.com/xraph/invoicer/record"
)

func missing(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(missing(t))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), *cfg)
	assert.Empty(t, cfg.MilestoneOptions())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("INVOICER_NET_TERMS_DAYS", "14")
	t.Setenv("INVOICER_INVOICE_PREFIX", "F")
	t.Setenv("INVOICER_REVENUE_THRESHOLDS", "500,5000")
	t.Setenv("INVOICER_MILESTONES_DISABLED", "true")
	t.Setenv("INVOICER_PLUGIN_TIMEOUT", "250ms")

	cfg, err := config.Load(missing(t))
	require.NoError(t, err)

	assert.Equal(t, 14, cfg.NetTermsDays)
	assert.Equal(t, []float64{500, 5000}, cfg.RevenueThresholds)
	assert.True(t, cfg.MilestonesDisabled)
	assert.Equal(t, 250*time.Millisecond, cfg.PluginTimeout)
	assert.Len(t, cfg.MilestoneOptions(), 1)

	issued := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	terms := cfg.Terms()
	assert.Equal(t, issued.AddDate(0, 0, 14), terms.Due(record.KindInvoice, issued))
	assert.Equal(t, issued.AddDate(0, 0, 30), terms.Due(record.KindQuote, issued))

	gen := cfg.Numbering()
	assert.Equal(t, "F-2025-0001", gen.Next(record.KindInvoice, issued))
	assert.Equal(t, "Q-2025-0001", gen.Next(record.KindQuote, issued))
}

func TestLoadFromEnvFile(t *testing.T) {
	const key = "INVOICER_QUOTE_VALIDITY_DAYS"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s already set", key)
	}
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=10\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.QuoteValidityDays)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("INVOICER_NET_TERMS_DAYS", "-1")
	_, err := config.Load(missing(t))
	assert.Error(t, err)

	t.Setenv("INVOICER_NET_TERMS_DAYS", "soon")
	_, err = config.Load(missing(t))
	assert.Error(t, err)
}
