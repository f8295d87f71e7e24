package extension

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMergeWithDefaults(t *testing.T) {
	cfg := mergeWithDefaults(Config{})
	assert.Equal(t, DefaultConfig().Config, cfg.Config)

	cfg = mergeWithDefaults(Config{})
	cfg.NetTermsDays = 14
	assert.Equal(t, 14, mergeWithDefaults(cfg).NetTermsDays)
}

func TestMergeConfigurationsPrefersFile(t *testing.T) {
	file := Config{}
	file.NetTermsDays = 45

	prog := Config{}
	prog.NetTermsDays = 10
	prog.QuoteValidityDays = 7
	prog.PluginTimeout = time.Second
	prog.MilestonesDisabled = true
	prog.RevenueThresholds = []float64{5000}

	got := mergeConfigurations(file, prog)
	assert.Equal(t, 45, got.NetTermsDays)
	assert.Equal(t, 7, got.QuoteValidityDays)
	assert.Equal(t, time.Second, got.PluginTimeout)
	assert.True(t, got.MilestonesDisabled)
	assert.Equal(t, []float64{5000}, got.RevenueThresholds)
	assert.Equal(t, DefaultConfig().InvoicePrefix, got.InvoicePrefix)
}

func TestNewAppliesOptions(t *testing.T) {
	e := New(WithNetTermsDays(20), WithDisableMilestones(), WithRequireConfig(true))
	assert.Equal(t, 20, e.config.NetTermsDays)
	assert.True(t, e.config.MilestonesDisabled)
	assert.True(t, e.config.RequireConfig)
	assert.Nil(t, e.Engine())
}
