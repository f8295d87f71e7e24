package extension

import (
	"time"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/plugin"
	"github.com/xraph/invoicer/store"
)

// Option configures the Invoicer Forge extension.
type Option func(*Extension)

// WithStore sets the store for the invoicer engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithInvoicerOption passes an invoicer.Option through to the underlying engine.
func WithInvoicerOption(opt invoicer.Option) Option {
	return func(e *Extension) {
		e.invoicerOpts = append(e.invoicerOpts, opt)
	}
}

// WithPlugin registers an invoicer plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.invoicerOpts = append(e.invoicerOpts, invoicer.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithNetTermsDays sets the days between issue and due date.
func WithNetTermsDays(days int) Option {
	return func(e *Extension) { e.config.NetTermsDays = days }
}

// WithQuoteValidityDays sets how long quotes stay open.
func WithQuoteValidityDays(days int) Option {
	return func(e *Extension) { e.config.QuoteValidityDays = days }
}

// WithDisableMilestones turns the milestone engine off.
func WithDisableMilestones() Option {
	return func(e *Extension) { e.config.MilestonesDisabled = true }
}

// WithPluginTimeout bounds a single plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.PluginTimeout = d }
}
