// Package extension provides the Forge extension adapter for Invoicer.
//
// It implements the forge.Extension interface to integrate Invoicer
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.invoicer" or "invoicer" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/invoicer"
	"github.com/xraph/invoicer/store"
	"github.com/xraph/invoicer/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "invoicer"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Quote, invoice and milestone engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Invoicer as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	engine       *invoicer.Invoicer
	store        store.Store
	invoicerOpts []invoicer.Option
}

// New creates a new Invoicer Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Invoicer instance.
// This is nil until Register is called.
func (e *Extension) Engine() *invoicer.Invoicer { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}
	if err := e.config.Validate(); err != nil {
		return err
	}

	if e.store == nil {
		e.store = memory.New()
	}

	e.engine = invoicer.New(e.buildInvoicerOpts()...)

	return vessel.Provide(fapp.Container(), func() (*invoicer.Invoicer, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("invoicer: extension not initialized")
	}
	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("invoicer: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildInvoicerOpts constructs invoicer.Option values from the resolved
// config. Pass-through options come last so they override config.
func (e *Extension) buildInvoicerOpts() []invoicer.Option {
	opts := make([]invoicer.Option, 0, len(e.invoicerOpts)+2)
	opts = append(opts,
		invoicer.WithStore(e.store),
		invoicer.WithConfig(e.config.Config),
	)
	return append(opts, e.invoicerOpts...)
}

// --- Config Loading ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("invoicer: configuration is required but not found in config files; " +
				"ensure 'extensions.invoicer' or 'invoicer' key exists in your config")
		}
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("invoicer: configuration loaded",
		forge.F("net_terms_days", e.config.NetTermsDays),
		forge.F("quote_validity_days", e.config.QuoteValidityDays),
		forge.F("invoice_prefix", e.config.InvoicePrefix),
		forge.F("milestones_disabled", e.config.MilestonesDisabled),
		forge.F("plugin_timeout", e.config.PluginTimeout),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()

	for _, key := range []string{"extensions.invoicer", "invoicer"} {
		if !cm.IsSet(key) {
			continue
		}
		var cfg Config
		if err := cm.Bind(key, &cfg); err != nil {
			e.Logger().Warn("invoicer: failed to bind config",
				forge.F("key", key),
				forge.F("error", err.Error()),
			)
			continue
		}
		e.Logger().Debug("invoicer: loaded config from file",
			forge.F("key", key),
		)
		return cfg, true
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.NetTermsDays == 0 {
		cfg.NetTermsDays = defaults.NetTermsDays
	}
	if cfg.QuoteValidityDays == 0 {
		cfg.QuoteValidityDays = defaults.QuoteValidityDays
	}
	if cfg.QuotePrefix == "" {
		cfg.QuotePrefix = defaults.QuotePrefix
	}
	if cfg.InvoicePrefix == "" {
		cfg.InvoicePrefix = defaults.InvoicePrefix
	}
	if cfg.CreditNotePrefix == "" {
		cfg.CreditNotePrefix = defaults.CreditNotePrefix
	}
	if cfg.ReceiptPrefix == "" {
		cfg.ReceiptPrefix = defaults.ReceiptPrefix
	}
	if cfg.PluginTimeout == 0 {
		cfg.PluginTimeout = defaults.PluginTimeout
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	if programmaticConfig.MilestonesDisabled {
		yamlConfig.MilestonesDisabled = true
	}

	if yamlConfig.NetTermsDays == 0 {
		yamlConfig.NetTermsDays = programmaticConfig.NetTermsDays
	}
	if yamlConfig.QuoteValidityDays == 0 {
		yamlConfig.QuoteValidityDays = programmaticConfig.QuoteValidityDays
	}
	if yamlConfig.PluginTimeout == 0 {
		yamlConfig.PluginTimeout = programmaticConfig.PluginTimeout
	}
	if len(yamlConfig.InvoiceCountThresholds) == 0 {
		yamlConfig.InvoiceCountThresholds = programmaticConfig.InvoiceCountThresholds
	}
	if len(yamlConfig.ClientCountThresholds) == 0 {
		yamlConfig.ClientCountThresholds = programmaticConfig.ClientCountThresholds
	}
	if len(yamlConfig.InternationalCountThresholds) == 0 {
		yamlConfig.InternationalCountThresholds = programmaticConfig.InternationalCountThresholds
	}
	if len(yamlConfig.RevenueThresholds) == 0 {
		yamlConfig.RevenueThresholds = programmaticConfig.RevenueThresholds
	}

	return mergeWithDefaults(yamlConfig)
}
