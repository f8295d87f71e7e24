// Package config loads engine configuration from the environment.
//
// Values come from INVOICER_* environment variables, optionally seeded from a
// .env file. The same struct is bound from YAML by the Forge extension.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/milestone"
	"github.com/xraph/invoicer/numbering"
	"github.com/xraph/invoicer/record"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "INVOICER"

// Config holds the engine configuration.
type Config struct {
	// NetTermsDays is the number of days between issue and due date.
	NetTermsDays int `envconfig:"NET_TERMS_DAYS" default:"30" json:"net_terms_days" mapstructure:"net_terms_days" yaml:"net_terms_days"`

	// QuoteValidityDays is the number of days a quote stays open.
	QuoteValidityDays int `envconfig:"QUOTE_VALIDITY_DAYS" default:"30" json:"quote_validity_days" mapstructure:"quote_validity_days" yaml:"quote_validity_days"`

	// Number prefixes per record kind.
	QuotePrefix      string `envconfig:"QUOTE_PREFIX" default:"Q" json:"quote_prefix" mapstructure:"quote_prefix" yaml:"quote_prefix"`
	InvoicePrefix    string `envconfig:"INVOICE_PREFIX" default:"INV" json:"invoice_prefix" mapstructure:"invoice_prefix" yaml:"invoice_prefix"`
	CreditNotePrefix string `envconfig:"CREDIT_NOTE_PREFIX" default:"CN" json:"credit_note_prefix" mapstructure:"credit_note_prefix" yaml:"credit_note_prefix"`
	ReceiptPrefix    string `envconfig:"RECEIPT_PREFIX" default:"RCPT" json:"receipt_prefix" mapstructure:"receipt_prefix" yaml:"receipt_prefix"`

	// MilestonesDisabled turns the milestone engine off.
	MilestonesDisabled bool `envconfig:"MILESTONES_DISABLED" json:"milestones_disabled" mapstructure:"milestones_disabled" yaml:"milestones_disabled"`

	// Threshold overrides. Empty keeps the engine defaults.
	InvoiceCountThresholds       []float64 `envconfig:"INVOICE_COUNT_THRESHOLDS" json:"invoice_count_thresholds" mapstructure:"invoice_count_thresholds" yaml:"invoice_count_thresholds"`
	ClientCountThresholds        []float64 `envconfig:"CLIENT_COUNT_THRESHOLDS" json:"client_count_thresholds" mapstructure:"client_count_thresholds" yaml:"client_count_thresholds"`
	InternationalCountThresholds []float64 `envconfig:"INTERNATIONAL_COUNT_THRESHOLDS" json:"international_count_thresholds" mapstructure:"international_count_thresholds" yaml:"international_count_thresholds"`
	RevenueThresholds            []float64 `envconfig:"REVENUE_THRESHOLDS" json:"revenue_thresholds" mapstructure:"revenue_thresholds" yaml:"revenue_thresholds"`

	// PluginTimeout bounds a single plugin hook call.
	PluginTimeout time.Duration `envconfig:"PLUGIN_TIMEOUT" default:"5s" json:"plugin_timeout" mapstructure:"plugin_timeout" yaml:"plugin_timeout"`
}

// Default returns a Config with the same defaults Load applies.
func Default() Config {
	return Config{
		NetTermsDays:      30,
		QuoteValidityDays: 30,
		QuotePrefix:       numbering.DefaultPrefixes[record.KindQuote],
		InvoicePrefix:     numbering.DefaultPrefixes[record.KindInvoice],
		CreditNotePrefix:  numbering.DefaultPrefixes[record.KindCreditNote],
		ReceiptPrefix:     numbering.DefaultPrefixes[record.KindReceipt],
		PluginTimeout:     5 * time.Second,
	}
}

// Load reads the given .env files, or ".env" when none are given, then
// processes INVOICER_* variables. Missing .env files are ignored; variables
// already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read env file: %w", err)
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects negative durations.
func (c Config) Validate() error {
	if c.NetTermsDays < 0 {
		return fmt.Errorf("config: net terms days must not be negative, got %d", c.NetTermsDays)
	}
	if c.QuoteValidityDays < 0 {
		return fmt.Errorf("config: quote validity days must not be negative, got %d", c.QuoteValidityDays)
	}
	return nil
}

// Numbering returns a sequential generator using the configured prefixes.
func (c Config) Numbering() *numbering.Sequential {
	return numbering.NewSequential(map[record.Kind]string{
		record.KindQuote:      c.QuotePrefix,
		record.KindInvoice:    c.InvoicePrefix,
		record.KindCreditNote: c.CreditNotePrefix,
		record.KindReceipt:    c.ReceiptPrefix,
	})
}

// Terms returns net terms for invoices and the validity period for quotes.
func (c Config) Terms() numbering.Terms {
	net := numbering.NetDays(c.NetTermsDays)
	return numbering.PerKind(map[record.Kind]numbering.Terms{
		record.KindQuote:   numbering.NetDays(c.QuoteValidityDays),
		record.KindInvoice: net,
	}, net)
}

// MilestoneOptions returns threshold overrides for the milestone engine.
func (c Config) MilestoneOptions() []milestone.Option {
	var opts []milestone.Option
	for t, values := range map[event.Type][]float64{
		event.MilestoneInvoiceCount:             c.InvoiceCountThresholds,
		event.MilestoneClientCount:              c.ClientCountThresholds,
		event.MilestoneInternationalClientCount: c.InternationalCountThresholds,
		event.MilestoneRevenue:                  c.RevenueThresholds,
	} {
		if len(values) > 0 {
			opts = append(opts, milestone.WithThresholds(t, values...))
		}
	}
	return opts
}
