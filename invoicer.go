package invoicer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/invoicer/builder"
	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/config"
	"github.com/xraph/invoicer/creditnote"
	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/milestone"
	"github.com/xraph/invoicer/numbering"
	"github.com/xraph/invoicer/party"
	"github.com/xraph/invoicer/plugin"
	"github.com/xraph/invoicer/quote"
	"github.com/xraph/invoicer/receipt"
	"github.com/xraph/invoicer/store"
	"github.com/xraph/invoicer/store/memory"
	"github.com/xraph/invoicer/summary"
	"github.com/xraph/invoicer/types"
)

// Invoicer is the invoicing engine. It owns the event bus, the activity log,
// the milestone engine, the plugin registry and the snapshot store, and hands
// out builders bound to them.
type Invoicer struct {
	// writer serializes Commit* so bus dispatch and tracker state are
	// never mutated concurrently.
	writer sync.Mutex

	bus        *bus.Bus
	log        *event.Log
	store      store.Store
	plugins    *plugin.Registry
	milestones *milestone.Engine
	logger     *slog.Logger
	unsubs     []func()

	// Configuration
	clock          func() time.Time
	numbering      numbering.Generator
	terms          numbering.Terms
	milestoneOpts  []milestone.Option
	noMilestones   bool
	pluginTimeout  time.Duration
	pending        []plugin.Plugin
	builderOptions []builder.Option
}

// New creates a new Invoicer instance. Without options it uses a private
// bus, an in-memory store, sequential numbering and net 30 terms.
func New(opts ...Option) *Invoicer {
	inv := &Invoicer{
		plugins:   plugin.NewRegistry(),
		logger:    slog.Default(),
		clock:     time.Now,
		numbering: numbering.NewSequential(nil),
		terms:     numbering.DefaultTerms(),
	}

	for _, opt := range opts {
		opt(inv)
	}

	if inv.bus == nil {
		inv.bus = bus.New(bus.WithLogger(inv.logger))
	}
	if inv.store == nil {
		inv.store = memory.New()
	}
	inv.plugins.WithLogger(inv.logger).WithTimeout(inv.pluginTimeout)
	for _, p := range inv.pending {
		if err := inv.plugins.Register(p); err != nil {
			inv.logger.Warn("plugin registration failed", "name", p.Name(), "error", err)
		}
	}
	inv.pending = nil

	// The log sees every event first, so milestone rewrites find their
	// targets already recorded. Plugins observe before trackers react.
	inv.log = event.NewLog()
	inv.unsubs = append(inv.unsubs,
		inv.bus.Subscribe(event.Wildcard, inv.log.Handle),
		inv.plugins.Attach(inv.bus),
	)

	if !inv.noMilestones {
		mopts := append([]milestone.Option{milestone.WithLogger(inv.logger)}, inv.milestoneOpts...)
		inv.milestones = milestone.NewEngine(inv.bus, inv.log, inv.store, mopts...)
	}

	return inv
}

// Option configures an Invoicer instance.
type Option func(*Invoicer)

// WithBus sets the event bus. Builders created by the Invoicer emit on it.
func WithBus(b *bus.Bus) Option {
	return func(inv *Invoicer) { inv.bus = b }
}

// WithStore sets the snapshot store. It also serves as the account and
// client directory of the milestone engine.
func WithStore(s store.Store) Option {
	return func(inv *Invoicer) { inv.store = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(inv *Invoicer) { inv.logger = logger }
}

// WithClock sets the clock used by builders for computed status and
// defaulted dates.
func WithClock(clock func() time.Time) Option {
	return func(inv *Invoicer) { inv.clock = clock }
}

// WithNumbering sets the document number generator.
func WithNumbering(g numbering.Generator) Option {
	return func(inv *Invoicer) { inv.numbering = g }
}

// WithTerms sets how due and expiration dates are derived.
func WithTerms(t numbering.Terms) Option {
	return func(inv *Invoicer) { inv.terms = t }
}

// WithPlugin registers a plugin after every other option is applied, so
// registration logs through the logger set by WithLogger.
func WithPlugin(p plugin.Plugin) Option {
	return func(inv *Invoicer) { inv.pending = append(inv.pending, p) }
}

// WithPluginTimeout bounds every plugin hook call.
func WithPluginTimeout(d time.Duration) Option {
	return func(inv *Invoicer) { inv.pluginTimeout = d }
}

// WithMilestoneOptions passes options to the milestone engine.
func WithMilestoneOptions(opts ...milestone.Option) Option {
	return func(inv *Invoicer) { inv.milestoneOpts = append(inv.milestoneOpts, opts...) }
}

// WithoutMilestones disables the milestone engine.
func WithoutMilestones() Option {
	return func(inv *Invoicer) { inv.noMilestones = true }
}

// WithConfig applies numbering, terms, milestone and plugin settings from cfg.
func WithConfig(cfg config.Config) Option {
	return func(inv *Invoicer) {
		inv.numbering = cfg.Numbering()
		inv.terms = cfg.Terms()
		inv.pluginTimeout = cfg.PluginTimeout
		inv.noMilestones = cfg.MilestonesDisabled
		inv.milestoneOpts = append(inv.milestoneOpts, cfg.MilestoneOptions()...)
	}
}

// WithBuilderOptions appends options applied to every builder the Invoicer
// creates, after its own clock, numbering, terms and logger.
func WithBuilderOptions(opts ...builder.Option) Option {
	return func(inv *Invoicer) { inv.builderOptions = append(inv.builderOptions, opts...) }
}

// Start checks the store and initializes plugins.
func (inv *Invoicer) Start(ctx context.Context) error {
	if err := inv.store.Ping(ctx); err != nil {
		return err
	}

	inv.plugins.EmitInit(ctx, inv)

	inv.logger.Info("invoicer started",
		"plugins", inv.plugins.Count(),
		"milestones", inv.milestones != nil,
	)
	return nil
}

// Stop detaches every subscriber, shuts plugins down and closes the store.
func (inv *Invoicer) Stop() error {
	if inv.milestones != nil {
		inv.milestones.Close()
	}
	for _, u := range inv.unsubs {
		u()
	}
	inv.unsubs = nil

	inv.plugins.EmitShutdown(context.Background())

	return inv.store.Close()
}

// ──────────────────────────────────────────────────
// Accessors
// ──────────────────────────────────────────────────

// Bus returns the event bus.
func (inv *Invoicer) Bus() *bus.Bus { return inv.bus }

// Log returns the activity log.
func (inv *Invoicer) Log() *event.Log { return inv.log }

// Store returns the snapshot store.
func (inv *Invoicer) Store() store.Store { return inv.store }

// Plugins returns the plugin registry.
func (inv *Invoicer) Plugins() *plugin.Registry { return inv.plugins }

// Milestones returns the milestone engine, or nil when disabled.
func (inv *Invoicer) Milestones() *milestone.Engine { return inv.milestones }

func (inv *Invoicer) builderOpts(extra []builder.Option) []builder.Option {
	opts := make([]builder.Option, 0, 4+len(inv.builderOptions)+len(extra))
	opts = append(opts,
		builder.WithClock(inv.clock),
		builder.WithNumbering(inv.numbering),
		builder.WithTerms(inv.terms),
		builder.WithLogger(inv.logger),
	)
	opts = append(opts, inv.builderOptions...)
	return append(opts, extra...)
}

// ──────────────────────────────────────────────────
// Builders
// ──────────────────────────────────────────────────

// NewQuote opens a draft quote.
func (inv *Invoicer) NewQuote(opts ...builder.Option) *quote.Builder {
	return quote.NewBuilder(inv.bus, inv.builderOpts(opts)...)
}

// EditQuote reopens a quote snapshot for further lifecycle steps.
func (inv *Invoicer) EditQuote(q *quote.Quote, opts ...builder.Option) *quote.Builder {
	return quote.Edit(q, inv.bus, inv.builderOpts(opts)...)
}

// DeriveQuote opens a new draft from an expired or rejected quote.
func (inv *Invoicer) DeriveQuote(parent *quote.Quote, opts ...builder.Option) (*quote.Builder, error) {
	return quote.Derive(parent, inv.bus, inv.builderOpts(opts)...)
}

// NewInvoice opens a draft invoice.
func (inv *Invoicer) NewInvoice(opts ...builder.Option) *invoice.Builder {
	return invoice.NewBuilder(inv.bus, inv.builderOpts(opts)...)
}

// EditInvoice reopens an invoice snapshot for further lifecycle steps.
func (inv *Invoicer) EditInvoice(i *invoice.Invoice, opts ...builder.Option) *invoice.Builder {
	return invoice.Edit(i, inv.bus, inv.builderOpts(opts)...)
}

// InvoiceFromQuote opens a draft invoice from an accepted quote.
func (inv *Invoicer) InvoiceFromQuote(q *quote.Quote, opts ...builder.Option) (*invoice.Builder, error) {
	return invoice.FromQuote(q, inv.bus, inv.builderOpts(opts)...)
}

// CreditNoteFromInvoice opens a credit note cancelling i.
func (inv *Invoicer) CreditNoteFromInvoice(i *invoice.Invoice, opts ...builder.Option) (*creditnote.Builder, error) {
	return creditnote.FromInvoice(i, inv.bus, inv.builderOpts(opts)...)
}

// ReceiptFromInvoice opens a receipt for a paid invoice.
func (inv *Invoicer) ReceiptFromInvoice(i *invoice.Invoice, opts ...builder.Option) (*receipt.Builder, error) {
	return receipt.FromInvoice(i, inv.bus, inv.builderOpts(opts)...)
}

// ──────────────────────────────────────────────────
// Commit
// ──────────────────────────────────────────────────

// CommitQuote builds qb and stores the snapshot.
func (inv *Invoicer) CommitQuote(ctx context.Context, qb *quote.Builder) (*quote.Quote, error) {
	return commit(ctx, inv, qb.Build, inv.store.SaveQuote)
}

// CommitInvoice builds ib and stores the snapshot.
func (inv *Invoicer) CommitInvoice(ctx context.Context, ib *invoice.Builder) (*invoice.Invoice, error) {
	return commit(ctx, inv, ib.Build, inv.store.SaveInvoice)
}

// CommitCreditNote builds cb and stores the snapshot.
func (inv *Invoicer) CommitCreditNote(ctx context.Context, cb *creditnote.Builder) (*creditnote.CreditNote, error) {
	return commit(ctx, inv, cb.Build, inv.store.SaveCreditNote)
}

// CommitReceipt builds rb and stores the snapshot.
func (inv *Invoicer) CommitReceipt(ctx context.Context, rb *receipt.Builder) (*receipt.Receipt, error) {
	return commit(ctx, inv, rb.Build, inv.store.SaveReceipt)
}

func commit[T any](ctx context.Context, inv *Invoicer, build func(context.Context) (*T, error), save func(context.Context, *T) error) (*T, error) {
	inv.writer.Lock()
	defer inv.writer.Unlock()

	snap, err := build(ctx)
	if err != nil {
		return nil, err
	}
	if err := save(ctx, snap); err != nil {
		inv.logger.Warn("snapshot not stored", "error", err)
		return nil, err
	}
	return snap, nil
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

// GetQuote retrieves a stored quote.
func (inv *Invoicer) GetQuote(ctx context.Context, quoteID id.QuoteID) (*quote.Quote, error) {
	return inv.store.GetQuote(ctx, quoteID)
}

// GetInvoice retrieves a stored invoice.
func (inv *Invoicer) GetInvoice(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	return inv.store.GetInvoice(ctx, invoiceID)
}

// ListInvoices lists the stored invoices of an account.
func (inv *Invoicer) ListInvoices(ctx context.Context, accountID id.AccountID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	return inv.store.ListInvoices(ctx, accountID, opts)
}

// Events returns the activity log in emission order.
func (inv *Invoicer) Events() []event.Event { return inv.log.Events() }

// AccountEvents returns the activity log of one account in emission order.
func (inv *Invoicer) AccountEvents(accountID id.AccountID) []event.Event {
	return inv.log.ForAccount(accountID)
}

// Summary computes the summary lines of arbitrary content.
func (inv *Invoicer) Summary(items []lineitem.Item, discounts []discount.Discount, opts ...summary.Option) []summary.Line {
	return summary.Compute(items, discounts, opts...)
}

// ──────────────────────────────────────────────────
// Directory
// ──────────────────────────────────────────────────

// RegisterAccount stores an account, assigning an id when missing.
func (inv *Invoicer) RegisterAccount(ctx context.Context, a *party.Account) error {
	if a.ID.IsNil() {
		a.ID = id.NewAccountID()
	}
	a.Entity = types.NewEntityAt(inv.clock())
	return inv.store.CreateAccount(ctx, a)
}

// RegisterClient stores a client, assigning an id when missing.
func (inv *Invoicer) RegisterClient(ctx context.Context, c *party.Client) error {
	if c.ID.IsNil() {
		c.ID = id.NewClientID()
	}
	c.Entity = types.NewEntityAt(inv.clock())
	return inv.store.CreateClient(ctx, c)
}
