// Package milestone mines the record event stream for account-level
// achievements and emits them back onto the bus.
//
// Eight trackers run side by side. Best-of-N trackers (fastest accepted
// quote, fastest paid invoice, most expensive invoice) emit when a record
// beats the account's current best and clear the best flag on earlier
// emissions. Threshold trackers (invoice count, client count, international
// client count, revenue) emit speculative "future" milestones when sent
// invoices would cross a threshold once paid, confirm them on payment and
// retract them when they can no longer be reached. The anniversary tracker
// counts whole years since the account's first sent invoice.
//
// All tracker state is per account and created on first use.
package milestone

import (
	"context"
	"log/slog"
	"sync"

	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/party"
)

// Directory resolves the parties an event refers to.
type Directory interface {
	GetAccount(ctx context.Context, accountID id.AccountID) (*party.Account, error)
	GetClient(ctx context.Context, clientID id.ClientID) (*party.Client, error)
}

// DefaultThresholds are the thresholds of each threshold tracker, in
// descending order. Revenue is in minor currency units.
var DefaultThresholds = map[event.Type][]float64{
	event.MilestoneInvoiceCount:             {1000, 500, 250, 100, 50, 25, 10, 5, 1},
	event.MilestoneClientCount:              {100, 50, 25, 10, 5, 1},
	event.MilestoneInternationalClientCount: {25, 10, 5, 1},
	event.MilestoneRevenue:                  {100000000, 10000000, 1000000, 100000},
}

// Option configures an Engine.
type Option func(*Engine)

// WithThresholds replaces the thresholds of one threshold tracker.
func WithThresholds(t event.Type, values ...float64) Option {
	return func(e *Engine) { e.thresholds[t] = descending(values) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine owns every tracker and their per-account state.
type Engine struct {
	bus        *bus.Bus
	log        *event.Log
	dir        Directory
	logger     *slog.Logger
	thresholds map[event.Type][]float64
	unsubs     []func()

	mu               sync.Mutex
	fastestQuote     *accounts[best]
	fastestPaid      *accounts[best]
	expensivePending *accounts[best]
	expensivePaid    *accounts[best]
	counters         []*counter
	anniversaries    *accounts[anniversary]
}

// NewEngine subscribes every tracker to b. log must be the event log that
// records b's events, since trackers rewrite earlier milestones through it;
// when nil, the engine creates one and subscribes it first. dir may be nil,
// in which case the international client tracker never counts anything.
func NewEngine(b *bus.Bus, log *event.Log, dir Directory, opts ...Option) *Engine {
	e := &Engine{
		bus:              b,
		log:              log,
		dir:              dir,
		logger:           slog.Default(),
		thresholds:       make(map[event.Type][]float64, len(DefaultThresholds)),
		fastestQuote:     newAccounts(func() *best { return &best{} }),
		fastestPaid:      newAccounts(func() *best { return &best{} }),
		expensivePending: newAccounts(func() *best { return &best{} }),
		expensivePaid:    newAccounts(func() *best { return &best{} }),
		anniversaries:    newAccounts(func() *anniversary { return &anniversary{} }),
	}
	for t, v := range DefaultThresholds {
		e.thresholds[t] = descending(v)
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = event.NewLog()
		e.unsubs = append(e.unsubs, b.Subscribe(event.Wildcard, e.log.Handle))
	}

	e.counters = []*counter{
		newCounter(event.MilestoneInvoiceCount, e.thresholds[event.MilestoneInvoiceCount], countRecords),
		newCounter(event.MilestoneClientCount, e.thresholds[event.MilestoneClientCount], countClients),
		newCounter(event.MilestoneInternationalClientCount, e.thresholds[event.MilestoneInternationalClientCount], countInternational),
		newCounter(event.MilestoneRevenue, e.thresholds[event.MilestoneRevenue], sumRevenue),
	}

	e.subscribe(event.QuoteAccepted, e.onQuoteAccepted)
	e.subscribe(event.InvoiceSent, e.onInvoiceSent)
	e.subscribe(event.InvoicePaid, e.onInvoicePaid)
	e.subscribe(event.InvoiceClosed, e.onInvoiceClosed)

	e.logger.Debug("milestone engine started", "trackers", 8)
	return e
}

func (e *Engine) subscribe(t event.Type, h bus.Handler) {
	e.unsubs = append(e.unsubs, e.bus.Subscribe(t, h))
}

// Log returns the event log the engine rewrites.
func (e *Engine) Log() *event.Log { return e.log }

// Close unsubscribes every tracker.
func (e *Engine) Close() {
	for _, u := range e.unsubs {
		u()
	}
	e.unsubs = nil
}

// emit publishes a milestone correlated with the event that triggered it.
func (e *Engine) emit(ctx context.Context, src *event.Event, t event.Type, m *event.Milestone) error {
	tags := []string{event.TagMilestone}
	if m.Future {
		tags = append(tags, event.TagFuture)
	}

	e.logger.Debug("milestone reached",
		"type", t,
		"account_id", src.Context.AccountID.String(),
		"value", m.Value,
		"threshold", m.Threshold,
		"future", m.Future,
	)
	return e.bus.Emit(ctx, event.New(t, src.Context, m, src.At, tags...))
}

// ──────────────────────────────────────────────────
// Event handlers
// ──────────────────────────────────────────────────

func (e *Engine) onQuoteAccepted(ctx context.Context, ev *event.Event) error {
	p, ok := ev.Payload.(event.Accepted)
	if !ok || ev.At == nil || p.Since.IsZero() {
		e.logger.Debug("milestone skipped: no acceptance timing", "type", ev.Type)
		return nil
	}
	elapsed := ev.At.Sub(p.Since).Seconds()
	return e.rank(ctx, ev, rankSpec{
		typ:    event.MilestoneFastestAcceptedQuote,
		states: e.fastestQuote,
		better: faster,
		record: ev.Context.QuoteID,
	}, elapsed)
}

func (e *Engine) onInvoiceSent(ctx context.Context, ev *event.Event) error {
	p, ok := ev.Payload.(event.Sent)
	if !ok {
		return nil
	}
	if err := e.rank(ctx, ev, rankSpec{
		typ:    event.MilestoneMostExpensiveInvoice,
		states: e.expensivePending,
		better: larger,
		future: true,
		record: ev.Context.InvoiceID,
	}, p.Total); err != nil {
		return err
	}

	c := e.contribution(ctx, ev, p.Total)
	for _, cnt := range e.counters {
		if err := e.predict(ctx, ev, cnt, c); err != nil {
			return err
		}
	}
	return e.onAnniversary(ctx, ev)
}

func (e *Engine) onInvoicePaid(ctx context.Context, ev *event.Event) error {
	p, ok := ev.Payload.(event.Payment)
	if !ok {
		return nil
	}

	if ev.At != nil && !p.Since.IsZero() {
		if err := e.rank(ctx, ev, rankSpec{
			typ:    event.MilestoneFastestPaidInvoice,
			states: e.fastestPaid,
			better: faster,
			record: ev.Context.InvoiceID,
		}, ev.At.Sub(p.Since).Seconds()); err != nil {
			return err
		}
	}

	if err := e.rank(ctx, ev, rankSpec{
		typ:    event.MilestoneMostExpensiveInvoice,
		states: e.expensivePaid,
		better: larger,
		record: ev.Context.InvoiceID,
	}, p.Total); err != nil {
		return err
	}

	var c *contribution
	for _, cnt := range e.counters {
		if err := e.confirm(ctx, ev, cnt, func() contribution {
			if c == nil {
				v := e.contribution(ctx, ev, p.Total)
				c = &v
			}
			return *c
		}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) onInvoiceClosed(_ context.Context, ev *event.Event) error {
	for _, cnt := range e.counters {
		e.withdraw(ev, cnt)
	}
	return nil
}

// contribution describes what a sent or paid invoice adds to the counters.
func (e *Engine) contribution(ctx context.Context, ev *event.Event, total float64) contribution {
	c := contribution{client: ev.Context.ClientID.String(), amount: total}
	if e.dir == nil {
		return c
	}

	acct, err := e.dir.GetAccount(ctx, ev.Context.AccountID)
	if err != nil {
		e.logger.Debug("milestone directory lookup failed", "account_id", ev.Context.AccountID.String(), "error", err)
		return c
	}
	cli, err := e.dir.GetClient(ctx, ev.Context.ClientID)
	if err != nil {
		e.logger.Debug("milestone directory lookup failed", "client_id", ev.Context.ClientID.String(), "error", err)
		return c
	}
	c.international = party.International(acct, cli)
	return c
}

// ──────────────────────────────────────────────────
// Per-account state
// ──────────────────────────────────────────────────

type accounts[S any] struct {
	m    map[string]*S
	init func() *S
}

func newAccounts[S any](init func() *S) *accounts[S] {
	return &accounts[S]{m: make(map[string]*S), init: init}
}

// get returns the state of account, creating it on first use.
// Callers hold Engine.mu.
func (a *accounts[S]) get(account id.AccountID) *S {
	key := account.String()
	s, ok := a.m[key]
	if !ok {
		s = a.init()
		a.m[key] = s
	}
	return s
}
