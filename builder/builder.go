// Package builder holds what every document builder shares: construction
// options and the emission of buffered lifecycle events.
package builder

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/numbering"
)

// Options configures a document builder.
type Options struct {
	Clock       func() time.Time
	Numbering   numbering.Generator
	Terms       numbering.Terms
	Logger      *slog.Logger
	Attachments bool
}

// Option configures Options.
type Option func(*Options)

// WithClock sets the clock used for computed status and defaulted dates.
func WithClock(clock func() time.Time) Option {
	return func(o *Options) { o.Clock = clock }
}

// WithNumbering sets the number generator.
func WithNumbering(g numbering.Generator) Option {
	return func(o *Options) { o.Numbering = g }
}

// WithTerms sets the due/expiration date strategy.
func WithTerms(t numbering.Terms) Option {
	return func(o *Options) { o.Terms = t }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithoutAttachments stops derived documents from copying attachments.
func WithoutAttachments() Option {
	return func(o *Options) { o.Attachments = false }
}

var defaultNumbering = numbering.NewSequential(nil)

// Resolve applies opts over the defaults.
func Resolve(opts []Option) Options {
	o := Options{
		Clock:       time.Now,
		Numbering:   defaultNumbering,
		Terms:       numbering.DefaultTerms(),
		Logger:      slog.Default(),
		Attachments: true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Now returns the current time of the configured clock.
func (o Options) Now() time.Time { return o.Clock() }

// Bus returns b, or the process default bus when b is nil.
func Bus(b *bus.Bus) *bus.Bus {
	if b == nil {
		return bus.Default()
	}
	return b
}

// Flush enriches and emits buffered descriptors in order. It returns the
// events delivered and the number of descriptors consumed. On a subscriber
// error the failing event counts as consumed, since some subscribers saw it,
// and the remaining descriptors are left for the next flush.
func Flush(ctx context.Context, b *bus.Bus, buffered []event.Descriptor, ectx event.Context, tags ...string) ([]event.Event, int, error) {
	out := make([]event.Event, 0, len(buffered))
	for i, d := range buffered {
		extra := tags
		if d.Type == event.InvoicePaid || d.Type == event.InvoicePartiallyPaid {
			extra = append(append([]string(nil), tags...), event.TagPayment)
		}
		e := d.Enrich(ectx, extra...)
		err := b.Emit(ctx, e)
		out = append(out, e.Clone())
		if err != nil {
			return out, i + 1, err
		}
	}
	return out, len(buffered), nil
}

// Has reports whether t appears in history or the buffer.
func Has(history []event.Event, buffered []event.Descriptor, t event.Type) bool {
	for _, e := range history {
		if e.Type == t {
			return true
		}
	}
	for _, d := range buffered {
		if d.Type == t {
			return true
		}
	}
	return false
}
