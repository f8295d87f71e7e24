// Package observability provides a metrics extension for Invoicer that
// records event stream counts through a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin        = (*MetricsExtension)(nil)
	_ plugin.OnInit        = (*MetricsExtension)(nil)
	_ plugin.OnRecordEvent = (*MetricsExtension)(nil)
	_ plugin.OnPayment     = (*MetricsExtension)(nil)
	_ plugin.OnMilestone   = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as an Invoicer plugin to track document flow.
type MetricsExtension struct {
	factory MetricFactory

	// Quote metrics
	QuoteDrafted  Counter
	QuoteSent     Counter
	QuoteAccepted Counter
	QuoteRejected Counter
	QuoteExpired  Counter

	// Invoice metrics
	InvoiceDrafted       Counter
	InvoiceSent          Counter
	InvoicePartiallyPaid Counter
	InvoicePaid          Counter
	InvoiceOverdue       Counter
	InvoiceClosed        Counter
	InvoiceTotal         Histogram

	// Payment metrics
	PaymentAmount Histogram
	TimeToPay     Histogram

	// Derived document metrics
	CreditNoteCreated Counter
	ReceiptCreated    Counter

	// Milestone metrics
	MilestoneReached  Counter
	MilestoneForecast Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		QuoteDrafted:  factory.Counter("invoicer.quote.drafted"),
		QuoteSent:     factory.Counter("invoicer.quote.sent"),
		QuoteAccepted: factory.Counter("invoicer.quote.accepted"),
		QuoteRejected: factory.Counter("invoicer.quote.rejected"),
		QuoteExpired:  factory.Counter("invoicer.quote.expired"),

		InvoiceDrafted:       factory.Counter("invoicer.invoice.drafted"),
		InvoiceSent:          factory.Counter("invoicer.invoice.sent"),
		InvoicePartiallyPaid: factory.Counter("invoicer.invoice.partially_paid"),
		InvoicePaid:          factory.Counter("invoicer.invoice.paid"),
		InvoiceOverdue:       factory.Counter("invoicer.invoice.overdue"),
		InvoiceClosed:        factory.Counter("invoicer.invoice.closed"),
		InvoiceTotal:         factory.Histogram("invoicer.invoice.total_amount"),

		PaymentAmount: factory.Histogram("invoicer.payment.amount"),
		TimeToPay:     factory.Histogram("invoicer.payment.time_to_pay_seconds"),

		CreditNoteCreated: factory.Counter("invoicer.credit_note.created"),
		ReceiptCreated:    factory.Counter("invoicer.receipt.created"),

		MilestoneReached:  factory.Counter("invoicer.milestone.reached"),
		MilestoneForecast: factory.Counter("invoicer.milestone.forecast"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ any) error {
	return nil
}

// ──────────────────────────────────────────────────
// Event stream hooks
// ──────────────────────────────────────────────────

// OnRecordEvent implements plugin.OnRecordEvent.
func (m *MetricsExtension) OnRecordEvent(_ context.Context, e *event.Event) error {
	switch e.Type {
	case event.QuoteDrafted:
		m.QuoteDrafted.Inc()
	case event.QuoteSent:
		m.QuoteSent.Inc()
	case event.QuoteAccepted:
		m.QuoteAccepted.Inc()
	case event.QuoteRejected:
		m.QuoteRejected.Inc()
	case event.QuoteExpired:
		m.QuoteExpired.Inc()
	case event.InvoiceDrafted:
		m.InvoiceDrafted.Inc()
	case event.InvoiceSent:
		m.InvoiceSent.Inc()
		if p, ok := e.Payload.(event.Sent); ok {
			m.InvoiceTotal.Observe(p.Total)
		}
	case event.InvoicePartiallyPaid:
		m.InvoicePartiallyPaid.Inc()
	case event.InvoicePaid:
		m.InvoicePaid.Inc()
	case event.InvoiceOverdue:
		m.InvoiceOverdue.Inc()
	case event.InvoiceClosed:
		m.InvoiceClosed.Inc()
	case event.CreditNoteCreated:
		m.CreditNoteCreated.Inc()
	case event.ReceiptCreated:
		m.ReceiptCreated.Inc()
	}
	return nil
}

// OnPayment implements plugin.OnPayment.
func (m *MetricsExtension) OnPayment(_ context.Context, e *event.Event, p event.Payment) error {
	m.PaymentAmount.Observe(p.Amount)
	if e.Type == event.InvoicePaid && e.At != nil && !p.Since.IsZero() {
		m.TimeToPay.Observe(e.At.Sub(p.Since).Seconds())
	}
	return nil
}

// OnMilestone implements plugin.OnMilestone.
func (m *MetricsExtension) OnMilestone(_ context.Context, _ *event.Event, ms *event.Milestone) error {
	if ms.Future {
		m.MilestoneForecast.Inc()
		return nil
	}
	m.MilestoneReached.Inc()
	return nil
}
