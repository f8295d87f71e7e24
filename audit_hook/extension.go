// Package audithook bridges Invoicer record events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import an
// audit backend directly. Callers inject a RecorderFunc adapter at wiring
// time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin        = (*Extension)(nil)
	_ plugin.OnRecordEvent = (*Extension)(nil)
	_ plugin.OnMilestone   = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges record lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Event stream hooks
// ──────────────────────────────────────────────────

// OnRecordEvent implements plugin.OnRecordEvent.
func (e *Extension) OnRecordEvent(ctx context.Context, ev *event.Event) error {
	spec, ok := actions[ev.Type]
	if !ok {
		return nil
	}

	kv := []any{"account_id", ev.Context.AccountID.String()}
	if !ev.Context.ClientID.IsNil() {
		kv = append(kv, "client_id", ev.Context.ClientID.String())
	}

	var reason string
	switch p := ev.Payload.(type) {
	case event.Sent:
		kv = append(kv, "total", p.Total)
	case event.Payment:
		kv = append(kv, "amount", p.Amount, "outstanding", p.Outstanding)
	case event.Overdue:
		kv = append(kv, "outstanding", p.Outstanding, "due_date", p.DueDate)
	case event.Rejected:
		reason = p.Reason
	case event.Created:
		kv = append(kv, "total", p.Total)
	case event.Drafted:
		if p.From != "" {
			kv = append(kv, "from", p.From, "source_id", p.SourceID.String())
		}
	}

	return e.record(ctx, spec.action, spec.severity, spec.outcome,
		spec.resource, resourceID(ev, spec.resource), spec.category, reason,
		kv...,
	)
}

// OnMilestone implements plugin.OnMilestone.
func (e *Extension) OnMilestone(ctx context.Context, ev *event.Event, m *event.Milestone) error {
	action := ActionMilestoneReached
	if m.Future {
		action = ActionMilestoneForecast
	}
	return e.record(ctx, action, SeverityInfo, OutcomeSuccess,
		ResourceAccount, ev.Context.AccountID.String(), CategoryMilestone, "",
		"milestone", string(ev.Type),
		"value", m.Value,
		"threshold", m.Threshold,
		"best", m.Best,
		"record_id", m.RecordID.String(),
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

type actionSpec struct {
	action   string
	resource string
	category string
	severity string
	outcome  string
}

var actions = map[event.Type]actionSpec{
	event.QuoteDrafted:         {ActionQuoteDrafted, ResourceQuote, CategorySales, SeverityInfo, OutcomeSuccess},
	event.QuoteSent:            {ActionQuoteSent, ResourceQuote, CategorySales, SeverityInfo, OutcomeSuccess},
	event.QuoteAccepted:        {ActionQuoteAccepted, ResourceQuote, CategorySales, SeverityInfo, OutcomeSuccess},
	event.QuoteRejected:        {ActionQuoteRejected, ResourceQuote, CategorySales, SeverityWarning, OutcomeFailure},
	event.QuoteExpired:         {ActionQuoteExpired, ResourceQuote, CategorySales, SeverityWarning, OutcomeFailure},
	event.QuoteClosed:          {ActionQuoteClosed, ResourceQuote, CategorySales, SeverityInfo, OutcomeSuccess},
	event.InvoiceDrafted:       {ActionInvoiceDrafted, ResourceInvoice, CategoryBilling, SeverityInfo, OutcomeSuccess},
	event.InvoiceSent:          {ActionInvoiceSent, ResourceInvoice, CategoryBilling, SeverityInfo, OutcomeSuccess},
	event.InvoicePartiallyPaid: {ActionInvoicePartiallyPaid, ResourceInvoice, CategoryPayment, SeverityInfo, OutcomePartial},
	event.InvoicePaid:          {ActionInvoicePaid, ResourceInvoice, CategoryPayment, SeverityInfo, OutcomeSuccess},
	event.InvoiceOverdue:       {ActionInvoiceOverdue, ResourceInvoice, CategoryPayment, SeverityWarning, OutcomeFailure},
	event.InvoiceClosed:        {ActionInvoiceClosed, ResourceInvoice, CategoryBilling, SeverityWarning, OutcomeFailure},
	event.CreditNoteCreated:    {ActionCreditNoteCreated, ResourceCreditNote, CategoryBilling, SeverityInfo, OutcomeSuccess},
	event.ReceiptCreated:       {ActionReceiptCreated, ResourceReceipt, CategoryPayment, SeverityInfo, OutcomeSuccess},
}

func resourceID(ev *event.Event, resource string) string {
	switch resource {
	case ResourceQuote:
		return ev.Context.QuoteID.String()
	case ResourceInvoice:
		return ev.Context.InvoiceID.String()
	case ResourceCreditNote:
		return ev.Context.CreditNoteID.String()
	case ResourceReceipt:
		return ev.Context.ReceiptID.String()
	}
	return ""
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category, reason string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
