// Package event defines the domain events emitted by record lifecycles and
// the milestone engine, and the in-process log that keeps them for the
// activity feed.
package event

import (
	"slices"
	"strings"
	"time"

	"github.com/xraph/invoicer/id"
)

// Type is a colon-namespaced event name, e.g. "invoice:sent".
type Type string

// Wildcard subscribes to every event type.
const Wildcard Type = "*"

// Record lifecycle event types.
const (
	QuoteDrafted  Type = "quote:drafted"
	QuoteSent     Type = "quote:sent"
	QuoteAccepted Type = "quote:accepted"
	QuoteRejected Type = "quote:rejected"
	QuoteExpired  Type = "quote:expired"
	QuoteClosed   Type = "quote:closed"

	InvoiceDrafted       Type = "invoice:drafted"
	InvoiceSent          Type = "invoice:sent"
	InvoicePartiallyPaid Type = "invoice:partially-paid"
	InvoicePaid          Type = "invoice:paid"
	InvoiceOverdue       Type = "invoice:overdue"
	InvoiceClosed        Type = "invoice:closed"

	CreditNoteCreated Type = "credit-note:created"
	ReceiptCreated    Type = "receipt:created"
)

// Milestone event types.
const (
	MilestoneFastestAcceptedQuote     Type = "milestone:fastest-accepted-quote"
	MilestoneFastestPaidInvoice       Type = "milestone:fastest-paid-invoice"
	MilestoneMostExpensiveInvoice     Type = "milestone:most-expensive-invoice"
	MilestoneInvoiceCount             Type = "milestone:invoice-count"
	MilestoneClientCount              Type = "milestone:client-count"
	MilestoneInternationalClientCount Type = "milestone:international-client-count"
	MilestoneRevenue                  Type = "milestone:revenue"
	MilestoneAnniversary              Type = "milestone:anniversary"
)

// Tags attached to events for activity-feed filtering.
const (
	TagQuote      = "quote"
	TagInvoice    = "invoice"
	TagCreditNote = "credit-note"
	TagReceipt    = "receipt"
	TagPayment    = "payment"
	TagMilestone  = "milestone"
	TagFuture     = "future"
)

// Namespace returns the part before the colon ("invoice" for "invoice:sent").
func (t Type) Namespace() string {
	ns, _, _ := strings.Cut(string(t), ":")
	return ns
}

// Action returns the part after the colon ("sent" for "invoice:sent").
func (t Type) Action() string {
	_, action, _ := strings.Cut(string(t), ":")
	return action
}

// IsMilestone reports whether t is a milestone event type.
func (t Type) IsMilestone() bool { return t.Namespace() == "milestone" }

// Context carries the correlation ids of an event. Only AccountID is always set.
type Context struct {
	AccountID    id.AccountID    `json:"account_id"`
	ClientID     id.ClientID     `json:"client_id"`
	QuoteID      id.QuoteID      `json:"quote_id,omitempty"`
	InvoiceID    id.InvoiceID    `json:"invoice_id,omitempty"`
	CreditNoteID id.CreditNoteID `json:"credit_note_id,omitempty"`
	ReceiptID    id.ReceiptID    `json:"receipt_id,omitempty"`
}

// Event is a single entry of the event stream. Events are immutable once
// emitted, except for the Best and presence of speculative milestone events
// which the milestone engine may rewrite through the Log.
type Event struct {
	ID      id.EventID `json:"id"`
	Seq     uint64     `json:"seq"`
	Type    Type       `json:"type"`
	Context Context    `json:"context"`
	Payload Payload    `json:"payload"`
	At      *time.Time `json:"at,omitempty"`
	Tags    []string   `json:"tags,omitempty"`
}

// New creates an event with a fresh id. Tags are stored as a sorted set.
func New(t Type, ctx Context, p Payload, at *time.Time, tags ...string) *Event {
	return &Event{
		ID:      id.NewEventID(),
		Type:    t,
		Context: ctx,
		Payload: p,
		At:      at,
		Tags:    tagSet(tags),
	}
}

// HasTag reports whether the event carries tag.
func (e *Event) HasTag(tag string) bool {
	_, found := slices.BinarySearch(e.Tags, tag)
	return found
}

// Milestone returns the milestone payload of a milestone event.
func (e *Event) Milestone() (*Milestone, bool) {
	m, ok := e.Payload.(*Milestone)
	return m, ok
}

// Future reports whether the event is a speculative milestone.
func (e *Event) Future() bool {
	m, ok := e.Milestone()
	return ok && m.Future
}

// Clone returns a copy that shares nothing mutable with e.
func (e *Event) Clone() Event {
	c := *e
	c.Tags = slices.Clone(e.Tags)
	if e.At != nil {
		at := *e.At
		c.At = &at
	}
	if m, ok := e.Milestone(); ok {
		mc := *m
		c.Payload = &mc
	}
	return c
}

func tagSet(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := slices.Clone(tags)
	slices.Sort(out)
	return slices.Compact(out)
}

// Descriptor is a lifecycle event buffered by a builder before the record
// is materialized. It lacks correlation context until Enrich is called.
type Descriptor struct {
	Type    Type
	At      time.Time
	Payload Payload
}

// Enrich turns the descriptor into an emit-ready event.
func (d Descriptor) Enrich(ctx Context, tags ...string) *Event {
	var at *time.Time
	if !d.At.IsZero() {
		t := d.At
		at = &t
	}
	return New(d.Type, ctx, d.Payload, at, tags...)
}
