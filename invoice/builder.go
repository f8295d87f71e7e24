package invoice

import (
	"context"
	"slices"
	"time"

	"github.com/xraph/invoicer/builder"
	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/internal/validate"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/quote"
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/types"
)

const kind = "invoice"

var reasons = map[Status]string{
	StatusDraft:         "that is still a draft",
	StatusSent:          "that is already sent",
	StatusPartiallyPaid: "that is partially paid",
	StatusPaid:          "that is already paid",
	StatusOverdue:       "that is overdue",
	StatusClosed:        "that is already closed",
}

// Builder mutates an invoice draft and drives its lifecycle. Every guard
// reads the status computed at the builder clock's current time.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	bus  *bus.Bus
	opts builder.Options

	inv     Invoice
	status  Status
	buffer  []event.Descriptor
	history []event.Event
}

// NewBuilder opens a new draft issued today. A nil bus means bus.Default().
func NewBuilder(b *bus.Bus, opts ...builder.Option) *Builder {
	o := builder.Resolve(opts)
	now := o.Now()

	ib := &Builder{bus: builder.Bus(b), opts: o, status: StatusDraft}
	ib.inv.ID = id.NewInvoiceID()
	ib.inv.Entity = types.NewEntityAt(now)
	ib.inv.IssueDate = day(now)
	ib.buffer = []event.Descriptor{{Type: event.InvoiceDrafted, At: now, Payload: event.Drafted{}}}
	return ib
}

// FromQuote opens a draft from an accepted quote, copying its content.
// Attachments are copied unless builder.WithoutAttachments is given.
func FromQuote(q *quote.Quote, b *bus.Bus, opts ...builder.Option) (*Builder, error) {
	if s := q.Status(); s != quote.StatusAccepted {
		return nil, errs.Guard("quote", "invoice", string(s), "that is not accepted", errs.ErrQuoteNotAccepted)
	}

	ib := NewBuilder(b, opts...)
	ib.inv.QuoteID = q.ID
	ib.inv.Quote = q
	ib.inv.AccountID = q.AccountID
	ib.inv.ClientID = q.ClientID
	ib.inv.Currency = q.Currency
	ib.inv.Note = q.Note
	ib.inv.Items = lineitem.Clone(q.Items)
	ib.inv.Discounts = discount.Clone(q.Discounts)
	if ib.opts.Attachments {
		ib.inv.Attachments = slices.Clone(q.Attachments)
	}
	ib.buffer[0].Payload = event.Drafted{From: "quote", SourceID: q.ID}
	return ib, nil
}

// Edit reopens a built invoice, e.g. to record a payment days after it was
// sent. The new builder starts with an empty event buffer.
func Edit(inv *Invoice, b *bus.Bus, opts ...builder.Option) *Builder {
	ib := &Builder{bus: builder.Bus(b), opts: builder.Resolve(opts), status: inv.status}
	ib.inv = *inv
	ib.inv.Items = lineitem.Clone(inv.Items)
	ib.inv.Discounts = discount.Clone(inv.Discounts)
	ib.inv.Attachments = slices.Clone(inv.Attachments)
	ib.inv.Payments = slices.Clone(inv.Payments)
	ib.inv.Events = nil
	ib.history = slices.Clone(inv.Events)
	return ib
}

// ID returns the id the invoice will be built with.
func (b *Builder) ID() id.InvoiceID { return b.inv.ID }

// Status returns the status computed at the builder clock's current time.
func (b *Builder) Status() Status {
	return computeStatus(b.status, b.opts.Now(), b.due())
}

func (b *Builder) due() time.Time {
	if !b.inv.DueDate.IsZero() {
		return b.inv.DueDate
	}
	return b.opts.Terms.Due(record.KindInvoice, b.inv.IssueDate)
}

func (b *Builder) mutable() error {
	if s := b.Status(); s != StatusDraft {
		return errs.Guard(kind, "edit", string(s), reasons[s], errs.ErrNotDraft)
	}
	return nil
}

// ──────────────────────────────────────────────────
// Draft setters
// ──────────────────────────────────────────────────

// SetNumber sets the invoice number.
func (b *Builder) SetNumber(n string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.Number = n
	return nil
}

// SetAccount sets the issuing account.
func (b *Builder) SetAccount(a id.AccountID) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.AccountID = a
	return nil
}

// SetClient sets the billed client.
func (b *Builder) SetClient(c id.ClientID) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.ClientID = c
	return nil
}

// SetCurrency sets the ISO currency code used when formatting amounts.
func (b *Builder) SetCurrency(c string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.Currency = c
	return nil
}

// SetNote sets the free-form note.
func (b *Builder) SetNote(n string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.Note = n
	return nil
}

// SetIssueDate sets the issue date.
func (b *Builder) SetIssueDate(t time.Time) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.IssueDate = t
	return nil
}

// SetDueDate overrides the due date derived from terms.
func (b *Builder) SetDueDate(t time.Time) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.DueDate = t
	return nil
}

// SetItems replaces the items.
func (b *Builder) SetItems(items ...lineitem.Item) error {
	return b.setContent(items, b.inv.Discounts)
}

// AddItem appends an item.
func (b *Builder) AddItem(item lineitem.Item) error {
	return b.setContent(append(lineitem.Clone(b.inv.Items), item), b.inv.Discounts)
}

// SetDiscounts replaces the document discounts.
func (b *Builder) SetDiscounts(ds ...discount.Discount) error {
	return b.setContent(b.inv.Items, ds)
}

// AddDiscount appends a document discount.
func (b *Builder) AddDiscount(d discount.Discount) error {
	return b.setContent(b.inv.Items, append(discount.Clone(b.inv.Discounts), d))
}

func (b *Builder) setContent(items []lineitem.Item, ds []discount.Discount) error {
	if err := b.mutable(); err != nil {
		return err
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	if err := discount.ValidateAll(ds); err != nil {
		return err
	}
	if err := lineitem.CheckTaxRates(items, ds); err != nil {
		return errs.Guard(kind, "edit", string(StatusDraft), "with discounts and mixed tax rates", err)
	}
	b.inv.Items = lineitem.Clone(items)
	b.inv.Discounts = discount.Clone(ds)
	return nil
}

// SetAttachments replaces the attachments.
func (b *Builder) SetAttachments(refs ...string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.Attachments = slices.Clone(refs)
	return nil
}

// AddAttachment appends an attachment reference.
func (b *Builder) AddAttachment(ref string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.inv.Attachments = append(b.inv.Attachments, ref)
	return nil
}

// ──────────────────────────────────────────────────
// Transitions
// ──────────────────────────────────────────────────

// Send marks the invoice as sent to the client.
func (b *Builder) Send(at time.Time) error {
	if s := b.Status(); s != StatusDraft {
		return errs.Guard(kind, "send", string(s), reasons[s], errs.ErrInvalidTransition)
	}
	b.status = StatusSent
	b.inv.SentAt = &at
	b.buffer = append(b.buffer, event.Descriptor{
		Type:    event.InvoiceSent,
		At:      at,
		Payload: event.Sent{Total: b.total(), DueDate: b.due()},
	})
	return nil
}

// Pay settles the full outstanding amount.
func (b *Builder) Pay(at time.Time) error {
	if err := b.payable(); err != nil {
		return err
	}
	return b.pay(at, b.total()-sumPayments(b.inv.Payments))
}

// PayAmount records a payment of amount. The invoice becomes Paid once
// nothing remains outstanding; overpayment is reported, not rejected.
func (b *Builder) PayAmount(at time.Time, amount float64) error {
	if err := b.payable(); err != nil {
		return err
	}
	if amount <= 0 {
		return errs.Guard(kind, "pay", string(b.Status()), "with a non-positive amount", errs.ErrInvalidAmount)
	}
	return b.pay(at, amount)
}

func (b *Builder) payable() error {
	switch s := b.Status(); s {
	case StatusDraft, StatusSent, StatusPartiallyPaid:
		return nil
	default:
		return errs.Guard(kind, "pay", string(s), reasons[s], errs.ErrInvalidTransition)
	}
}

func (b *Builder) pay(at time.Time, amount float64) error {
	total := b.total()
	remaining := total - sumPayments(b.inv.Payments) - amount

	since := b.inv.IssueDate
	if b.inv.SentAt != nil {
		since = *b.inv.SentAt
	}
	payload := event.Payment{Amount: amount, Outstanding: remaining, Total: total, Since: since}

	b.inv.Payments = append(b.inv.Payments, Payment{At: at, Amount: amount})
	if remaining > 0 {
		b.status = StatusPartiallyPaid
		b.buffer = append(b.buffer, event.Descriptor{Type: event.InvoicePartiallyPaid, At: at, Payload: payload})
		return nil
	}
	b.status = StatusPaid
	b.inv.PaidAt = &at
	b.buffer = append(b.buffer, event.Descriptor{Type: event.InvoicePaid, At: at, Payload: payload})
	return nil
}

// Close writes off an overdue invoice. An invoice whose due date has passed
// is first promoted to Overdue.
func (b *Builder) Close(at time.Time) error {
	s := b.Status()
	if s == StatusOverdue {
		b.promote()
	}
	if s != StatusOverdue {
		reason := reasons[s]
		if s == StatusSent || s == StatusPartiallyPaid {
			reason = "that is not overdue"
		}
		return errs.Guard(kind, "close", string(s), reason, errs.ErrInvalidTransition)
	}
	b.status = StatusClosed
	b.inv.ClosedAt = &at
	b.buffer = append(b.buffer, event.Descriptor{Type: event.InvoiceClosed, At: at, Payload: event.Closed{}})
	return nil
}

// promote stores Overdue and buffers its event unless one was already recorded.
func (b *Builder) promote() {
	b.status = StatusOverdue
	if builder.Has(b.history, b.buffer, event.InvoiceOverdue) {
		return
	}
	due := b.due()
	b.buffer = append(b.buffer, event.Descriptor{
		Type:    event.InvoiceOverdue,
		At:      due,
		Payload: event.Overdue{DueDate: due, Outstanding: b.total() - sumPayments(b.inv.Payments)},
	})
}

func (b *Builder) total() float64 {
	return (&Invoice{Items: b.inv.Items, Discounts: b.inv.Discounts}).Total()
}

// ──────────────────────────────────────────────────
// Build
// ──────────────────────────────────────────────────

// Build validates the draft, emits every event buffered since the previous
// build and returns a snapshot. It can be called repeatedly.
func (b *Builder) Build(ctx context.Context) (*Invoice, error) {
	now := b.opts.Now()

	if b.inv.Number == "" && !b.inv.IssueDate.IsZero() {
		b.inv.Number = b.opts.Numbering.Next(record.KindInvoice, b.inv.IssueDate)
	}

	inv := b.inv
	inv.DueDate = b.due()
	inv.Items = lineitem.Clone(b.inv.Items)
	inv.Discounts = discount.Clone(b.inv.Discounts)
	inv.Attachments = slices.Clone(b.inv.Attachments)
	inv.Payments = slices.Clone(b.inv.Payments)
	if err := validate.Struct(&inv); err != nil {
		return nil, err
	}

	if computeStatus(b.status, now, inv.DueDate) == StatusOverdue {
		b.promote()
	}

	ectx := event.Context{AccountID: inv.AccountID, ClientID: inv.ClientID, QuoteID: inv.QuoteID, InvoiceID: inv.ID}
	emitted, n, err := builder.Flush(ctx, b.bus, b.buffer, ectx, event.TagInvoice)
	b.history = append(b.history, emitted...)
	b.buffer = slices.Clone(b.buffer[n:])
	if err != nil {
		return nil, err
	}

	b.opts.Logger.Debug("invoice built",
		"invoice_id", inv.ID.String(),
		"status", b.status,
		"events", len(emitted),
	)

	inv.Touch(now)
	b.inv.Entity = inv.Entity
	inv.status = b.status
	inv.clock = b.opts.Clock
	inv.Events = slices.Clone(b.history)
	return &inv, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
