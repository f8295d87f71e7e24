package quote

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
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/types"
)

const kind = "quote"

var reasons = map[Status]string{
	StatusDraft:    "that is still a draft",
	StatusSent:     "that is already sent",
	StatusAccepted: "that is already accepted",
	StatusRejected: "that is already rejected",
	StatusExpired:  "that has expired",
	StatusClosed:   "that is already closed",
}

// Builder mutates a quote draft and drives its lifecycle. Status is never
// trusted from storage alone: every guard reads the status computed at the
// builder clock's current time.
//
// A Builder is not safe for concurrent use.
type Builder struct {
	bus  *bus.Bus
	opts builder.Options

	q       Quote
	status  Status
	buffer  []event.Descriptor
	history []event.Event
}

// NewBuilder opens a new draft dated today. A nil bus means bus.Default().
func NewBuilder(b *bus.Bus, opts ...builder.Option) *Builder {
	o := builder.Resolve(opts)
	now := o.Now()

	qb := &Builder{bus: builder.Bus(b), opts: o, status: StatusDraft}
	qb.q.ID = id.NewQuoteID()
	qb.q.Entity = types.NewEntityAt(now)
	qb.q.QuoteDate = day(now)
	qb.buffer = []event.Descriptor{{Type: event.QuoteDrafted, At: now, Payload: event.Drafted{}}}
	return qb
}

// Edit reopens a built quote for later lifecycle steps. The new builder
// starts with an empty event buffer.
func Edit(q *Quote, b *bus.Bus, opts ...builder.Option) *Builder {
	qb := &Builder{bus: builder.Bus(b), opts: builder.Resolve(opts), status: q.status}
	qb.q = *q
	qb.q.Items = lineitem.Clone(q.Items)
	qb.q.Discounts = discount.Clone(q.Discounts)
	qb.q.Attachments = slices.Clone(q.Attachments)
	qb.q.Events = nil
	qb.history = slices.Clone(q.Events)
	return qb
}

// Derive opens a new draft from an expired or rejected quote, copying its
// content and recording it as the parent.
func Derive(parent *Quote, b *bus.Bus, opts ...builder.Option) (*Builder, error) {
	s := parent.Status()
	if s != StatusExpired && s != StatusRejected {
		return nil, errs.Guard(kind, "derive from", string(s), reasons[s], errs.ErrQuoteNotDerivable)
	}

	qb := NewBuilder(b, opts...)
	qb.q.ParentID = parent.ID
	qb.q.AccountID = parent.AccountID
	qb.q.ClientID = parent.ClientID
	qb.q.Currency = parent.Currency
	qb.q.Note = parent.Note
	qb.q.Items = lineitem.Clone(parent.Items)
	qb.q.Discounts = discount.Clone(parent.Discounts)
	if qb.opts.Attachments {
		qb.q.Attachments = slices.Clone(parent.Attachments)
	}
	qb.buffer[0].Payload = event.Drafted{From: kind, SourceID: parent.ID}
	return qb, nil
}

// ID returns the id the quote will be built with.
func (b *Builder) ID() id.QuoteID { return b.q.ID }

// Status returns the status computed at the builder clock's current time.
func (b *Builder) Status() Status {
	return computeStatus(b.status, b.opts.Now(), b.expiration())
}

func (b *Builder) expiration() time.Time {
	if !b.q.ExpirationDate.IsZero() {
		return b.q.ExpirationDate
	}
	return b.opts.Terms.Due(record.KindQuote, b.q.QuoteDate)
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

// SetNumber sets the quote number.
func (b *Builder) SetNumber(n string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.Number = n
	return nil
}

// SetAccount sets the issuing account.
func (b *Builder) SetAccount(a id.AccountID) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.AccountID = a
	return nil
}

// SetClient sets the client.
func (b *Builder) SetClient(c id.ClientID) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.ClientID = c
	return nil
}

// SetCurrency sets the ISO currency code used when formatting amounts.
func (b *Builder) SetCurrency(c string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.Currency = c
	return nil
}

// SetNote sets the free-form note.
func (b *Builder) SetNote(n string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.Note = n
	return nil
}

// SetQuoteDate sets the quote date.
func (b *Builder) SetQuoteDate(t time.Time) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.QuoteDate = t
	return nil
}

// SetExpirationDate overrides the expiration date derived from terms.
func (b *Builder) SetExpirationDate(t time.Time) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.ExpirationDate = t
	return nil
}

// SetItems replaces the items.
func (b *Builder) SetItems(items ...lineitem.Item) error {
	return b.setContent(items, b.q.Discounts)
}

// AddItem appends an item.
func (b *Builder) AddItem(item lineitem.Item) error {
	return b.setContent(append(lineitem.Clone(b.q.Items), item), b.q.Discounts)
}

// SetDiscounts replaces the document discounts.
func (b *Builder) SetDiscounts(ds ...discount.Discount) error {
	return b.setContent(b.q.Items, ds)
}

// AddDiscount appends a document discount.
func (b *Builder) AddDiscount(d discount.Discount) error {
	return b.setContent(b.q.Items, append(discount.Clone(b.q.Discounts), d))
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
	b.q.Items = lineitem.Clone(items)
	b.q.Discounts = discount.Clone(ds)
	return nil
}

// SetAttachments replaces the attachments.
func (b *Builder) SetAttachments(refs ...string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.Attachments = slices.Clone(refs)
	return nil
}

// AddAttachment appends an attachment reference.
func (b *Builder) AddAttachment(ref string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.q.Attachments = append(b.q.Attachments, ref)
	return nil
}

// ──────────────────────────────────────────────────
// Transitions
// ──────────────────────────────────────────────────

// Send marks the quote as sent to the client.
func (b *Builder) Send(at time.Time) error {
	if s := b.Status(); s != StatusDraft {
		return errs.Guard(kind, "send", string(s), reasons[s], errs.ErrInvalidTransition)
	}
	b.status = StatusSent
	b.q.SentAt = &at
	b.buffer = append(b.buffer, event.Descriptor{
		Type:    event.QuoteSent,
		At:      at,
		Payload: event.Sent{Total: b.total(), DueDate: b.expiration()},
	})
	return nil
}

// Accept records the client's acceptance.
func (b *Builder) Accept(at time.Time) error {
	s := b.Status()
	if s != StatusDraft && s != StatusSent {
		return errs.Guard(kind, "accept", string(s), reasons[s], errs.ErrInvalidTransition)
	}
	since := b.q.QuoteDate
	if b.q.SentAt != nil {
		since = *b.q.SentAt
	}
	b.status = StatusAccepted
	b.q.AcceptedAt = &at
	b.buffer = append(b.buffer, event.Descriptor{
		Type:    event.QuoteAccepted,
		At:      at,
		Payload: event.Accepted{Since: since, Total: b.total()},
	})
	return nil
}

// Reject records the client's rejection.
func (b *Builder) Reject(at time.Time, reason string) error {
	s := b.Status()
	if s != StatusDraft && s != StatusSent {
		return errs.Guard(kind, "reject", string(s), reasons[s], errs.ErrInvalidTransition)
	}
	b.status = StatusRejected
	b.q.RejectedAt = &at
	b.buffer = append(b.buffer, event.Descriptor{
		Type:    event.QuoteRejected,
		At:      at,
		Payload: event.Rejected{Reason: reason},
	})
	return nil
}

// Close closes an expired quote. A quote whose expiration date has passed
// is first promoted to Expired.
func (b *Builder) Close(at time.Time) error {
	s := b.Status()
	if s == StatusExpired {
		b.promote()
	}
	if s != StatusExpired {
		reason := reasons[s]
		if s == StatusDraft || s == StatusSent {
			reason = "that has not expired"
		}
		return errs.Guard(kind, "close", string(s), reason, errs.ErrInvalidTransition)
	}
	b.status = StatusClosed
	b.q.ClosedAt = &at
	b.buffer = append(b.buffer, event.Descriptor{Type: event.QuoteClosed, At: at, Payload: event.Closed{}})
	return nil
}

// promote stores Expired and buffers its event unless one was already recorded.
func (b *Builder) promote() {
	b.status = StatusExpired
	if builder.Has(b.history, b.buffer, event.QuoteExpired) {
		return
	}
	exp := b.expiration()
	b.buffer = append(b.buffer, event.Descriptor{
		Type:    event.QuoteExpired,
		At:      exp,
		Payload: event.Expired{ExpirationDate: exp},
	})
}

func (b *Builder) total() float64 {
	return (&Quote{Items: b.q.Items, Discounts: b.q.Discounts}).Total()
}

// ──────────────────────────────────────────────────
// Build
// ──────────────────────────────────────────────────

// Build validates the draft, emits every event buffered since the previous
// build and returns a snapshot. It can be called repeatedly.
func (b *Builder) Build(ctx context.Context) (*Quote, error) {
	now := b.opts.Now()

	if b.q.Number == "" && !b.q.QuoteDate.IsZero() {
		b.q.Number = b.opts.Numbering.Next(record.KindQuote, b.q.QuoteDate)
	}

	q := b.q
	q.ExpirationDate = b.expiration()
	q.Items = lineitem.Clone(b.q.Items)
	q.Discounts = discount.Clone(b.q.Discounts)
	q.Attachments = slices.Clone(b.q.Attachments)
	if err := validate.Struct(&q); err != nil {
		return nil, err
	}

	if computeStatus(b.status, now, q.ExpirationDate) == StatusExpired {
		b.promote()
	}

	ectx := event.Context{AccountID: q.AccountID, ClientID: q.ClientID, QuoteID: q.ID}
	emitted, n, err := builder.Flush(ctx, b.bus, b.buffer, ectx, event.TagQuote)
	b.history = append(b.history, emitted...)
	b.buffer = slices.Clone(b.buffer[n:])
	if err != nil {
		return nil, err
	}

	b.opts.Logger.Debug("quote built",
		"quote_id", q.ID.String(),
		"status", b.status,
		"events", len(emitted),
	)

	q.Touch(now)
	b.q.Entity = q.Entity
	q.status = b.status
	q.clock = b.opts.Clock
	q.Events = slices.Clone(b.history)
	return &q, nil
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
