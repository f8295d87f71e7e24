package creditnote

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/xraph/invoicer/builder"
	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/internal/validate"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/types"
)

// Builder prepares a credit note. Its content may change until the first
// successful Build.
type Builder struct {
	bus  *bus.Bus
	opts builder.Options

	cn      CreditNote
	issued  bool
	buffer  []event.Descriptor
	history []event.Event
}

// FromInvoice opens a credit note for inv. Content is copied from the
// invoice with unit prices and fixed discounts sign-inverted, and the credit
// note is dated on the invoice's paid date.
func FromInvoice(inv *invoice.Invoice, b *bus.Bus, opts ...builder.Option) (*Builder, error) {
	if inv == nil {
		return nil, errors.Join(errs.ErrInvalidInput, errors.New("credit note requires an invoice"))
	}

	o := builder.Resolve(opts)
	now := o.Now()

	cb := &Builder{bus: builder.Bus(b), opts: o}
	cb.cn = CreditNote{
		Entity:    types.NewEntityAt(now),
		ID:        id.NewCreditNoteID(),
		InvoiceID: inv.ID,
		Invoice:   inv,
		AccountID: inv.AccountID,
		ClientID:  inv.ClientID,
		Currency:  inv.Currency,
		Note:      inv.Note,
		Items:     lineitem.Invert(inv.Items),
		Discounts: discount.Invert(inv.Discounts),
	}
	if o.Attachments {
		cb.cn.Attachments = slices.Clone(inv.Attachments)
	}
	if inv.PaidAt != nil {
		cb.cn.CreditNoteDate = *inv.PaidAt
	} else {
		cb.cn.CreditNoteDate = now
	}
	cb.buffer = []event.Descriptor{{
		Type:    event.CreditNoteCreated,
		At:      now,
		Payload: event.Created{InvoiceID: inv.ID},
	}}
	return cb, nil
}

// ID returns the id the credit note will be built with.
func (b *Builder) ID() id.CreditNoteID { return b.cn.ID }

func (b *Builder) mutable() error {
	if b.issued {
		return errs.Guard("credit note", "edit", "issued", "that is already issued", errs.ErrNotDraft)
	}
	return nil
}

// SetNumber sets the credit note number.
func (b *Builder) SetNumber(n string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.cn.Number = n
	return nil
}

// SetNote sets the free-form note.
func (b *Builder) SetNote(n string) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.cn.Note = n
	return nil
}

// SetCreditNoteDate overrides the date copied from the invoice.
func (b *Builder) SetCreditNoteDate(t time.Time) error {
	if err := b.mutable(); err != nil {
		return err
	}
	b.cn.CreditNoteDate = t
	return nil
}

// SetItems replaces the credited items. Amounts are taken as given, so
// callers pass negative unit prices for a credit.
func (b *Builder) SetItems(items ...lineitem.Item) error {
	if err := b.mutable(); err != nil {
		return err
	}
	for _, it := range items {
		if err := it.Validate(); err != nil {
			return err
		}
	}
	if err := lineitem.CheckTaxRates(items, b.cn.Discounts); err != nil {
		return errs.Guard("credit note", "edit", "draft", "with discounts and mixed tax rates", err)
	}
	b.cn.Items = lineitem.Clone(items)
	return nil
}

// Build validates the credit note, emits its created event on the first
// call and returns a snapshot.
func (b *Builder) Build(ctx context.Context) (*CreditNote, error) {
	now := b.opts.Now()

	if b.cn.Number == "" && !b.cn.CreditNoteDate.IsZero() {
		b.cn.Number = b.opts.Numbering.Next(record.KindCreditNote, b.cn.CreditNoteDate)
	}

	cn := b.cn
	cn.Items = lineitem.Clone(b.cn.Items)
	cn.Discounts = discount.Clone(b.cn.Discounts)
	cn.Attachments = slices.Clone(b.cn.Attachments)
	if err := validate.Struct(&cn); err != nil {
		return nil, err
	}

	for i := range b.buffer {
		if p, ok := b.buffer[i].Payload.(event.Created); ok {
			p.Total = cn.Total()
			b.buffer[i].Payload = p
		}
	}

	ectx := event.Context{
		AccountID:    cn.AccountID,
		ClientID:     cn.ClientID,
		InvoiceID:    cn.InvoiceID,
		CreditNoteID: cn.ID,
	}
	emitted, n, err := builder.Flush(ctx, b.bus, b.buffer, ectx, event.TagCreditNote)
	b.history = append(b.history, emitted...)
	b.buffer = slices.Clone(b.buffer[n:])
	if err != nil {
		return nil, err
	}
	b.issued = true

	b.opts.Logger.Debug("credit note built",
		"credit_note_id", cn.ID.String(),
		"invoice_id", cn.InvoiceID.String(),
	)

	cn.Touch(now)
	cn.Events = slices.Clone(b.history)
	return &cn, nil
}
