package receipt

import (
	"context"
	"slices"

	"github.com/xraph/invoicer/builder"
	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/internal/validate"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/types"
)

// Builder prepares a receipt for a paid invoice.
type Builder struct {
	bus  *bus.Bus
	opts builder.Options

	r       Receipt
	issued  bool
	buffer  []event.Descriptor
	history []event.Event
}

// FromInvoice opens a receipt for inv, which must be Paid.
func FromInvoice(inv *invoice.Invoice, b *bus.Bus, opts ...builder.Option) (*Builder, error) {
	if inv == nil {
		return nil, errs.Guard("invoice", "issue a receipt for", "", "that does not exist", errs.ErrInvalidInput)
	}
	if s := inv.Status(); s != invoice.StatusPaid {
		return nil, errs.Guard("invoice", "issue a receipt for", string(s), "that is not paid", errs.ErrInvoiceNotPaid)
	}

	o := builder.Resolve(opts)
	now := o.Now()
	date := now
	if inv.PaidAt != nil {
		date = *inv.PaidAt
	}

	rb := &Builder{bus: builder.Bus(b), opts: o}
	rb.r = Receipt{
		Entity:      types.NewEntityAt(now),
		ID:          id.NewReceiptID(),
		InvoiceID:   inv.ID,
		Invoice:     inv,
		AccountID:   inv.AccountID,
		ClientID:    inv.ClientID,
		Currency:    inv.Currency,
		Amount:      inv.Paid(),
		ReceiptDate: date,
	}
	rb.buffer = []event.Descriptor{{
		Type:    event.ReceiptCreated,
		At:      now,
		Payload: event.Created{InvoiceID: inv.ID, Total: inv.Paid()},
	}}
	return rb, nil
}

// ID returns the id the receipt will be built with.
func (b *Builder) ID() id.ReceiptID { return b.r.ID }

// SetNumber sets the receipt number.
func (b *Builder) SetNumber(n string) error {
	if b.issued {
		return errs.Guard("receipt", "edit", "issued", "that is already issued", errs.ErrNotDraft)
	}
	b.r.Number = n
	return nil
}

// SetNote sets the free-form note.
func (b *Builder) SetNote(n string) error {
	if b.issued {
		return errs.Guard("receipt", "edit", "issued", "that is already issued", errs.ErrNotDraft)
	}
	b.r.Note = n
	return nil
}

// Build validates the receipt, emits its created event on the first call
// and returns a snapshot.
func (b *Builder) Build(ctx context.Context) (*Receipt, error) {
	now := b.opts.Now()

	if b.r.Number == "" {
		b.r.Number = b.opts.Numbering.Next(record.KindReceipt, b.r.ReceiptDate)
	}

	r := b.r
	if err := validate.Struct(&r); err != nil {
		return nil, err
	}

	ectx := event.Context{
		AccountID: r.AccountID,
		ClientID:  r.ClientID,
		InvoiceID: r.InvoiceID,
		ReceiptID: r.ID,
	}
	emitted, n, err := builder.Flush(ctx, b.bus, b.buffer, ectx, event.TagReceipt)
	b.history = append(b.history, emitted...)
	b.buffer = slices.Clone(b.buffer[n:])
	if err != nil {
		return nil, err
	}
	b.issued = true

	b.opts.Logger.Debug("receipt built",
		"receipt_id", r.ID.String(),
		"invoice_id", r.InvoiceID.String(),
	)

	r.Touch(now)
	r.Events = slices.Clone(b.history)
	return &r, nil
}
