package receipt_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/invoicer/builder"
	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/receipt"
)

func sentInvoice(t *testing.T, b *bus.Bus, now func() time.Time) *invoice.Builder {
	t.Helper()
	ib := invoice.NewBuilder(b, builder.WithClock(now))
	require.NoError(t, ib.SetAccount(id.NewAccountID()))
	require.NoError(t, ib.SetClient(id.NewClientID()))
	require.NoError(t, ib.SetCurrency("eur"))
	require.NoError(t, ib.AddItem(lineitem.Item{UnitPrice: 4200, Quantity: 1}))
	require.NoError(t, ib.Send(now()))
	return ib
}

func TestFromInvoiceRequiresPaid(t *testing.T) {
	b := bus.New()
	ib := sentInvoice(t, b, time.Now)
	inv, err := ib.Build(context.Background())
	require.NoError(t, err)

	_, err = receipt.FromInvoice(inv, b)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrInvoiceNotPaid)
	assert.Equal(t, "invoicer: cannot issue a receipt for an invoice that is not paid", err.Error())
}

func TestFromPaidInvoice(t *testing.T) {
	b := bus.New()
	log := event.NewLog()
	b.Subscribe(event.Wildcard, log.Handle)
	now := time.Date(2025, 9, 9, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	ib := sentInvoice(t, b, clock)
	require.NoError(t, ib.Pay(now))
	inv, err := ib.Build(context.Background())
	require.NoError(t, err)

	rb, err := receipt.FromInvoice(inv, b, builder.WithClock(clock))
	require.NoError(t, err)
	r, err := rb.Build(context.Background())
	require.NoError(t, err)

	assert.Same(t, inv, r.Invoice)
	assert.Equal(t, 4200.0, r.Amount)
	assert.Equal(t, "€42.00", r.AmountPaid().String())
	assert.Equal(t, now, r.ReceiptDate)
	assert.NotEmpty(t, r.Number)
	require.Len(t, r.Events, 1)
	assert.Equal(t, event.ReceiptCreated, r.Events[0].Type)
	assert.Equal(t, r.ID, r.Events[0].Context.ReceiptID)

	_, err = rb.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, log.Len(), "drafted, sent, paid, receipt created")
	assert.ErrorIs(t, rb.SetNote("x"), errs.ErrNotDraft)
}
