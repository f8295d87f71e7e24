package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/invoicer/builder"
	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/milestone"
	"github.com/xraph/invoicer/party"
	"github.com/xraph/invoicer/store/memory"
	"github.com/xraph/invoicer/types"
)

var _ milestone.Directory = (*memory.Store)(nil)

func TestParties(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	acct := &party.Account{ID: id.NewAccountID(), Name: "Acme", Country: "NL"}
	require.NoError(t, s.CreateAccount(ctx, acct))
	assert.ErrorIs(t, s.CreateAccount(ctx, acct), errs.ErrAlreadyExists)

	got, err := s.GetAccount(ctx, acct.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = s.GetAccount(ctx, id.NewAccountID())
	assert.True(t, errs.IsNotFound(err))

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, country := range []string{"NL", "DE", "de"} {
		require.NoError(t, s.CreateClient(ctx, &party.Client{
			Entity:    types.NewEntityAt(base.Add(time.Duration(i) * time.Hour)),
			ID:        id.NewClientID(),
			AccountID: acct.ID,
			Name:      country,
			Country:   country,
		}))
	}
	require.NoError(t, s.CreateClient(ctx, &party.Client{ID: id.NewClientID(), AccountID: id.NewAccountID(), Name: "other"}))

	all, err := s.ListClients(ctx, acct.ID, party.ListOpts{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "NL", all[0].Name, "oldest first")

	german, err := s.ListClients(ctx, acct.ID, party.ListOpts{Country: "DE"})
	require.NoError(t, err)
	assert.Len(t, german, 2)

	paged, err := s.ListClients(ctx, acct.ID, party.ListOpts{Offset: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "DE", paged[0].Name)

	_, err = s.GetClient(ctx, id.NewClientID())
	assert.ErrorIs(t, err, errs.ErrClientNotFound)
	assert.ErrorIs(t, s.UpdateClient(ctx, &party.Client{ID: id.NewClientID()}), errs.ErrClientNotFound)
}

func TestInvoiceSnapshots(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	b := bus.New()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	acct, cli := id.NewAccountID(), id.NewClientID()
	ib := invoice.NewBuilder(b, builder.WithClock(clock))
	require.NoError(t, ib.SetAccount(acct))
	require.NoError(t, ib.SetClient(cli))
	require.NoError(t, ib.AddItem(lineitem.Item{UnitPrice: 100, Quantity: 1}))

	draft, err := ib.Build(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveInvoice(ctx, draft))

	require.NoError(t, ib.Send(now))
	sent, err := ib.Build(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveInvoice(ctx, sent))

	got, err := s.GetInvoice(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusSent, got.Status(), "latest snapshot wins")

	list, err := s.ListInvoices(ctx, acct, invoice.ListOpts{Status: invoice.StatusSent})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.ListInvoices(ctx, acct, invoice.ListOpts{Status: invoice.StatusPaid})
	require.NoError(t, err)
	assert.Empty(t, list)

	list, err = s.ListInvoices(ctx, acct, invoice.ListOpts{ClientID: id.NewClientID()})
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = s.GetInvoice(ctx, id.NewInvoiceID())
	assert.ErrorIs(t, err, errs.ErrInvoiceNotFound)

	assert.NoError(t, s.Ping(ctx))
	assert.NoError(t, s.Close())
}
