package milestone_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/milestone"
	"github.com/xraph/invoicer/party"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	t      *testing.T
	bus    *bus.Bus
	log    *event.Log
	engine *milestone.Engine
	acct   id.AccountID
	client id.ClientID
}

func newFixture(t *testing.T, dir milestone.Directory, opts ...milestone.Option) *fixture {
	t.Helper()
	b := bus.New()
	log := event.NewLog()
	b.Subscribe(event.Wildcard, log.Handle)
	eng := milestone.NewEngine(b, log, dir, opts...)
	t.Cleanup(eng.Close)
	return &fixture{t: t, bus: b, log: log, engine: eng, acct: id.NewAccountID(), client: id.NewClientID()}
}

func (f *fixture) emit(typ event.Type, ctx event.Context, p event.Payload, at time.Time) {
	f.t.Helper()
	require.NoError(f.t, f.bus.Emit(context.Background(), event.New(typ, ctx, p, &at)))
}

func (f *fixture) sent(inv id.InvoiceID, client id.ClientID, total float64, at time.Time) {
	f.t.Helper()
	f.emit(event.InvoiceSent, event.Context{AccountID: f.acct, ClientID: client, InvoiceID: inv},
		event.Sent{Total: total, DueDate: at.AddDate(0, 0, 30)}, at)
}

func (f *fixture) paid(inv id.InvoiceID, client id.ClientID, total float64, since, at time.Time) {
	f.t.Helper()
	f.emit(event.InvoicePaid, event.Context{AccountID: f.acct, ClientID: client, InvoiceID: inv},
		event.Payment{Amount: total, Total: total, Since: since}, at)
}

func (f *fixture) closed(inv id.InvoiceID, client id.ClientID) {
	f.t.Helper()
	f.emit(event.InvoiceClosed, event.Context{AccountID: f.acct, ClientID: client, InvoiceID: inv},
		event.Closed{}, base)
}

func (f *fixture) accepted(since, at time.Time) {
	f.t.Helper()
	f.emit(event.QuoteAccepted, event.Context{AccountID: f.acct, ClientID: f.client, QuoteID: id.NewQuoteID()},
		event.Accepted{Since: since, Total: 100}, at)
}

// confirmed returns the confirmed milestones of typ.
func (f *fixture) confirmed(typ event.Type) []*event.Milestone {
	var out []*event.Milestone
	for _, e := range f.log.ForAccount(f.acct) {
		if e.Type != typ || e.Future() {
			continue
		}
		m, _ := e.Milestone()
		out = append(out, m)
	}
	return out
}

func (f *fixture) futures(typ event.Type) []*event.Milestone {
	var out []*event.Milestone
	for _, e := range f.log.Speculative(f.acct, typ) {
		m, _ := e.Milestone()
		out = append(out, m)
	}
	return out
}

func thresholds(ms []*event.Milestone) []float64 {
	out := make([]float64, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Threshold)
	}
	return out
}

type directory struct {
	accounts map[string]*party.Account
	clients  map[string]*party.Client
}

func (d *directory) GetAccount(_ context.Context, accountID id.AccountID) (*party.Account, error) {
	if a, ok := d.accounts[accountID.String()]; ok {
		return a, nil
	}
	return nil, errors.New("account not found")
}

func (d *directory) GetClient(_ context.Context, clientID id.ClientID) (*party.Client, error) {
	if c, ok := d.clients[clientID.String()]; ok {
		return c, nil
	}
	return nil, errors.New("client not found")
}

// ──────────────────────────────────────────────────
// Best-of-N trackers
// ──────────────────────────────────────────────────

func TestFastestAcceptedQuote(t *testing.T) {
	f := newFixture(t, nil)
	day := 24 * time.Hour

	f.accepted(base, base.Add(10*day))
	assert.Empty(t, f.confirmed(event.MilestoneFastestAcceptedQuote), "first acceptance is the baseline")

	f.accepted(base, base.Add(2*day))
	f.accepted(base, base.Add(5*day))
	f.accepted(base, base.Add(2*day))

	got := f.confirmed(event.MilestoneFastestAcceptedQuote)
	require.Len(t, got, 1, "slower and tied acceptances emit nothing")
	assert.Equal(t, (2 * day).Seconds(), got[0].Value)
	assert.True(t, got[0].Best)

	f.accepted(base, base.Add(day))
	got = f.confirmed(event.MilestoneFastestAcceptedQuote)
	require.Len(t, got, 2)
	assert.False(t, got[0].Best, "earlier record demoted")
	assert.True(t, got[1].Best)
	assert.Equal(t, day.Seconds(), got[1].Value)
}

func TestFastestPaidInvoice(t *testing.T) {
	f := newFixture(t, nil)

	f.paid(id.NewInvoiceID(), f.client, 100, base, base.Add(48*time.Hour))
	f.paid(id.NewInvoiceID(), f.client, 100, base, base.Add(72*time.Hour))
	assert.Empty(t, f.confirmed(event.MilestoneFastestPaidInvoice))

	inv := id.NewInvoiceID()
	f.paid(inv, f.client, 100, base, base.Add(time.Hour))
	got := f.confirmed(event.MilestoneFastestPaidInvoice)
	require.Len(t, got, 1)
	assert.Equal(t, 3600.0, got[0].Value)
	assert.Equal(t, inv, got[0].RecordID)
}

func TestMostExpensiveInvoice(t *testing.T) {
	f := newFixture(t, nil)
	inv1, inv2, inv3, inv4 := id.NewInvoiceID(), id.NewInvoiceID(), id.NewInvoiceID(), id.NewInvoiceID()

	f.sent(inv1, f.client, 1000, base)
	f.sent(inv2, f.client, 500, base)
	assert.Empty(t, f.futures(event.MilestoneMostExpensiveInvoice))

	f.sent(inv3, f.client, 2000, base)
	f.sent(inv4, f.client, 3000, base)

	pending := f.futures(event.MilestoneMostExpensiveInvoice)
	require.Len(t, pending, 2)
	assert.Equal(t, inv3, pending[0].RecordID)
	assert.False(t, pending[0].Best)
	assert.Equal(t, inv4, pending[1].RecordID)
	assert.True(t, pending[1].Best)
	assert.Equal(t, 3000.0, pending[1].Value)

	// The paid stream ranks independently.
	f.paid(inv1, f.client, 1000, time.Time{}, base)
	assert.Empty(t, f.confirmed(event.MilestoneMostExpensiveInvoice))
	f.paid(inv3, f.client, 2000, time.Time{}, base)

	paid := f.confirmed(event.MilestoneMostExpensiveInvoice)
	require.Len(t, paid, 1)
	assert.Equal(t, 2000.0, paid[0].Value)
	assert.True(t, paid[0].Best)
	assert.True(t, f.futures(event.MilestoneMostExpensiveInvoice)[1].Best, "pending stream untouched")
}

// ──────────────────────────────────────────────────
// Threshold trackers
// ──────────────────────────────────────────────────

func TestInvoiceCountPredictsConfirmsAndRetracts(t *testing.T) {
	f := newFixture(t, nil, milestone.WithThresholds(event.MilestoneInvoiceCount, 5, 1))
	typ := event.MilestoneInvoiceCount

	invs := make([]id.InvoiceID, 6)
	for i := range invs {
		invs[i] = id.NewInvoiceID()
	}

	f.sent(invs[0], f.client, 100, base)
	require.Equal(t, []float64{1}, thresholds(f.futures(typ)))

	f.sent(invs[0], f.client, 100, base)
	for _, inv := range invs[1:5] {
		f.sent(inv, f.client, 100, base)
	}
	assert.Equal(t, []float64{1, 5}, thresholds(f.futures(typ)))

	for _, e := range f.log.Speculative(f.acct, typ) {
		assert.True(t, e.HasTag(event.TagMilestone))
		assert.True(t, e.HasTag(event.TagFuture))
	}

	f.paid(invs[0], f.client, 100, base, base)
	confirmed := f.confirmed(typ)
	require.Len(t, confirmed, 1)
	assert.Equal(t, 1.0, confirmed[0].Threshold)
	assert.Equal(t, invs[0], confirmed[0].RecordID)
	assert.Equal(t, []float64{5}, thresholds(f.futures(typ)), "reached prediction retracted")

	f.closed(invs[1], f.client)
	assert.Empty(t, f.futures(typ), "five is no longer reachable")

	f.sent(invs[5], f.client, 100, base)
	assert.Equal(t, []float64{5}, thresholds(f.futures(typ)), "threshold predictable again")
	assert.Len(t, f.confirmed(typ), 1)
}

func TestPaidDraftIsNotPredictedAgain(t *testing.T) {
	f := newFixture(t, nil, milestone.WithThresholds(event.MilestoneInvoiceCount, 1))
	typ := event.MilestoneInvoiceCount

	f.paid(id.NewInvoiceID(), f.client, 100, base, base)
	require.Len(t, f.confirmed(typ), 1)

	f.sent(id.NewInvoiceID(), f.client, 100, base)
	assert.Empty(t, f.futures(typ))
}

func TestRevenueReportsOnlyLargestCrossedThreshold(t *testing.T) {
	f := newFixture(t, nil, milestone.WithThresholds(event.MilestoneRevenue, 100, 1000, 10000))
	typ := event.MilestoneRevenue
	inv := id.NewInvoiceID()

	f.sent(inv, f.client, 5000, base)
	futures := f.futures(typ)
	require.Len(t, futures, 1)
	assert.Equal(t, 1000.0, futures[0].Threshold)
	assert.Equal(t, 5000.0, futures[0].Value)

	f.paid(inv, f.client, 5000, base, base)
	assert.Empty(t, f.futures(typ))
	confirmed := f.confirmed(typ)
	require.Len(t, confirmed, 1)
	assert.Equal(t, 1000.0, confirmed[0].Threshold)

	f.paid(inv, f.client, 5000, base, base)
	assert.Len(t, f.confirmed(typ), 1, "duplicate payment ignored")
}

func TestClosingRestoresOnlyEmittedForecasts(t *testing.T) {
	f := newFixture(t, nil, milestone.WithThresholds(event.MilestoneRevenue, 100, 1000))
	typ := event.MilestoneRevenue

	big := id.NewInvoiceID()
	f.sent(big, f.client, 5000, base)
	require.Equal(t, []float64{1000}, thresholds(f.futures(typ)), "100 is skipped")

	f.closed(big, f.client)
	assert.Empty(t, f.futures(typ))

	f.sent(id.NewInvoiceID(), f.client, 150, base)
	assert.Empty(t, f.futures(typ), "skipped threshold stays consumed")

	f.sent(id.NewInvoiceID(), f.client, 2000, base)
	assert.Equal(t, []float64{1000}, thresholds(f.futures(typ)), "retracted threshold is forecast again")
}

func TestClientCountCountsDistinctClients(t *testing.T) {
	f := newFixture(t, nil, milestone.WithThresholds(event.MilestoneClientCount, 2))
	typ := event.MilestoneClientCount

	f.sent(id.NewInvoiceID(), f.client, 100, base)
	f.sent(id.NewInvoiceID(), f.client, 100, base)
	assert.Empty(t, f.futures(typ))

	f.sent(id.NewInvoiceID(), id.NewClientID(), 100, base)
	assert.Equal(t, []float64{2}, thresholds(f.futures(typ)))
}

func TestInternationalClientCount(t *testing.T) {
	local, abroad := id.NewClientID(), id.NewClientID()
	dir := &directory{
		accounts: map[string]*party.Account{},
		clients: map[string]*party.Client{
			local.String():  {ID: local, Name: "Local", Country: "NL"},
			abroad.String(): {ID: abroad, Name: "Abroad", Country: "de"},
		},
	}
	f := newFixture(t, dir, milestone.WithThresholds(event.MilestoneInternationalClientCount, 1))
	dir.accounts[f.acct.String()] = &party.Account{ID: f.acct, Name: "Acme", Country: "nl"}
	typ := event.MilestoneInternationalClientCount

	f.sent(id.NewInvoiceID(), local, 100, base)
	assert.Empty(t, f.futures(typ))

	inv := id.NewInvoiceID()
	f.sent(inv, abroad, 100, base)
	assert.Equal(t, []float64{1}, thresholds(f.futures(typ)))

	f.paid(inv, abroad, 100, base, base)
	assert.Empty(t, f.futures(typ))
	assert.Len(t, f.confirmed(typ), 1)
}

func TestInternationalWithoutDirectory(t *testing.T) {
	f := newFixture(t, nil, milestone.WithThresholds(event.MilestoneInternationalClientCount, 1))
	f.sent(id.NewInvoiceID(), f.client, 100, base)
	assert.Empty(t, f.futures(event.MilestoneInternationalClientCount))
}

// ──────────────────────────────────────────────────
// Anniversary
// ──────────────────────────────────────────────────

func TestAnniversary(t *testing.T) {
	f := newFixture(t, nil)
	typ := event.MilestoneAnniversary

	f.sent(id.NewInvoiceID(), f.client, 100, base)
	f.sent(id.NewInvoiceID(), f.client, 100, base.AddDate(1, 0, -1))
	assert.Empty(t, f.confirmed(typ))

	f.sent(id.NewInvoiceID(), f.client, 100, base.AddDate(1, 0, 0))
	f.sent(id.NewInvoiceID(), f.client, 100, base.AddDate(1, 3, 0))
	got := f.confirmed(typ)
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, got[0].Value)

	f.sent(id.NewInvoiceID(), f.client, 100, base.AddDate(4, 0, 4))
	got = f.confirmed(typ)
	require.Len(t, got, 2, "one anniversary per sent invoice")
	assert.Equal(t, 2.0, got[1].Value)
}

func TestAccountsAreIndependent(t *testing.T) {
	f := newFixture(t, nil, milestone.WithThresholds(event.MilestoneInvoiceCount, 1))
	other := &fixture{t: t, bus: f.bus, log: f.log, acct: id.NewAccountID(), client: id.NewClientID()}

	f.sent(id.NewInvoiceID(), f.client, 100, base)
	other.sent(id.NewInvoiceID(), other.client, 100, base)

	assert.Len(t, f.futures(event.MilestoneInvoiceCount), 1)
	assert.Len(t, other.futures(event.MilestoneInvoiceCount), 1)
}

func TestCloseUnsubscribes(t *testing.T) {
	b := bus.New()
	eng := milestone.NewEngine(b, nil, nil, milestone.WithThresholds(event.MilestoneInvoiceCount, 1))
	require.NotNil(t, eng.Log())
	assert.Positive(t, b.SubscriberCount())

	eng.Close()
	assert.Zero(t, b.SubscriberCount())
}
