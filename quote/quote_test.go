package quote_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/invoicer/builder"
	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/quote"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time           { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func setup(t *testing.T) (*bus.Bus, *event.Log, *clock, *quote.Builder) {
	t.Helper()
	b := bus.New()
	log := event.NewLog()
	b.Subscribe(event.Wildcard, log.Handle)

	c := &clock{now: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	qb := quote.NewBuilder(b, builder.WithClock(c.Now))
	require.NoError(t, qb.SetAccount(id.NewAccountID()))
	require.NoError(t, qb.SetClient(id.NewClientID()))
	require.NoError(t, qb.AddItem(lineitem.Item{Description: "design", UnitPrice: 1000, Quantity: 1, TaxRate: 0.21}))
	return b, log, c, qb
}

func types(events []event.Event) []event.Type {
	out := make([]event.Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestBuildDefaults(t *testing.T) {
	_, log, c, qb := setup(t)

	q, err := qb.Build(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, q.Number)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), q.QuoteDate)
	assert.Equal(t, q.QuoteDate.AddDate(0, 0, 30), q.ExpirationDate)
	assert.Equal(t, quote.StatusDraft, q.Status())
	assert.Equal(t, 1210.0, q.Total())
	assert.Equal(t, c.now, q.UpdatedAt)
	assert.Equal(t, []event.Type{event.QuoteDrafted}, types(log.Events()))
	assert.Equal(t, q.ID, log.Events()[0].Context.QuoteID)
}

func TestLifecycleAccept(t *testing.T) {
	_, log, c, qb := setup(t)
	ctx := context.Background()

	sentAt := c.now
	require.NoError(t, qb.Send(sentAt))
	c.Advance(48 * time.Hour)
	require.NoError(t, qb.Accept(c.now))

	q, err := qb.Build(ctx)
	require.NoError(t, err)
	assert.Equal(t, quote.StatusAccepted, q.Status())
	assert.Equal(t, []event.Type{event.QuoteDrafted, event.QuoteSent, event.QuoteAccepted}, types(q.Events))

	accepted := log.Events()[2]
	payload, ok := accepted.Payload.(event.Accepted)
	require.True(t, ok)
	assert.Equal(t, sentAt, payload.Since)
	assert.True(t, accepted.HasTag(event.TagQuote))

	// Rebuilding emits nothing new.
	_, err = qb.Build(ctx)
	require.NoError(t, err)
	assert.Len(t, log.Events(), 3)

	// Accepted is terminal even past expiration.
	c.Advance(90 * 24 * time.Hour)
	assert.Equal(t, quote.StatusAccepted, q.Status())
}

func TestGuards(t *testing.T) {
	_, _, c, qb := setup(t)
	require.NoError(t, qb.Send(c.now))

	err := qb.Send(c.now)
	require.Error(t, err)
	assert.True(t, errs.IsGuard(err))
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Equal(t, "invoicer: cannot send a quote that is already sent", err.Error())

	err = qb.SetNote("late")
	assert.ErrorIs(t, err, errs.ErrNotDraft)

	err = qb.Close(c.now)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.Contains(t, err.Error(), "has not expired")

	require.NoError(t, qb.Reject(c.now, "too expensive"))
	assert.ErrorIs(t, qb.Accept(c.now), errs.ErrInvalidTransition)
}

func TestMixedRatesRejectedWithDiscount(t *testing.T) {
	_, _, _, qb := setup(t)
	require.NoError(t, qb.AddItem(lineitem.Item{UnitPrice: 10, Quantity: 1, TaxRate: 0.09}))

	err := qb.AddDiscount(discount.Percentage(0.1, ""))
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrMixedTaxRates)
	assert.True(t, errs.IsGuard(err))
}

func TestExpiryIsComputedAndSynthesized(t *testing.T) {
	_, log, c, qb := setup(t)
	ctx := context.Background()
	require.NoError(t, qb.Send(c.now))
	q, err := qb.Build(ctx)
	require.NoError(t, err)

	c.Advance(31 * 24 * time.Hour)
	assert.Equal(t, quote.StatusExpired, q.Status(), "status is computed on read")
	assert.ErrorIs(t, qb.Accept(c.now), errs.ErrInvalidTransition)

	require.NoError(t, qb.Close(c.now))
	q, err = qb.Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, quote.StatusClosed, q.Status())
	got := types(log.Events())
	assert.Equal(t, []event.Type{event.QuoteDrafted, event.QuoteSent, event.QuoteExpired, event.QuoteClosed}, got)

	expired := log.Events()[2]
	require.NotNil(t, expired.At)
	assert.Equal(t, q.ExpirationDate, *expired.At)
}

func TestBuildSynthesizesExpiredOnce(t *testing.T) {
	_, log, c, qb := setup(t)
	ctx := context.Background()

	c.Advance(40 * 24 * time.Hour)
	_, err := qb.Build(ctx)
	require.NoError(t, err)
	_, err = qb.Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, []event.Type{event.QuoteDrafted, event.QuoteExpired}, types(log.Events()))
}

func TestValidation(t *testing.T) {
	qb := quote.NewBuilder(bus.New())
	require.NoError(t, qb.SetQuoteDate(time.Time{}))

	_, err := qb.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errs.IsValidation(err))
	assert.False(t, errs.IsGuard(err))

	var list errs.ValidationErrors
	require.ErrorAs(t, err, &list)
	for _, f := range []string{"number", "account_id", "client_id", "quote_date"} {
		_, ok := list.Field(f)
		assert.True(t, ok, f)
	}
}

func TestDerive(t *testing.T) {
	b, log, c, qb := setup(t)
	ctx := context.Background()
	require.NoError(t, qb.AddAttachment("brief.pdf"))
	require.NoError(t, qb.Reject(c.now, "scope"))
	parent, err := qb.Build(ctx)
	require.NoError(t, err)

	child, err := quote.Derive(parent, b, builder.WithClock(c.Now), builder.WithoutAttachments())
	require.NoError(t, err)
	q, err := child.Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, parent.ID, q.ParentID)
	assert.NotEqual(t, parent.ID, q.ID)
	assert.Equal(t, parent.Items, q.Items)
	assert.Empty(t, q.Attachments)
	assert.Equal(t, quote.StatusDraft, q.Status())

	events := log.ForAccount(q.AccountID)
	last := events[len(events)-1]
	assert.Equal(t, event.Drafted{From: "quote", SourceID: parent.ID}, last.Payload)

	_, err = quote.Derive(q, b)
	assert.ErrorIs(t, err, errs.ErrQuoteNotDerivable)
}

func TestEditContinuesLifecycle(t *testing.T) {
	b, log, c, qb := setup(t)
	ctx := context.Background()
	require.NoError(t, qb.Send(c.now))
	q, err := qb.Build(ctx)
	require.NoError(t, err)

	eb := quote.Edit(q, b, builder.WithClock(c.Now))
	require.NoError(t, eb.Accept(c.now))
	q2, err := eb.Build(ctx)
	require.NoError(t, err)

	assert.Equal(t, q.ID, q2.ID)
	assert.Equal(t, q.Number, q2.Number)
	assert.Equal(t, quote.StatusAccepted, q2.Status())
	assert.Len(t, q2.Events, 3)
	assert.Len(t, log.Events(), 3)
	assert.Equal(t, quote.StatusSent, q.Status(), "earlier snapshot unchanged")
}

func TestSubscriberErrorPropagates(t *testing.T) {
	b, _, _, qb := setup(t)
	b.Subscribe(event.QuoteDrafted, func(context.Context, *event.Event) error { return assert.AnError })

	_, err := qb.Build(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorIs(t, err, errs.ErrSubscriber)
}

func TestMarshalIncludesStatus(t *testing.T) {
	_, _, _, qb := setup(t)
	q, err := qb.Build(context.Background())
	require.NoError(t, err)

	data, err := json.Marshal(q)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "draft", m["status"])
	assert.Equal(t, q.ID.String(), m["id"])
}
