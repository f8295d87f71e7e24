package bus_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/event"
)

func sent() *event.Event {
	return event.New(event.InvoiceSent, event.Context{}, event.Sent{}, nil)
}

func TestEmitOrderAndWildcard(t *testing.T) {
	b := bus.New()
	var calls []string

	b.Subscribe(event.Wildcard, func(_ context.Context, e *event.Event) error {
		calls = append(calls, "wildcard:"+string(e.Type))
		return nil
	})
	b.Subscribe(event.InvoiceSent, func(context.Context, *event.Event) error {
		calls = append(calls, "exact")
		return nil
	})
	b.Subscribe(event.InvoicePaid, func(context.Context, *event.Event) error {
		calls = append(calls, "other")
		return nil
	})

	require.NoError(t, b.Emit(context.Background(), sent()))
	assert.Equal(t, []string{"wildcard:invoice:sent", "exact"}, calls)
}

func TestEmitStopsOnFirstError(t *testing.T) {
	b := bus.New()
	boom := errors.New("boom")
	reached := false

	b.Subscribe(event.InvoiceSent, func(context.Context, *event.Event) error { return boom })
	b.Subscribe(event.InvoiceSent, func(context.Context, *event.Event) error {
		reached = true
		return nil
	})

	err := b.Emit(context.Background(), sent())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, errs.ErrSubscriber)
	assert.False(t, reached)
}

func TestUnsubscribe(t *testing.T) {
	b := bus.New()
	n := 0
	unsub := b.Subscribe(event.Wildcard, func(context.Context, *event.Event) error {
		n++
		return nil
	})
	assert.Equal(t, 1, b.SubscriberCount())

	require.NoError(t, b.Emit(context.Background(), sent()))
	unsub()
	unsub()
	require.NoError(t, b.Emit(context.Background(), sent()))

	assert.Equal(t, 1, n)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestNestedEmit(t *testing.T) {
	b := bus.New()
	var seen []event.Type

	b.Subscribe(event.InvoiceSent, func(ctx context.Context, _ *event.Event) error {
		return b.Emit(ctx, event.New(event.MilestoneInvoiceCount, event.Context{}, &event.Milestone{}, nil))
	})
	b.Subscribe(event.Wildcard, func(_ context.Context, e *event.Event) error {
		seen = append(seen, e.Type)
		return nil
	})

	require.NoError(t, b.Emit(context.Background(), sent()))
	assert.Equal(t, []event.Type{event.MilestoneInvoiceCount, event.InvoiceSent}, seen)
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, bus.Default(), bus.Default())
}
