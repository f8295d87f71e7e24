package observability_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/invoicer/bus"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/observability"
	"github.com/xraph/invoicer/plugin"
)

type metric struct {
	mu     sync.Mutex
	count  float64
	values []float64
}

func (m *metric) Inc() { m.Add(1) }

func (m *metric) Add(v float64) {
	m.mu.Lock()
	m.count += v
	m.mu.Unlock()
}

func (m *metric) Observe(v float64) {
	m.mu.Lock()
	m.values = append(m.values, v)
	m.mu.Unlock()
}

type factory map[string]*metric

func (f factory) get(name string) *metric {
	if m, ok := f[name]; ok {
		return m
	}
	m := &metric{}
	f[name] = m
	return m
}

func (f factory) Counter(name string) observability.Counter     { return f.get(name) }
func (f factory) Histogram(name string) observability.Histogram { return f.get(name) }

func TestMetricsFollowEventStream(t *testing.T) {
	f := factory{}
	ext := observability.NewMetricsExtension(f)

	b := bus.New()
	reg := plugin.NewRegistry()
	require.NoError(t, reg.Register(ext))
	reg.Attach(b)

	ctx := context.Background()
	ectx := event.Context{AccountID: id.NewAccountID(), InvoiceID: id.NewInvoiceID()}
	sent := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	paid := sent.Add(time.Hour)

	require.NoError(t, b.Emit(ctx, event.New(event.InvoiceSent, ectx, event.Sent{Total: 1210}, &sent)))
	require.NoError(t, b.Emit(ctx, event.New(event.InvoicePartiallyPaid, ectx, event.Payment{Amount: 210, Since: sent}, &paid)))
	require.NoError(t, b.Emit(ctx, event.New(event.InvoicePaid, ectx, event.Payment{Amount: 1000, Since: sent}, &paid)))
	require.NoError(t, b.Emit(ctx, event.New(event.MilestoneRevenue, ectx, &event.Milestone{Future: true}, nil)))
	require.NoError(t, b.Emit(ctx, event.New(event.MilestoneRevenue, ectx, &event.Milestone{}, nil)))

	assert.Equal(t, 1.0, f["invoicer.invoice.sent"].count)
	assert.Equal(t, []float64{1210}, f["invoicer.invoice.total_amount"].values)
	assert.Equal(t, 1.0, f["invoicer.invoice.partially_paid"].count)
	assert.Equal(t, 1.0, f["invoicer.invoice.paid"].count)
	assert.Equal(t, []float64{210, 1000}, f["invoicer.payment.amount"].values)
	assert.Equal(t, []float64{3600}, f["invoicer.payment.time_to_pay_seconds"].values)
	assert.Equal(t, 1.0, f["invoicer.milestone.forecast"].count)
	assert.Equal(t, 1.0, f["invoicer.milestone.reached"].count)
}
