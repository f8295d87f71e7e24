package milestone

import (
	"context"
	"slices"
	"strconv"

	"github.com/xraph/invoicer/event"
)

// contribution is what one invoice adds to the threshold counters.
type contribution struct {
	client        string
	amount        float64
	international bool
}

// measure reduces the contributions of one or more invoice sets to the
// tracked quantity.
type measure func(sets ...map[string]contribution) float64

func countRecords(sets ...map[string]contribution) float64 {
	n := 0
	for _, s := range sets {
		n += len(s)
	}
	return float64(n)
}

func countClients(sets ...map[string]contribution) float64 {
	return countDistinct(sets, func(contribution) bool { return true })
}

func countInternational(sets ...map[string]contribution) float64 {
	return countDistinct(sets, func(c contribution) bool { return c.international })
}

func countDistinct(sets []map[string]contribution, keep func(contribution) bool) float64 {
	seen := make(map[string]struct{})
	for _, s := range sets {
		for _, c := range s {
			if keep(c) {
				seen[c.client] = struct{}{}
			}
		}
	}
	return float64(len(seen))
}

func sumRevenue(sets ...map[string]contribution) float64 {
	total := 0.0
	for _, s := range sets {
		for _, c := range s {
			total += c.amount
		}
	}
	return total
}

// counter is one threshold tracker.
type counter struct {
	typ     event.Type
	measure measure
	states  *accounts[counterState]
}

// counterState tracks one account. pendingLeft holds the thresholds not yet
// predicted and paidLeft those not yet confirmed, both descending. Invoices
// are keyed by id.
type counterState struct {
	pendingLeft []float64
	paidLeft    []float64
	pending     map[string]contribution
	paid        map[string]contribution
}

func newCounter(t event.Type, thresholds []float64, m measure) *counter {
	return &counter{
		typ:     t,
		measure: m,
		states: newAccounts(func() *counterState {
			return &counterState{
				pendingLeft: slices.Clone(thresholds),
				paidLeft:    slices.Clone(thresholds),
				pending:     make(map[string]contribution),
				paid:        make(map[string]contribution),
			}
		}),
	}
}

// predict counts a sent invoice as pending. When pending and paid invoices
// together cross a threshold, a future milestone predicts it.
func (e *Engine) predict(ctx context.Context, ev *event.Event, cnt *counter, c contribution) error {
	key := ev.Context.InvoiceID.String()

	e.mu.Lock()
	st := cnt.states.get(ev.Context.AccountID)
	_, isPending := st.pending[key]
	_, isPaid := st.paid[key]
	if isPending || isPaid {
		e.mu.Unlock()
		return nil
	}
	st.pending[key] = c
	m := cnt.measure(st.pending, st.paid)
	th, crossed := consume(&st.pendingLeft, m)
	e.mu.Unlock()

	if !crossed {
		return nil
	}
	return e.emit(ctx, ev, cnt.typ, &event.Milestone{
		Value:     m,
		Threshold: th,
		Future:    true,
		RecordID:  ev.Context.InvoiceID,
		Slot:      slot(th),
	})
}

// confirm moves a paid invoice from pending to paid, emits the confirmed
// milestone of any crossed threshold and retracts the predictions that
// payments have now reached.
func (e *Engine) confirm(ctx context.Context, ev *event.Event, cnt *counter, resolve func() contribution) error {
	key := ev.Context.InvoiceID.String()
	account := ev.Context.AccountID

	e.mu.Lock()
	st := cnt.states.get(account)
	if _, dup := st.paid[key]; dup {
		e.mu.Unlock()
		return nil
	}
	c, wasPending := st.pending[key]
	e.mu.Unlock()

	if !wasPending {
		c = resolve()
	}

	e.mu.Lock()
	delete(st.pending, key)
	st.paid[key] = c
	pm := cnt.measure(st.paid)
	th, crossed := consume(&st.paidLeft, pm)
	consume(&st.pendingLeft, pm)
	e.mu.Unlock()

	e.log.RetractWhere(account, cnt.typ, func(m *event.Milestone) bool { return m.Threshold <= pm })

	if !crossed {
		return nil
	}
	return e.emit(ctx, ev, cnt.typ, &event.Milestone{
		Value:     pm,
		Threshold: th,
		RecordID:  ev.Context.InvoiceID,
	})
}

// withdraw removes a closed invoice from pending. Predictions that pending
// and paid invoices can no longer reach are retracted, and their thresholds
// become predictable again. Thresholds the skip policy dropped while
// predicting were never emitted, so they are not restored.
func (e *Engine) withdraw(ev *event.Event, cnt *counter) {
	key := ev.Context.InvoiceID.String()
	account := ev.Context.AccountID

	e.mu.Lock()
	st := cnt.states.get(account)
	if _, ok := st.pending[key]; !ok {
		e.mu.Unlock()
		return
	}
	delete(st.pending, key)
	total := cnt.measure(st.pending, st.paid)
	e.mu.Unlock()

	removed := e.log.RetractWhere(account, cnt.typ, func(m *event.Milestone) bool { return m.Threshold > total })
	if len(removed) == 0 {
		return
	}

	e.mu.Lock()
	for _, m := range removed {
		st.pendingLeft = append(st.pendingLeft, m.Threshold)
	}
	st.pendingLeft = descending(st.pendingLeft)
	e.mu.Unlock()

	e.logger.Debug("milestone predictions retracted",
		"type", cnt.typ,
		"account_id", account.String(),
		"count", len(removed),
	)
}

// consume removes every threshold at or below m from the descending list
// left and returns the largest of them. Smaller thresholds crossed in the
// same jump are dropped without being reported.
func consume(left *[]float64, m float64) (float64, bool) {
	for i, th := range *left {
		if th <= m {
			*left = (*left)[:i]
			return th, true
		}
	}
	return 0, false
}

func descending(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	out = slices.Compact(out)
	slices.Reverse(out)
	return out
}

func slot(threshold float64) string {
	return strconv.FormatFloat(threshold, 'f', -1, 64)
}
