package milestone

import (
	"context"

	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
)

// best is the current best value of one best-of-N tracker for one account.
// The first value seen is a silent baseline.
type best struct {
	have  bool
	value float64
}

type rankSpec struct {
	typ    event.Type
	states *accounts[best]
	better func(candidate, current float64) bool
	future bool
	record id.ID
}

func faster(candidate, current float64) bool { return candidate < current }
func larger(candidate, current float64) bool { return candidate > current }

// rank compares value with the account's current best. A strict improvement
// demotes every earlier milestone of the same type and stream, then emits a
// new one flagged best. Ties never emit.
func (e *Engine) rank(ctx context.Context, src *event.Event, spec rankSpec, value float64) error {
	account := src.Context.AccountID

	e.mu.Lock()
	st := spec.states.get(account)
	if !st.have {
		st.have, st.value = true, value
		e.mu.Unlock()
		return nil
	}
	if !spec.better(value, st.value) {
		e.mu.Unlock()
		return nil
	}
	st.value = value
	e.mu.Unlock()

	e.log.Demote(account, spec.typ, spec.future)
	return e.emit(ctx, src, spec.typ, &event.Milestone{
		Value:    value,
		Best:     true,
		Future:   spec.future,
		RecordID: spec.record,
		Slot:     spec.record.String(),
	})
}
