package milestone

import (
	"context"
	"time"

	"github.com/xraph/invoicer/event"
)

// anniversary tracks the first sent invoice of an account and how many
// anniversaries were emitted.
type anniversary struct {
	first   time.Time
	emitted int
}

// onAnniversary emits at most one anniversary per sent invoice, even when
// several years passed since the previous one.
func (e *Engine) onAnniversary(ctx context.Context, ev *event.Event) error {
	if ev.At == nil {
		return nil
	}
	at := *ev.At

	e.mu.Lock()
	st := e.anniversaries.get(ev.Context.AccountID)
	if st.first.IsZero() || at.Before(st.first) {
		st.first = at
		e.mu.Unlock()
		return nil
	}
	if wholeYears(st.first, at) <= st.emitted {
		e.mu.Unlock()
		return nil
	}
	st.emitted++
	n := st.emitted
	e.mu.Unlock()

	return e.emit(ctx, ev, event.MilestoneAnniversary, &event.Milestone{
		Value:    float64(n),
		RecordID: ev.Context.InvoiceID,
	})
}

// wholeYears counts full calendar years from from to to.
func wholeYears(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	y := to.Year() - from.Year()
	if to.Before(from.AddDate(y, 0, 0)) {
		y--
	}
	return y
}
