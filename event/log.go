package event

import (
	"context"
	"slices"
	"sync"

	"github.com/xraph/invoicer/id"
)

// Log keeps every emitted event for the activity feed.
//
// Confirmed events are append-only. Speculative ("future") milestones live in
// keyed slots so the milestone engine can replace or retract them. Both
// streams share one sequence so Events returns them in emission order.
type Log struct {
	mu          sync.RWMutex
	seq         uint64
	confirmed   []*Event
	speculative map[slotKey]*Event
}

type slotKey struct {
	account string
	typ     Type
	slot    string
}

// NewLog creates an empty log.
func NewLog() *Log {
	return &Log{speculative: make(map[slotKey]*Event)}
}

// Handle records e. It has the shape of a bus handler so the log can be
// subscribed to the wildcard topic. The event's Seq is assigned here.
func (l *Log) Handle(_ context.Context, e *Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	e.Seq = l.seq
	c := e.Clone()

	if m, ok := c.Milestone(); ok && m.Future {
		l.speculative[keyOf(&c, m)] = &c
		return nil
	}
	l.confirmed = append(l.confirmed, &c)
	return nil
}

func keyOf(e *Event, m *Milestone) slotKey {
	return slotKey{account: e.Context.AccountID.String(), typ: e.Type, slot: m.Slot}
}

// Events returns copies of every logged event in emission order.
func (l *Log) Events() []Event {
	return l.collect(func(*Event) bool { return true })
}

// ForAccount returns copies of the events of one account in emission order.
func (l *Log) ForAccount(account id.AccountID) []Event {
	key := account.String()
	return l.collect(func(e *Event) bool { return e.Context.AccountID.String() == key })
}

// Speculative returns the live future milestones of one account and type.
func (l *Log) Speculative(account id.AccountID, t Type) []Event {
	key := account.String()
	return l.collect(func(e *Event) bool {
		return e.Future() && e.Type == t && e.Context.AccountID.String() == key
	})
}

func (l *Log) collect(keep func(*Event) bool) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Event, 0, len(l.confirmed)+len(l.speculative))
	for _, e := range l.confirmed {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	for _, e := range l.speculative {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	slices.SortFunc(out, func(a, b Event) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of live events.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.confirmed) + len(l.speculative)
}

// Retract removes the speculative milestone stored under slot.
func (l *Log) Retract(account id.AccountID, t Type, slot string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := slotKey{account: account.String(), typ: t, slot: slot}
	if _, ok := l.speculative[k]; !ok {
		return false
	}
	delete(l.speculative, k)
	return true
}

// RetractWhere removes every speculative milestone of one account and type
// whose payload satisfies match, and returns the removed payloads.
func (l *Log) RetractWhere(account id.AccountID, t Type, match func(*Milestone) bool) []Milestone {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := account.String()
	var removed []Milestone
	for k, e := range l.speculative {
		if k.account != acct || k.typ != t {
			continue
		}
		m, _ := e.Milestone()
		if match(m) {
			removed = append(removed, *m)
			delete(l.speculative, k)
		}
	}
	slices.SortFunc(removed, func(a, b Milestone) int {
		switch {
		case a.Threshold < b.Threshold:
			return -1
		case a.Threshold > b.Threshold:
			return 1
		}
		return 0
	})
	return removed
}

// Demote clears the best flag on every milestone of one account and type.
// future selects between the speculative and the confirmed stream.
func (l *Log) Demote(account id.AccountID, t Type, future bool) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct := account.String()
	n := 0
	demote := func(e *Event) {
		if e.Type != t || e.Context.AccountID.String() != acct {
			return
		}
		if m, ok := e.Milestone(); ok && m.Best {
			m.Best = false
			n++
		}
	}

	if future {
		for _, e := range l.speculative {
			demote(e)
		}
		return n
	}
	for _, e := range l.confirmed {
		demote(e)
	}
	return n
}
