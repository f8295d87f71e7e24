package types

import "time"

// Entity carries the materialization timestamps of a record snapshot.
// Embed this in record types to get timestamp handling.
type Entity struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewEntity creates a new Entity stamped with the current time.
func NewEntity() Entity {
	return NewEntityAt(time.Now())
}

// NewEntityAt creates a new Entity stamped with t.
func NewEntityAt(t time.Time) Entity {
	t = t.UTC()
	return Entity{
		CreatedAt: t,
		UpdatedAt: t,
	}
}

// Touch updates the UpdatedAt timestamp to t, keeping CreatedAt.
// A zero CreatedAt is initialised as well.
func (e *Entity) Touch(t time.Time) {
	t = t.UTC()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = t
	}
	e.UpdatedAt = t
}

// Age returns how long before now the entity was created.
func (e Entity) Age(now time.Time) time.Duration {
	return now.Sub(e.CreatedAt)
}
