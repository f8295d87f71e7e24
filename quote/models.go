// Package quote implements quotes: a price proposal a client accepts or
// rejects before it is turned into an invoice.
package quote

import (
	"encoding/json"
	"time"

	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/summary"
	"github.com/xraph/invoicer/types"
)

// Status is the lifecycle status of a quote.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusExpired  Status = "expired"
	StatusClosed   Status = "closed"
)

// Terminal reports whether s can no longer change with time.
func (s Status) Terminal() bool {
	switch s {
	case StatusAccepted, StatusRejected, StatusClosed:
		return true
	}
	return false
}

// computeStatus derives the status visible at now from the stored one.
func computeStatus(stored Status, now, expiration time.Time) Status {
	if stored.Terminal() {
		return stored
	}
	if !expiration.IsZero() && now.After(expiration) {
		return StatusExpired
	}
	return stored
}

// Quote is an immutable snapshot produced by Builder.Build.
type Quote struct {
	types.Entity
	ID             id.QuoteID          `json:"id" validate:"required"`
	Number         string              `json:"number" validate:"required"`
	AccountID      id.AccountID        `json:"account_id" validate:"required"`
	ClientID       id.ClientID         `json:"client_id" validate:"required"`
	ParentID       id.QuoteID          `json:"parent_id,omitempty"`
	Currency       string              `json:"currency,omitempty"`
	Items          []lineitem.Item     `json:"items" validate:"dive"`
	Discounts      []discount.Discount `json:"discounts,omitempty" validate:"dive"`
	Attachments    []string            `json:"attachments,omitempty"`
	Note           string              `json:"note,omitempty"`
	QuoteDate      time.Time           `json:"quote_date" validate:"required"`
	ExpirationDate time.Time           `json:"expiration_date" validate:"required,gtefield=QuoteDate"`
	SentAt         *time.Time          `json:"sent_at,omitempty"`
	AcceptedAt     *time.Time          `json:"accepted_at,omitempty"`
	RejectedAt     *time.Time          `json:"rejected_at,omitempty"`
	ClosedAt       *time.Time          `json:"closed_at,omitempty"`
	Events         []event.Event       `json:"events"`

	status Status
	clock  func() time.Time
}

var _ record.Record = (*Quote)(nil)

// Status returns the status at the snapshot clock's current time.
func (q *Quote) Status() Status { return q.StatusAt(q.now()) }

// StatusAt returns the status at t.
func (q *Quote) StatusAt(t time.Time) Status {
	return computeStatus(q.status, t, q.ExpirationDate)
}

func (q *Quote) now() time.Time {
	if q.clock == nil {
		return time.Now()
	}
	return q.clock()
}

// Summary returns the monetary breakdown of the quote.
func (q *Quote) Summary() []summary.Line { return summary.Compute(q.Items, q.Discounts) }

// Total returns the total of the quote.
func (q *Quote) Total() float64 { return summary.TotalOf(q.Items, q.Discounts) }

// TotalAmount returns the total with its currency.
func (q *Quote) TotalAmount() types.Amount { return types.NewAmount(q.Total(), q.Currency) }

// RecordKind implements record.Record.
func (q *Quote) RecordKind() record.Kind { return record.KindQuote }

// RecordID implements record.Record.
func (q *Quote) RecordID() id.ID { return q.ID }

// RecordNumber implements record.Record.
func (q *Quote) RecordNumber() string { return q.Number }

// RecordAccount implements record.Record.
func (q *Quote) RecordAccount() id.AccountID { return q.AccountID }

// MarshalJSON adds the computed status.
func (q *Quote) MarshalJSON() ([]byte, error) {
	type alias Quote
	return json.Marshal(struct {
		*alias
		Status Status `json:"status"`
	}{(*alias)(q), q.Status()})
}
