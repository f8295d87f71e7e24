// Package invoice implements invoices: requests for payment that move
// through sending, payment, overdue and closing.
package invoice

import (
	"encoding/json"
	"time"

	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/quote"
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/summary"
	"github.com/xraph/invoicer/types"
)

// Status is the lifecycle status of an invoice.
type Status string

const (
	StatusDraft         Status = "draft"
	StatusSent          Status = "sent"
	StatusPartiallyPaid Status = "partially-paid"
	StatusPaid          Status = "paid"
	StatusOverdue       Status = "overdue"
	StatusClosed        Status = "closed"
)

// Terminal reports whether s can no longer change with time.
func (s Status) Terminal() bool { return s == StatusPaid || s == StatusClosed }

func computeStatus(stored Status, now, due time.Time) Status {
	if stored.Terminal() {
		return stored
	}
	if !due.IsZero() && now.After(due) {
		return StatusOverdue
	}
	return stored
}

// Payment is one amount collected against an invoice.
type Payment struct {
	At     time.Time `json:"at"`
	Amount float64   `json:"amount"`
}

// Invoice is an immutable snapshot produced by Builder.Build.
type Invoice struct {
	types.Entity
	ID          id.InvoiceID        `json:"id" validate:"required"`
	Number      string              `json:"number" validate:"required"`
	AccountID   id.AccountID        `json:"account_id" validate:"required"`
	ClientID    id.ClientID         `json:"client_id" validate:"required"`
	QuoteID     id.QuoteID          `json:"quote_id,omitempty"`
	Currency    string              `json:"currency,omitempty"`
	Items       []lineitem.Item     `json:"items" validate:"dive"`
	Discounts   []discount.Discount `json:"discounts,omitempty" validate:"dive"`
	Attachments []string            `json:"attachments,omitempty"`
	Note        string              `json:"note,omitempty"`
	IssueDate   time.Time           `json:"issue_date" validate:"required"`
	DueDate     time.Time           `json:"due_date" validate:"required,gtefield=IssueDate"`
	SentAt      *time.Time          `json:"sent_at,omitempty"`
	PaidAt      *time.Time          `json:"paid_at,omitempty"`
	ClosedAt    *time.Time          `json:"closed_at,omitempty"`
	Payments    []Payment           `json:"payments,omitempty"`
	Events      []event.Event       `json:"events"`

	// Quote is the accepted quote the invoice was created from, if any.
	Quote *quote.Quote `json:"-" validate:"-"`

	status Status
	clock  func() time.Time
}

var _ record.Record = (*Invoice)(nil)

// Status returns the status at the snapshot clock's current time.
func (inv *Invoice) Status() Status { return inv.StatusAt(inv.now()) }

// StatusAt returns the status at t.
func (inv *Invoice) StatusAt(t time.Time) Status {
	return computeStatus(inv.status, t, inv.DueDate)
}

func (inv *Invoice) now() time.Time {
	if inv.clock == nil {
		return time.Now()
	}
	return inv.clock()
}

// Total returns the invoice total.
func (inv *Invoice) Total() float64 { return summary.TotalOf(inv.Items, inv.Discounts) }

// TotalAmount returns the total with its currency.
func (inv *Invoice) TotalAmount() types.Amount { return types.NewAmount(inv.Total(), inv.Currency) }

// Paid returns the sum of all payments.
func (inv *Invoice) Paid() float64 { return sumPayments(inv.Payments) }

// Outstanding returns the total minus payments. Negative means overpaid.
func (inv *Invoice) Outstanding() float64 { return inv.Total() - inv.Paid() }

// Summary returns the monetary breakdown, with a paid line once money was collected.
func (inv *Invoice) Summary() []summary.Line {
	if len(inv.Payments) == 0 {
		return summary.Compute(inv.Items, inv.Discounts)
	}
	return summary.Compute(inv.Items, inv.Discounts, summary.WithPaid(inv.Paid()))
}

// RecordKind implements record.Record.
func (inv *Invoice) RecordKind() record.Kind { return record.KindInvoice }

// RecordID implements record.Record.
func (inv *Invoice) RecordID() id.ID { return inv.ID }

// RecordNumber implements record.Record.
func (inv *Invoice) RecordNumber() string { return inv.Number }

// RecordAccount implements record.Record.
func (inv *Invoice) RecordAccount() id.AccountID { return inv.AccountID }

// MarshalJSON adds the computed status.
func (inv *Invoice) MarshalJSON() ([]byte, error) {
	type alias Invoice
	return json.Marshal(struct {
		*alias
		Status Status `json:"status"`
	}{(*alias)(inv), inv.Status()})
}

func sumPayments(ps []Payment) float64 {
	total := 0.0
	for _, p := range ps {
		total += p.Amount
	}
	return total
}
