// Package receipt implements receipts: terminal proof of payment for a paid
// invoice.
package receipt

import (
	"time"

	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/types"
)

// Receipt is an immutable snapshot produced by Builder.Build.
type Receipt struct {
	types.Entity
	ID          id.ReceiptID  `json:"id" validate:"required"`
	Number      string        `json:"number" validate:"required"`
	InvoiceID   id.InvoiceID  `json:"invoice_id" validate:"required"`
	AccountID   id.AccountID  `json:"account_id" validate:"required"`
	ClientID    id.ClientID   `json:"client_id" validate:"required"`
	Currency    string        `json:"currency,omitempty"`
	Amount      float64       `json:"amount"`
	ReceiptDate time.Time     `json:"receipt_date" validate:"required"`
	Note        string        `json:"note,omitempty"`
	Events      []event.Event `json:"events"`

	// Invoice is the paid invoice this receipt acknowledges.
	Invoice *invoice.Invoice `json:"-" validate:"-"`
}

var _ record.Record = (*Receipt)(nil)

// AmountPaid returns the collected amount with its currency.
func (r *Receipt) AmountPaid() types.Amount { return types.NewAmount(r.Amount, r.Currency) }

// RecordKind implements record.Record.
func (r *Receipt) RecordKind() record.Kind { return record.KindReceipt }

// RecordID implements record.Record.
func (r *Receipt) RecordID() id.ID { return r.ID }

// RecordNumber implements record.Record.
func (r *Receipt) RecordNumber() string { return r.Number }

// RecordAccount implements record.Record.
func (r *Receipt) RecordAccount() id.AccountID { return r.AccountID }
