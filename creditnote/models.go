// Package creditnote implements credit notes: sign-inverted copies of an
// invoice that cancel all or part of it.
package creditnote

import (
	"encoding/json"
	"time"

	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/summary"
	"github.com/xraph/invoicer/types"
)

// CreditNote is an immutable snapshot produced by Builder.Build. It has no
// lifecycle of its own.
type CreditNote struct {
	types.Entity
	ID             id.CreditNoteID     `json:"id" validate:"required"`
	Number         string              `json:"number" validate:"required"`
	InvoiceID      id.InvoiceID        `json:"invoice_id" validate:"required"`
	AccountID      id.AccountID        `json:"account_id" validate:"required"`
	ClientID       id.ClientID         `json:"client_id" validate:"required"`
	Currency       string              `json:"currency,omitempty"`
	Items          []lineitem.Item     `json:"items" validate:"dive"`
	Discounts      []discount.Discount `json:"discounts,omitempty" validate:"dive"`
	Attachments    []string            `json:"attachments,omitempty"`
	Note           string              `json:"note,omitempty"`
	CreditNoteDate time.Time           `json:"credit_note_date" validate:"required"`
	Events         []event.Event       `json:"events"`

	// Invoice is the invoice being credited.
	Invoice *invoice.Invoice `json:"-" validate:"-"`
}

var _ record.Record = (*CreditNote)(nil)

// Total returns the credited total. It is negative for a positive invoice.
func (cn *CreditNote) Total() float64 { return summary.TotalOf(cn.Items, cn.Discounts) }

// TotalAmount returns the total with its currency.
func (cn *CreditNote) TotalAmount() types.Amount { return types.NewAmount(cn.Total(), cn.Currency) }

// Summary returns the monetary breakdown.
func (cn *CreditNote) Summary() []summary.Line { return summary.Compute(cn.Items, cn.Discounts) }

// RecordKind implements record.Record.
func (cn *CreditNote) RecordKind() record.Kind { return record.KindCreditNote }

// RecordID implements record.Record.
func (cn *CreditNote) RecordID() id.ID { return cn.ID }

// RecordNumber implements record.Record.
func (cn *CreditNote) RecordNumber() string { return cn.Number }

// RecordAccount implements record.Record.
func (cn *CreditNote) RecordAccount() id.AccountID { return cn.AccountID }

// MarshalJSON adds the computed total.
func (cn *CreditNote) MarshalJSON() ([]byte, error) {
	type alias CreditNote
	return json.Marshal(struct {
		*alias
		Total float64 `json:"total"`
	}{(*alias)(cn), cn.Total()})
}
