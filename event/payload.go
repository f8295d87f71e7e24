package event

import (
	"time"

	"github.com/xraph/invoicer/id"
)

// Payload is the closed set of event payload variants. The unexported
// method keeps the set sealed to this package.
type Payload interface {
	payload()
}

// Drafted is recorded when a record is opened. From names the source record
// kind when the draft was derived ("quote"), and is empty otherwise.
type Drafted struct {
	From     string     `json:"from,omitempty"`
	SourceID id.QuoteID `json:"source_id,omitempty"`
}

// Sent is recorded when a quote or invoice is sent to the client.
type Sent struct {
	Total   float64   `json:"total"`
	DueDate time.Time `json:"due_date"`
}

// Accepted is recorded when a client accepts a quote. Since is the instant
// the quote was sent, or its quote date when it was accepted as a draft.
type Accepted struct {
	Since time.Time `json:"since"`
	Total float64   `json:"total"`
}

// Rejected is recorded when a client rejects a quote.
type Rejected struct {
	Reason string `json:"reason,omitempty"`
}

// Expired is recorded when a quote's expiration date passes.
type Expired struct {
	ExpirationDate time.Time `json:"expiration_date"`
}

// Overdue is recorded when an invoice's due date passes.
type Overdue struct {
	DueDate     time.Time `json:"due_date"`
	Outstanding float64   `json:"outstanding"`
}

// Closed is recorded when an expired quote or an overdue invoice is closed.
type Closed struct{}

// Payment is recorded for partial and full payments. Outstanding may be
// negative when the invoice was overpaid. Since is the instant the invoice
// was sent, or its issue date when it was paid as a draft.
type Payment struct {
	Amount      float64   `json:"amount"`
	Outstanding float64   `json:"outstanding"`
	Total       float64   `json:"total"`
	Since       time.Time `json:"since"`
}

// Created is recorded once for credit notes and receipts.
type Created struct {
	InvoiceID id.InvoiceID `json:"invoice_id"`
	Total     float64      `json:"total"`
}

// Milestone is the payload of every milestone event.
//
// Value is the measurement that triggered the milestone: a count, an amount
// in minor units, a duration in seconds or an anniversary ordinal.
// Threshold is set for threshold-crossing milestones. Best is meaningful for
// best-of-N milestones only and is the one field rewritten after emission.
type Milestone struct {
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold,omitempty"`
	Future    bool    `json:"future"`
	Best      bool    `json:"best"`
	RecordID  id.ID   `json:"record_id,omitempty"`

	// Slot keys speculative milestones inside the log; unused for confirmed ones.
	Slot string `json:"-"`
}

func (Drafted) payload()    {}
func (Sent) payload()       {}
func (Accepted) payload()   {}
func (Rejected) payload()   {}
func (Expired) payload()    {}
func (Overdue) payload()    {}
func (Closed) payload()     {}
func (Payment) payload()    {}
func (Created) payload()    {}
func (*Milestone) payload() {}
