// Package record defines the kinds of financial documents and the minimal
// interface every built document satisfies.
package record

import "github.com/xraph/invoicer/id"

// Kind identifies a document kind.
type Kind string

const (
	KindQuote      Kind = "quote"
	KindInvoice    Kind = "invoice"
	KindCreditNote Kind = "credit-note"
	KindReceipt    Kind = "receipt"
)

// Kinds lists every document kind.
var Kinds = []Kind{KindQuote, KindInvoice, KindCreditNote, KindReceipt}

// String implements fmt.Stringer.
func (k Kind) String() string { return string(k) }

// Record is implemented by every built document snapshot. The set of
// implementations is closed: *quote.Quote, *invoice.Invoice,
// *creditnote.CreditNote and *receipt.Receipt. Use invoicer.Match to
// branch over it exhaustively.
type Record interface {
	RecordKind() Kind
	RecordID() id.ID
	RecordNumber() string
	RecordAccount() id.AccountID
}
