package invoicer

import (
	"fmt"

	"github.com/xraph/invoicer/creditnote"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/quote"
	"github.com/xraph/invoicer/receipt"
	"github.com/xraph/invoicer/record"
)

// Cases holds one handler per document kind. A nil handler for the kind of
// the matched record is an error.
type Cases[T any] struct {
	Quote      func(*quote.Quote) T
	Invoice    func(*invoice.Invoice) T
	CreditNote func(*creditnote.CreditNote) T
	Receipt    func(*receipt.Receipt) T
}

// Match dispatches r to the handler for its concrete kind.
func Match[T any](r record.Record, c Cases[T]) (T, error) {
	var zero T
	switch v := r.(type) {
	case *quote.Quote:
		if c.Quote != nil {
			return c.Quote(v), nil
		}
	case *invoice.Invoice:
		if c.Invoice != nil {
			return c.Invoice(v), nil
		}
	case *creditnote.CreditNote:
		if c.CreditNote != nil {
			return c.CreditNote(v), nil
		}
	case *receipt.Receipt:
		if c.Receipt != nil {
			return c.Receipt(v), nil
		}
	default:
		return zero, fmt.Errorf("%w: %T", errs.ErrUnknownRecord, r)
	}
	return zero, fmt.Errorf("%w: no case for %s", errs.ErrUnknownRecord, r.RecordKind())
}
