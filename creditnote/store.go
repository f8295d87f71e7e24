package creditnote

import "github.com/xraph/invoicer/id"

// ListOpts filters credit note listings.
type ListOpts struct {
	InvoiceID id.InvoiceID
	Limit     int
	Offset    int
}
