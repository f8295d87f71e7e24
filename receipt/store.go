package receipt

import "github.com/xraph/invoicer/id"

// ListOpts filters receipt listings.
type ListOpts struct {
	InvoiceID id.InvoiceID
	Limit     int
	Offset    int
}
