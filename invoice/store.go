package invoice

import "github.com/xraph/invoicer/id"

// ListOpts filters invoice listings. Status is matched against the status
// computed at listing time.
type ListOpts struct {
	Status   Status
	ClientID id.ClientID
	QuoteID  id.QuoteID
	Limit    int
	Offset   int
}
