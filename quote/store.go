package quote

import "github.com/xraph/invoicer/id"

// ListOpts filters quote listings. Status is matched against the status
// computed at listing time.
type ListOpts struct {
	Status   Status
	ClientID id.ClientID
	Limit    int
	Offset   int
}
