// Package party defines the accounts that issue documents and the clients
// they bill.
package party

import (
	"strings"

	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/types"
)

// Account issues quotes and invoices.
type Account struct {
	types.Entity
	ID      id.AccountID `json:"id" validate:"required"`
	Name    string       `json:"name" validate:"required"`
	Country string       `json:"country,omitempty" validate:"omitempty,len=2"`
}

// Client is billed by an account.
type Client struct {
	types.Entity
	ID        id.ClientID  `json:"id" validate:"required"`
	AccountID id.AccountID `json:"account_id" validate:"required"`
	Name      string       `json:"name" validate:"required"`
	Country   string       `json:"country,omitempty" validate:"omitempty,len=2"`
}

// International reports whether c is billed from a different country than
// a. Unknown countries are never international.
func International(a *Account, c *Client) bool {
	if a == nil || c == nil || a.Country == "" || c.Country == "" {
		return false
	}
	return !strings.EqualFold(a.Country, c.Country)
}
