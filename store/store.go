// Package store defines the persistence boundary of Invoicer.
//
// Records are stored as materialized snapshots. Saving a snapshot replaces
// the previous one with the same id; lifecycle state is never mutated in
// place by the store.
package store

import (
	"context"

	"github.com/xraph/invoicer/creditnote"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/party"
	"github.com/xraph/invoicer/quote"
	"github.com/xraph/invoicer/receipt"
)

// Store is the unified storage interface for all Invoicer entities.
// Methods are declared explicitly rather than by embedding per-entity
// interfaces, so names stay unambiguous.
type Store interface {
	// Account methods
	CreateAccount(ctx context.Context, a *party.Account) error
	GetAccount(ctx context.Context, accountID id.AccountID) (*party.Account, error)
	UpdateAccount(ctx context.Context, a *party.Account) error

	// Client methods
	CreateClient(ctx context.Context, c *party.Client) error
	GetClient(ctx context.Context, clientID id.ClientID) (*party.Client, error)
	ListClients(ctx context.Context, accountID id.AccountID, opts party.ListOpts) ([]*party.Client, error)
	UpdateClient(ctx context.Context, c *party.Client) error

	// Quote methods
	SaveQuote(ctx context.Context, q *quote.Quote) error
	GetQuote(ctx context.Context, quoteID id.QuoteID) (*quote.Quote, error)
	ListQuotes(ctx context.Context, accountID id.AccountID, opts quote.ListOpts) ([]*quote.Quote, error)

	// Invoice methods
	SaveInvoice(ctx context.Context, inv *invoice.Invoice) error
	GetInvoice(ctx context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, accountID id.AccountID, opts invoice.ListOpts) ([]*invoice.Invoice, error)

	// Credit note methods
	SaveCreditNote(ctx context.Context, cn *creditnote.CreditNote) error
	GetCreditNote(ctx context.Context, creditNoteID id.CreditNoteID) (*creditnote.CreditNote, error)
	ListCreditNotes(ctx context.Context, accountID id.AccountID, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error)

	// Receipt methods
	SaveReceipt(ctx context.Context, r *receipt.Receipt) error
	GetReceipt(ctx context.Context, receiptID id.ReceiptID) (*receipt.Receipt, error)
	ListReceipts(ctx context.Context, accountID id.AccountID, opts receipt.ListOpts) ([]*receipt.Receipt, error)

	// Core methods
	Ping(ctx context.Context) error
	Close() error
}
