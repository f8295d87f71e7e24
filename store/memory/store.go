// Package memory provides an in-process Store backed by maps. It is the
// default store and the one used in tests.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xraph/invoicer/creditnote"
	"github.com/xraph/invoicer/errs"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/invoice"
	"github.com/xraph/invoicer/party"
	"github.com/xraph/invoicer/quote"
	"github.com/xraph/invoicer/receipt"
	"github.com/xraph/invoicer/store"
	"github.com/xraph/invoicer/types"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store is an in-memory store.Store safe for concurrent use. It also
// satisfies milestone.Directory.
type Store struct {
	mu sync.RWMutex

	// Party storage
	accounts map[string]*party.Account
	clients  map[string]*party.Client

	// Record storage, latest snapshot per id
	quotes      map[string]*quote.Quote
	invoices    map[string]*invoice.Invoice
	creditNotes map[string]*creditnote.CreditNote
	receipts    map[string]*receipt.Receipt
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts:    make(map[string]*party.Account),
		clients:     make(map[string]*party.Client),
		quotes:      make(map[string]*quote.Quote),
		invoices:    make(map[string]*invoice.Invoice),
		creditNotes: make(map[string]*creditnote.CreditNote),
		receipts:    make(map[string]*receipt.Receipt),
	}
}

// ──────────────────────────────────────────────────
// Account Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateAccount(_ context.Context, a *party.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID.String()]; exists {
		return errs.ErrAlreadyExists
	}
	s.accounts[a.ID.String()] = a
	return nil
}

func (s *Store) GetAccount(_ context.Context, accountID id.AccountID) (*party.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[accountID.String()]; ok {
		return a, nil
	}
	return nil, errs.ErrAccountNotFound
}

func (s *Store) UpdateAccount(_ context.Context, a *party.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID.String()]; !exists {
		return errs.ErrAccountNotFound
	}
	s.accounts[a.ID.String()] = a
	return nil
}

// ──────────────────────────────────────────────────
// Client Store implementation
// ──────────────────────────────────────────────────

func (s *Store) CreateClient(_ context.Context, c *party.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[c.ID.String()]; exists {
		return errs.ErrAlreadyExists
	}
	s.clients[c.ID.String()] = c
	return nil
}

func (s *Store) GetClient(_ context.Context, clientID id.ClientID) (*party.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.clients[clientID.String()]; ok {
		return c, nil
	}
	return nil, errs.ErrClientNotFound
}

func (s *Store) ListClients(_ context.Context, accountID id.AccountID, opts party.ListOpts) ([]*party.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*party.Client, 0)
	for _, c := range s.clients {
		if !c.AccountID.Equal(accountID) {
			continue
		}
		if opts.Country != "" && !strings.EqualFold(c.Country, opts.Country) {
			continue
		}
		result = append(result, c)
	}
	sortByCreated(result, func(c *party.Client) (types.Entity, id.ID) { return c.Entity, c.ID })
	return page(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateClient(_ context.Context, c *party.Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[c.ID.String()]; !exists {
		return errs.ErrClientNotFound
	}
	s.clients[c.ID.String()] = c
	return nil
}

// ──────────────────────────────────────────────────
// Quote Store implementation
// ──────────────────────────────────────────────────

func (s *Store) SaveQuote(_ context.Context, q *quote.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.quotes[q.ID.String()] = q
	return nil
}

func (s *Store) GetQuote(_ context.Context, quoteID id.QuoteID) (*quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if q, ok := s.quotes[quoteID.String()]; ok {
		return q, nil
	}
	return nil, errs.ErrQuoteNotFound
}

func (s *Store) ListQuotes(_ context.Context, accountID id.AccountID, opts quote.ListOpts) ([]*quote.Quote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*quote.Quote, 0)
	for _, q := range s.quotes {
		if !q.AccountID.Equal(accountID) {
			continue
		}
		if !opts.ClientID.IsNil() && !q.ClientID.Equal(opts.ClientID) {
			continue
		}
		if opts.Status != "" && q.Status() != opts.Status {
			continue
		}
		result = append(result, q)
	}
	sortByCreated(result, func(q *quote.Quote) (types.Entity, id.ID) { return q.Entity, q.ID })
	return page(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Invoice Store implementation
// ──────────────────────────────────────────────────

func (s *Store) SaveInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.invoices[inv.ID.String()] = inv
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invoiceID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invoiceID.String()]; ok {
		return inv, nil
	}
	return nil, errs.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, accountID id.AccountID, opts invoice.ListOpts) ([]*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if !inv.AccountID.Equal(accountID) {
			continue
		}
		if !opts.ClientID.IsNil() && !inv.ClientID.Equal(opts.ClientID) {
			continue
		}
		if !opts.QuoteID.IsNil() && !inv.QuoteID.Equal(opts.QuoteID) {
			continue
		}
		if opts.Status != "" && inv.Status() != opts.Status {
			continue
		}
		result = append(result, inv)
	}
	sortByCreated(result, func(inv *invoice.Invoice) (types.Entity, id.ID) { return inv.Entity, inv.ID })
	return page(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Credit note Store implementation
// ──────────────────────────────────────────────────

func (s *Store) SaveCreditNote(_ context.Context, cn *creditnote.CreditNote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creditNotes[cn.ID.String()] = cn
	return nil
}

func (s *Store) GetCreditNote(_ context.Context, creditNoteID id.CreditNoteID) (*creditnote.CreditNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if cn, ok := s.creditNotes[creditNoteID.String()]; ok {
		return cn, nil
	}
	return nil, errs.ErrCreditNoteNotFound
}

func (s *Store) ListCreditNotes(_ context.Context, accountID id.AccountID, opts creditnote.ListOpts) ([]*creditnote.CreditNote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*creditnote.CreditNote, 0)
	for _, cn := range s.creditNotes {
		if !cn.AccountID.Equal(accountID) {
			continue
		}
		if !opts.InvoiceID.IsNil() && !cn.InvoiceID.Equal(opts.InvoiceID) {
			continue
		}
		result = append(result, cn)
	}
	sortByCreated(result, func(cn *creditnote.CreditNote) (types.Entity, id.ID) { return cn.Entity, cn.ID })
	return page(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Receipt Store implementation
// ──────────────────────────────────────────────────

func (s *Store) SaveReceipt(_ context.Context, r *receipt.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receipts[r.ID.String()] = r
	return nil
}

func (s *Store) GetReceipt(_ context.Context, receiptID id.ReceiptID) (*receipt.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.receipts[receiptID.String()]; ok {
		return r, nil
	}
	return nil, errs.ErrReceiptNotFound
}

func (s *Store) ListReceipts(_ context.Context, accountID id.AccountID, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*receipt.Receipt, 0)
	for _, r := range s.receipts {
		if !r.AccountID.Equal(accountID) {
			continue
		}
		if !opts.InvoiceID.IsNil() && !r.InvoiceID.Equal(opts.InvoiceID) {
			continue
		}
		result = append(result, r)
	}
	sortByCreated(result, func(r *receipt.Receipt) (types.Entity, id.ID) { return r.Entity, r.ID })
	return page(result, opts.Offset, opts.Limit), nil
}

// ──────────────────────────────────────────────────
// Core methods
// ──────────────────────────────────────────────────

func (s *Store) Ping(_ context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Helper functions

// sortByCreated orders records by creation time, then id.
func sortByCreated[T any](items []T, key func(T) (types.Entity, id.ID)) {
	slices.SortFunc(items, func(a, b T) int {
		ea, ia := key(a)
		eb, ib := key(b)
		if c := ea.CreatedAt.Compare(eb.CreatedAt); c != 0 {
			return c
		}
		return ia.Compare(ib)
	})
}

// page applies offset and limit. A zero limit returns everything after offset.
func page[T any](items []T, offset, limit int) []T {
	start := min(max(offset, 0), len(items))
	end := len(items)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return items[start:end]
}
