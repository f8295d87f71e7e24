// Package id defines TypeID-based identity types for all invoicing entities.
//
// Every record, party and event uses a single ID struct with a prefix that
// identifies the entity type. IDs are K-sortable (UUIDv7-based), globally
// unique, and URL-safe in the format "prefix_suffix". Parsing only accepts
// the prefixes listed below.
package id

import (
	"fmt"
	"strings"

	"go.jetify.com/typeid/v2"
)

// Prefix is the type prefix of an ID.
type Prefix string

// Prefix constants for all entity types.
const (
	PrefixAccount    Prefix = "acct" // Account owning the documents
	PrefixClient     Prefix = "cli"  // Client billed by an account
	PrefixQuote      Prefix = "quo"  // Quote
	PrefixInvoice    Prefix = "inv"  // Invoice
	PrefixCreditNote Prefix = "cn"   // Credit note
	PrefixReceipt    Prefix = "rcpt" // Receipt
	PrefixEvent      Prefix = "evt"  // Domain event
)

var known = map[Prefix]bool{
	PrefixAccount:    true,
	PrefixClient:     true,
	PrefixQuote:      true,
	PrefixInvoice:    true,
	PrefixCreditNote: true,
	PrefixReceipt:    true,
	PrefixEvent:      true,
}

// Known reports whether p is one of the invoicing prefixes.
func (p Prefix) Known() bool { return known[p] }

// ID wraps a TypeID. The zero value is Nil.
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receiver for UnmarshalText.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// Type aliases documenting which prefix a field carries.
type (
	AccountID    = ID
	ClientID     = ID
	QuoteID      = ID
	InvoiceID    = ID
	CreditNoteID = ID
	ReceiptID    = ID
	EventID      = ID
)

// New generates an ID with the given prefix. It panics on an unknown prefix.
func New(prefix Prefix) ID {
	if !prefix.Known() {
		panic(fmt.Sprintf("id: unknown prefix %q", prefix))
	}
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: generate %q: %v", prefix, err))
	}
	return ID{inner: tid, valid: true}
}

func NewAccountID() ID    { return New(PrefixAccount) }
func NewClientID() ID     { return New(PrefixClient) }
func NewQuoteID() ID      { return New(PrefixQuote) }
func NewInvoiceID() ID    { return New(PrefixInvoice) }
func NewCreditNoteID() ID { return New(PrefixCreditNote) }
func NewReceiptID() ID    { return New(PrefixReceipt) }
func NewEventID() ID      { return New(PrefixEvent) }

// Parse parses a TypeID string such as "inv_01h2xcejqtf2nbrexx3vqjhp41".
// Prefixes outside the invoicing set are rejected.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}
	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}
	if p := Prefix(tid.Prefix()); !p.Known() {
		return Nil, fmt.Errorf("id: parse %q: unknown prefix %q", s, p)
	}
	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses s and checks its prefix.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}
	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}
	return parsed, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return parsed
}

func ParseAccountID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixAccount) }
func ParseClientID(s string) (ID, error)     { return ParseWithPrefix(s, PrefixClient) }
func ParseQuoteID(s string) (ID, error)      { return ParseWithPrefix(s, PrefixQuote) }
func ParseInvoiceID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixInvoice) }
func ParseCreditNoteID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCreditNote) }
func ParseReceiptID(s string) (ID, error)    { return ParseWithPrefix(s, PrefixReceipt) }
func ParseEventID(s string) (ID, error)      { return ParseWithPrefix(s, PrefixEvent) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns "prefix_suffix", or "" for Nil.
func (i ID) String() string {
	if !i.valid {
		return ""
	}
	return i.inner.String()
}

// Prefix returns the prefix, or "" for Nil.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}
	return Prefix(i.inner.Prefix())
}

// IsNil reports whether i is the zero value.
func (i ID) IsNil() bool { return !i.valid }

// Equal reports whether i and o are the same ID. Nil equals only Nil.
func (i ID) Equal(o ID) bool { return i.String() == o.String() }

// Compare orders IDs by their string form. Within one prefix this is
// generation order. Nil sorts first.
func (i ID) Compare(o ID) int { return strings.Compare(i.String(), o.String()) }

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty input yields Nil.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil
		return nil
	}
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
