package invoicer

import (
	"github.com/xraph/invoicer/discount"
	"github.com/xraph/invoicer/event"
	"github.com/xraph/invoicer/id"
	"github.com/xraph/invoicer/lineitem"
	"github.com/xraph/invoicer/record"
	"github.com/xraph/invoicer/types"
)

// Re-export common types for convenience so users don't have to import the
// leaf packages for everyday use.

// ID is the primary identifier type for all invoicing entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix

// Amount is re-exported from types package.
type Amount = types.Amount

// Entity is re-exported from types package.
type Entity = types.Entity

// Item is a single line of a document.
type Item = lineitem.Item

// Discount is a document-level reduction.
type Discount = discount.Discount

// Event is a single entry of the activity stream.
type Event = event.Event

// EventType names an event, e.g. "invoice:paid".
type EventType = event.Type

// Record is implemented by every built document.
type Record = record.Record

// Kind identifies a document kind.
type Kind = record.Kind

// Re-export Amount constructors
var (
	EUR       = types.EUR
	USD       = types.USD
	GBP       = types.GBP
	JPY       = types.JPY
	NewAmount = types.NewAmount
)

// Re-export Entity constructor
var NewEntity = types.NewEntity
