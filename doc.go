// Package invoicer provides a composable invoicing core for Go applications.
//
// Invoicer is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - Fluent builders for quotes, invoices, credit notes and receipts
//   - Status computed from the event history and a clock
//   - A synchronous event bus with wildcard subscriptions
//   - Milestone tracking with forecasts and retractions
//   - Exact summaries (subtotal, discounts, taxes, total, paid, due)
//
// # Quick Start
//
// Create an invoicer instance, then drive documents through builders:
//
//	inv := invoicer.New(invoicer.WithLogger(slog.Default()))
//	if err := inv.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer inv.Stop()
//
//	ib := inv.NewInvoice()
//	_ = ib.SetAccount(accountID)
//	_ = ib.SetClient(clientID)
//	_ = ib.SetCurrency("eur")
//	_ = ib.AddItem(lineitem.Item{Description: "Consulting", Quantity: 2, UnitPrice: 50000, TaxRate: 0.21})
//	_ = ib.Send(time.Now())
//
//	snapshot, err := inv.CommitInvoice(ctx, ib)
//
// # Core Concepts
//
// Builders hold a draft and buffer lifecycle events. Build validates the
// content, flushes the buffered events on the bus and returns an immutable
// snapshot. Content setters fail once a record has left the draft status.
//
// Status is never stored. It is derived from the event history, and
// time-based transitions (quote expiration, invoice overdue) are evaluated
// against the clock when a builder is created.
//
// Milestones subscribe to the bus. Sending an invoice forecasts the count
// and revenue milestones it would reach if paid; paying it confirms them and
// closing it retracts them.
//
// # Amounts
//
// Prices are expressed in the smallest currency unit (cents for EUR, pence
// for GBP) as float64. Summaries keep float64 precision and never round.
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	inv_01h455vb4pex5vsknk084sn02q   // Invoice ID
//	quo_01h2xcejqtf2nbrexx3vqjhp41   // Quote ID
//
// TypeIDs are K-sortable, providing natural time-ordering of records.
package invoicer
