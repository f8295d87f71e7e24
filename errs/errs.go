// Package errs defines the error vocabulary shared by every invoicing package.
//
// Guard violations (illegal mutation outside Draft, illegal lifecycle
// transitions, failed preconditions) are reported as *GuardError wrapping one
// of the sentinels below. Schema failures at build time are reported as
// ValidationErrors. The two never overlap.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("invoicer: not found")
	ErrAlreadyExists = errors.New("invoicer: already exists")
	ErrInvalidInput  = errors.New("invoicer: invalid input")

	// Not found errors
	ErrAccountNotFound    = errors.New("invoicer: account not found")
	ErrClientNotFound     = errors.New("invoicer: client not found")
	ErrQuoteNotFound      = errors.New("invoicer: quote not found")
	ErrInvoiceNotFound    = errors.New("invoicer: invoice not found")
	ErrCreditNoteNotFound = errors.New("invoicer: credit note not found")
	ErrReceiptNotFound    = errors.New("invoicer: receipt not found")

	// Builder guard errors
	ErrNotDraft          = errors.New("invoicer: record is not a draft")
	ErrInvalidTransition = errors.New("invoicer: invalid status transition")
	ErrMixedTaxRates     = errors.New("invoicer: discounts require a single tax rate")
	ErrInvalidDiscount   = errors.New("invoicer: invalid discount")
	ErrInvalidAmount     = errors.New("invoicer: invalid amount")

	// Derivation preconditions
	ErrQuoteNotAccepted  = errors.New("invoicer: quote is not accepted")
	ErrQuoteNotDerivable = errors.New("invoicer: quote is neither expired nor rejected")
	ErrInvoiceNotPaid    = errors.New("invoicer: invoice is not paid")

	// Bus errors
	ErrSubscriber = errors.New("invoicer: subscriber failed")

	// Record dispatch
	ErrUnknownRecord = errors.New("invoicer: unknown record kind")
)

// GuardError describes a business-rule violation raised by a builder.
type GuardError struct {
	Record string // "quote", "invoice", ...
	Op     string // "send", "pay", "set number", ...
	Status string // computed status at the time of the call
	Reason string // human-readable reason, e.g. "already paid"
	Err    error  // sentinel
}

func (e *GuardError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invoicer: cannot %s %s %s", e.Op, article(e.Record), e.Reason)
	}
	return fmt.Sprintf("invoicer: cannot %s %s in status %s", e.Op, article(e.Record), e.Status)
}

// Unwrap returns the sentinel so errors.Is works against GuardError.
func (e *GuardError) Unwrap() error { return e.Err }

// Guard builds a GuardError.
func Guard(record, op, status, reason string, sentinel error) error {
	return &GuardError{Record: record, Op: op, Status: status, Reason: reason, Err: sentinel}
}

func article(noun string) string {
	if noun == "" {
		return "a record"
	}
	switch noun[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "an " + noun
	}
	return "a " + noun
}

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invoicer: validation failed for %s: %s", e.Field, e.Message)
}

// ValidationErrors collects every schema failure found while materializing a record.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return "invoicer: no validation errors"
	case 1:
		return e[0].Error()
	}

	fields := make([]string, 0, len(e))
	for _, v := range e {
		fields = append(fields, v.Field)
	}
	return fmt.Sprintf("invoicer: validation failed for %s", strings.Join(fields, ", "))
}

// Field returns the failure reported for field, if any.
func (e ValidationErrors) Field(field string) (ValidationError, bool) {
	for _, v := range e {
		if v.Field == field {
			return v, true
		}
	}
	return ValidationError{}, false
}

// IsGuard returns true if err is a builder guard violation.
func IsGuard(err error) bool {
	var g *GuardError
	return errors.As(err, &g)
}

// IsValidation returns true if err is a build-time schema failure.
func IsValidation(err error) bool {
	var single ValidationError
	if errors.As(err, &single) {
		return true
	}
	var many ValidationErrors
	return errors.As(err, &many)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrQuoteNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrCreditNoteNotFound) ||
		errors.Is(err, ErrReceiptNotFound)
}
