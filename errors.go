package invoicer

import "github.com/xraph/invoicer/errs"

// Sentinel errors re-exported from errs so callers only import invoicer.
var (
	// General errors
	ErrNotFound      = errs.ErrNotFound
	ErrAlreadyExists = errs.ErrAlreadyExists
	ErrInvalidInput  = errs.ErrInvalidInput

	// Not found errors
	ErrAccountNotFound    = errs.ErrAccountNotFound
	ErrClientNotFound     = errs.ErrClientNotFound
	ErrQuoteNotFound      = errs.ErrQuoteNotFound
	ErrInvoiceNotFound    = errs.ErrInvoiceNotFound
	ErrCreditNoteNotFound = errs.ErrCreditNoteNotFound
	ErrReceiptNotFound    = errs.ErrReceiptNotFound

	// Builder guard errors
	ErrNotDraft          = errs.ErrNotDraft
	ErrInvalidTransition = errs.ErrInvalidTransition
	ErrMixedTaxRates     = errs.ErrMixedTaxRates
	ErrInvalidDiscount   = errs.ErrInvalidDiscount
	ErrInvalidAmount     = errs.ErrInvalidAmount

	// Derivation preconditions
	ErrQuoteNotAccepted  = errs.ErrQuoteNotAccepted
	ErrQuoteNotDerivable = errs.ErrQuoteNotDerivable
	ErrInvoiceNotPaid    = errs.ErrInvoiceNotPaid

	// Bus errors
	ErrSubscriber = errs.ErrSubscriber

	// Record dispatch
	ErrUnknownRecord = errs.ErrUnknownRecord
)

// GuardError is returned when a builder refuses a mutation or transition.
type GuardError = errs.GuardError

// ValidationError represents a validation failure with details.
type ValidationError = errs.ValidationError

// ValidationErrors collects every schema failure found at build time.
type ValidationErrors = errs.ValidationErrors

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool { return errs.IsNotFound(err) }

// IsGuard returns true if err is a builder guard violation.
func IsGuard(err error) bool { return errs.IsGuard(err) }

// IsValidation returns true if err is a build-time schema failure.
func IsValidation(err error) bool { return errs.IsValidation(err) }
