package audithook

// Action constants for audit events.
const (
	// Quote actions
	ActionQuoteDrafted  = "quote.drafted"
	ActionQuoteSent     = "quote.sent"
	ActionQuoteAccepted = "quote.accepted"
	ActionQuoteRejected = "quote.rejected"
	ActionQuoteExpired  = "quote.expired"
	ActionQuoteClosed   = "quote.closed"

	// Invoice actions
	ActionInvoiceDrafted       = "invoice.drafted"
	ActionInvoiceSent          = "invoice.sent"
	ActionInvoicePartiallyPaid = "invoice.partially_paid"
	ActionInvoicePaid          = "invoice.paid"
	ActionInvoiceOverdue       = "invoice.overdue"
	ActionInvoiceClosed        = "invoice.closed"

	// Derived document actions
	ActionCreditNoteCreated = "credit_note.created"
	ActionReceiptCreated    = "receipt.created"

	// Milestone actions
	ActionMilestoneReached  = "milestone.reached"
	ActionMilestoneForecast = "milestone.forecast"
)

// Resource constants for audit events.
const (
	ResourceQuote      = "quote"
	ResourceInvoice    = "invoice"
	ResourceCreditNote = "credit_note"
	ResourceReceipt    = "receipt"
	ResourceAccount    = "account"
)

// Category constants for audit events.
const (
	CategorySales     = "sales"
	CategoryBilling   = "billing"
	CategoryPayment   = "payment"
	CategoryMilestone = "milestone"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
