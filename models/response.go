package models

// PaymentStatus is the host platform's order-level settlement state.
type PaymentStatus string

const (
	// PaymentStatusUnchanged means the operation did not move the order.
	PaymentStatusUnchanged         PaymentStatus = ""
	PaymentStatusAuthorized        PaymentStatus = "authorized"
	PaymentStatusPaid              PaymentStatus = "paid"
	PaymentStatusPartiallyRefunded PaymentStatus = "partially_refunded"
	PaymentStatusRefunded          PaymentStatus = "refunded"
	PaymentStatusVoided            PaymentStatus = "voided"
)

// Gateway response codes.
const (
	ResponseApproved = "1"
	ResponseDeclined = "2"
	ResponseError    = "3"
)

// OutcomeKind tags a gateway Outcome.
type OutcomeKind int

const (
	OutcomeApproved OutcomeKind = iota
	OutcomeDeclined
	OutcomeError
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeApproved:
		return "approved"
	case OutcomeDeclined:
		return "declined"
	default:
		return "error"
	}
}

// Outcome is the classified result of one gateway transaction.
// AuthCode, TransactionID, AVSResult and CVVResult are only set when Approved.
// Message carries the gateway responsetext, or the transport error text when
// the gateway could not be reached.
type Outcome struct {
	Kind          OutcomeKind
	ResponseCode  string
	AuthCode      string
	TransactionID string
	AVSResult     string
	CVVResult     string
	Message       string
}

// Approved reports whether the gateway approved the transaction.
func (o Outcome) Approved() bool { return o.Kind == OutcomeApproved }

// TransactionCode joins the transaction id and auth code the way orders store them.
func (o Outcome) TransactionCode() string {
	return o.TransactionID + "," + o.AuthCode
}

// Result holds what every operation returns: the outcome, the new settlement
// status and the user-facing errors.
type Result struct {
	Outcome          Outcome
	NewPaymentStatus PaymentStatus
	Errors           []string
}

// Success reports whether the operation produced no errors.
func (r Result) Success() bool { return len(r.Errors) == 0 }

// AddError appends a user-facing error message.
func (r *Result) AddError(msg string) { r.Errors = append(r.Errors, msg) }

// ProcessPaymentResult is returned by ProcessPayment and ProcessRecurringPayment.
type ProcessPaymentResult struct {
	Result

	AuthorizationTransactionCode   string
	AuthorizationTransactionResult string
	SubscriptionTransactionID      string
	AVSResult                      string
	CVV2Result                     string
}

// CapturePaymentResult is returned by Capture.
type CapturePaymentResult struct {
	Result

	CaptureTransactionID string
}

// RefundPaymentResult is returned by Refund.
type RefundPaymentResult struct {
	Result
}

// VoidPaymentResult is returned by Void.
type VoidPaymentResult struct {
	Result
}

// CancelRecurringPaymentResult is returned by CancelRecurringPayment.
type CancelRecurringPaymentResult struct {
	Result
}

// StoredCard is one vaulted card, ready for display.
type StoredCard struct {
	BillingID    string
	MaskedNumber string
	ExpiryMonth  string
	ExpiryYear   string

	// Brand is detected from the card BIN; empty when unknown.
	Brand string
}

// Label renders "<masked number> (Exp. MM/YY)".
func (c StoredCard) Label() string {
	return c.MaskedNumber + " (Exp. " + c.ExpiryMonth + "/" + c.ExpiryYear + ")"
}

// SelectOption is a value/label pair for the stored card drop-down.
type SelectOption struct {
	Value string
	Text  string
}
