package models

import "github.com/shopspring/decimal"

// Customer identifies the shopper the payment is made for.
type Customer struct {
	// ID is the host platform's customer key, used for the attribute store.
	ID string

	// GUID is the customer's stable unique identifier. When set it becomes the
	// customer vault id on first save; otherwise a fresh UUID is generated.
	GUID string
}

// Address is a billing address as the gateway needs it.
type Address struct {
	FirstName string
	LastName  string
	Address1  string
	City      string

	// StateAbbreviation is the two-letter state code (e.g. "TX").
	StateAbbreviation string

	// ZipPostalCode may carry a ZIP+4 suffix; only the first 5 characters are sent.
	ZipPostalCode string
}

// PaymentInfo carries the values collected by the payment form across the
// checkout step boundary. It replaces a loosely typed custom-values bag.
type PaymentInfo struct {
	// Token is the one-time card token from client-side tokenization.
	Token string

	// StoredCardID is the billing id of a vaulted card. Empty or "0" means
	// no stored card was selected.
	StoredCardID string

	// SaveCustomer asks for the card to be stored in the customer vault.
	SaveCustomer bool

	FirstNameOnCard string
	LastNameOnCard  string
}

// UsesStoredCard reports whether a stored card was selected. A stored card
// takes precedence over any token.
func (p PaymentInfo) UsesStoredCard() bool {
	return p.StoredCardID != "" && p.StoredCardID != NoStoredCard
}

// IsZero reports whether no payment values are present.
func (p PaymentInfo) IsZero() bool {
	return p == PaymentInfo{}
}

// NoStoredCard is the sentinel value of the "Select a card..." option.
const NoStoredCard = "0"

// CyclePeriod is the unit of a recurring billing cycle.
type CyclePeriod int

const (
	CycleDays CyclePeriod = iota
	CycleWeeks
	CycleMonths
	CycleYears
)

func (p CyclePeriod) String() string {
	switch p {
	case CycleDays:
		return "days"
	case CycleWeeks:
		return "weeks"
	case CycleMonths:
		return "months"
	case CycleYears:
		return "years"
	default:
		return "unknown"
	}
}

// ProcessPaymentRequest is the input for a checkout charge or a new subscription.
type ProcessPaymentRequest struct {
	// OrderGUID is sent as orderid.
	OrderGUID string

	// OrderTotal is the amount to charge.
	OrderTotal decimal.Decimal

	Customer       Customer
	BillingAddress *Address

	// PaymentInfo is cleared after a successful charge so card data is not
	// persisted with the order.
	PaymentInfo PaymentInfo

	// RecurringCyclePeriod and RecurringCycleLength are only used by
	// ProcessRecurringPayment.
	RecurringCyclePeriod CyclePeriod
	RecurringCycleLength int
}

// Order is the slice of a host order the follow-up operations need.
type Order struct {
	OrderTotal decimal.Decimal

	// RefundedAmount is the total refunded before the current request.
	RefundedAmount decimal.Decimal

	// AuthorizationTransactionCode has the form "<transactionid>,<authcode>".
	AuthorizationTransactionCode string

	// CaptureTransactionID has the form "<transactionid>,<authcode>".
	CaptureTransactionID string

	// SubscriptionTransactionID is the id returned by ProcessRecurringPayment.
	SubscriptionTransactionID string
}

// CapturePaymentRequest captures a previously authorized order total.
type CapturePaymentRequest struct {
	Order Order
}

// RefundPaymentRequest refunds part or all of a settled order.
type RefundPaymentRequest struct {
	Order          Order
	AmountToRefund decimal.Decimal
}

// VoidPaymentRequest voids an authorization or an unsettled capture.
type VoidPaymentRequest struct {
	Order Order
}

// CancelRecurringPaymentRequest stops a gateway subscription.
type CancelRecurringPaymentRequest struct {
	Order Order
}
