package nmi_direct_post

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

// ProcessPayment charges a checkout with sale or auth, depending on the
// transact mode.
//
// The returned error is non-nil only for caller-side problems (no billing
// address, no payment source); gateway declines and transport failures are
// reported through result.Errors and result.Outcome.
//
// On approval req.PaymentInfo is cleared and, if the shopper asked to save a
// card for the first time, the new vault id is stored on the customer.
// The read of the existing vault id and the later write are not guarded
// against two concurrent saves by the same customer; both would send
// add_customer and the last write wins.
func (c *Client) ProcessPayment(ctx context.Context, req *models.ProcessPaymentRequest) (models.ProcessPaymentResult, error) {
	var result models.ProcessPaymentResult

	values, dir, err := c.checkoutValues(ctx, "process payment", req)
	if err != nil {
		return result, err
	}

	outcome, err := c.transact(ctx, values, zap.String("customer_id", req.Customer.ID), zap.String("order_id", req.OrderGUID))
	result.Outcome = outcome
	if err != nil {
		result.AddError(transportErrorMessage(err))
		return result, nil
	}
	if !outcome.Approved() {
		result.AddError(outcome.Message)
		return result, nil
	}

	result.AuthorizationTransactionCode = outcome.TransactionCode()
	result.AuthorizationTransactionResult = "Approved (" + outcome.Message + ")"
	result.AVSResult = outcome.AVSResult
	result.CVV2Result = outcome.CVVResult
	result.NewPaymentStatus = c.completeCheckout(ctx, req, dir)
	return result, nil
}

// Capture captures the full order total of a previous authorization.
func (c *Client) Capture(ctx context.Context, req models.CapturePaymentRequest) (models.CapturePaymentResult, error) {
	var result models.CapturePaymentResult

	txID := firstSegment(req.Order.AuthorizationTransactionCode)
	if txID == "" {
		return result, configErr("capture", ErrMissingTransactionID)
	}

	values := url.Values{}
	values.Set("type", "capture")
	values.Set("amount", formatAmount(req.Order.OrderTotal))
	c.addSecurityValues(values)
	values.Set("transactionid", txID)

	outcome, err := c.transact(ctx, values, zap.String("transaction_id", txID))
	result.Outcome = outcome
	if err != nil {
		result.AddError(transportErrorMessage(err))
		return result, nil
	}
	if !outcome.Approved() {
		result.AddError(outcome.Message)
		return result, nil
	}

	result.CaptureTransactionID = outcome.TransactionCode()
	result.NewPaymentStatus = models.PaymentStatusPaid
	return result, nil
}

// Refund returns AmountToRefund to the shopper.
//
// The gateway is sent type=capture, not type=refund. This is how the
// integration has always talked to the gateway and it is kept as is until it
// is confirmed against the current Direct Post documentation.
//
// The order becomes Refunded when the refunded total equals the order total
// exactly, PartiallyRefunded otherwise.
func (c *Client) Refund(ctx context.Context, req models.RefundPaymentRequest) (models.RefundPaymentResult, error) {
	var result models.RefundPaymentResult

	txID := settledTransactionID(req.Order)
	if txID == "" {
		return result, configErr("refund", ErrMissingTransactionID)
	}

	values := url.Values{}
	values.Set("type", "capture")
	values.Set("amount", formatAmount(req.AmountToRefund))
	c.addSecurityValues(values)
	values.Set("transactionid", txID)

	outcome, err := c.transact(ctx, values, zap.String("transaction_id", txID))
	result.Outcome = outcome
	if err != nil {
		result.AddError(transportErrorMessage(err))
		return result, nil
	}
	if !outcome.Approved() {
		result.AddError(outcome.Message)
		return result, nil
	}

	result.NewPaymentStatus = refundStatus(req)
	return result, nil
}

func refundStatus(req models.RefundPaymentRequest) models.PaymentStatus {
	refunded := req.AmountToRefund.Add(req.Order.RefundedAmount)
	if refunded.Equal(req.Order.OrderTotal) {
		return models.PaymentStatusRefunded
	}
	return models.PaymentStatusPartiallyRefunded
}

// Void cancels an authorization or an unsettled capture.
func (c *Client) Void(ctx context.Context, req models.VoidPaymentRequest) (models.VoidPaymentResult, error) {
	var result models.VoidPaymentResult

	txID := settledTransactionID(req.Order)
	if txID == "" {
		return result, configErr("void", ErrMissingTransactionID)
	}

	values := url.Values{}
	values.Set("type", "void")
	c.addSecurityValues(values)
	values.Set("transactionid", txID)

	outcome, err := c.transact(ctx, values, zap.String("transaction_id", txID))
	result.Outcome = outcome
	if err != nil {
		result.AddError(transportErrorMessage(err))
		return result, nil
	}
	if !outcome.Approved() {
		result.AddError(outcome.Message)
		return result, nil
	}

	result.NewPaymentStatus = models.PaymentStatusVoided
	return result, nil
}

// settledTransactionID prefers the capture transaction and falls back to the
// authorization.
func settledTransactionID(order models.Order) string {
	if order.CaptureTransactionID != "" {
		return firstSegment(order.CaptureTransactionID)
	}
	return firstSegment(order.AuthorizationTransactionCode)
}
