package nmi_direct_post

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

// ProcessRecurringPayment charges the first cycle and creates a gateway
// subscription that bills the order total until it is canceled.
//
// Year cycles are sent as month_frequency = years*12. The gateway rejects
// anything above 24 months and that rejection comes back as a normal decline.
func (c *Client) ProcessRecurringPayment(ctx context.Context, req *models.ProcessPaymentRequest) (models.ProcessPaymentResult, error) {
	var result models.ProcessPaymentResult

	frequency, err := c.frequencyValues(req.RecurringCyclePeriod, req.RecurringCycleLength)
	if err != nil {
		return result, configErr("process recurring payment", err)
	}

	values, dir, err := c.checkoutValues(ctx, "process recurring payment", req)
	if err != nil {
		return result, err
	}

	values.Set("recurring", "add_subscription")
	values.Set("plan_amount", formatAmount(req.OrderTotal))
	// 0 payments: continue until canceled
	values.Set("plan_payments", "0")
	for k, v := range frequency {
		values[k] = v
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

	result.SubscriptionTransactionID = outcome.TransactionCode()
	result.AVSResult = outcome.AVSResult
	result.CVV2Result = outcome.CVVResult
	result.NewPaymentStatus = c.completeCheckout(ctx, req, dir)
	return result, nil
}

// frequencyValues translates a billing cycle into day_frequency or
// month_frequency + day_of_month.
func (c *Client) frequencyValues(period models.CyclePeriod, length int) (url.Values, error) {
	values := url.Values{}
	dayOfMonth := strconv.Itoa(c.now().UTC().Day())

	switch period {
	case models.CycleDays:
		values.Set("day_frequency", strconv.Itoa(length))
	case models.CycleWeeks:
		values.Set("day_frequency", strconv.Itoa(length*7))
	case models.CycleMonths:
		values.Set("month_frequency", strconv.Itoa(length))
		values.Set("day_of_month", dayOfMonth)
	case models.CycleYears:
		values.Set("month_frequency", strconv.Itoa(length*12))
		values.Set("day_of_month", dayOfMonth)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCyclePeriod, period)
	}
	return values, nil
}

// CancelRecurringPayment deletes the gateway subscription of the order.
// An approval changes nothing on the order.
func (c *Client) CancelRecurringPayment(ctx context.Context, req models.CancelRecurringPaymentRequest) (models.CancelRecurringPaymentResult, error) {
	var result models.CancelRecurringPaymentResult

	subscriptionID := req.Order.SubscriptionTransactionID
	if subscriptionID == "" {
		return result, configErr("cancel recurring payment", ErrMissingSubscriptionID)
	}

	values := url.Values{}
	values.Set("recurring", "delete_subscription")
	c.addSecurityValues(values)
	values.Set("subscription_id", subscriptionID)

	outcome, err := c.transact(ctx, values, zap.String("subscription_id", subscriptionID))
	result.Outcome = outcome
	if err != nil {
		result.AddError(transportErrorMessage(err))
		return result, nil
	}
	if !outcome.Approved() {
		result.AddError(outcome.Message)
	}
	return result, nil
}
