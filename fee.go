package nmi_direct_post

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// AdditionalHandlingFee returns the fee added to a cart with the given
// subtotal: the fixed AdditionalFee, or that percentage of the subtotal when
// AdditionalFeePercentage is set. Rounded to cents; never negative.
func (c *Client) AdditionalHandlingFee(subtotal decimal.Decimal) decimal.Decimal {
	fee := c.cfg.AdditionalFee
	if !fee.IsPositive() {
		return decimal.Zero
	}
	if c.cfg.AdditionalFeePercentage {
		fee = subtotal.Mul(fee).Div(hundred)
	}
	return fee.Round(2)
}
