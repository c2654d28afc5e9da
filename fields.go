package nmi_direct_post

import (
	"context"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

// formatAmount renders an amount with two decimals and a '.' separator.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// truncateZip keeps the 5-digit part of a ZIP+4 code.
func truncateZip(zip string) string {
	if len(zip) > 5 {
		return zip[:5]
	}
	return zip
}

// firstSegment returns the transaction id part of "<transactionid>,<authcode>".
func firstSegment(code string) string {
	id, _, _ := strings.Cut(code, ",")
	return strings.TrimSpace(id)
}

// addSecurityValues adds username/password or security_key, never both.
func (c *Client) addSecurityValues(values url.Values) {
	creds := c.cfg.Credentials
	if creds.UseUsernamePassword {
		values.Set("username", creds.Username)
		values.Set("password", creds.Password)
		return
	}
	values.Set("security_key", creds.SecurityKey)
}

// saleValues assembles the fields shared by checkout charges and subscriptions.
func (c *Client) saleValues(req *models.ProcessPaymentRequest) url.Values {
	txType := "auth"
	if c.cfg.TransactMode == TransactModeAuthorizeAndCapture {
		txType = "sale"
	}

	addr := req.BillingAddress
	values := url.Values{}
	values.Set("payment", "creditcard")
	values.Set("type", txType)
	values.Set("address1", addr.Address1)
	values.Set("city", addr.City)
	values.Set("state", addr.StateAbbreviation)
	values.Set("zip", truncateZip(addr.ZipPostalCode))
	values.Set("amount", formatAmount(req.OrderTotal))
	values.Set("orderid", req.OrderGUID)

	c.addNameValues(req, values)
	return values
}

// addNameValues uses the name typed on the payment form when that field is
// enabled, and the billing address name otherwise.
func (c *Client) addNameValues(req *models.ProcessPaymentRequest, values url.Values) {
	if c.cfg.UseNameOnCardField {
		values.Set("firstname", req.PaymentInfo.FirstNameOnCard)
		values.Set("lastname", req.PaymentInfo.LastNameOnCard)
		return
	}
	values.Set("firstname", req.BillingAddress.FirstName)
	values.Set("lastname", req.BillingAddress.LastName)
}

// vaultDirective describes the customer vault part of a charge.
type vaultDirective struct {
	// newID is set when the charge creates a vault entry that must be
	// persisted once the gateway approves.
	newID string
}

// addCustomerVaultValues adds add_customer/update_customer when the shopper
// asked to save the card and the merchant allows it.
func (c *Client) addCustomerVaultValues(req *models.ProcessPaymentRequest, existingID string, values url.Values) vaultDirective {
	var dir vaultDirective
	if !c.cfg.AllowCustomerToSaveCards || !req.PaymentInfo.SaveCustomer {
		return dir
	}

	if existingID == "" {
		dir.newID = req.Customer.GUID
		if dir.newID == "" {
			dir.newID = c.newVaultID()
		}
		values.Set("customer_vault", "add_customer")
		values.Set("customer_vault_id", dir.newID)
		return dir
	}

	// already on file, nothing new to persist
	values.Set("customer_vault", "update_customer")
	values.Set("customer_vault_id", existingID)
	return dir
}

// addStoredCardValues picks the card source: a vaulted billing id when one
// was selected, the one-time token otherwise.
func (c *Client) addStoredCardValues(req *models.ProcessPaymentRequest, existingID string, values url.Values) error {
	info := req.PaymentInfo
	if info.UsesStoredCard() {
		if existingID != "" {
			values.Set("customer_vault_id", existingID)
		} else {
			c.logger.Warn("customer tried to use a stored card but has no customer vault id saved",
				zap.String("customer_id", req.Customer.ID),
				zap.String("billing_id", info.StoredCardID),
			)
		}
		values.Set("billing_id", info.StoredCardID)
		return nil
	}

	if info.Token == "" {
		return ErrMissingPaymentSource
	}
	values.Set("payment_token", info.Token)
	return nil
}

// checkoutValues builds the complete field set for a checkout charge and
// reports which vault id, if any, must be saved after approval.
func (c *Client) checkoutValues(ctx context.Context, op string, req *models.ProcessPaymentRequest) (url.Values, vaultDirective, error) {
	if req.BillingAddress == nil {
		return nil, vaultDirective{}, configErr(op, ErrMissingBillingAddress)
	}

	var (
		existingID   string
		lookupFailed bool
	)
	info := req.PaymentInfo
	if info.UsesStoredCard() || (c.cfg.AllowCustomerToSaveCards && info.SaveCustomer) {
		id, err := c.attrs.GetAttribute(ctx, req.Customer.ID, CustomerVaultIDKey)
		if err != nil {
			c.logger.Error("failed to read customer vault id",
				zap.String("customer_id", req.Customer.ID),
				zap.Error(err),
			)
			lookupFailed = true
		}
		existingID = id
	}

	values := c.saleValues(req)
	var dir vaultDirective
	if lookupFailed {
		// An unknown vault id must not be replaced by a new one.
		if info.SaveCustomer {
			c.logger.Warn("card not saved, customer vault id could not be read",
				zap.String("customer_id", req.Customer.ID),
			)
		}
	} else {
		dir = c.addCustomerVaultValues(req, existingID, values)
	}
	if err := c.addStoredCardValues(req, existingID, values); err != nil {
		return nil, vaultDirective{}, configErr(op, err)
	}
	c.addSecurityValues(values)
	return values, dir, nil
}

// completeCheckout runs the shared success path of charges and subscriptions.
func (c *Client) completeCheckout(ctx context.Context, req *models.ProcessPaymentRequest, dir vaultDirective) models.PaymentStatus {
	if dir.newID != "" {
		if err := c.attrs.SaveAttribute(ctx, req.Customer.ID, CustomerVaultIDKey, dir.newID); err != nil {
			c.logger.Error("failed to save customer vault id",
				zap.String("customer_id", req.Customer.ID),
				zap.Error(err),
			)
		}
	}

	// don't let card values end up on the persisted order
	req.PaymentInfo = models.PaymentInfo{}

	if c.cfg.TransactMode == TransactModeAuthorizeAndCapture {
		return models.PaymentStatusPaid
	}
	return models.PaymentStatusAuthorized
}
