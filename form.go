package nmi_direct_post

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

// Payment form field names.
const (
	FormToken           = "Token"
	FormStoredCardID    = "StoredCardId"
	FormSaveCustomer    = "SaveCustomer"
	FormFirstNameOnCard = "FirstNameOnCard"
	FormLastNameOnCard  = "LastNameOnCard"
	FormErrors          = "Errors"
)

// GetPaymentInfo reads the payment form once into a typed PaymentInfo.
// The "0" stored card placeholder and unparseable SaveCustomer values are ignored.
func GetPaymentInfo(form url.Values) models.PaymentInfo {
	var info models.PaymentInfo

	info.Token = form.Get(FormToken)

	if id := form.Get(FormStoredCardID); id != models.NoStoredCard {
		info.StoredCardID = id
	}

	if save, err := strconv.ParseBool(form.Get(FormSaveCustomer)); err == nil {
		info.SaveCustomer = save
	}

	info.FirstNameOnCard = form.Get(FormFirstNameOnCard)
	info.LastNameOnCard = form.Get(FormLastNameOnCard)
	return info
}

// ValidatePaymentForm returns the warnings to show on the payment form.
func (c *Client) ValidatePaymentForm(form url.Values) []string {
	var warnings []string

	if c.cfg.UseNameOnCardField {
		if form.Get(FormFirstNameOnCard) == "" {
			warnings = append(warnings, "First name cannot be empty")
		}
		if form.Get(FormLastNameOnCard) == "" {
			warnings = append(warnings, "Last name cannot be empty")
		}
	}

	// client-side tokenization reports its failures through this field
	if errs := form[FormErrors]; len(errs) > 0 && strings.Join(errs, "") != "" {
		warnings = append(warnings, strings.Join(errs, ","))
	}
	return warnings
}
