package nmi_direct_post

import (
	"context"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

// SelectCardText is the label of the placeholder option prepended to the
// stored card list.
const SelectCardText = "Select a card..."

// QueryCustomerVault returns the cards stored in the customer vault, in
// document order. vaultID must not be empty.
//
// Transport failures, unparseable XML and replies without a customer_vault
// element are logged and yield an empty list.
func (c *Client) QueryCustomerVault(ctx context.Context, vaultID string) ([]models.StoredCard, error) {
	if vaultID == "" {
		return nil, configErr("query customer vault", ErrMissingVaultID)
	}

	values := url.Values{}
	c.addSecurityValues(values)
	values.Set("report_type", "customer_vault")
	values.Set("customer_vault_id", vaultID)
	// undocumented: without ver=2 the gateway returns a single billing record
	values.Set("ver", "2")

	body, err := c.postForm(ctx, c.queryURL, values)
	if err != nil {
		c.logger.Error("nmi customer vault query error",
			zap.String("customer_vault_id", vaultID),
			zap.Error(err),
		)
		return nil, nil
	}

	cards, err := parseVaultResponse(body)
	if err != nil {
		c.logger.Error("failed to parse nmi customer vault response",
			zap.String("customer_vault_id", vaultID),
			zap.String("body", string(body)),
			zap.Error(err),
		)
		return nil, nil
	}
	if cards == nil {
		c.logger.Warn("nmi customer vault response has no customer_vault element",
			zap.String("customer_vault_id", vaultID),
			zap.String("body", string(body)),
		)
		return nil, nil
	}
	return cards, nil
}

// CustomerStoredCards looks up the customer's vault id and queries its cards.
// Customers without a vault id have no stored cards.
func (c *Client) CustomerStoredCards(ctx context.Context, customerID string) ([]models.StoredCard, error) {
	vaultID, err := c.attrs.GetAttribute(ctx, customerID, CustomerVaultIDKey)
	if err != nil {
		return nil, err
	}
	if vaultID == "" {
		return nil, nil
	}
	return c.QueryCustomerVault(ctx, vaultID)
}

// StoredCardOptions turns stored cards into drop-down options with the
// "Select a card..." placeholder first.
func StoredCardOptions(cards []models.StoredCard) []models.SelectOption {
	opts := make([]models.SelectOption, 0, len(cards)+1)
	opts = append(opts, models.SelectOption{Value: models.NoStoredCard, Text: SelectCardText})
	for _, card := range cards {
		opts = append(opts, models.SelectOption{Value: card.BillingID, Text: card.Label()})
	}
	return opts
}

// parseVaultResponse reads nm_response/customer_vault/customer/billing.
// A nil slice with a nil error means the customer_vault element is missing.
func parseVaultResponse(body []byte) ([]models.StoredCard, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(body); err != nil {
		return nil, err
	}

	vault := doc.FindElement("./nm_response/customer_vault")
	if vault == nil {
		return nil, nil
	}

	cards := []models.StoredCard{}
	for _, billing := range vault.FindElements("./customer/billing") {
		cards = append(cards, storedCardFromBilling(billing))
	}
	return cards, nil
}

func storedCardFromBilling(billing *etree.Element) models.StoredCard {
	exp := childText(billing, "cc_exp")
	var month, year string
	if len(exp) >= 4 {
		month, year = exp[:2], exp[2:4]
	}

	return models.StoredCard{
		BillingID:    billing.SelectAttrValue("id", ""),
		MaskedNumber: childText(billing, "cc_number"),
		ExpiryMonth:  month,
		ExpiryYear:   year,
		Brand:        DetectCardBrand(childText(billing, "cc_bin")),
	}
}

func childText(el *etree.Element, tag string) string {
	if child := el.SelectElement(tag); child != nil {
		return strings.TrimSpace(child.Text())
	}
	return ""
}
