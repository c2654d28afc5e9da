package nmi_direct_post

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

func TestProcessPayment_SaleApproved(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)
	req := checkoutRequest()
	req.OrderTotal = decimal.RequireFromString("1234.5")
	req.BillingAddress.ZipPostalCode = "12345-6789"

	res, err := c.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Equal(t, models.PaymentStatusPaid, res.NewPaymentStatus)
	require.Equal(t, "3141592653,123456", res.AuthorizationTransactionCode)
	require.Equal(t, "Approved (SUCCESS)", res.AuthorizationTransactionResult)
	require.Equal(t, "Y", res.AVSResult)
	require.Equal(t, "M", res.CVV2Result)

	form := g.lastForm(t)
	require.Equal(t, "creditcard", form.Get("payment"))
	require.Equal(t, "sale", form.Get("type"))
	require.Equal(t, "1234.50", form.Get("amount"))
	require.Equal(t, "12345", form.Get("zip"))
	require.Equal(t, "TX", form.Get("state"))
	require.Equal(t, "Austin", form.Get("city"))
	require.Equal(t, "1 Analytical Way", form.Get("address1"))
	require.Equal(t, "Ada", form.Get("firstname"))
	require.Equal(t, "Lovelace", form.Get("lastname"))
	require.Equal(t, req.OrderGUID, form.Get("orderid"))
	require.Equal(t, "tok_123", form.Get("payment_token"))
	require.False(t, form.Has("customer_vault"))
	require.False(t, form.Has("billing_id"))
}

func TestProcessPayment_AuthorizeOnly(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	cfg := securityKeyConfig()
	cfg.TransactMode = TransactModeAuthorize
	c := newTestClient(t, cfg, g)

	res, err := c.ProcessPayment(context.Background(), checkoutRequest())
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusAuthorized, res.NewPaymentStatus)
	require.Equal(t, "auth", g.lastForm(t).Get("type"))
}

func TestProcessPayment_ExactlyOneAuthMode(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		present []string
		absent  []string
	}{
		{"security key", securityKeyConfig(), []string{"security_key"}, []string{"username", "password"}},
		{"username password", vaultConfig(), []string{"username", "password"}, []string{"security_key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGateway(t, approvedBody)
			cfg := tt.cfg
			// both sets configured; only the selected one may be sent
			cfg.Credentials.Username, cfg.Credentials.Password, cfg.Credentials.SecurityKey = "demo", "password", "sk_test"
			c := newTestClient(t, cfg, g)
			ctx := context.Background()
			order := models.Order{OrderTotal: decimal.NewFromInt(10), AuthorizationTransactionCode: "1,2"}

			_, err := c.ProcessPayment(ctx, checkoutRequest())
			require.NoError(t, err)
			_, err = c.Capture(ctx, models.CapturePaymentRequest{Order: order})
			require.NoError(t, err)
			_, err = c.Refund(ctx, models.RefundPaymentRequest{Order: order, AmountToRefund: decimal.NewFromInt(1)})
			require.NoError(t, err)
			_, err = c.Void(ctx, models.VoidPaymentRequest{Order: order})
			require.NoError(t, err)
			_, err = c.CancelRecurringPayment(ctx, models.CancelRecurringPaymentRequest{Order: models.Order{SubscriptionTransactionID: "9"}})
			require.NoError(t, err)
			_, err = c.QueryCustomerVault(ctx, "vault-1")
			require.NoError(t, err)

			require.Equal(t, 6, g.calls())
			for _, form := range g.forms {
				for _, k := range tt.present {
					require.NotEmpty(t, form.Get(k), k)
				}
				for _, k := range tt.absent {
					require.False(t, form.Has(k), k)
				}
			}
		})
	}
}

func TestProcessPayment_SaveCardNewVault(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, vaultConfig(), g)
	ctx := context.Background()
	req := checkoutRequest()
	req.PaymentInfo.SaveCustomer = true

	res, err := c.ProcessPayment(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success())

	form := g.lastForm(t)
	require.Equal(t, "add_customer", form.Get("customer_vault"))
	require.Equal(t, "generated-vault-id", form.Get("customer_vault_id"))

	saved, err := c.attrs.GetAttribute(ctx, "42", CustomerVaultIDKey)
	require.NoError(t, err)
	require.Equal(t, form.Get("customer_vault_id"), saved)
}

func TestProcessPayment_SaveCardUsesCustomerGUID(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, vaultConfig(), g)
	req := checkoutRequest()
	req.Customer.GUID = "9f8e7d6c-0000-4000-8000-000000000042"
	req.PaymentInfo.SaveCustomer = true

	_, err := c.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, req.Customer.GUID, g.lastForm(t).Get("customer_vault_id"))

	saved, _ := c.attrs.GetAttribute(context.Background(), "42", CustomerVaultIDKey)
	require.Equal(t, req.Customer.GUID, saved)
}

// recordingStore counts writes on top of the in-memory store.
type recordingStore struct {
	*MemoryAttributeStore
	writes int
}

func (s *recordingStore) SaveAttribute(ctx context.Context, customerID, key, value string) error {
	s.writes++
	return s.MemoryAttributeStore.SaveAttribute(ctx, customerID, key, value)
}

func TestProcessPayment_SaveCardExistingVault(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	cfg := vaultConfig()
	cfg.TransactURL = g.URL
	store := &recordingStore{MemoryAttributeStore: NewMemoryAttributeStore()}
	ctx := context.Background()
	require.NoError(t, store.MemoryAttributeStore.SaveAttribute(ctx, "42", CustomerVaultIDKey, "existing-vault"))

	generated := false
	c, err := NewClient(cfg, WithAttributeStore(store), WithVaultIDGenerator(func() string {
		generated = true
		return "should-not-be-used"
	}))
	require.NoError(t, err)

	req := checkoutRequest()
	req.PaymentInfo.SaveCustomer = true
	res, err := c.ProcessPayment(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success())

	form := g.lastForm(t)
	require.Equal(t, "update_customer", form.Get("customer_vault"))
	require.Equal(t, "existing-vault", form.Get("customer_vault_id"))
	require.False(t, generated)
	require.Zero(t, store.writes)
}

func TestProcessPayment_SaveCardDisabledByMerchant(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	cfg := vaultConfig()
	cfg.AllowCustomerToSaveCards = false
	c := newTestClient(t, cfg, g)
	req := checkoutRequest()
	req.PaymentInfo.SaveCustomer = true

	_, err := c.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	require.False(t, g.lastForm(t).Has("customer_vault"))

	saved, _ := c.attrs.GetAttribute(context.Background(), "42", CustomerVaultIDKey)
	require.Empty(t, saved)
}

func TestProcessPayment_StoredCard(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, vaultConfig(), g)
	ctx := context.Background()
	require.NoError(t, c.attrs.SaveAttribute(ctx, "42", CustomerVaultIDKey, "existing-vault"))

	req := checkoutRequest()
	req.PaymentInfo = models.PaymentInfo{Token: "tok_ignored", StoredCardID: "7"}
	_, err := c.ProcessPayment(ctx, req)
	require.NoError(t, err)

	form := g.lastForm(t)
	require.Equal(t, "7", form.Get("billing_id"))
	require.Equal(t, "existing-vault", form.Get("customer_vault_id"))
	require.False(t, form.Has("payment_token"))
}

func TestProcessPayment_StoredCardWithoutVaultLogsWarning(t *testing.T) {
	g := newFakeGateway(t, "response=3&responsetext=Invalid Customer Vault Id")
	c := newTestClient(t, vaultConfig(), g)

	req := checkoutRequest()
	req.PaymentInfo = models.PaymentInfo{StoredCardID: "7"}
	res, err := c.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []string{"Invalid Customer Vault Id"}, res.Errors)

	form := g.lastForm(t)
	require.Equal(t, "7", form.Get("billing_id"))
	require.False(t, form.Has("customer_vault_id"))
	require.Equal(t, 1, c.logs.FilterMessageSnippet("stored card").Len())
}

func TestProcessPayment_MissingTokenFailsBeforeNetwork(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)
	req := checkoutRequest()
	req.PaymentInfo = models.PaymentInfo{StoredCardID: models.NoStoredCard}

	_, err := c.ProcessPayment(context.Background(), req)
	require.ErrorIs(t, err, ErrMissingPaymentSource)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	require.Zero(t, g.calls())
}

func TestProcessPayment_MissingBillingAddress(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)
	req := checkoutRequest()
	req.BillingAddress = nil

	_, err := c.ProcessPayment(context.Background(), req)
	require.ErrorIs(t, err, ErrMissingBillingAddress)
	require.Zero(t, g.calls())
}

func TestProcessPayment_NameOnCard(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	cfg := securityKeyConfig()
	cfg.UseNameOnCardField = true
	c := newTestClient(t, cfg, g)
	req := checkoutRequest()
	req.PaymentInfo.FirstNameOnCard = "Augusta"
	req.PaymentInfo.LastNameOnCard = "King"

	_, err := c.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	form := g.lastForm(t)
	require.Equal(t, "Augusta", form.Get("firstname"))
	require.Equal(t, "King", form.Get("lastname"))
}

func TestProcessPayment_ClearsPaymentInfoOnApproval(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)
	req := checkoutRequest()

	_, err := c.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	require.True(t, req.PaymentInfo.IsZero())
}

func TestProcessPayment_Declined(t *testing.T) {
	g := newFakeGateway(t, "response=2&responsetext=Invalid card&response_code=200")
	c := newTestClient(t, vaultConfig(), g)
	req := checkoutRequest()
	req.PaymentInfo.SaveCustomer = true

	res, err := c.ProcessPayment(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, []string{"Invalid card"}, res.Errors)
	require.Equal(t, models.OutcomeDeclined, res.Outcome.Kind)
	require.Equal(t, models.PaymentStatusUnchanged, res.NewPaymentStatus)
	require.Equal(t, "tok_123", req.PaymentInfo.Token)

	saved, _ := c.attrs.GetAttribute(context.Background(), "42", CustomerVaultIDKey)
	require.Empty(t, saved)
}

func TestProcessPayment_TransportFailure(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)
	g.Close()

	res, err := c.ProcessPayment(context.Background(), checkoutRequest())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "Exception Occurred: ")
	require.Equal(t, models.OutcomeError, res.Outcome.Kind)
	require.Equal(t, models.PaymentStatusUnchanged, res.NewPaymentStatus)

	entries := c.logs.FilterMessage("nmi direct post error").All()
	require.Len(t, entries, 1)
	require.Equal(t, "42", entries[0].ContextMap()["customer_id"])
}

func TestCapture(t *testing.T) {
	g := newFakeGateway(t, "response=1&responsetext=SUCCESS&authcode=654321&transactionid=2718281828")
	c := newTestClient(t, securityKeyConfig(), g)

	res, err := c.Capture(context.Background(), models.CapturePaymentRequest{Order: models.Order{
		OrderTotal:                   decimal.RequireFromString("49.9"),
		AuthorizationTransactionCode: "3141592653,123456",
	}})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, res.NewPaymentStatus)
	require.Equal(t, "2718281828,654321", res.CaptureTransactionID)

	form := g.lastForm(t)
	require.Equal(t, "capture", form.Get("type"))
	require.Equal(t, "49.90", form.Get("amount"))
	require.Equal(t, "3141592653", form.Get("transactionid"))
}

func TestCapture_Declined(t *testing.T) {
	g := newFakeGateway(t, "response=3&responsetext=Transaction already captured")
	c := newTestClient(t, securityKeyConfig(), g)

	res, err := c.Capture(context.Background(), models.CapturePaymentRequest{Order: models.Order{
		OrderTotal:                   decimal.NewFromInt(10),
		AuthorizationTransactionCode: "3141592653,123456",
	}})
	require.NoError(t, err)
	require.Equal(t, []string{"Transaction already captured"}, res.Errors)
	require.Empty(t, res.CaptureTransactionID)
	require.Equal(t, models.PaymentStatusUnchanged, res.NewPaymentStatus)
}

func TestCapture_MissingAuthorization(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)

	_, err := c.Capture(context.Background(), models.CapturePaymentRequest{})
	require.ErrorIs(t, err, ErrMissingTransactionID)
	require.Zero(t, g.calls())
}

func TestRefund(t *testing.T) {
	tests := []struct {
		name     string
		refunded string
		want     models.PaymentStatus
	}{
		{"completes the order", "60.00", models.PaymentStatusRefunded},
		{"leaves a balance", "50.00", models.PaymentStatusPartiallyRefunded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newFakeGateway(t, approvedBody)
			c := newTestClient(t, securityKeyConfig(), g)

			res, err := c.Refund(context.Background(), models.RefundPaymentRequest{
				AmountToRefund: decimal.RequireFromString("40.00"),
				Order: models.Order{
					OrderTotal:                   decimal.RequireFromString("100.00"),
					RefundedAmount:               decimal.RequireFromString(tt.refunded),
					AuthorizationTransactionCode: "111,aaa",
					CaptureTransactionID:         "222,bbb",
				},
			})
			require.NoError(t, err)
			require.Equal(t, tt.want, res.NewPaymentStatus)

			form := g.lastForm(t)
			// refunds are sent as captures on purpose; see Client.Refund
			require.Equal(t, "capture", form.Get("type"))
			require.Equal(t, "40.00", form.Get("amount"))
			require.Equal(t, "222", form.Get("transactionid"))
		})
	}
}

func TestRefund_ExactDecimalComparison(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)

	// 0.1 + 0.2 would not equal 0.3 in binary floating point
	res, err := c.Refund(context.Background(), models.RefundPaymentRequest{
		AmountToRefund: decimal.RequireFromString("0.1"),
		Order: models.Order{
			OrderTotal:                   decimal.RequireFromString("0.30"),
			RefundedAmount:               decimal.RequireFromString("0.2"),
			AuthorizationTransactionCode: "111,aaa",
		},
	})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusRefunded, res.NewPaymentStatus)
	require.Equal(t, "111", g.lastForm(t).Get("transactionid"))
}

func TestRefund_Declined(t *testing.T) {
	g := newFakeGateway(t, "response=2&responsetext=Refund amount exceeds settled amount")
	c := newTestClient(t, securityKeyConfig(), g)

	res, err := c.Refund(context.Background(), models.RefundPaymentRequest{
		AmountToRefund: decimal.NewFromInt(500),
		Order:          models.Order{OrderTotal: decimal.NewFromInt(100), CaptureTransactionID: "222,bbb"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Refund amount exceeds settled amount"}, res.Errors)
	require.Equal(t, models.PaymentStatusUnchanged, res.NewPaymentStatus)
}

func TestVoid(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)

	res, err := c.Void(context.Background(), models.VoidPaymentRequest{Order: models.Order{
		AuthorizationTransactionCode: "3141592653,123456",
	}})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusVoided, res.NewPaymentStatus)

	form := g.lastForm(t)
	require.Equal(t, "void", form.Get("type"))
	require.Equal(t, "3141592653", form.Get("transactionid"))
	require.False(t, form.Has("amount"))
}

func TestVoid_PrefersCapture(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	c := newTestClient(t, securityKeyConfig(), g)

	_, err := c.Void(context.Background(), models.VoidPaymentRequest{Order: models.Order{
		AuthorizationTransactionCode: "111,aaa",
		CaptureTransactionID:         "222,bbb",
	}})
	require.NoError(t, err)
	require.Equal(t, "222", g.lastForm(t).Get("transactionid"))
}

func TestProcessPayment_GatewayHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	cfg := securityKeyConfig()
	cfg.TransactURL = srv.URL
	c, err := NewClient(cfg)
	require.NoError(t, err)

	res, err := c.ProcessPayment(context.Background(), checkoutRequest())
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	require.Contains(t, res.Errors[0], "Exception Occurred: ")
	require.Contains(t, res.Errors[0], "503")
	require.Equal(t, models.OutcomeError, res.Outcome.Kind)
}

// unreadableStore fails every read and records every write.
type unreadableStore struct {
	*MemoryAttributeStore
	writes int
}

func (s *unreadableStore) GetAttribute(context.Context, string, string) (string, error) {
	return "", errors.New("attribute store unavailable")
}

func (s *unreadableStore) SaveAttribute(ctx context.Context, customerID, key, value string) error {
	s.writes++
	return s.MemoryAttributeStore.SaveAttribute(ctx, customerID, key, value)
}

func TestProcessPayment_SaveCardWhenVaultLookupFails(t *testing.T) {
	g := newFakeGateway(t, approvedBody)
	cfg := vaultConfig()
	cfg.TransactURL = g.URL
	store := &unreadableStore{MemoryAttributeStore: NewMemoryAttributeStore()}
	ctx := context.Background()
	require.NoError(t, store.MemoryAttributeStore.SaveAttribute(ctx, "42", CustomerVaultIDKey, "existing-vault"))

	generated := false
	c, err := NewClient(cfg, WithAttributeStore(store), WithVaultIDGenerator(func() string {
		generated = true
		return "fresh-id"
	}))
	require.NoError(t, err)

	req := checkoutRequest()
	req.PaymentInfo.SaveCustomer = true
	res, err := c.ProcessPayment(ctx, req)
	require.NoError(t, err)
	require.True(t, res.Success())
	require.Equal(t, models.PaymentStatusPaid, res.NewPaymentStatus)

	form := g.lastForm(t)
	require.False(t, form.Has("customer_vault"))
	require.False(t, form.Has("customer_vault_id"))
	require.Equal(t, "tok_123", form.Get("payment_token"))
	require.False(t, generated)
	require.Zero(t, store.writes)

	kept, err := store.MemoryAttributeStore.GetAttribute(ctx, "42", CustomerVaultIDKey)
	require.NoError(t, err)
	require.Equal(t, "existing-vault", kept)
}
