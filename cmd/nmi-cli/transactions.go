package main

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

func newCaptureCmd(a *app) *cobra.Command {
	var authCode, amount string

	cmd := &cobra.Command{
		Use:     "capture",
		Short:   "Capture a previous authorization",
		Example: `  nmi-cli capture --auth-code 3141592653,123456 --amount 49.90`,
		RunE: func(cmd *cobra.Command, args []string) error {
			total, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("invalid --amount: %w", err)
			}
			res, err := a.client.Capture(cmd.Context(), models.CapturePaymentRequest{
				Order: models.Order{OrderTotal: total, AuthorizationTransactionCode: authCode},
			})
			if err != nil {
				return err
			}
			if res.CaptureTransactionID != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "capture:  %s\n", res.CaptureTransactionID)
			}
			return printResult(cmd.OutOrStdout(), res.Result)
		},
	}
	cmd.Flags().StringVar(&authCode, "auth-code", "", "authorization transaction code (<transactionid>,<authcode>)")
	cmd.Flags().StringVar(&amount, "amount", "", "order total to capture")
	_ = cmd.MarkFlagRequired("auth-code")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRefundCmd(a *app) *cobra.Command {
	var authCode, captureID, amount, total, refunded string

	cmd := &cobra.Command{
		Use:     "refund",
		Short:   "Refund part or all of a settled order",
		Example: `  nmi-cli refund --capture-id 3141592653,123456 --amount 10.00 --order-total 49.90 --refunded 0`,
		RunE: func(cmd *cobra.Command, args []string) error {
			amounts, err := parseAmounts(map[string]string{"amount": amount, "order-total": total, "refunded": refunded})
			if err != nil {
				return err
			}
			res, err := a.client.Refund(cmd.Context(), models.RefundPaymentRequest{
				AmountToRefund: amounts["amount"],
				Order: models.Order{
					OrderTotal:                   amounts["order-total"],
					RefundedAmount:               amounts["refunded"],
					AuthorizationTransactionCode: authCode,
					CaptureTransactionID:         captureID,
				},
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res.Result)
		},
	}
	cmd.Flags().StringVar(&authCode, "auth-code", "", "authorization transaction code, used when there is no capture")
	cmd.Flags().StringVar(&captureID, "capture-id", "", "capture transaction id")
	cmd.Flags().StringVar(&amount, "amount", "", "amount to refund")
	cmd.Flags().StringVar(&total, "order-total", "", "order total")
	cmd.Flags().StringVar(&refunded, "refunded", "0", "amount refunded so far")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("order-total")
	return cmd
}

func newVoidCmd(a *app) *cobra.Command {
	var authCode, captureID string

	cmd := &cobra.Command{
		Use:   "void",
		Short: "Void an authorization or an unsettled capture",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.Void(cmd.Context(), models.VoidPaymentRequest{
				Order: models.Order{AuthorizationTransactionCode: authCode, CaptureTransactionID: captureID},
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res.Result)
		},
	}
	cmd.Flags().StringVar(&authCode, "auth-code", "", "authorization transaction code")
	cmd.Flags().StringVar(&captureID, "capture-id", "", "capture transaction id")
	return cmd
}

func newCancelSubscriptionCmd(a *app) *cobra.Command {
	var subscriptionID string

	cmd := &cobra.Command{
		Use:   "cancel-subscription",
		Short: "Delete a recurring subscription",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.client.CancelRecurringPayment(cmd.Context(), models.CancelRecurringPaymentRequest{
				Order: models.Order{SubscriptionTransactionID: subscriptionID},
			})
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res.Result)
		},
	}
	cmd.Flags().StringVar(&subscriptionID, "subscription-id", "", "subscription transaction id")
	_ = cmd.MarkFlagRequired("subscription-id")
	return cmd
}

func parseAmounts(raw map[string]string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(raw))
	for name, v := range raw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, fmt.Errorf("invalid --%s: %w", name, err)
		}
		out[name] = d
	}
	return out, nil
}
