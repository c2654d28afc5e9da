package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	nmi "github.com/hugochinchilla79/nmi_direct_post_sdk"
	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

func newCardsCmd(a *app) *cobra.Command {
	var vaultID, customerID string

	cmd := &cobra.Command{
		Use:     "cards",
		Short:   "List the cards stored in a customer vault",
		Example: "  nmi-cli cards --vault-id 5f0c...\n  nmi-cli cards --customer 42 --attributes customers.db",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				cards []models.StoredCard
				err   error
			)
			switch {
			case vaultID != "":
				cards, err = a.client.QueryCustomerVault(cmd.Context(), vaultID)
			case customerID != "":
				cards, err = a.client.CustomerStoredCards(cmd.Context(), customerID)
			default:
				return errors.New("one of --vault-id or --customer is required")
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "VALUE\tLABEL\tBRAND")
			for i, opt := range nmi.StoredCardOptions(cards) {
				var brand string
				if i > 0 {
					brand = nmi.CardBrandDisplayName[cards[i-1].Brand]
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", opt.Value, opt.Text, brand)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&vaultID, "vault-id", "", "customer vault id")
	cmd.Flags().StringVar(&customerID, "customer", "", "customer id to look up in the attribute store")
	return cmd
}
