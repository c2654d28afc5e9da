package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	nmi "github.com/hugochinchilla79/nmi_direct_post_sdk"
	"github.com/hugochinchilla79/nmi_direct_post_sdk/models"
)

// app holds what every subcommand needs, built once in PersistentPreRunE.
type app struct {
	envFile      string
	settingsPath string
	storeID      string
	attrsPath    string
	debug        bool

	client *nmi.Client
	attrs  *nmi.BuntAttributeStore
	logger *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:               "nmi-cli",
		Short:             "Operator tool for the NMI Direct Post gateway",
		Long:              `Capture, refund, void and cancel gateway transactions, and list cards stored in a customer vault.`,
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with NMI_* settings")
	root.PersistentFlags().StringVar(&a.settingsPath, "settings", "", "YAML settings file (overrides the environment)")
	root.PersistentFlags().StringVar(&a.storeID, "store", "", "store id whose settings overrides apply")
	root.PersistentFlags().StringVar(&a.attrsPath, "attributes", "", "buntdb file holding customer vault ids")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log gateway traffic")

	root.AddCommand(
		newCaptureCmd(a),
		newRefundCmd(a),
		newVoidCmd(a),
		newCancelSubscriptionCmd(a),
		newCardsCmd(a),
	)
	return root
}

func (a *app) init() error {
	var err error
	if a.debug {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	var cfg nmi.Config
	if a.settingsPath != "" {
		f, err := nmi.LoadSettingsFile(a.settingsPath)
		if err != nil {
			return err
		}
		if cfg, err = f.ForStore(a.storeID); err != nil {
			return err
		}
	} else if cfg, err = nmi.LoadConfigFromDotEnv(a.envFile); err != nil {
		return err
	}

	opts := []nmi.Option{nmi.WithLogger(a.logger)}
	if a.attrsPath != "" {
		if a.attrs, err = nmi.OpenBuntAttributeStore(a.attrsPath); err != nil {
			return err
		}
		opts = append(opts, nmi.WithAttributeStore(a.attrs))
	}

	a.client, err = nmi.NewClient(cfg, opts...)
	return err
}

// execute runs the command tree and releases what init opened, whether or
// not the command succeeded.
func execute(a *app, root *cobra.Command) error {
	err := root.Execute()
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	return err
}

func (a *app) close() error {
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	if a.attrs == nil {
		return nil
	}
	err := a.attrs.Close()
	a.attrs = nil
	return err
}

// printResult writes the outcome and returns an error when the gateway did
// not approve, so the process exits non-zero.
func printResult(w io.Writer, r models.Result) error {
	fmt.Fprintf(w, "outcome:  %s\n", r.Outcome.Kind)
	if r.Outcome.TransactionID != "" {
		fmt.Fprintf(w, "txn id:   %s\n", r.Outcome.TransactionID)
	}
	if r.NewPaymentStatus != models.PaymentStatusUnchanged {
		fmt.Fprintf(w, "status:   %s\n", r.NewPaymentStatus)
	}
	if !r.Success() {
		return fmt.Errorf("gateway: %s", strings.Join(r.Errors, "; "))
	}
	return nil
}
