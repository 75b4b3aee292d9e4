package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/ledger"
)

type rootOptions struct {
	configPath string
	ledgerPath string
	logLevel   string
}

// NewRootCmd builds the papertrader command tree.
func NewRootCmd() *cobra.Command {
	o := &rootOptions{}

	root := &cobra.Command{
		Use:   "papertrader",
		Short: "Paper-trade stocks and options against a virtual account",
		Long: `Papertrader keeps a virtual brokerage account with a $1,000,000 starting
balance. Buy and sell stocks and options, and it keeps the ledger of cash,
open positions and realized gains consistent across every command.

Examples:
  papertrader stock buy AAPL 100 150.00
  papertrader stock sell AAPL 160.00
  papertrader option open TSLA call 250 2026-01-16 5.00 10
  papertrader option close <position-id> 8.00
  papertrader portfolio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", "", "config file (default ./papertrader.yaml when present)")
	root.PersistentFlags().StringVar(&o.ledgerPath, "ledger", "", "override store.path from the config")
	root.PersistentFlags().StringVar(&o.logLevel, "log-level", "", "override log.level from the config")

	root.AddCommand(
		newStockCmd(o),
		newOptionCmd(o),
		newPortfolioCmd(o),
		newResetCmd(o),
		newJournalCmd(o),
		newConfigCmd(o),
		newVersionCmd(),
	)
	return root
}

// Execute runs the command line and reports any failure on stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		if kind := ledger.ErrorKind(err); kind != "unknown" {
			fmt.Fprintf(os.Stderr, "error (%s): %v\n", kind, err)
		} else {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return err
}
