package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/trading"
)

func newOptionCmd(o *rootOptions) *cobra.Command {
	optionCmd := &cobra.Command{
		Use:   "option",
		Short: "Buy and sell option contracts",
		Long: `Buy and sell option contracts. Premiums are per share; one contract
covers 100 shares.

Examples:
  papertrader option open TSLA call 250 2026-01-16 5.00 10
  papertrader option close <position-id> 8.00
  papertrader option close <position-id> 0     # expired worthless`,
	}

	openCmd := &cobra.Command{
		Use:   "open SYMBOL call|put STRIKE EXPIRATION PREMIUM CONTRACTS",
		Short: "Open an option position",
		Args:  cobra.ExactArgs(6),
		RunE:  withApp(o, runOptionOpen),
	}

	closeCmd := &cobra.Command{
		Use:   "close POSITION-ID PREMIUM",
		Short: "Close an option position in full",
		Args:  cobra.ExactArgs(2),
		RunE:  withApp(o, runOptionClose),
	}

	optionCmd.AddCommand(openCmd, closeCmd)
	return optionCmd
}

func parseOptionOrder(args []string) (trading.OptionOrder, error) {
	typ, err := parseOptionType(args[1])
	if err != nil {
		return trading.OptionOrder{}, err
	}
	strike, err := parseMoney("strike", args[2])
	if err != nil {
		return trading.OptionOrder{}, err
	}
	exp, err := parseDate("expiration", args[3])
	if err != nil {
		return trading.OptionOrder{}, err
	}
	premium, err := parseMoney("premium", args[4])
	if err != nil {
		return trading.OptionOrder{}, err
	}
	contracts, err := parseQuantity("contracts", args[5])
	if err != nil {
		return trading.OptionOrder{}, err
	}
	return trading.OptionOrder{
		Symbol:     args[0],
		Type:       typ,
		Strike:     strike,
		Expiration: exp,
		Premium:    premium,
		Contracts:  contracts,
	}, nil
}

func runOptionOpen(cmd *cobra.Command, args []string, a *app) error {
	order, err := parseOptionOrder(args)
	if err != nil {
		return err
	}

	fill, err := a.engine.OpenOption(cmd.Context(), order)
	if err != nil {
		return err
	}

	p := fill.Position
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %d %s\n", titleStyle.Render("Bought"), p.Contracts(), describeOption(p))
	fmt.Fprintf(w, "  Position: %s\n", p.ID())
	fmt.Fprintf(w, "  Premium:  %s per share\n", money(p.EntryPremium()))
	fmt.Fprintf(w, "  Cost:     %s\n", money(p.CostBasis()))
	fmt.Fprintf(w, "  Balance:  %s\n", money(fill.Balance))
	return nil
}

func runOptionClose(cmd *cobra.Command, args []string, a *app) error {
	premium, err := parseMoney("premium", args[1])
	if err != nil {
		return err
	}

	res, err := a.engine.CloseOption(cmd.Context(), args[0], premium)
	if err != nil {
		return err
	}

	label := res.Trade.Position.Symbol()
	if opt, ok := res.Trade.Position.(ledger.Option); ok {
		label = describeOption(opt)
	}
	printClose(cmd, "Sold", label, res.Trade, res.Balance)
	return nil
}

// describeOption renders "TSLA 250 call 2026-01-16".
func describeOption(o ledger.Option) string {
	return fmt.Sprintf("%s %s %s %s", o.Symbol(), o.Strike().String(), o.OptionType(), o.Expiration().Format("2006-01-02"))
}

func printClose(cmd *cobra.Command, verb, label string, t ledger.ClosedTrade, balance decimal.Decimal) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %s @ %s\n", titleStyle.Render(verb), label, money(t.ExitPrice))
	fmt.Fprintf(w, "  Position: %s\n", t.Position.ID())
	fmt.Fprintf(w, "  Proceeds: %s\n", money(t.Proceeds))
	fmt.Fprintf(w, "  P/L:      %s (%s)\n", signedMoney(t.ProfitLoss), percent(t.PercentReturn))
	fmt.Fprintf(w, "  Balance:  %s\n", money(balance))
}
