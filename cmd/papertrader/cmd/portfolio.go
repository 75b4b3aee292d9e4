package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/valuation"
)

func newPortfolioCmd(o *rootOptions) *cobra.Command {
	var showClosed bool

	cmd := &cobra.Command{
		Use:   "portfolio",
		Short: "Show balance, open positions and performance",
		Long: `Value every open position with the configured quote provider and show
the account totals. Positions whose quote is unavailable are shown at cost.`,
		Args: cobra.NoArgs,
		RunE: withApp(o, func(cmd *cobra.Command, args []string, a *app) error {
			v, err := a.engine.Portfolio(cmd.Context(), a.quotes)
			if err != nil {
				return err
			}
			printPortfolio(cmd, v, showClosed)
			return nil
		}),
	}
	cmd.Flags().BoolVar(&showClosed, "closed", false, "also list closed trades")
	return cmd
}

func printPortfolio(cmd *cobra.Command, v valuation.View, showClosed bool) {
	w := cmd.OutOrStdout()

	fmt.Fprintln(w, titleStyle.Render("Portfolio"))
	fmt.Fprintf(w, "  Cash balance:     %s\n", money(v.Balance))
	fmt.Fprintf(w, "  Portfolio value:  %s\n", money(v.TotalPortfolioValue))
	fmt.Fprintf(w, "  Unrealized P/L:   %s\n", signedMoney(v.TotalUnrealizedPL))
	fmt.Fprintf(w, "  Realized P/L:     %s\n", signedMoney(v.TotalRealizedPL))
	fmt.Fprintf(w, "  Total return:     %s (%s)\n", signedMoney(v.TotalReturn), percent(v.TotalReturnPercent))
	fmt.Fprintf(w, "  Open positions:   %d\n", v.OpenCount())
	fmt.Fprintf(w, "  Closed trades:    %d\n", v.ClosedCount())

	if v.OpenCount() > 0 {
		t := newTable("ID", "POSITION", "QTY", "ENTRY", "PRICE", "VALUE", "P/L", "P/L %")
		for _, line := range v.Positions {
			t.Row(openRow(line)...)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, t.Render())
	}

	if showClosed && v.ClosedCount() > 0 {
		t := newTable("ID", "POSITION", "QTY", "ENTRY", "EXIT", "PROCEEDS", "P/L", "P/L %")
		for _, tr := range v.ClosedTrades {
			qty, label, entry := describePosition(tr.Position)
			t.Row(tr.Position.ID(), label, qty, entry, money(tr.ExitPrice),
				money(tr.Proceeds), signedMoney(tr.ProfitLoss), percent(tr.PercentReturn))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, t.Render())
	}
}

func openRow(line valuation.Line) []string {
	qty, label, entry := describePosition(line.Position)
	price := faintStyle.Render("n/a")
	if line.PriceAvailable {
		price = money(line.CurrentPrice)
	}
	return []string{
		line.Position.ID(), label, qty, entry, price,
		money(line.CurrentValue), signedMoney(line.UnrealizedPL), percent(line.UnrealizedPercent),
	}
}

func describePosition(p ledger.Position) (qty, label, entry string) {
	switch p := p.(type) {
	case ledger.Stock:
		return strconv.FormatInt(p.Shares(), 10), p.Symbol(), money(p.EntryPrice())
	case ledger.Option:
		return strconv.FormatInt(p.Contracts(), 10), describeOption(p), money(p.EntryPremium())
	}
	return "", p.Symbol(), ""
}
