package cmd

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/quote"
	"github.com/rustyeddy/papertrader/trading"
)

func newStockCmd(o *rootOptions) *cobra.Command {
	stockCmd := &cobra.Command{
		Use:   "stock",
		Short: "Buy and sell shares",
		Long: `Buy and sell shares of a stock.

When PRICE is omitted the configured quote provider supplies it.

Examples:
  papertrader stock buy AAPL 100 150.00
  papertrader stock sell AAPL 160.00
  papertrader stock sell MSFT 420 --id <position-id>`,
	}

	buyCmd := &cobra.Command{
		Use:   "buy SYMBOL QUANTITY [PRICE]",
		Short: "Open a stock position",
		Args:  cobra.RangeArgs(2, 3),
		RunE:  withApp(o, runStockBuy),
	}

	var sellID string
	sellCmd := &cobra.Command{
		Use:   "sell SYMBOL [PRICE]",
		Short: "Close the first open lot of SYMBOL in full",
		Args:  cobra.RangeArgs(1, 2),
		RunE: withApp(o, func(cmd *cobra.Command, args []string, a *app) error {
			return runStockSell(cmd, args, a, sellID)
		}),
	}
	sellCmd.Flags().StringVar(&sellID, "id", "", "close this position instead of the first lot")

	stockCmd.AddCommand(buyCmd, sellCmd)
	return stockCmd
}

func runStockBuy(cmd *cobra.Command, args []string, a *app) error {
	symbol := quote.Normalize(args[0])
	qty, err := parseQuantity("quantity", args[1])
	if err != nil {
		return err
	}
	price, err := priceArg(cmd, a, symbol, args[2:])
	if err != nil {
		return err
	}

	fill, err := a.engine.OpenStock(cmd.Context(), symbol, qty, price)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s %d %s @ %s\n", titleStyle.Render("Bought"), qty, fill.Position.Symbol(), money(price))
	fmt.Fprintf(w, "  Position: %s\n", fill.Position.ID())
	fmt.Fprintf(w, "  Cost:     %s\n", money(fill.Position.CostBasis()))
	fmt.Fprintf(w, "  Balance:  %s\n", money(fill.Balance))
	return nil
}

func runStockSell(cmd *cobra.Command, args []string, a *app, positionID string) error {
	symbol := quote.Normalize(args[0])
	price, err := priceArg(cmd, a, symbol, args[1:])
	if err != nil {
		return err
	}

	var res trading.CloseResult
	if positionID != "" {
		res, err = a.engine.CloseStockByID(cmd.Context(), symbol, positionID, price)
	} else {
		res, err = a.engine.CloseStock(cmd.Context(), symbol, price)
	}
	if err != nil {
		return err
	}
	printClose(cmd, "Sold", res.Trade.Position.Symbol(), res.Trade, res.Balance)
	return nil
}

// priceArg parses an explicit price or asks the quote provider for one.
func priceArg(cmd *cobra.Command, a *app, symbol string, rest []string) (decimal.Decimal, error) {
	if len(rest) > 0 {
		return parseMoney("price", rest[0])
	}
	return a.quotes.Price(cmd.Context(), symbol)
}
