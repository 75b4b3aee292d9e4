// Package quote supplies market prices to the valuation engine and to
// callers that trade at the market.
package quote

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/ledger"
)

// PriceLookup returns the current price of a symbol. Failures wrap
// ledger.ErrQuoteUnavailable.
type PriceLookup interface {
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Func adapts a plain function to PriceLookup.
type Func func(ctx context.Context, symbol string) (decimal.Decimal, error)

func (f Func) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	return f(ctx, symbol)
}

// Unavailable builds the error returned when no price can be had for symbol.
func Unavailable(symbol string, cause error) error {
	if cause == nil {
		return fmt.Errorf("%w: %s", ledger.ErrQuoteUnavailable, symbol)
	}
	return fmt.Errorf("%w: %s: %w", ledger.ErrQuoteUnavailable, symbol, cause)
}

// Normalize upper-cases and trims a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
