// Package valuation marks a ledger snapshot to market without touching
// the stored ledger.
package valuation

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/quote"
)

// DefaultMaxConcurrentLookups bounds parallel quote requests.
const DefaultMaxConcurrentLookups = 8

// Line is one open position marked to market.
type Line struct {
	Position ledger.Position

	// CurrentPrice is the looked-up share price; zero for options and for
	// stocks whose quote was unavailable.
	CurrentPrice   decimal.Decimal
	PriceAvailable bool
	QuoteErr       error

	CostBasis         decimal.Decimal
	CurrentValue      decimal.Decimal
	UnrealizedPL      decimal.Decimal
	UnrealizedPercent decimal.Decimal
}

// View is the portfolio as shown to a user.
type View struct {
	Balance      decimal.Decimal
	Positions    []Line
	ClosedTrades []ledger.ClosedTrade

	TotalPortfolioValue decimal.Decimal
	TotalUnrealizedPL   decimal.Decimal
	TotalRealizedPL     decimal.Decimal
	TotalReturn         decimal.Decimal
	TotalReturnPercent  decimal.Decimal
}

func (v View) OpenCount() int   { return len(v.Positions) }
func (v View) ClosedCount() int { return len(v.ClosedTrades) }

type options struct {
	maxLookups int
}

type Option func(*options)

// WithMaxConcurrentLookups caps how many quotes are requested at once.
func WithMaxConcurrentLookups(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLookups = n
		}
	}
}

// Valuate prices every open stock through lookup. A failed lookup values
// that position at cost; it never fails the view. Options are always
// carried at cost since no option pricing model is applied.
func Valuate(ctx context.Context, l ledger.Ledger, lookup quote.PriceLookup, opts ...Option) View {
	o := options{maxLookups: DefaultMaxConcurrentLookups}
	for _, opt := range opts {
		opt(&o)
	}

	prices := fetchPrices(ctx, l.OpenPositions, lookup, o.maxLookups)

	v := View{
		Balance:           l.Balance,
		Positions:         make([]Line, 0, len(l.OpenPositions)),
		ClosedTrades:      append([]ledger.ClosedTrade(nil), l.ClosedTrades...),
		TotalUnrealizedPL: decimal.Zero,
		TotalRealizedPL:   l.TotalRealizedPL,
	}

	marketValue := decimal.Zero
	for _, p := range l.OpenPositions {
		line := Line{
			Position:          p,
			CostBasis:         p.CostBasis(),
			CurrentValue:      p.CostBasis(),
			UnrealizedPL:      decimal.Zero,
			UnrealizedPercent: decimal.Zero,
		}

		if s, ok := p.(ledger.Stock); ok {
			q := prices[quote.Normalize(s.Symbol())]
			line.QuoteErr = q.err
			if q.err == nil {
				line.CurrentPrice = q.price
				line.PriceAvailable = true
				line.CurrentValue = s.MarketValue(q.price)
				line.UnrealizedPL = line.CurrentValue.Sub(line.CostBasis)
				line.UnrealizedPercent = ledger.PercentOf(line.UnrealizedPL, line.CostBasis)
			}
		}

		marketValue = marketValue.Add(line.CurrentValue)
		v.TotalUnrealizedPL = v.TotalUnrealizedPL.Add(line.UnrealizedPL)
		v.Positions = append(v.Positions, line)
	}

	v.TotalPortfolioValue = l.Balance.Add(marketValue)
	v.TotalReturn = v.TotalPortfolioValue.Sub(ledger.StartingBalance)
	v.TotalReturnPercent = ledger.PercentOf(v.TotalReturn, ledger.StartingBalance)
	return v
}

type quoteResult struct {
	price decimal.Decimal
	err   error
}

// fetchPrices looks up each distinct stock symbol once.
func fetchPrices(ctx context.Context, positions []ledger.Position, lookup quote.PriceLookup, limit int) map[string]quoteResult {
	var symbols []string
	seen := map[string]bool{}
	for _, p := range positions {
		if p.Kind() != ledger.KindStock {
			continue
		}
		sym := quote.Normalize(p.Symbol())
		if !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}

	results := make([]quoteResult, len(symbols))
	if lookup == nil {
		for i, sym := range symbols {
			results[i].err = quote.Unavailable(sym, nil)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(limit)
		for i, sym := range symbols {
			g.Go(func() error {
				price, err := lookup.Price(ctx, sym)
				if err == nil && !price.IsPositive() {
					err = quote.Unavailable(sym, nil)
				}
				results[i] = quoteResult{price: price, err: err}
				return nil
			})
		}
		_ = g.Wait() // lookups report through results
	}

	out := make(map[string]quoteResult, len(symbols))
	for i, sym := range symbols {
		out[sym] = results[i]
	}
	return out
}
