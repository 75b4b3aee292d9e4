package trading

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/quote"
	"github.com/rustyeddy/papertrader/store"
)

var (
	ctx = context.Background()
	t0  = time.Date(2026, 1, 2, 15, 30, 0, 0, time.UTC)
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func seqIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("pos-%d", n)
	}
}

func clock() time.Time { return t0 }

type storeFactory func(t *testing.T) store.Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) store.Store {
			return store.New(store.NewMemory(), store.WithClock(clock))
		},
		"file": func(t *testing.T) store.Store {
			f, err := store.NewFile(filepath.Join(t.TempDir(), "ledger.json"))
			require.NoError(t, err)
			return store.New(f, store.WithClock(clock))
		},
		"sqlite": func(t *testing.T) store.Store {
			s, err := store.NewSQLite(filepath.Join(t.TempDir(), "ledger.sqlite"))
			require.NoError(t, err)
			return store.New(s, store.WithClock(clock))
		},
	}
}

func forEachStore(t *testing.T, fn func(t *testing.T, e *Engine)) {
	for name, mk := range stores() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			s := mk(t)
			t.Cleanup(func() { _ = s.Close() })
			fn(t, New(s, WithClock(clock), WithIDs(seqIDs())))
		})
	}
}

func TestBuyAndSellStock(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		fill, err := e.OpenStock(ctx, "AAPL", 100, d("150.00"))
		require.NoError(t, err)
		assertMoney(t, "985000", fill.Balance)
		assertMoney(t, "15000", fill.Position.CostBasis())
		assert.Equal(t, "pos-1", fill.Position.ID())
		assert.Equal(t, t0, fill.Position.EntryDate())

		res, err := e.CloseStock(ctx, "AAPL", d("160.00"))
		require.NoError(t, err)
		assertMoney(t, "16000", res.Trade.Proceeds)
		assertMoney(t, "1000", res.Trade.ProfitLoss)
		assert.Equal(t, "6.67", res.Trade.PercentReturn.StringFixed(2))
		assertMoney(t, "1001000", res.Balance)

		l, err := e.Load(ctx)
		require.NoError(t, err)
		assertMoney(t, "1000", l.TotalRealizedPL)
		assert.Empty(t, l.OpenPositions)
		require.Len(t, l.ClosedTrades, 1)
	})
}

func TestBuyAndSellOption(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		fill, err := e.OpenOption(ctx, OptionOrder{
			Symbol:     "TSLA",
			Type:       ledger.Call,
			Strike:     d("250"),
			Expiration: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			Premium:    d("5.00"),
			Contracts:  10,
		})
		require.NoError(t, err)
		assertMoney(t, "5000", fill.Position.CostBasis())
		assertMoney(t, "995000", fill.Balance)

		res, err := e.CloseOption(ctx, fill.Position.ID(), d("8.00"))
		require.NoError(t, err)
		assertMoney(t, "8000", res.Trade.Proceeds)
		assertMoney(t, "3000", res.Trade.ProfitLoss)
		assertMoney(t, "60", res.Trade.PercentReturn)
		assertMoney(t, "1003000", res.Balance)
	})
}

func TestInsufficientFundsLeavesBalance(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		_, err := e.OpenStock(ctx, "NVDA", 1000, d("2000"))
		require.ErrorIs(t, err, ledger.ErrInsufficientFunds)

		l, err := e.Load(ctx)
		require.NoError(t, err)
		assertMoney(t, "1000000", l.Balance)
		assert.Empty(t, l.OpenPositions)
	})
}

func TestCloseUnknownSymbol(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		_, err := e.CloseStock(ctx, "ZZZZ", d("100"))
		require.ErrorIs(t, err, ledger.ErrPositionNotFound)
	})
}

func TestInvalidInput(t *testing.T) {
	s := store.New(store.NewMemory(), store.WithClock(clock))
	e := New(s, WithClock(clock), WithIDs(seqIDs()))

	_, err := e.OpenStock(ctx, "AAPL", 10, d("100"))
	require.NoError(t, err)
	opt, err := e.OpenOption(ctx, OptionOrder{Symbol: "SPY", Type: ledger.Put, Strike: d("400"), Premium: d("2"), Contracts: 1})
	require.NoError(t, err)

	order := func(mut func(o *OptionOrder)) OptionOrder {
		o := OptionOrder{Symbol: "SPY", Type: ledger.Put, Strike: d("400"), Premium: d("2"), Contracts: 1}
		mut(&o)
		return o
	}

	tests := []struct {
		name string
		call func() error
	}{
		{"zero shares", func() error { _, err := e.OpenStock(ctx, "AAPL", 0, d("1")); return err }},
		{"negative shares", func() error { _, err := e.OpenStock(ctx, "AAPL", -5, d("1")); return err }},
		{"zero price", func() error { _, err := e.OpenStock(ctx, "AAPL", 1, d("0")); return err }},
		{"negative price", func() error { _, err := e.OpenStock(ctx, "AAPL", 1, d("-3")); return err }},
		{"blank symbol", func() error { _, err := e.OpenStock(ctx, "  ", 1, d("1")); return err }},
		{"close at zero", func() error { _, err := e.CloseStock(ctx, "AAPL", d("0")); return err }},
		{"close by id at zero", func() error { _, err := e.CloseStockByID(ctx, "AAPL", "pos-1", d("0")); return err }},
		{"zero contracts", func() error { _, err := e.OpenOption(ctx, order(func(o *OptionOrder) { o.Contracts = 0 })); return err }},
		{"zero premium", func() error { _, err := e.OpenOption(ctx, order(func(o *OptionOrder) { o.Premium = d("0") })); return err }},
		{"zero strike", func() error { _, err := e.OpenOption(ctx, order(func(o *OptionOrder) { o.Strike = d("0") })); return err }},
		{"bad type", func() error { _, err := e.OpenOption(ctx, order(func(o *OptionOrder) { o.Type = "straddle" })); return err }},
		{"negative exit premium", func() error { _, err := e.CloseOption(ctx, opt.Position.ID(), d("-1")); return err }},
	}

	before, err := e.Load(ctx)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ledger.ErrInvalidInput)
		})
	}

	after, err := e.Load(ctx)
	require.NoError(t, err)
	assertMoney(t, before.Balance.String(), after.Balance)
	assert.Len(t, after.OpenPositions, 2)
}

func TestWrongPositionType(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		stock, err := e.OpenStock(ctx, "AAPL", 10, d("100"))
		require.NoError(t, err)
		opt, err := e.OpenOption(ctx, OptionOrder{Symbol: "AAPL", Type: ledger.Call, Strike: d("120"), Premium: d("1.5"), Contracts: 2})
		require.NoError(t, err)

		_, err = e.CloseOption(ctx, stock.Position.ID(), d("1"))
		assert.ErrorIs(t, err, ledger.ErrWrongPositionType)

		_, err = e.CloseStockByID(ctx, "AAPL", opt.Position.ID(), d("1"))
		assert.ErrorIs(t, err, ledger.ErrWrongPositionType)

		_, err = e.CloseOption(ctx, "missing", d("1"))
		assert.ErrorIs(t, err, ledger.ErrPositionNotFound)

		l, err := e.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, l.OpenPositions, 2)
		assert.Empty(t, l.ClosedTrades)
	})
}

func TestCloseStockTakesFirstLot(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		first, err := e.OpenStock(ctx, "msft", 10, d("400"))
		require.NoError(t, err)
		assert.Equal(t, "MSFT", first.Position.Symbol())
		_, err = e.OpenOption(ctx, OptionOrder{Symbol: "MSFT", Type: ledger.Call, Strike: d("450"), Premium: d("3"), Contracts: 1})
		require.NoError(t, err)
		second, err := e.OpenStock(ctx, "MSFT", 5, d("410"))
		require.NoError(t, err)

		res, err := e.CloseStock(ctx, " Msft ", d("420"))
		require.NoError(t, err)
		assert.Equal(t, first.Position.ID(), res.Trade.Position.ID())
		assertMoney(t, "200", res.Trade.ProfitLoss)

		l, err := e.Load(ctx)
		require.NoError(t, err)
		require.Len(t, l.OpenPositions, 2)
		assert.Equal(t, second.Position.ID(), l.OpenPositions[1].ID())
	})
}

func TestCloseStockByID(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		_, err := e.OpenStock(ctx, "MSFT", 10, d("400"))
		require.NoError(t, err)
		second, err := e.OpenStock(ctx, "MSFT", 5, d("410"))
		require.NoError(t, err)

		res, err := e.CloseStockByID(ctx, "msft", second.Position.ID(), d("400"))
		require.NoError(t, err)
		assert.Equal(t, second.Position.ID(), res.Trade.Position.ID())
		assertMoney(t, "-50", res.Trade.ProfitLoss)
	})
}

func TestCloseStockByIDRejectsOtherSymbol(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		msft, err := e.OpenStock(ctx, "MSFT", 10, d("400"))
		require.NoError(t, err)
		_, err = e.OpenStock(ctx, "AAPL", 10, d("150"))
		require.NoError(t, err)

		_, err = e.CloseStockByID(ctx, "AAPL", msft.Position.ID(), d("160"))
		require.ErrorIs(t, err, ledger.ErrPositionNotFound)

		_, err = e.CloseStockByID(ctx, "", msft.Position.ID(), d("160"))
		require.ErrorIs(t, err, ledger.ErrInvalidInput)

		l, err := e.Load(ctx)
		require.NoError(t, err)
		assert.Len(t, l.OpenPositions, 2)
		assert.Empty(t, l.ClosedTrades)
		assertMoney(t, "994500", l.Balance)
	})
}

func TestOptionExpiresWorthless(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		fill, err := e.OpenOption(ctx, OptionOrder{Symbol: "QQQ", Type: ledger.Put, Strike: d("300"), Premium: d("1.25"), Contracts: 4})
		require.NoError(t, err)

		res, err := e.CloseOption(ctx, fill.Position.ID(), decimal.Zero)
		require.NoError(t, err)
		assertMoney(t, "0", res.Trade.Proceeds)
		assertMoney(t, "-500", res.Trade.ProfitLoss)
		assertMoney(t, "-100", res.Trade.PercentReturn)
		assertMoney(t, "999500", res.Balance)
	})
}

func TestRoundTripAtSamePriceIsNeutral(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		_, err := e.OpenStock(ctx, "IBM", 33, d("187.37"))
		require.NoError(t, err)
		res, err := e.CloseStock(ctx, "IBM", d("187.37"))
		require.NoError(t, err)

		assert.True(t, res.Trade.ProfitLoss.IsZero())
		assertMoney(t, "1000000", res.Balance)
	})
}

func TestBalanceMatchesCostConservation(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		_, err := e.OpenStock(ctx, "AAPL", 3, d("189.99"))
		require.NoError(t, err)
		_, err = e.OpenStock(ctx, "GOOG", 7, d("141.13"))
		require.NoError(t, err)
		_, err = e.OpenOption(ctx, OptionOrder{Symbol: "AMD", Type: ledger.Call, Strike: d("150"), Premium: d("0.37"), Contracts: 3})
		require.NoError(t, err)
		_, err = e.CloseStock(ctx, "AAPL", d("201.10"))
		require.NoError(t, err)

		l, err := e.Load(ctx)
		require.NoError(t, err)

		want := ledger.StartingBalance
		for _, p := range l.OpenPositions {
			want = want.Sub(p.CostBasis())
		}
		for _, tr := range l.ClosedTrades {
			want = want.Sub(tr.Position.CostBasis()).Add(tr.Proceeds)
		}
		assertMoney(t, want.String(), l.Balance)
		assert.NoError(t, l.Check())
	})
}

func TestReset(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		_, err := e.OpenStock(ctx, "AAPL", 10, d("100"))
		require.NoError(t, err)
		_, err = e.CloseStock(ctx, "AAPL", d("90"))
		require.NoError(t, err)

		l, err := e.Reset(ctx)
		require.NoError(t, err)
		assertMoney(t, "1000000", l.Balance)
		assert.Empty(t, l.OpenPositions)
		assert.Empty(t, l.ClosedTrades)
		assert.True(t, l.TotalRealizedPL.IsZero())

		loaded, err := e.Load(ctx)
		require.NoError(t, err)
		assertMoney(t, "1000000", loaded.Balance)
	})
}

func TestConcurrentBuysStaySolvent(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		// each buy costs 100,000; only ten fit
		const workers = 25
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			succeeded int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.OpenStock(ctx, "BRK", 100, d("1000"))
				if err != nil {
					assert.True(t, errors.Is(err, ledger.ErrInsufficientFunds), "unexpected error: %v", err)
					return
				}
				mu.Lock()
				succeeded++
				mu.Unlock()
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, succeeded)
		l, err := e.Load(ctx)
		require.NoError(t, err)
		assert.True(t, l.Balance.IsZero())
		assert.Len(t, l.OpenPositions, 10)
	})
}

func TestConcurrentClosesCloseOnce(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		fill, err := e.OpenOption(ctx, OptionOrder{Symbol: "SPY", Type: ledger.Call, Strike: d("500"), Premium: d("4"), Contracts: 5})
		require.NoError(t, err)

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := e.CloseOption(ctx, fill.Position.ID(), d("6"))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		ok := 0
		for err := range errs {
			if err == nil {
				ok++
				continue
			}
			assert.ErrorIs(t, err, ledger.ErrPositionNotFound)
		}
		assert.Equal(t, 1, ok)

		l, err := e.Load(ctx)
		require.NoError(t, err)
		assertMoney(t, "1001000", l.Balance)
		assertMoney(t, "1000", l.TotalRealizedPL)
	})
}

func TestPortfolio(t *testing.T) {
	forEachStore(t, func(t *testing.T, e *Engine) {
		_, err := e.OpenStock(ctx, "AAPL", 100, d("150"))
		require.NoError(t, err)
		_, err = e.OpenStock(ctx, "GONE", 10, d("20"))
		require.NoError(t, err)
		_, err = e.OpenOption(ctx, OptionOrder{Symbol: "TSLA", Type: ledger.Call, Strike: d("250"), Premium: d("5"), Contracts: 10})
		require.NoError(t, err)

		prices := quote.NewStatic()
		prices.Set("AAPL", d("160"))
		v, err := e.Portfolio(ctx, prices)
		require.NoError(t, err)

		require.Equal(t, 3, v.OpenCount())
		assert.True(t, v.Positions[0].PriceAvailable)
		assertMoney(t, "1000", v.Positions[0].UnrealizedPL)
		assert.False(t, v.Positions[1].PriceAvailable)
		assertMoney(t, "200", v.Positions[1].CurrentValue)
		assertMoney(t, "5000", v.Positions[2].CurrentValue)

		assertMoney(t, "1001000", v.TotalPortfolioValue)
		assertMoney(t, "1000", v.TotalReturn)

		l, err := e.Load(ctx)
		require.NoError(t, err)
		assertMoney(t, "979800", l.Balance)
	})
}
