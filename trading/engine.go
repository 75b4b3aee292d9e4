// Package trading implements the paper-trading operations. Every mutation
// is a single store transaction; the committed ledger is then journaled.
package trading

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/internal/id"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/ledger"
	"github.com/rustyeddy/papertrader/logger"
	"github.com/rustyeddy/papertrader/quote"
	"github.com/rustyeddy/papertrader/store"
	"github.com/rustyeddy/papertrader/valuation"
)

// Operation names used in journal snapshots and logs.
const (
	OpOpenStock   = "open_stock"
	OpCloseStock  = "close_stock"
	OpOpenOption  = "open_option"
	OpCloseOption = "close_option"
	OpReset       = "reset"
)

type Engine struct {
	store   store.Store
	journal journal.Journal
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
}

type Option func(*Engine)

func WithJournal(j journal.Journal) Option {
	return func(e *Engine) {
		if j != nil {
			e.journal = j
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithClock sets the time source for entry and exit dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs sets the position id generator.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		journal: journal.Nop(),
		log:     logger.Nop(),
		now:     time.Now,
		newID:   id.New,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StockFill is the result of opening a stock position.
type StockFill struct {
	Position ledger.Stock
	Balance  decimal.Decimal
}

// OptionFill is the result of opening an option position.
type OptionFill struct {
	Position ledger.Option
	Balance  decimal.Decimal
}

// CloseResult is the result of closing any position.
type CloseResult struct {
	Trade   ledger.ClosedTrade
	Balance decimal.Decimal
}

// OptionOrder describes an option purchase. Premium is per share.
type OptionOrder struct {
	Symbol     string
	Type       ledger.OptionType
	Strike     decimal.Decimal
	Expiration time.Time
	Premium    decimal.Decimal
	Contracts  int64
}

// OpenStock buys quantity shares of symbol at price.
func (e *Engine) OpenStock(ctx context.Context, symbol string, quantity int64, price decimal.Decimal) (StockFill, error) {
	symbol = quote.Normalize(symbol)
	switch {
	case symbol == "":
		return StockFill{}, fmt.Errorf("open stock: %w: symbol is required", ledger.ErrInvalidInput)
	case quantity <= 0:
		return StockFill{}, fmt.Errorf("open stock %s: %w: quantity %d must be positive", symbol, ledger.ErrInvalidInput, quantity)
	case !price.IsPositive():
		return StockFill{}, fmt.Errorf("open stock %s: %w: price %s must be positive", symbol, ledger.ErrInvalidInput, price)
	}

	pos := ledger.NewStock(e.newID(), symbol, quantity, price, e.now())
	l, err := e.store.Transact(ctx, func(l ledger.Ledger) (ledger.Ledger, error) {
		if err := l.Open(pos); err != nil {
			return l, fmt.Errorf("open stock %s: %w", symbol, err)
		}
		return l, nil
	})
	if err != nil {
		return StockFill{}, err
	}

	e.committed(OpOpenStock, l, zap.String("id", pos.ID()), zap.String("symbol", symbol),
		zap.Int64("shares", quantity), zap.String("cost", pos.CostBasis().StringFixed(2)))
	return StockFill{Position: pos, Balance: l.Balance}, nil
}

// CloseStock sells, in full, the first open stock lot of symbol.
func (e *Engine) CloseStock(ctx context.Context, symbol string, price decimal.Decimal) (CloseResult, error) {
	symbol = quote.Normalize(symbol)
	if !price.IsPositive() {
		return CloseResult{}, fmt.Errorf("close stock %s: %w: price %s must be positive", symbol, ledger.ErrInvalidInput, price)
	}

	at := e.now()
	var trade ledger.ClosedTrade
	l, err := e.store.Transact(ctx, func(l ledger.Ledger) (ledger.Ledger, error) {
		i := l.FindStock(symbol)
		if i < 0 {
			return l, fmt.Errorf("close stock: %w: no open position in %s", ledger.ErrPositionNotFound, symbol)
		}
		trade = l.CloseAt(i, price, at)
		return l, nil
	})
	if err != nil {
		return CloseResult{}, err
	}

	e.committed(OpCloseStock, l, tradeFields(trade)...)
	e.recordTrade(trade, OpCloseStock)
	return CloseResult{Trade: trade, Balance: l.Balance}, nil
}

// CloseStockByID sells a specific stock lot of symbol in full. A lot of
// another symbol is reported as not found so it is never sold at a price
// quoted for symbol.
func (e *Engine) CloseStockByID(ctx context.Context, symbol, positionID string, price decimal.Decimal) (CloseResult, error) {
	symbol = quote.Normalize(symbol)
	switch {
	case symbol == "":
		return CloseResult{}, fmt.Errorf("close stock %s: %w: symbol is required", positionID, ledger.ErrInvalidInput)
	case !price.IsPositive():
		return CloseResult{}, fmt.Errorf("close stock %s: %w: price %s must be positive", positionID, ledger.ErrInvalidInput, price)
	}
	return e.closeByID(ctx, OpCloseStock, symbol, positionID, ledger.KindStock, price)
}

// OpenOption buys o.Contracts contracts at o.Premium per share.
func (e *Engine) OpenOption(ctx context.Context, o OptionOrder) (OptionFill, error) {
	symbol := quote.Normalize(o.Symbol)
	switch {
	case symbol == "":
		return OptionFill{}, fmt.Errorf("open option: %w: symbol is required", ledger.ErrInvalidInput)
	case o.Type != ledger.Call && o.Type != ledger.Put:
		return OptionFill{}, fmt.Errorf("open option %s: %w: option type %q must be call or put", symbol, ledger.ErrInvalidInput, o.Type)
	case o.Contracts <= 0:
		return OptionFill{}, fmt.Errorf("open option %s: %w: contracts %d must be positive", symbol, ledger.ErrInvalidInput, o.Contracts)
	case !o.Premium.IsPositive():
		return OptionFill{}, fmt.Errorf("open option %s: %w: premium %s must be positive", symbol, ledger.ErrInvalidInput, o.Premium)
	case !o.Strike.IsPositive():
		return OptionFill{}, fmt.Errorf("open option %s: %w: strike %s must be positive", symbol, ledger.ErrInvalidInput, o.Strike)
	}

	pos := ledger.NewOption(e.newID(), symbol, o.Type, o.Strike, o.Expiration, o.Contracts, o.Premium, e.now())
	l, err := e.store.Transact(ctx, func(l ledger.Ledger) (ledger.Ledger, error) {
		if err := l.Open(pos); err != nil {
			return l, fmt.Errorf("open option %s: %w", symbol, err)
		}
		return l, nil
	})
	if err != nil {
		return OptionFill{}, err
	}

	e.committed(OpOpenOption, l, zap.String("id", pos.ID()), zap.String("symbol", symbol),
		zap.String("type", string(o.Type)), zap.Int64("contracts", o.Contracts),
		zap.String("cost", pos.CostBasis().StringFixed(2)))
	return OptionFill{Position: pos, Balance: l.Balance}, nil
}

// CloseOption sells an option position in full at exitPremium per share.
// A zero premium closes a contract that expired worthless.
func (e *Engine) CloseOption(ctx context.Context, positionID string, exitPremium decimal.Decimal) (CloseResult, error) {
	if exitPremium.IsNegative() {
		return CloseResult{}, fmt.Errorf("close option %s: %w: premium %s must not be negative", positionID, ledger.ErrInvalidInput, exitPremium)
	}
	return e.closeByID(ctx, OpCloseOption, "", positionID, ledger.KindOption, exitPremium)
}

// closeByID closes the position with positionID. A non-empty symbol must
// match the position's symbol.
func (e *Engine) closeByID(ctx context.Context, op, symbol, positionID string, want ledger.Kind, exit decimal.Decimal) (CloseResult, error) {
	at := e.now()
	var trade ledger.ClosedTrade
	l, err := e.store.Transact(ctx, func(l ledger.Ledger) (ledger.Ledger, error) {
		i := l.FindPosition(positionID)
		if i < 0 {
			return l, fmt.Errorf("close %s: %w: no open position %q", want, ledger.ErrPositionNotFound, positionID)
		}
		p := l.OpenPositions[i]
		if k := p.Kind(); k != want {
			return l, fmt.Errorf("close %s: %w: position %q is a %s", want, ledger.ErrWrongPositionType, positionID, k)
		}
		if symbol != "" && !strings.EqualFold(p.Symbol(), symbol) {
			return l, fmt.Errorf("close %s: %w: position %q is %s, not %s", want, ledger.ErrPositionNotFound, positionID, p.Symbol(), symbol)
		}
		trade = l.CloseAt(i, exit, at)
		return l, nil
	})
	if err != nil {
		return CloseResult{}, err
	}

	e.committed(op, l, tradeFields(trade)...)
	e.recordTrade(trade, op)
	return CloseResult{Trade: trade, Balance: l.Balance}, nil
}

// Reset discards every position and restores the starting balance.
func (e *Engine) Reset(ctx context.Context) (ledger.Ledger, error) {
	l, err := e.store.Reset(ctx)
	if err != nil {
		return ledger.Ledger{}, err
	}
	e.committed(OpReset, l)
	return l, nil
}

// Load returns the current ledger.
func (e *Engine) Load(ctx context.Context) (ledger.Ledger, error) {
	return e.store.Load(ctx)
}

// Portfolio values the current ledger with lookup. Nothing is written.
func (e *Engine) Portfolio(ctx context.Context, lookup quote.PriceLookup, opts ...valuation.Option) (valuation.View, error) {
	l, err := e.store.Load(ctx)
	if err != nil {
		return valuation.View{}, err
	}
	return valuation.Valuate(ctx, l, lookup, opts...), nil
}
