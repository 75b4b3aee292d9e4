// Package ledger holds the paper-trading account: cash, open positions,
// closed trades and realized P/L, along with the accounting rules that
// tie them together.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// StartingBalance is the cash a fresh ledger is funded with.
var StartingBalance = decimal.NewFromInt(1_000_000)

// Ledger is a single-owner paper account.
type Ledger struct {
	Balance         decimal.Decimal
	OpenPositions   []Position
	ClosedTrades    []ClosedTrade
	TotalRealizedPL decimal.Decimal
	CreatedAt       time.Time
}

// New returns a fresh ledger funded with StartingBalance.
func New(now time.Time) Ledger {
	return Ledger{
		Balance:         StartingBalance,
		OpenPositions:   []Position{},
		ClosedTrades:    []ClosedTrade{},
		TotalRealizedPL: decimal.Zero,
		CreatedAt:       now.UTC(),
	}
}

// Clone returns a copy that shares no slices with l. Positions and closed
// trades are immutable values so copying the slices is enough.
func (l Ledger) Clone() Ledger {
	c := l
	c.OpenPositions = append(make([]Position, 0, len(l.OpenPositions)), l.OpenPositions...)
	c.ClosedTrades = append(make([]ClosedTrade, 0, len(l.ClosedTrades)), l.ClosedTrades...)
	return c
}

// Check reports the first invariant l violates.
func (l Ledger) Check() error {
	if l.Balance.IsNegative() {
		return fmt.Errorf("%w: balance %s is negative", ErrInvariant, l.Balance)
	}

	sum := decimal.Zero
	for _, t := range l.ClosedTrades {
		sum = sum.Add(t.ProfitLoss)
	}
	if !sum.Equal(l.TotalRealizedPL) {
		return fmt.Errorf("%w: realized P/L %s does not match closed trades total %s",
			ErrInvariant, l.TotalRealizedPL, sum)
	}

	seen := make(map[string]struct{}, len(l.OpenPositions))
	for _, p := range l.OpenPositions {
		if _, dup := seen[p.ID()]; dup {
			return fmt.Errorf("%w: duplicate position id %q", ErrInvariant, p.ID())
		}
		seen[p.ID()] = struct{}{}
	}
	return nil
}

// FindStock returns the index of the first open stock lot for symbol in
// insertion order, or -1.
func (l Ledger) FindStock(symbol string) int {
	for i, p := range l.OpenPositions {
		if s, ok := p.(Stock); ok && strings.EqualFold(s.symbol, symbol) {
			return i
		}
	}
	return -1
}

// FindPosition returns the index of the open position with id, or -1.
func (l Ledger) FindPosition(id string) int {
	for i, p := range l.OpenPositions {
		if p.ID() == id {
			return i
		}
	}
	return -1
}

// Open debits the cost basis of p and appends it to the open positions.
// It fails with ErrInsufficientFunds when the balance does not cover the
// cost, leaving l untouched.
func (l *Ledger) Open(p Position) error {
	cost := p.CostBasis()
	if cost.GreaterThan(l.Balance) {
		return fmt.Errorf("%w: cost %s exceeds balance %s", ErrInsufficientFunds, cost.StringFixed(2), l.Balance.StringFixed(2))
	}
	l.Balance = l.Balance.Sub(cost)
	l.OpenPositions = append(l.OpenPositions, p)
	return nil
}

// CloseAt sells the open position at index i in full and books the trade.
func (l *Ledger) CloseAt(i int, exit decimal.Decimal, at time.Time) ClosedTrade {
	t := Close(l.OpenPositions[i], exit, at)

	open := make([]Position, 0, len(l.OpenPositions)-1)
	open = append(open, l.OpenPositions[:i]...)
	l.OpenPositions = append(open, l.OpenPositions[i+1:]...)

	l.ClosedTrades = append(l.ClosedTrades, t)
	l.Balance = l.Balance.Add(t.Proceeds)
	l.TotalRealizedPL = l.TotalRealizedPL.Add(t.ProfitLoss)
	return t
}
