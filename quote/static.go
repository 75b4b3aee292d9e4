package quote

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
)

// Static is an in-memory price table. It is safe for concurrent use.
type Static struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

func NewStatic() *Static {
	return &Static{prices: make(map[string]decimal.Decimal)}
}

// NewStaticFromFloats seeds a table, typically from config.
func NewStaticFromFloats(prices map[string]float64) *Static {
	s := NewStatic()
	for sym, p := range prices {
		s.Set(sym, decimal.NewFromFloat(p))
	}
	return s
}

// Set records the price of symbol. Non-positive prices remove it.
func (s *Static) Set(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	symbol = Normalize(symbol)
	if !price.IsPositive() {
		delete(s.prices, symbol)
		return
	}
	s.prices[symbol] = price
}

func (s *Static) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prices[Normalize(symbol)]
	if !ok {
		return decimal.Zero, Unavailable(symbol, nil)
	}
	return p, nil
}
