// journal/journal.go
package journal

import (
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/ledger"
)

// TradeRecord is one closed position as written to the journal.
type TradeRecord struct {
	TradeID string
	Symbol  string
	Kind    string
	// Contract describes an option ("call 250 2026-01-16"); empty for stocks.
	Contract string
	// Quantity is shares for stocks, contracts for options.
	Quantity int64
	// EntryPrice and ExitPrice are share prices for stocks and per-share
	// premiums for options.
	EntryPrice    float64
	ExitPrice     float64
	OpenTime      time.Time
	CloseTime     time.Time
	CostBasis     float64
	Proceeds      float64
	RealizedPL    float64
	PercentReturn float64
	Reason        string
}

// BalanceSnapshot is the account after one committed operation.
type BalanceSnapshot struct {
	Time          time.Time
	Op            string
	Balance       float64
	RealizedPL    float64
	OpenPositions int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordBalance(BalanceSnapshot) error
	Close() error
}

// FromClosedTrade flattens a ledger trade into a journal record.
func FromClosedTrade(t ledger.ClosedTrade, reason string) TradeRecord {
	rec := TradeRecord{
		TradeID:       t.Position.ID(),
		Symbol:        t.Position.Symbol(),
		Kind:          string(t.Position.Kind()),
		ExitPrice:     t.ExitPrice.InexactFloat64(),
		OpenTime:      t.Position.EntryDate(),
		CloseTime:     t.ExitDate,
		CostBasis:     t.Position.CostBasis().InexactFloat64(),
		Proceeds:      t.Proceeds.InexactFloat64(),
		RealizedPL:    t.ProfitLoss.InexactFloat64(),
		PercentReturn: t.PercentReturn.InexactFloat64(),
		Reason:        reason,
	}
	switch p := t.Position.(type) {
	case ledger.Stock:
		rec.Quantity = p.Shares()
		rec.EntryPrice = p.EntryPrice().InexactFloat64()
	case ledger.Option:
		rec.Quantity = p.Contracts()
		rec.EntryPrice = p.EntryPremium().InexactFloat64()
		rec.Contract = fmt.Sprintf("%s %s %s", p.OptionType(), p.Strike().String(), p.Expiration().Format("2006-01-02"))
	}
	return rec
}

// Snapshot captures l after op.
func Snapshot(l ledger.Ledger, op string, at time.Time) BalanceSnapshot {
	return BalanceSnapshot{
		Time:          at.UTC(),
		Op:            op,
		Balance:       l.Balance.InexactFloat64(),
		RealizedPL:    l.TotalRealizedPL.InexactFloat64(),
		OpenPositions: len(l.OpenPositions),
	}
}

type nopJournal struct{}

func (nopJournal) RecordTrade(TradeRecord) error       { return nil }
func (nopJournal) RecordBalance(BalanceSnapshot) error { return nil }
func (nopJournal) Close() error                        { return nil }

// Nop returns a journal that records nothing.
func Nop() Journal { return nopJournal{} }

// Open builds the journal described by cfg.
func Open(cfg config.JournalConfig) (Journal, error) {
	switch cfg.Type {
	case "", "none":
		return Nop(), nil
	case "sqlite":
		return NewSQLite(cfg.DBPath)
	case "csv":
		return NewCSV(cfg.TradesFile, cfg.BalanceFile)
	}
	return nil, fmt.Errorf("unknown journal type %q", cfg.Type)
}
