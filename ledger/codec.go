package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// number writes a decimal as a bare JSON number with its exact digits.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

func (n *number) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return err
	}
	*n = number(d)
	return nil
}

func num(d decimal.Decimal) *number {
	n := number(d)
	return &n
}

func (n *number) dec() decimal.Decimal {
	if n == nil {
		return decimal.Zero
	}
	return decimal.Decimal(*n)
}

type record struct {
	Version         int64            `json:"version"`
	Balance         number           `json:"balance"`
	OpenPositions   []positionRecord `json:"open_positions"`
	ClosedTrades    []tradeRecord    `json:"closed_trades"`
	TotalRealizedPL number           `json:"total_realized_pl"`
	CreatedAt       time.Time        `json:"created_at"`
}

type positionRecord struct {
	Type         Kind       `json:"type"`
	ID           string     `json:"id"`
	Symbol       string     `json:"symbol"`
	Shares       int64      `json:"shares,omitempty"`
	EntryPrice   *number    `json:"entry_price,omitempty"`
	OptionType   OptionType `json:"option_type,omitempty"`
	Strike       *number    `json:"strike,omitempty"`
	Expiration   *time.Time `json:"expiration,omitempty"`
	Contracts    int64      `json:"contracts,omitempty"`
	EntryPremium *number    `json:"entry_premium,omitempty"`
	EntryDate    time.Time  `json:"entry_date"`
	CostBasis    number     `json:"cost_basis"`
}

type tradeRecord struct {
	positionRecord
	ExitPrice     *number   `json:"exit_price,omitempty"`
	ExitPremium   *number   `json:"exit_premium,omitempty"`
	ExitDate      time.Time `json:"exit_date"`
	Proceeds      number    `json:"proceeds"`
	ProfitLoss    number    `json:"profit_loss"`
	PercentReturn number    `json:"percent_return"`
}

// MarshalRecord encodes l as the persisted ledger record.
func MarshalRecord(l Ledger, version int64) ([]byte, error) {
	rec := record{
		Version:         version,
		Balance:         number(l.Balance),
		OpenPositions:   make([]positionRecord, 0, len(l.OpenPositions)),
		ClosedTrades:    make([]tradeRecord, 0, len(l.ClosedTrades)),
		TotalRealizedPL: number(l.TotalRealizedPL),
		CreatedAt:       l.CreatedAt.UTC(),
	}
	for _, p := range l.OpenPositions {
		pr, err := encodePosition(p)
		if err != nil {
			return nil, err
		}
		rec.OpenPositions = append(rec.OpenPositions, pr)
	}
	for _, t := range l.ClosedTrades {
		pr, err := encodePosition(t.Position)
		if err != nil {
			return nil, err
		}
		tr := tradeRecord{
			positionRecord: pr,
			ExitDate:       t.ExitDate.UTC(),
			Proceeds:       number(t.Proceeds),
			ProfitLoss:     number(t.ProfitLoss),
			PercentReturn:  number(t.PercentReturn),
		}
		if pr.Type == KindOption {
			tr.ExitPremium = num(t.ExitPrice)
		} else {
			tr.ExitPrice = num(t.ExitPrice)
		}
		rec.ClosedTrades = append(rec.ClosedTrades, tr)
	}
	return json.MarshalIndent(rec, "", "  ")
}

// UnmarshalRecord decodes a persisted ledger record and its version.
func UnmarshalRecord(data []byte) (Ledger, int64, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Ledger{}, 0, fmt.Errorf("decode ledger record: %w", err)
	}

	l := Ledger{
		Balance:         decimal.Decimal(rec.Balance),
		OpenPositions:   make([]Position, 0, len(rec.OpenPositions)),
		ClosedTrades:    make([]ClosedTrade, 0, len(rec.ClosedTrades)),
		TotalRealizedPL: decimal.Decimal(rec.TotalRealizedPL),
		CreatedAt:       rec.CreatedAt,
	}
	for _, pr := range rec.OpenPositions {
		p, err := decodePosition(pr)
		if err != nil {
			return Ledger{}, 0, err
		}
		l.OpenPositions = append(l.OpenPositions, p)
	}
	for _, tr := range rec.ClosedTrades {
		p, err := decodePosition(tr.positionRecord)
		if err != nil {
			return Ledger{}, 0, err
		}
		exit := tr.ExitPrice
		if p.Kind() == KindOption {
			exit = tr.ExitPremium
		}
		l.ClosedTrades = append(l.ClosedTrades, ClosedTrade{
			Position:      p,
			ExitPrice:     exit.dec(),
			ExitDate:      tr.ExitDate,
			Proceeds:      decimal.Decimal(tr.Proceeds),
			ProfitLoss:    decimal.Decimal(tr.ProfitLoss),
			PercentReturn: decimal.Decimal(tr.PercentReturn),
		})
	}
	return l, rec.Version, nil
}

func encodePosition(p Position) (positionRecord, error) {
	pr := positionRecord{
		Type:      p.Kind(),
		ID:        p.ID(),
		Symbol:    p.Symbol(),
		EntryDate: p.EntryDate().UTC(),
		CostBasis: number(p.CostBasis()),
	}
	switch v := p.(type) {
	case Stock:
		pr.Shares = v.shares
		pr.EntryPrice = num(v.entryPrice)
	case Option:
		exp := v.expiration.UTC()
		pr.OptionType = v.optionType
		pr.Strike = num(v.strike)
		pr.Expiration = &exp
		pr.Contracts = v.contracts
		pr.EntryPremium = num(v.entryPremium)
	default:
		return positionRecord{}, fmt.Errorf("encode position %q: unsupported type %T", p.ID(), p)
	}
	return pr, nil
}

func decodePosition(pr positionRecord) (Position, error) {
	switch pr.Type {
	case KindStock:
		if pr.EntryPrice == nil || pr.Shares <= 0 {
			return nil, fmt.Errorf("decode stock %q: missing shares or entry_price", pr.ID)
		}
		return NewStock(pr.ID, pr.Symbol, pr.Shares, pr.EntryPrice.dec(), pr.EntryDate), nil
	case KindOption:
		if pr.EntryPremium == nil || pr.Strike == nil || pr.Expiration == nil || pr.Contracts <= 0 {
			return nil, fmt.Errorf("decode option %q: missing contract fields", pr.ID)
		}
		typ, ok := ParseOptionType(string(pr.OptionType))
		if !ok {
			return nil, fmt.Errorf("decode option %q: bad option_type %q", pr.ID, pr.OptionType)
		}
		return NewOption(pr.ID, pr.Symbol, typ, pr.Strike.dec(), *pr.Expiration,
			pr.Contracts, pr.EntryPremium.dec(), pr.EntryDate), nil
	case "":
		return nil, errors.New("decode position: missing type")
	}
	return nil, fmt.Errorf("decode position %q: unknown type %q", pr.ID, pr.Type)
}
