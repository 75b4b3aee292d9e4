package ledger

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ContractSize is the number of shares covered by one option contract.
const ContractSize = 100

var (
	contractSize = decimal.NewFromInt(ContractSize)
	hundred      = decimal.NewFromInt(100)
)

// Kind is the persisted discriminator of a position.
type Kind string

const (
	KindStock  Kind = "stock"
	KindOption Kind = "option"
)

// OptionType is either a call or a put.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// ParseOptionType accepts "call"/"put" in any case.
func ParseOptionType(s string) (OptionType, bool) {
	switch OptionType(strings.ToLower(strings.TrimSpace(s))) {
	case Call:
		return Call, true
	case Put:
		return Put, true
	}
	return "", false
}

// Position is an open stock or option position. It is implemented only by
// Stock and Option, and neither is ever modified after construction.
type Position interface {
	ID() string
	Symbol() string
	Kind() Kind
	EntryDate() time.Time
	CostBasis() decimal.Decimal

	// proceeds is the cash received when the whole position is sold at exit
	// (a share price for stocks, a per-share premium for options).
	proceeds(exit decimal.Decimal) decimal.Decimal
}

// Stock is an open equity lot.
type Stock struct {
	id         string
	symbol     string
	shares     int64
	entryPrice decimal.Decimal
	entryDate  time.Time
}

func NewStock(id, symbol string, shares int64, entryPrice decimal.Decimal, entryDate time.Time) Stock {
	return Stock{
		id:         id,
		symbol:     symbol,
		shares:     shares,
		entryPrice: entryPrice,
		entryDate:  entryDate.UTC(),
	}
}

func (s Stock) ID() string                  { return s.id }
func (s Stock) Symbol() string              { return s.symbol }
func (s Stock) Kind() Kind                  { return KindStock }
func (s Stock) EntryDate() time.Time        { return s.entryDate }
func (s Stock) Shares() int64               { return s.shares }
func (s Stock) EntryPrice() decimal.Decimal { return s.entryPrice }

// CostBasis is shares * entry price.
func (s Stock) CostBasis() decimal.Decimal {
	return s.entryPrice.Mul(decimal.NewFromInt(s.shares))
}

// MarketValue is what the lot is worth at price.
func (s Stock) MarketValue(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(s.shares))
}

func (s Stock) proceeds(exit decimal.Decimal) decimal.Decimal {
	return s.MarketValue(exit)
}

// Option is an open long call or put.
type Option struct {
	id           string
	symbol       string
	optionType   OptionType
	strike       decimal.Decimal
	expiration   time.Time
	contracts    int64
	entryPremium decimal.Decimal
	entryDate    time.Time
}

func NewOption(id, symbol string, typ OptionType, strike decimal.Decimal, expiration time.Time,
	contracts int64, entryPremium decimal.Decimal, entryDate time.Time) Option {
	return Option{
		id:           id,
		symbol:       symbol,
		optionType:   typ,
		strike:       strike,
		expiration:   expiration.UTC(),
		contracts:    contracts,
		entryPremium: entryPremium,
		entryDate:    entryDate.UTC(),
	}
}

func (o Option) ID() string                    { return o.id }
func (o Option) Symbol() string                { return o.symbol }
func (o Option) Kind() Kind                    { return KindOption }
func (o Option) EntryDate() time.Time          { return o.entryDate }
func (o Option) OptionType() OptionType        { return o.optionType }
func (o Option) Strike() decimal.Decimal       { return o.strike }
func (o Option) Expiration() time.Time         { return o.expiration }
func (o Option) Contracts() int64              { return o.contracts }
func (o Option) EntryPremium() decimal.Decimal { return o.entryPremium }

// CostBasis is premium * 100 * contracts.
func (o Option) CostBasis() decimal.Decimal {
	return premiumValue(o.entryPremium, o.contracts)
}

func (o Option) proceeds(exit decimal.Decimal) decimal.Decimal {
	return premiumValue(exit, o.contracts)
}

// PremiumCost is the cash needed to buy contracts at a per-share premium.
func PremiumCost(premium decimal.Decimal, contracts int64) decimal.Decimal {
	return premiumValue(premium, contracts)
}

func premiumValue(premium decimal.Decimal, contracts int64) decimal.Decimal {
	return premium.Mul(contractSize).Mul(decimal.NewFromInt(contracts))
}

// ClosedTrade is a position that has been sold in full.
type ClosedTrade struct {
	Position Position

	// ExitPrice is the share price for stocks and the per-share premium
	// for options.
	ExitPrice     decimal.Decimal
	ExitDate      time.Time
	Proceeds      decimal.Decimal
	ProfitLoss    decimal.Decimal
	PercentReturn decimal.Decimal
}

// Close converts p into a ClosedTrade sold at exit.
func Close(p Position, exit decimal.Decimal, at time.Time) ClosedTrade {
	proceeds := p.proceeds(exit)
	cost := p.CostBasis()
	pl := proceeds.Sub(cost)
	return ClosedTrade{
		Position:      p,
		ExitPrice:     exit,
		ExitDate:      at.UTC(),
		Proceeds:      proceeds,
		ProfitLoss:    pl,
		PercentReturn: PercentOf(pl, cost),
	}
}

// PercentOf returns part/whole*100, or zero when whole is zero.
func PercentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}
