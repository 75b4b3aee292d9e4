package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/ledger"
)

func parseQuantity(name, s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a whole number", ledger.ErrInvalidInput, name, s)
	}
	return n, nil
}

// parseMoney accepts "150", "150.25" and "$1,500.25".
func parseMoney(name, s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer("$", "", ",", "").Replace(strings.TrimSpace(s))
	v, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %s %q is not a number", ledger.ErrInvalidInput, name, s)
	}
	return v, nil
}

func parseDate(name, s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is not YYYY-MM-DD", ledger.ErrInvalidInput, name, s)
	}
	return t, nil
}

func parseOptionType(s string) (ledger.OptionType, error) {
	typ, ok := ledger.ParseOptionType(s)
	if !ok {
		return "", fmt.Errorf("%w: option type %q must be call or put", ledger.ErrInvalidInput, s)
	}
	return typ, nil
}
