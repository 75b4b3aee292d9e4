package ledger

import "errors"

// Error kinds returned by the ledger, the store and the trading operations.
// Callers match them with errors.Is; every returned error wraps exactly one.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrPositionNotFound  = errors.New("position not found")
	ErrWrongPositionType = errors.New("wrong position type")
	ErrQuoteUnavailable  = errors.New("quote unavailable")
	ErrStoreIO           = errors.New("store i/o")
	ErrInvariant         = errors.New("ledger invariant violated")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidInput, "invalid_input"},
	{ErrInsufficientFunds, "insufficient_funds"},
	{ErrPositionNotFound, "position_not_found"},
	{ErrWrongPositionType, "wrong_position_type"},
	{ErrQuoteUnavailable, "quote_unavailable"},
	{ErrStoreIO, "store_io"},
	{ErrInvariant, "invariant"},
}

// ErrorKind returns a stable name for the kind of err, "" for nil and
// "unknown" for errors that wrap none of the ledger kinds.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "unknown"
}
