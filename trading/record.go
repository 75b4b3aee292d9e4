package trading

import (
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/ledger"
)

// committed logs a successful mutation and snapshots the balance. Journal
// failures are logged only; the ledger has already been written.
func (e *Engine) committed(op string, l ledger.Ledger, fields ...zap.Field) {
	fields = append(fields,
		zap.String("op", op),
		zap.String("balance", l.Balance.StringFixed(2)))
	e.log.Debug("ledger committed", fields...)

	if err := e.journal.RecordBalance(journal.Snapshot(l, op, e.now())); err != nil {
		e.log.Error("journal balance snapshot failed", zap.String("op", op), zap.Error(err))
	}
}

func (e *Engine) recordTrade(t ledger.ClosedTrade, op string) {
	if err := e.journal.RecordTrade(journal.FromClosedTrade(t, op)); err != nil {
		e.log.Error("journal trade failed",
			zap.String("id", t.Position.ID()),
			zap.String("symbol", t.Position.Symbol()),
			zap.Error(err))
	}
}

func tradeFields(t ledger.ClosedTrade) []zap.Field {
	return []zap.Field{
		zap.String("id", t.Position.ID()),
		zap.String("symbol", t.Position.Symbol()),
		zap.String("kind", string(t.Position.Kind())),
		zap.String("proceeds", t.Proceeds.StringFixed(2)),
		zap.String("pl", t.ProfitLoss.StringFixed(2)),
	}
}
