// Package report holds the event sinks the engine reports into.
package report

import (
	"crossbook/internal/common"

	"github.com/rs/zerolog"
)

// LogReporter writes one structured line per engine event. Wrap the writer
// in zerolog.SyncWriter when the engine is driven from several goroutines.
type LogReporter struct {
	logger zerolog.Logger
}

func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) ReportAccepted(order common.OrderAccepted) {
	r.logger.Info().
		Uint64("id", order.ID).
		Stringer("side", order.Side).
		Int("instrument", order.Instrument).
		Int64("quantity", order.Quantity).
		Float64("price", order.Price).
		Msg("order accepted")
}

func (r *LogReporter) ReportTrade(trade common.TradeExecuted) {
	r.logger.Info().
		Str("trade", trade.ID.String()).
		Int("instrument", trade.Instrument).
		Int64("quantity", trade.Quantity).
		Float64("price", trade.Price).
		Uint64("buy", trade.BuyOrderID).
		Uint64("sell", trade.SellOrderID).
		Msg("trade executed")
}
