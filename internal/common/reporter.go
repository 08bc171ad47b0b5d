package common

// Reporter receives engine events. Calls are fire-and-forget: the engine
// neither waits on nor inspects the outcome, so implementations must not
// block for long and must be safe for concurrent use.
type Reporter interface {
	ReportAccepted(order OrderAccepted)
	ReportTrade(trade TradeExecuted)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) ReportAccepted(OrderAccepted) {}
func (NopReporter) ReportTrade(TradeExecuted)    {}

// Reporters fans every event out to each reporter in order.
type Reporters []Reporter

func (rs Reporters) ReportAccepted(order OrderAccepted) {
	for _, r := range rs {
		r.ReportAccepted(order)
	}
}

func (rs Reporters) ReportTrade(trade TradeExecuted) {
	for _, r := range rs {
		r.ReportTrade(trade)
	}
}
