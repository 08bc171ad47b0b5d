package report

import (
	"fmt"

	"crossbook/internal/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Metrics counts engine events.
type Metrics struct {
	accepted *prometheus.CounterVec
	trades   prometheus.Counter
	volume   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		accepted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crossbook_orders_accepted_total",
				Help: "Total number of orders accepted into the book.",
			},
			[]string{"side"},
		),
		trades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crossbook_trades_total",
			Help: "Total number of trades executed.",
		}),
		volume: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crossbook_traded_quantity_total",
			Help: "Total quantity exchanged across all trades.",
		}),
	}

	for _, c := range []prometheus.Collector{m.accepted, m.trades, m.volume} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("unable to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) ReportAccepted(order common.OrderAccepted) {
	m.accepted.WithLabelValues(order.Side.String()).Inc()
}

func (m *Metrics) ReportTrade(trade common.TradeExecuted) {
	m.trades.Inc()
	m.volume.Add(float64(trade.Quantity))
}

// LogMetrics writes the current value of every gathered counter and gauge.
func LogMetrics(logger zerolog.Logger, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("unable to gather metrics: %w", err)
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			var value float64
			switch {
			case metric.GetCounter() != nil:
				value = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				value = metric.GetGauge().GetValue()
			default:
				continue
			}

			event := logger.Info().Str("metric", family.GetName())
			for _, label := range metric.GetLabel() {
				event = event.Str(label.GetName(), label.GetValue())
			}
			event.Float64("value", value).Msg("metric")
		}
	}
	return nil
}
