package orchestrator

import "github.com/prometheus/client_golang/prometheus"

var (
	quotesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfq_quotes_issued_total",
			Help: "Total number of quotes successfully issued",
		},
		[]string{"chain"},
	)

	quoteLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rfq_quote_latency_seconds",
			Help:    "End-to-end latency of createQuote, by outcome",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"chain", "outcome"},
	)

	priceLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rfq_price_latency_seconds",
			Help:    "End-to-end latency of getPrice, by outcome",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"chain", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(quotesIssuedTotal, quoteLatencySeconds, priceLatencySeconds)
}
