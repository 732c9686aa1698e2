package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IterationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "trade_iterations_total", Help: "Trading loop iterations started"},
	)
	SwapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "swaps_total", Help: "Swap attempts by side and outcome"},
		[]string{"side", "outcome"},
	)
	SkipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "iteration_skips_total", Help: "Iterations skipped before quoting"},
		[]string{"reason"},
	)
	QuotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "quotes_total", Help: "Aggregator quote requests by outcome"},
		[]string{"outcome"},
	)
	RebroadcastsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "tx_rebroadcasts_total", Help: "Signed transactions re-sent while awaiting confirmation"},
	)
)

func init() {
	prometheus.MustRegister(IterationsTotal, SwapsTotal, SkipsTotal, QuotesTotal, RebroadcastsTotal)
}

func Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
