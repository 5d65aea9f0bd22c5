package engine

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// prometheusMetrics exposes the current transfer's live counters on an HTTP
// endpoint, for operators who run pipeview as a long-lived supervised step
// rather than watching its terminal display.
type prometheusMetrics struct {
	registry    *prometheus.Registry
	transferred prometheus.Gauge
	rate        prometheus.Gauge
	averageRate prometheus.Gauge
	percentage  prometheus.Gauge
}

func newPrometheusMetrics() *prometheusMetrics {
	registry := prometheus.NewRegistry()

	m := &prometheusMetrics{
		registry: registry,
		transferred: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeview_bytes_transferred_total",
			Help: "Bytes transferred so far by this pipeview instance.",
		}),
		rate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeview_transfer_rate_bytes",
			Help: "Current instantaneous transfer rate in bytes per second.",
		}),
		averageRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeview_average_rate_bytes",
			Help: "Average transfer rate in bytes per second over the configured window.",
		}),
		percentage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pipeview_percentage",
			Help: "Completion percentage, when the total size is known.",
		}),
	}

	registry.MustRegister(m.transferred, m.rate, m.averageRate, m.percentage)

	return m
}

// serve starts the metrics HTTP endpoint in the background. Failure to bind
// is reported to stderr but is not fatal to the transfer itself.
func (m *prometheusMetrics) serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil {
			fmt.Fprintf(os.Stderr, "pipeview: prometheus metrics server on %s stopped: %v\n", addr, err)
		}
	}()
}

func (m *prometheusMetrics) update(transferred int64, rate, averageRate float64, percentage int, percentageKnown bool) {
	m.transferred.Set(float64(transferred))
	m.rate.Set(rate)
	m.averageRate.Set(averageRate)

	if percentageKnown {
		m.percentage.Set(float64(percentage))
	}
}
