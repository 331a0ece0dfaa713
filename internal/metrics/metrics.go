package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/ledger-dashboard/internal/model"
	"github.com/rickgao/ledger-dashboard/internal/router"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "ledger_dashboard"

// Metrics holds all Prometheus metrics for the service. Each instance owns
// its registry so tests can create as many as they like.
type Metrics struct {
	registry  *prometheus.Registry
	namespace string

	// Market poller
	MarketPolls        *prometheus.CounterVec
	MarketPollDuration prometheus.Histogram
	MarketPopulated    prometheus.Gauge
	MarketPrice        prometheus.Gauge
	LastMarketPoll     prometheus.Gauge

	// Chain poller
	ChainPolls        *prometheus.CounterVec
	ChainPollDuration prometheus.Histogram

	// Stream hub
	StreamClients        prometheus.Gauge
	StreamClientsDropped prometheus.Counter

	// History writer
	WriterRows          *prometheus.CounterVec
	WriterFlushErrors   prometheus.Counter
	WriterFlushDuration prometheus.Histogram

	// Build info
	BuildInfo *prometheus.GaugeVec
}

// New creates a Metrics instance with all metrics registered, plus the Go
// runtime and process collectors.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry:  reg,
		namespace: namespace,

		MarketPolls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "polls_total",
			Help:      "Market polls by outcome (populated or absent reason)",
		}, []string{"outcome"}),
		MarketPollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "poll_duration_seconds",
			Help:      "Market poll duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		MarketPopulated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "populated",
			Help:      "1 when the last poll produced a price, 0 when absent",
		}),
		MarketPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "price",
			Help:      "Last derived price (quote per base)",
		}),
		LastMarketPoll: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "last_poll_timestamp",
			Help:      "Unix timestamp of the last completed market poll",
		}),

		ChainPolls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "polls_total",
			Help:      "Chain polls by status",
		}, []string{"status"}),
		ChainPollDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "poll_duration_seconds",
			Help:      "Chain poll duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		StreamClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients",
			Help:      "Connected WebSocket subscribers",
		}),
		StreamClientsDropped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "clients_dropped_total",
			Help:      "Subscribers disconnected for falling behind",
		}),

		WriterRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "rows_total",
			Help:      "Price history rows by result",
		}, []string{"result"}),
		WriterFlushErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "flush_errors_total",
			Help:      "Failed price history flushes",
		}),
		WriterFlushDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "writer",
			Name:      "flush_duration_seconds",
			Help:      "Price history flush duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		BuildInfo: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information, always 1",
		}, []string{"version", "commit"}),
	}
}

// Registry returns the registry backing this instance.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveMarketPoll records a market poll. reason is empty when populated.
func (m *Metrics) ObserveMarketPoll(reason string, d time.Duration) {
	outcome := reason
	if outcome == "" {
		outcome = model.StatusPopulated
	}
	m.MarketPolls.WithLabelValues(outcome).Inc()
	m.MarketPollDuration.Observe(d.Seconds())
	m.LastMarketPoll.SetToCurrentTime()
	if reason != "" {
		m.MarketPopulated.Set(0)
	}
}

// HandleUpdate sets the price gauges. It satisfies poller.UpdateHandler.
func (m *Metrics) HandleUpdate(u model.MarketUpdate) error {
	if u.Point == nil {
		m.MarketPopulated.Set(0)
		return nil
	}
	m.MarketPopulated.Set(1)
	if price, err := strconv.ParseFloat(u.Point.Price, 64); err == nil {
		m.MarketPrice.Set(price)
	}
	return nil
}

// ObserveChainPoll records a chain poll.
func (m *Metrics) ObserveChainPoll(ok bool, d time.Duration) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.ChainPolls.WithLabelValues(status).Inc()
	m.ChainPollDuration.Observe(d.Seconds())
}

// SetStreamClients sets the subscriber gauge.
func (m *Metrics) SetStreamClients(n int) {
	m.StreamClients.Set(float64(n))
}

// StreamClientDropped counts a slow-subscriber disconnect.
func (m *Metrics) StreamClientDropped() {
	m.StreamClientsDropped.Inc()
}

// ObserveFlush records a history writer flush.
func (m *Metrics) ObserveFlush(inserted, conflicts int, err error, d time.Duration) {
	m.WriterFlushDuration.Observe(d.Seconds())
	if err != nil {
		m.WriterFlushErrors.Inc()
		return
	}
	m.WriterRows.WithLabelValues("inserted").Add(float64(inserted))
	m.WriterRows.WithLabelValues("conflict").Add(float64(conflicts))
}

// RegisterBuffer exports depth and overflow of a router subscriber buffer.
func (m *Metrics) RegisterBuffer(name string, stats func() router.BufferStats) {
	factory := promauto.With(m.registry)
	labels := prometheus.Labels{"subscriber": name}

	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   "router",
		Name:        "buffer_len",
		Help:        "Updates queued for a subscriber",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Count) })

	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   "router",
		Name:        "dropped_total",
		Help:        "Updates evicted from a full subscriber buffer",
		ConstLabels: labels,
	}, func() float64 { return float64(stats().Dropped) })
}

// SetBuildInfo publishes the running version.
func (m *Metrics) SetBuildInfo(version, commit string) {
	m.BuildInfo.WithLabelValues(version, commit).Set(1)
}
