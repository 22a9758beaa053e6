package monitoring

import (
	"net/http"
	"time"

	"cafeassist/internal/assistant"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

// Collector reports assistant turns and orders to Prometheus and mirrors the
// counters into a Monitor.
type Collector struct {
	registry        *prometheus.Registry
	turns           *prometheus.CounterVec
	turnDuration    prometheus.Histogram
	ordersCommitted *prometheus.CounterVec
	orderValue      prometheus.Histogram
	commitFailures  prometheus.Counter
	monitor         *Monitor
}

// NewCollector creates a collector with its own registry
func NewCollector(monitor *Monitor) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_turns_total",
				Help: "Conversation turns handled, by intent",
			},
			[]string{"intent"},
		),
		turnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assistant_turn_duration_seconds",
				Help:    "Time taken to handle one conversation turn",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		ordersCommitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "assistant_orders_committed_total",
				Help: "Orders placed through the assistant, by order type",
			},
			[]string{"order_type"},
		),
		orderValue: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "assistant_order_value",
				Help:    "Total value of orders placed through the assistant",
				Buckets: prometheus.LinearBuckets(100, 200, 10),
			},
		),
		commitFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "assistant_commit_failures_total",
				Help: "Orders that could not be stored",
			},
		),
		monitor: monitor,
	}

	registry.MustRegister(c.turns, c.turnDuration, c.ordersCommitted, c.orderValue, c.commitFailures)
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return c
}

// ObserveTurn implements assistant.Recorder
func (c *Collector) ObserveTurn(intent assistant.Intent, elapsed time.Duration) {
	c.turns.WithLabelValues(string(intent)).Inc()
	c.turnDuration.Observe(elapsed.Seconds())
	if c.monitor != nil {
		c.monitor.Add("turns_total", 1)
		c.monitor.Add("turns_"+string(intent), 1)
	}
}

// OrderCommitted implements assistant.Recorder
func (c *Collector) OrderCommitted(orderType assistant.OrderType, total decimal.Decimal) {
	value, _ := total.Float64()
	c.ordersCommitted.WithLabelValues(string(orderType)).Inc()
	c.orderValue.Observe(value)
	if c.monitor != nil {
		c.monitor.Add("orders_committed", 1)
		c.monitor.Add("orders_"+string(orderType), 1)
		c.monitor.RecordMetric("last_order_at", time.Now().Format(time.RFC3339))
	}
}

// CommitFailed implements assistant.Recorder
func (c *Collector) CommitFailed() {
	c.commitFailures.Inc()
	if c.monitor != nil {
		c.monitor.Add("commit_failures", 1)
	}
}

// Registry exposes the underlying registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
