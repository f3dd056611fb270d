// Package metrics exposes the prometheus collectors of the service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bobinette/seedgraph/layout"
)

const namespace = "seedgraph"

// Metrics owns its registry so that several instances can live in the same
// process.
type Metrics struct {
	registry *prometheus.Registry

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	Ticks       prometheus.Counter
	Alpha       prometheus.Gauge
	Seeds       prometheus.Gauge
	Subscribers prometheus.Gauge
	Reloads     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code",
		}, []string{"route", "method", "code"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time to serve an HTTP request",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),

		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "layout_ticks_total",
			Help:      "Layout simulation steps",
		}),
		Alpha: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_alpha",
			Help:      "Current temperature of the layout simulation",
		}),
		Seeds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_seeds",
			Help:      "Seeds in the loaded graph",
		}),
		Subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "layout_subscribers",
			Help:      "Open layout websocket streams",
		}),
		Reloads: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "graph_reloads_total",
			Help:      "Graph loads by result",
		}, []string{"result"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveFrame records a layout tick.
func (m *Metrics) ObserveFrame(f layout.Frame) {
	m.Ticks.Inc()
	m.Alpha.Set(f.Alpha)
}

// ObserveLoad records the outcome of a graph load.
func (m *Metrics) ObserveLoad(seeds int, err error) {
	if err != nil {
		m.Reloads.WithLabelValues("error").Inc()
		return
	}
	m.Reloads.WithLabelValues("ok").Inc()
	m.Seeds.Set(float64(seeds))
}

// Middleware counts the requests served by a gin engine. Unmatched routes
// are grouped under "none".
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "none"
		}
		m.Requests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
