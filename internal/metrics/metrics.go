package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	SectionUpdates   *prometheus.CounterVec
	RateLimited      *prometheus.CounterVec
	NotificationErrs prometheus.Counter
}

// New registers the collectors on reg. Tests pass a fresh registry; the
// server passes prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: gatherer,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "folio",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		SectionUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "portfolio_section_updates_total",
			Help:      "Successful portfolio writes by section.",
		}, []string{"section"}),
		RateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"route"}),
		NotificationErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "folio",
			Name:      "notification_failures_total",
			Help:      "Emails that could not be delivered.",
		}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.SectionUpdates, m.RateLimited, m.NotificationErrs)
	return m
}

func NewDefault() *Metrics {
	return New(prometheus.DefaultRegisterer, prometheus.DefaultGatherer)
}

// Middleware records one observation per request, labelled by the matched
// route template so that usernames do not explode label cardinality.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) SectionUpdated(section string) {
	if m == nil {
		return
	}
	m.SectionUpdates.WithLabelValues(section).Inc()
}

func (m *Metrics) NotificationFailed() {
	if m == nil {
		return
	}
	m.NotificationErrs.Inc()
}

func (m *Metrics) Limited(route string) {
	if m == nil {
		return
	}
	m.RateLimited.WithLabelValues(route).Inc()
}
