package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	WsConnections = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "messenger_ws_connections",
		Help: "Current number of live persistent connections",
	}, []string{"namespace"})
	WsRejected = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_ws_rejected_total",
		Help: "Connection attempts refused before upgrade",
	}, []string{"namespace", "reason"})
	WsEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_ws_events_total",
		Help: "Inbound events by outcome (ok or an error code)",
	}, []string{"namespace", "event", "outcome"})
	FanoutDeliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_fanout_deliveries_total",
		Help: "Frames queued to live connections",
	}, []string{"namespace"})
	SlowClientsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_ws_slow_clients_dropped_total",
		Help: "Connections closed because their send buffer was full",
	}, []string{"namespace"})
	MessagesCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "messenger_messages_created_total",
		Help: "Messages persisted",
	})
	ActiveUsers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "messenger_active_users",
		Help: "Users with at least one live connection",
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "messenger_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "messenger_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		WsConnections, WsRejected, WsEvents, FanoutDeliveries, SlowClientsDropped,
		MessagesCreated, ActiveUsers,
		HttpRequestsTotal, HttpRequestDuration,
	)
}

// GinMiddleware records request count and latency per route template.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
