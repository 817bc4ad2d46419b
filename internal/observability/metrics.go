package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_http_requests_total",
			Help: "Total number of HTTP requests processed by the rental service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rental_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rental_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
		[]string{"kind"},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_ws_events_total",
			Help: "Total number of websocket events.",
		},
		[]string{"kind", "event"},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
	bookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_bookings_total",
			Help: "Booking attempts by result.",
		},
		[]string{"result"},
	)
	transitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_lifecycle_transitions_total",
			Help: "Applied rental lifecycle transitions.",
		},
		[]string{"from", "to"},
	)
	messagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_messages_sent_total",
			Help: "Messages appended to threads.",
		},
		[]string{"thread_kind"},
	)
	notifyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_notification_failures_total",
			Help: "Notification deliveries that failed and were dropped.",
		},
		[]string{"sink"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		amqpPublishErrorsTotal,
		bookingsTotal,
		transitionsTotal,
		messagesTotal,
		notifyFailuresTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Inc()
}

func DecWSActive(kind string) {
	wsActiveConnections.WithLabelValues(kind).Dec()
}

func IncWSEvent(kind, event string) {
	wsEventsTotal.WithLabelValues(kind, event).Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}

func IncBooking(result string) {
	bookingsTotal.WithLabelValues(result).Inc()
}

func IncTransition(from, to string) {
	transitionsTotal.WithLabelValues(from, to).Inc()
}

func IncMessage(threadKind string) {
	messagesTotal.WithLabelValues(threadKind).Inc()
}

func IncNotifyFailure(sink string) {
	notifyFailuresTotal.WithLabelValues(sink).Inc()
}
