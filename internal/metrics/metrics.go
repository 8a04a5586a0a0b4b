package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fixpoint"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "path", "status"},
	)

	httpResponsesByClass = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_responses_by_class_total",
			Help: "HTTP responses grouped by status class",
		},
		[]string{"service", "class"},
	)

	// Offers counts offer submissions by result: accepted, duplicate, full,
	// closed or invalid.
	Offers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "offers_total",
			Help:      "Offer submissions by result",
		},
		[]string{"result"},
	)

	// BookingsCreated is labelled by origin: direct or selection.
	BookingsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings created by origin",
		},
		[]string{"origin"},
	)

	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_transitions_total",
			Help:      "Booking status transitions",
		},
		[]string{"from", "to"},
	)

	ReconciledRequests = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reconciled_requests_total",
		Help:      "Accepted requests repaired by attaching their booking",
	})

	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Chat messages stored",
	})
)

// HTTPMetrics returns an Echo middleware recording request counts and latency
func HTTPMetrics(service string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			labels := []string{service, c.Request().Method, path, strconv.Itoa(status)}
			httpRequestsTotal.WithLabelValues(labels...).Inc()
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpResponsesByClass.WithLabelValues(service, strconv.Itoa(status/100)+"xx").Inc()
			return nil
		}
	}
}

// Handler exposes the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
