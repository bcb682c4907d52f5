package obs

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"carrental/internal/app/middleware"
	"carrental/internal/app/policies"
)

const namespace = "carrental"

type Metrics struct {
	registry *prometheus.Registry

	availabilityChecks *prometheus.CounterVec
	bookingSubmissions *prometheus.CounterVec
	refundRequests     *prometheus.CounterVec
	paymentCompletions *prometheus.CounterVec
	busMessages        *prometheus.CounterVec
	busDuration        *prometheus.HistogramVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics registers the service collectors on a dedicated registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	outcome := []string{"outcome"}
	message := []string{"kind", "key"}
	request := []string{"method", "path", "status"}
	return &Metrics{
		registry:           reg,
		availabilityChecks: f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "availability_checks_total", Help: "Availability checks by outcome, including stale results that were discarded"}, outcome),
		bookingSubmissions: f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "booking_submissions_total", Help: "Booking submissions by outcome"}, outcome),
		refundRequests:     f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "refund_requests_total", Help: "Refund requests by outcome"}, outcome),
		paymentCompletions: f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "payment_completions_total", Help: "Payment completions by outcome"}, outcome),
		busMessages:        f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "bus_messages_total", Help: "Commands and queries handled"}, append(message, "result")),
		busDuration:        f.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "bus_message_duration_seconds", Help: "Command and query latency", Buckets: prometheus.DefBuckets}, message),
		httpRequests:       f.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "Total HTTP requests handled"}, request),
		httpDuration:       f.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "http_request_duration_seconds", Help: "HTTP request latency distribution", Buckets: prometheus.DefBuckets}, request),
	}
}

func (m *Metrics) AvailabilityChecked(outcome string) { m.availabilityChecks.WithLabelValues(outcome).Inc() }
func (m *Metrics) BookingSubmitted(outcome string)    { m.bookingSubmissions.WithLabelValues(outcome).Inc() }
func (m *Metrics) RefundRequested(outcome string)     { m.refundRequests.WithLabelValues(outcome).Inc() }
func (m *Metrics) PaymentCompleted(outcome string)    { m.paymentCompletions.WithLabelValues(outcome).Inc() }

func (m *Metrics) ObserveMessage(kind, key string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.busMessages.WithLabelValues(kind, key, result).Inc()
	m.busDuration.WithLabelValues(kind, key).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, path, code).Inc()
	m.httpDuration.WithLabelValues(method, path, code).Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

var (
	_ policies.Metrics    = (*Metrics)(nil)
	_ middleware.Observer = (*Metrics)(nil)
)
