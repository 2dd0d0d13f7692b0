// Package metrics defines the Prometheus collectors exported on /metrics.
// All recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agrolink"

type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	InboundSMSTotal    *prometheus.CounterVec
	OutboundSMSTotal   *prometheus.CounterVec
	RateLimitedTotal   *prometheus.CounterVec
	RegistrationsTotal prometheus.Counter
	ProductsListed     prometheus.Counter
	ImageJobsTotal     *prometheus.CounterVec
	ImageJobDuration   prometheus.Histogram
}

// New registers every collector, plus Go runtime and process collectors,
// on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"method", "path"}),
		InboundSMSTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sms_inbound_total",
			Help:      "Inbound SMS by classified intent",
		}, []string{"intent"}),
		OutboundSMSTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sms_outbound_total",
			Help:      "Outbound SMS by result",
		}, []string{"result"}),
		RateLimitedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests refused by the attempt limiter",
		}, []string{"kind"}),
		RegistrationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_completed_total",
			Help:      "Phone numbers that completed OTP verification",
		}),
		ProductsListed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_listed_total",
			Help:      "Products listed over SMS",
		}),
		ImageJobsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_jobs_total",
			Help:      "Product image generation jobs by result",
		}, []string{"result"}),
		ImageJobDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_job_duration_seconds",
			Help:      "Product image generation duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30},
		}),
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, path, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

func (m *Metrics) InboundSMS(intent string) {
	if m == nil {
		return
	}
	m.InboundSMSTotal.WithLabelValues(intent).Inc()
}

func (m *Metrics) OutboundSMS(ok bool) {
	if m == nil {
		return
	}
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.OutboundSMSTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RateLimited(kind string) {
	if m == nil {
		return
	}
	m.RateLimitedTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RegistrationCompleted() {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Inc()
}

func (m *Metrics) ProductListed() {
	if m == nil {
		return
	}
	m.ProductsListed.Inc()
}

func (m *Metrics) ImageJob(result string, seconds float64) {
	if m == nil {
		return
	}
	m.ImageJobsTotal.WithLabelValues(result).Inc()
	m.ImageJobDuration.Observe(seconds)
}
