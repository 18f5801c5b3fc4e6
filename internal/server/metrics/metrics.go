// Package metrics exposes Prometheus counters for the portal. All methods
// are safe on a nil *Metrics so collaborators can run without it.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	registrations *prometheus.CounterVec
	verifications *prometheus.CounterVec
	logins        *prometheus.CounterVec
	mailSends     *prometheus.CounterVec
	uploads       *prometheus.CounterVec
	orphanedBlobs prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "portal_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_registrations_total",
				Help: "Registration attempts by outcome.",
			},
			[]string{"result"},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_verifications_total",
				Help: "Email verification attempts by outcome.",
			},
			[]string{"result"},
		),
		logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_logins_total",
				Help: "Login attempts by outcome.",
			},
			[]string{"result"},
		),
		mailSends: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_mail_sends_total",
				Help: "Outgoing mail by outcome.",
			},
			[]string{"result"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portal_resource_uploads_total",
				Help: "Resource uploads by outcome.",
			},
			[]string{"result"},
		),
		orphanedBlobs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "portal_orphaned_blobs_total",
				Help: "Stored files left without a resource row.",
			},
		),
	}

	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.registrations,
		m.verifications,
		m.logins,
		m.mailSends,
		m.uploads,
		m.orphanedBlobs,
	)
	return m
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) Registration(result string) {
	if m != nil {
		m.registrations.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Verification(result string) {
	if m != nil {
		m.verifications.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Login(result string) {
	if m != nil {
		m.logins.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) MailSend(result string) {
	if m != nil {
		m.mailSends.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) Upload(result string) {
	if m != nil {
		m.uploads.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) OrphanedBlob() {
	if m != nil {
		m.orphanedBlobs.Inc()
	}
}
