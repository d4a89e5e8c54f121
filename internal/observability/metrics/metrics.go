package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendoronboard_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vendoronboard_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	invitesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendoronboard_invites_total",
		Help: "Vendor invitations by result",
	}, []string{"result"})

	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendoronboard_document_uploads_total",
		Help: "Document uploads by document type and result",
	}, []string{"document_type", "result"})

	uploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "vendoronboard_document_upload_bytes",
		Help:    "Size of accepted document uploads",
		Buckets: prometheus.ExponentialBuckets(16*1024, 4, 7),
	})

	statusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendoronboard_vendor_status_transitions_total",
		Help: "Vendor status transitions",
	}, []string{"from", "to"})

	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendoronboard_notifications_total",
		Help: "Invite notifications handed to the notifier, by result",
	}, []string{"notifier", "result"})

	reconcileFindings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vendoronboard_reconcile_findings_total",
		Help: "Storage/metadata inconsistencies found by the reconciliation sweep",
	}, []string{"kind", "action"})

	outboxDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "vendoronboard_notify_outbox_depth",
		Help: "Invite notifications waiting in the Redis outbox",
	})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveInvite counts an invite attempt
func ObserveInvite(result string) {
	invitesTotal.WithLabelValues(result).Inc()
}

// ObserveUpload counts an upload attempt and, on success, its size
func ObserveUpload(documentType, result string, size int) {
	uploadsTotal.WithLabelValues(documentType, result).Inc()
	if result == "success" {
		uploadBytes.Observe(float64(size))
	}
}

// ObserveTransition counts a vendor status change
func ObserveTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

// ObserveNotification counts an invite notification delivery attempt
func ObserveNotification(notifier, result string) {
	notificationsTotal.WithLabelValues(notifier, result).Inc()
}

// ObserveReconcile counts a reconciliation finding
func ObserveReconcile(kind, action string) {
	reconcileFindings.WithLabelValues(kind, action).Inc()
}

// SetOutboxDepth records the number of queued invite notifications
func SetOutboxDepth(n int64) {
	outboxDepth.Set(float64(n))
}
