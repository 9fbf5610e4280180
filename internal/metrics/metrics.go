package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Operations counts every filesystem operation by action and outcome.
	Operations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "file_manager",
		Name:      "operations_total",
		Help:      "Filesystem operations processed, labeled by action and status.",
	}, []string{"action", "status"})

	// TraversalRejections counts requests rejected by path containment checks.
	TraversalRejections = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "file_manager",
		Name:      "path_traversal_rejections_total",
		Help:      "Requests rejected because a path escaped the managed root.",
	})

	// LockTimeouts counts store lock acquisitions that timed out.
	LockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "file_manager",
		Name:      "store_lock_timeouts_total",
		Help:      "Store lock acquisitions abandoned after the bounded wait.",
	})

	// UploadBytes totals the payload bytes accepted through uploads.
	UploadBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "file_manager",
		Name:      "upload_bytes_total",
		Help:      "Bytes written by accepted uploads.",
	})

	// HTTPRequests counts requests by route pattern and response class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "file_manager",
		Name:      "http_requests_total",
		Help:      "HTTP requests served, labeled by method and response class.",
	}, []string{"method", "class"})
)

// RecordOperation increments the operation counter for one action outcome.
func RecordOperation(action string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	Operations.WithLabelValues(action, status).Inc()
}

// Handler exposes the prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
