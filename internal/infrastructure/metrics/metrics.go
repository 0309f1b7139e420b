package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Guestbook service metrics
var (
	// Upload counters
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guestbook",
			Subsystem: "media",
			Name:      "uploads_total",
			Help:      "Total file uploads",
		},
		[]string{"backend", "status"},
	)

	// Upload bytes counter
	UploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guestbook",
			Subsystem: "media",
			Name:      "upload_bytes_total",
			Help:      "Total bytes uploaded",
		},
		[]string{"backend"},
	)

	// Storage operations counter
	StorageOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guestbook",
			Subsystem: "media",
			Name:      "storage_operations_total",
			Help:      "Total storage backend operations",
		},
		[]string{"backend", "operation", "status"},
	)

	// Storage operation duration
	StorageOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "guestbook",
			Subsystem: "media",
			Name:      "storage_operation_duration_seconds",
			Help:      "Storage backend operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"backend", "operation"},
	)

	// Metadata sync counters
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guestbook",
			Subsystem: "media",
			Name:      "sync_runs_total",
			Help:      "Total metadata synchronizer runs",
		},
		[]string{"status"},
	)

	SyncRecordsAddedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "guestbook",
			Subsystem: "media",
			Name:      "sync_records_added_total",
			Help:      "Total records back-filled by the synchronizer",
		},
	)

	// Gallery cache counters
	GalleryCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "guestbook",
			Subsystem: "media",
			Name:      "gallery_cache_total",
			Help:      "Gallery listing cache lookups",
		},
		[]string{"result"},
	)
)

// RecordUpload records a file upload
func RecordUpload(backend, status string, bytes int64) {
	UploadsTotal.WithLabelValues(backend, status).Inc()
	if status == "success" {
		UploadBytesTotal.WithLabelValues(backend).Add(float64(bytes))
	}
}

// RecordStorageOp records a storage backend operation
func RecordStorageOp(backend, operation, status string, durationSec float64) {
	StorageOpsTotal.WithLabelValues(backend, operation, status).Inc()
	StorageOpDuration.WithLabelValues(backend, operation).Observe(durationSec)
}

// RecordSync records a synchronizer run
func RecordSync(status string, added int) {
	SyncRunsTotal.WithLabelValues(status).Inc()
	if added > 0 {
		SyncRecordsAddedTotal.Add(float64(added))
	}
}

// RecordGalleryCache records a gallery cache lookup
func RecordGalleryCache(hit bool) {
	if hit {
		GalleryCacheTotal.WithLabelValues("hit").Inc()
		return
	}
	GalleryCacheTotal.WithLabelValues("miss").Inc()
}
