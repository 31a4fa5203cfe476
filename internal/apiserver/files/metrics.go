package files

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================================
// Prometheus 指标
// ============================================================================

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edms_file_uploads_total",
		Help: "Total number of file uploads by result",
	}, []string{"result"})

	downloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edms_file_downloads_total",
		Help: "Total number of file downloads by result",
	}, []string{"result"})

	deletesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edms_file_deletes_total",
		Help: "Total number of file deletions by result",
	}, []string{"result"})

	uploadBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edms_file_upload_size_bytes",
		Help:    "Size distribution of uploaded files",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})
)
