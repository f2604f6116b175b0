package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "poradna"

// Upload results.
const (
	ResultOK          = "ok"
	ResultReadError   = "read_error"
	ResultDecodeError = "decode_error"
	ResultEncodeError = "encode_error"
	ResultUploadError = "upload_error"
	ResultCanceled    = "canceled"
)

var (
	attachmentUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_uploads_total",
			Help:      "Attachments processed by the upload pipeline, by result",
		},
		[]string{"result"},
	)

	attachmentTranscode = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attachment_transcode_seconds",
			Help:      "Time spent producing one WebP rendition",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"rendition"},
	)

	attachmentBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attachment_bytes_uploaded_total",
			Help:      "Bytes written to blob storage, by rendition",
		},
		[]string{"rendition"},
	)

	blobsCollected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphaned_blobs_deleted_total",
			Help:      "Unreferenced blobs removed by the garbage collector",
		},
	)
)

func ObserveUpload(result string) {
	attachmentUploads.WithLabelValues(result).Inc()
}

func ObserveTranscode(rendition string, d time.Duration) {
	attachmentTranscode.WithLabelValues(rendition).Observe(d.Seconds())
}

func AddUploadedBytes(rendition string, n int64) {
	attachmentBytes.WithLabelValues(rendition).Add(float64(n))
}

func AddCollectedBlobs(n int) {
	blobsCollected.Add(float64(n))
}
