package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(ocrJobsCreatedTotal, ocrJobsProcessedTotal, ocrJobsTransitionSkippedTotal, ocrJobsStalePending)
}

var (
	ocrJobsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ocr_jobs_created_total",
			Help: "Total number of OCR jobs created in pending state.",
		},
	)

	ocrJobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ocr_jobs_processed_total",
			Help: "Total number of OCR jobs moved to a terminal state, labeled by status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	ocrJobsTransitionSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ocr_jobs_transition_skipped_total",
			Help: "Terminal writes that affected no row because the job was no longer pending.",
		},
	)

	ocrJobsStalePending = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ocr_jobs_stale_pending",
			Help: "Jobs still pending after the configured staleness threshold.",
		},
	)
)

func IncOCRJobCreated() { ocrJobsCreatedTotal.Inc() }

func IncOCRJob(status string) {
	ocrJobsProcessedTotal.WithLabelValues(norm(status)).Inc()
}

func IncTransitionSkipped() { ocrJobsTransitionSkippedTotal.Inc() }

func SetStalePending(n int) { ocrJobsStalePending.Set(float64(n)) }
