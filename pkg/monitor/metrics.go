package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// The launcher is a one-shot process, so metrics are not scraped: they
// are dumped in node-exporter textfile format after each run instead.
var registry = prometheus.NewRegistry()
var factory = promauto.With(registry)

var (
	SubmissionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "launcher_submissions_total",
		Help: "Total number of bsub submissions",
	}, []string{"queue", "status"})

	SubmissionDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Name:    "launcher_submission_duration_seconds",
		Help:    "Duration of bsub submissions",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
	})

	GpusRequested = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "launcher_gpus_requested",
		Help: "Number of GPUs requested by the last submission",
	}, []string{"gpu_type"})
)

// WriteTextfile dumps the registry to path for node-exporter's textfile
// collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, registry)
}
