package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalyzeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubegrab_analyze_total",
		Help: "Total number of analyze requests by result",
	}, []string{"result"})

	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tubegrab_jobs_total",
		Help: "Total number of download jobs by result and failing stage",
	}, []string{"result", "stage"})

	FilesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubegrab_files_served_total",
		Help: "Total number of files fully transmitted to clients",
	})

	FilesReaped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubegrab_files_reaped_total",
		Help: "Total number of files deleted by the reaper",
	})

	BytesServed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tubegrab_bytes_served_total",
		Help: "Total bytes streamed to clients",
	})

	ExtractorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tubegrab_extractor_duration_seconds",
		Help:    "Extractor call duration in seconds",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
	}, []string{"op"})
)

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)
