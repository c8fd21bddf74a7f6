package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vodstream",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path and status code.",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vodstream",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{0.05, 0.1, 0.3, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "path"})

	TranscodeActiveJobs = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "vodstream",
		Name:      "transcode_active_jobs",
		Help:      "Number of currently running transcode jobs.",
	})

	TranscodeJobStartsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vodstream",
		Name:      "transcode_job_starts_total",
		Help:      "Total number of transcode jobs started.",
	})

	TranscodeJobFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vodstream",
		Name:      "transcode_job_failures_total",
		Help:      "Total number of transcode job failures.",
	})

	TranscodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vodstream",
		Name:      "transcode_duration_seconds",
		Help:      "Duration of FFmpeg transcode jobs in seconds.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	ArtifactCacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vodstream",
		Name:      "artifact_cache_hits_total",
		Help:      "Total number of artifact cache hits.",
	})

	ArtifactCacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vodstream",
		Name:      "artifact_cache_misses_total",
		Help:      "Total number of artifact cache misses.",
	})

	ArtifactEvictionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "vodstream",
		Name:      "artifact_evictions_total",
		Help:      "Total number of invalid cached artifacts deleted.",
	})

	HLSConversionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vodstream",
		Name:      "hls_conversions_total",
		Help:      "Total number of HLS conversion jobs by outcome.",
	}, []string{"outcome"})

	HLSRenditionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "vodstream",
		Name:      "hls_rendition_duration_seconds",
		Help:      "Duration of per-quality HLS segmenting jobs in seconds.",
		Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	StreamRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vodstream",
		Name:      "stream_requests_total",
		Help:      "Total stream requests by requested quality and range/full.",
	}, []string{"quality", "kind"})
)

func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TranscodeActiveJobs,
		TranscodeJobStartsTotal,
		TranscodeJobFailuresTotal,
		TranscodeDuration,
		ArtifactCacheHitsTotal,
		ArtifactCacheMissesTotal,
		ArtifactEvictionsTotal,
		HLSConversionsTotal,
		HLSRenditionDuration,
		StreamRequestsTotal,
	)
}
