package dload

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ShardStats is the external stats sink's record (§6 "Stats file"):
// (output_folder, shard_id, count, successes, failed_to_download,
// failed_to_resize, start_time, end_time, status_counter, q).
type ShardStats struct {
	RunID            string           `json:"run_id"`
	OutputFolder     string           `json:"output_folder"`
	ShardID          int              `json:"shard_id"`
	Count            int64            `json:"count"`
	Successes        int64            `json:"successes"`
	FailedToDownload int64            `json:"failed_to_download"`
	FailedToResize   int64            `json:"failed_to_resize"`
	StartTime        int64            `json:"start_time"` // unix nanos
	EndTime          int64            `json:"end_time"`
	StatusCounter    map[string]int64 `json:"status_counter"`
	Q                int              `json:"q"`
	OK               bool             `json:"ok"`
}

// Prometheus metrics, named in the teacher's stats-package convention:
// ".n" for counters, ".ns" for latency histograms (cmn/..., stats/target_stats.go).
var (
	shardsN = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "img2dataset_shards_n",
		Help: "Total shards processed.",
	})
	rowsN = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "img2dataset_rows_n",
		Help: "Total rows processed, by terminal status.",
	}, []string{"status"})
	fetchLatencyNs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "img2dataset_fetch_latency_ns",
		Help:    "Per-fetch wall latency in nanoseconds.",
		Buckets: prometheus.ExponentialBuckets(1e6, 2, 16), // 1ms .. ~32s
	})
)

func init() {
	prometheus.MustRegister(shardsN, rowsN, fetchLatencyNs)
}

// ObserveFetchLatency records one fetch's duration for the histogram.
func ObserveFetchLatency(ns int64) {
	fetchLatencyNs.Observe(float64(ns))
}

// recordShardMetrics pushes one finished shard's counters into the
// process-wide prometheus registry.
func recordShardMetrics(st *ShardStats) {
	shardsN.Inc()
	rowsN.WithLabelValues(StatusSuccess).Add(float64(st.Successes))
	rowsN.WithLabelValues(StatusFailedToDownload).Add(float64(st.FailedToDownload))
	rowsN.WithLabelValues(StatusFailedToResize).Add(float64(st.FailedToResize))
}
