package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CandidatesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tilescan_candidates_total",
		Help: "Total number of candidates processed (checkpoint advanced)",
	})
	CandidatesSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tilescan_candidates_skipped_total",
		Help: "Candidates skipped without asking the oracle, by reason",
	}, []string{"reason"})
	CandidatesFoundTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tilescan_candidates_found_total",
		Help: "Candidates for which the oracle selected at least one cell",
	})
	DetectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tilescan_detections_total",
		Help: "Resolved tiles saved to the detection sink, by shift",
	}, []string{"shift"})
	TilesMissingTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tilescan_tiles_missing_total",
		Help: "Mosaic cells filled with zero pixels because the tile store had no tile",
	})
	CheckpointWritesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tilescan_checkpoint_writes_total",
		Help: "Checkpoint writes by status",
	}, []string{"status"})
	CandidateDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tilescan_candidate_duration_ms",
		Help:    "Mosaic assembly and canvas extraction duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
	OracleDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tilescan_oracle_duration_seconds",
		Help:    "Time the oracle took to answer one canvas",
		Buckets: []float64{0.01, 0.1, 1, 5, 10, 30, 60, 120, 300},
	})
	ConfirmedCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tilescan_confirmed_count",
		Help: "Confirmed count as stored in the checkpoint",
	})
)

func init() {
	prometheus.MustRegister(CandidatesTotal)
	prometheus.MustRegister(CandidatesSkippedTotal)
	prometheus.MustRegister(CandidatesFoundTotal)
	prometheus.MustRegister(DetectionsTotal)
	prometheus.MustRegister(TilesMissingTotal)
	prometheus.MustRegister(CheckpointWritesTotal)
	prometheus.MustRegister(CandidateDurationMs)
	prometheus.MustRegister(OracleDurationSeconds)
	prometheus.MustRegister(ConfirmedCount)
}

// 文档注释：返回 Prometheus 指标监听器
// 背景：统一暴露注册指标到 /metrics 路径，供 Prometheus 抓取；在 tilescan 入口按 METRICS_ADDR 挂载。
func Handler() http.Handler { return promhttp.Handler() }
