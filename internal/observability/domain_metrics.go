package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	turnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datachat_turns_total",
			Help: "Total chat turns by outcome.",
		},
		[]string{"outcome"},
	)
	turnDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datachat_turn_duration_seconds",
			Help:    "End-to-end chat turn latency by outcome.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 45},
		},
		[]string{"outcome"},
	)
	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datachat_stage_duration_seconds",
			Help:    "Pipeline stage latency.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"stage"},
	)
	synthesisFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datachat_synthesis_failures_total",
			Help: "Total synthesis failures by pipeline stage.",
		},
		[]string{"stage"},
	)
	llmRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "datachat_llm_requests_total",
			Help: "Total language model requests by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)
	llmRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "datachat_llm_request_duration_seconds",
			Help:    "Language model request latency by stage.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"stage"},
	)
	activeSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datachat_active_sessions",
			Help: "Current number of live chat sessions.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		turnsTotal,
		turnDurationSeconds,
		stageDurationSeconds,
		synthesisFailuresTotal,
		llmRequestsTotal,
		llmRequestDurationSeconds,
		activeSessions,
	)
}

func ObserveTurn(outcome string, elapsed time.Duration) {
	turnsTotal.WithLabelValues(outcome).Inc()
	turnDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}

func ObserveStage(stage string, elapsed time.Duration) {
	stageDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func IncrementSynthesisFailure(stage string) {
	synthesisFailuresTotal.WithLabelValues(stage).Inc()
}

func ObserveLLMRequest(stage string, err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	llmRequestsTotal.WithLabelValues(stage, outcome).Inc()
	llmRequestDurationSeconds.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func SetActiveSessions(count int) {
	if count < 0 {
		count = 0
	}
	activeSessions.Set(float64(count))
}
