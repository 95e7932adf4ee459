package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus series for this pipeline's own surface:
// LLM calls, tool calls, verification outcomes, queue depth, and
// adaptive thresholds.
type Metrics struct {
	// LLMRequestDuration: provider, model.
	LLMRequestDuration *prometheus.HistogramVec
	// LLMRequestCounter: provider, model, status.
	LLMRequestCounter *prometheus.CounterVec
	// LLMTokensUsed: provider, model, type (input|output).
	LLMTokensUsed *prometheus.CounterVec

	// ToolExecutionDuration: tool_name.
	ToolExecutionDuration *prometheus.HistogramVec
	// ToolExecutionCounter: tool_name, status.
	ToolExecutionCounter *prometheus.CounterVec

	// TasksGenerated: stage (atomic|depth|width), status (accept|modify|reject).
	TasksGenerated *prometheus.CounterVec
	// VerificationScore: the overall weighted score VerificationEngine assigns.
	VerificationScore prometheus.Histogram

	// QueueDepth: queue (priority|normal).
	QueueDepth *prometheus.GaugeVec
	// QueuePublishCounter: stream, status.
	QueuePublishCounter *prometheus.CounterVec

	// AdaptiveAtomicityThreshold and AdaptiveSimilarityThreshold track
	// AdaptiveController's live thresholds for dashboarding drift.
	AdaptiveAtomicityThreshold  prometheus.Gauge
	AdaptiveSimilarityThreshold prometheus.Gauge
	AdaptivePassRate            prometheus.Gauge

	// SynthesisCostUSD: phase (seed_extraction|task_expansion|...).
	SynthesisCostUSD *prometheus.CounterVec
}

// NewMetrics registers and returns every pipeline metric.
func NewMetrics() *Metrics {
	return &Metrics{
		LLMRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "synthesiscore_llm_request_duration_seconds",
				Help:    "Duration of LLM API requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		LLMRequestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthesiscore_llm_requests_total",
				Help: "Total LLM requests by provider, model, and status",
			},
			[]string{"provider", "model", "status"},
		),
		LLMTokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthesiscore_llm_tokens_total",
				Help: "Total tokens used by provider, model, and type",
			},
			[]string{"provider", "model", "type"},
		),

		ToolExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "synthesiscore_tool_execution_duration_seconds",
				Help:    "Duration of tool executions in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),
		ToolExecutionCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthesiscore_tool_executions_total",
				Help: "Total tool executions by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		TasksGenerated: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthesiscore_tasks_generated_total",
				Help: "Total tasks produced by pipeline stage and verification status",
			},
			[]string{"stage", "status"},
		),
		VerificationScore: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "synthesiscore_verification_score",
				Help:    "VerificationEngine's weighted overall score per task",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
		),

		QueueDepth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "synthesiscore_extension_queue_depth",
				Help: "Current depth of RealTimeTrigger's internal queues",
			},
			[]string{"queue"},
		),
		QueuePublishCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthesiscore_queue_publish_total",
				Help: "Total QueueManager publishes by stream and status",
			},
			[]string{"stream", "status"},
		),

		AdaptiveAtomicityThreshold: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "synthesiscore_adaptive_atomicity_threshold",
				Help: "AdaptiveController's current atomicity threshold",
			},
		),
		AdaptiveSimilarityThreshold: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "synthesiscore_adaptive_similarity_threshold",
				Help: "AdaptiveController's current similarity threshold",
			},
		),
		AdaptivePassRate: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "synthesiscore_adaptive_pass_rate",
				Help: "AdaptiveController's sliding-window pass rate",
			},
		),

		SynthesisCostUSD: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synthesiscore_synthesis_cost_usd_total",
				Help: "Total measured synthesis cost in USD by phase",
			},
			[]string{"phase"},
		),
	}
}
