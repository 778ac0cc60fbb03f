package metrics

import (
	"time"

	"github.com/harun/browseragent/pkg/llm"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "browseragent"

// Metrics holds the Prometheus collectors for agent runs
type Metrics struct {
	registry *prometheus.Registry

	// Run metrics
	RunsTotal   *prometheus.CounterVec
	RunDuration *prometheus.HistogramVec

	// Model metrics
	ModelCallsTotal   *prometheus.CounterVec
	ModelCallDuration *prometheus.HistogramVec
	TokensTotal       *prometheus.CounterVec

	// Tool metrics
	ToolExecutionsTotal   *prometheus.CounterVec
	ToolExecutionDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all metrics
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,

		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of agent runs by outcome",
			},
			[]string{"status"},
		),
		RunDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of agent runs in seconds",
				Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"status"},
		),

		ModelCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "model_calls_total",
				Help:      "Total number of model calls",
			},
			[]string{"provider", "status"},
		),
		ModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "model_call_duration_seconds",
				Help:      "Duration of model calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		TokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_total",
				Help:      "Tokens reported by the model provider",
			},
			[]string{"provider", "direction"},
		),

		ToolExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_executions_total",
				Help:      "Total number of tool executions",
			},
			[]string{"tool_name", "status"},
		),
		ToolExecutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tool_execution_duration_seconds",
				Help:      "Duration of tool executions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool_name"},
		),
	}

	m.registerMetrics()

	return m
}

func (m *Metrics) registerMetrics() {
	m.registry.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.ModelCallsTotal,
		m.ModelCallDuration,
		m.TokensTotal,
		m.ToolExecutionsTotal,
		m.ToolExecutionDuration,
	)
}

// ModelCall records one request to the model provider
func (m *Metrics) ModelCall(provider llm.Provider, duration time.Duration, usage *llm.TokenUsage, err error) {
	p := string(provider)
	m.ModelCallsTotal.WithLabelValues(p, status(err == nil)).Inc()
	m.ModelCallDuration.WithLabelValues(p).Observe(duration.Seconds())
	if usage != nil {
		m.TokensTotal.WithLabelValues(p, "input").Add(float64(usage.InputTokens))
		m.TokensTotal.WithLabelValues(p, "output").Add(float64(usage.OutputTokens))
	}
}

// ToolCall records one tool execution
func (m *Metrics) ToolCall(name string, duration time.Duration, success bool) {
	m.ToolExecutionsTotal.WithLabelValues(name, status(success)).Inc()
	m.ToolExecutionDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// RunFinished records the outcome of a run
func (m *Metrics) RunFinished(outcome string, duration time.Duration) {
	m.RunsTotal.WithLabelValues(outcome).Inc()
	m.RunDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// WriteTextfile writes the current values in the text exposition format,
// replacing path atomically. The output suits node_exporter's textfile
// collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}
