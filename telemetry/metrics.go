package telemetry

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors shared by the tool-loop driver,
// team coordinator and eval runner.
type Metrics struct {
	Steps       *prometheus.CounterVec
	ToolCalls   *prometheus.CounterVec
	ToolErrors  *prometheus.CounterVec
	EvalResults *prometheus.CounterVec
}

// NewMetrics registers and returns the counters against reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentloop_run_steps_total",
			Help: "Tool-loop steps executed, by finish reason.",
		}, []string{"agent", "finish_reason"}),
		ToolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentloop_tool_calls_total",
			Help: "Tool calls dispatched, by tool name and result state.",
		}, []string{"tool", "state"}),
		ToolErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentloop_tool_errors_total",
			Help: "Tool calls that returned output-error, by tool name.",
		}, []string{"tool"}),
		EvalResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "agentloop_eval_cases_total",
			Help: "Eval suite cases run, by suite and pass/fail.",
		}, []string{"suite", "outcome"}),
	}
	reg.MustRegister(m.Steps, m.ToolCalls, m.ToolErrors, m.EvalResults)
	return m
}
