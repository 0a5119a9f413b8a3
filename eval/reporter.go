package eval

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"
)

// Reporter renders a finished SuiteResult somewhere: a terminal, a log
// sink, stdout as a single JSON document, or a caller-supplied sink.
type Reporter interface {
	Report(result SuiteResult)
}

// ConsoleReporter logs a one-line summary per case via hclog, matching
// the structured-logging idiom the rest of this module uses.
type ConsoleReporter struct {
	logger hclog.Logger
}

func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{logger: hclog.New(&hclog.LoggerOptions{Name: "eval"})}
}

func (r *ConsoleReporter) Report(result SuiteResult) {
	r.logger.Info("suite finished", "suite", result.Name, "total", result.Total, "passed", result.Passed, "failed", result.Failed, "duration", result.Duration)
	for _, c := range result.Cases {
		if c.Passed {
			r.logger.Info("case passed", "case", c.Name, "duration", c.Duration)
			continue
		}
		r.logger.Warn("case failed", "case", c.Name, "timedOut", c.TimedOut, "failures", c.Failures)
	}
}

// JSONReporter writes a single JSON document for the whole suite to w at
// suite end, per spec §4.I.
type JSONReporter struct {
	w io.Writer
}

func NewJSONReporter(w io.Writer) *JSONReporter {
	return &JSONReporter{w: w}
}

func (r *JSONReporter) Report(result SuiteResult) {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		fmt.Fprintf(r.w, `{"error": %q}`+"\n", err.Error())
	}
}

// PrometheusReporter relies entirely on the agentloop_eval_cases_total counter the
// Suite already increments via telemetry.Metrics; Report is a no-op hook
// kept so callers can select "prometheus" from config without a type
// switch, the counters themselves are scraped out-of-band.
type PrometheusReporter struct{}

func NewPrometheusReporter() *PrometheusReporter { return &PrometheusReporter{} }

func (r *PrometheusReporter) Report(SuiteResult) {}

// NewReporter selects a Reporter by the config.EvalSuiteConfig.Reporter
// value ("console" | "json" | "prometheus"), defaulting to console for
// anything else.
func NewReporter(kind string, jsonOut io.Writer) Reporter {
	switch kind {
	case "json":
		return NewJSONReporter(jsonOut)
	case "prometheus":
		return NewPrometheusReporter()
	default:
		return NewConsoleReporter()
	}
}
