package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_RegistersAllCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.Steps.WithLabelValues("agent1", "stop").Inc()
	m.ToolCalls.WithLabelValues("search", "output-available").Inc()
	m.ToolErrors.WithLabelValues("search").Inc()
	m.EvalResults.WithLabelValues("smoke", "pass").Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Steps.WithLabelValues("agent1", "stop")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EvalResults.WithLabelValues("smoke", "pass")))
}

func TestNew_TracingDisabled_UsesNoopTracer(t *testing.T) {
	p, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, p.Tracer)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_TracingEnabled_BuildsStdoutExporter(t *testing.T) {
	p, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, p.TracerProvider)
	assert.NoError(t, p.Shutdown(context.Background()))
}
