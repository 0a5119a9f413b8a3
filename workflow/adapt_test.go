package workflow

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/metric/noop"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaylabs/agentloop/agent"
	"github.com/relaylabs/agentloop/config"
	"github.com/relaylabs/agentloop/limits"
	"github.com/relaylabs/agentloop/provider"
	"github.com/relaylabs/agentloop/tool"
)

type stubProvider struct{ text string }

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }
func (s *stubProvider) Step(ctx context.Context, req provider.StepRequest) (<-chan provider.Delta, error) {
	ch := make(chan provider.Delta, 2)
	ch <- provider.Delta{Kind: provider.DeltaText, Text: s.text}
	ch <- provider.Delta{Kind: provider.DeltaDone, StopText: "stop"}
	close(ch)
	return ch, nil
}

func TestAdapt_WrapsAgentGenerateAsStep(t *testing.T) {
	guard, err := limits.NewGuard(config.UsageLimits{}, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	a := agent.New("summarizer", &stubProvider{text: "summary text"}, tool.NewRegistry(), guard, &config.AgentConfig{MaxSteps: 3})
	a.SetRole("summarizer")

	step := Adapt(a)
	assert.Equal(t, "summarizer", step.Name)

	out, err := step.Run(context.Background(), "summarize this")
	require.NoError(t, err)
	assert.Equal(t, "summary text", out.Text)
	assert.Equal(t, a.AgentID(), out.Metadata["agentId"])
	assert.Equal(t, "summarizer", out.Metadata["role"])
	assert.Equal(t, 1, out.Metadata["steps"])
}
