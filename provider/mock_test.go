package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, ch <-chan Delta) []Delta {
	t.Helper()
	var out []Delta
	for d := range ch {
		out = append(out, d)
	}
	return out
}

func TestMockProvider_ReplaysStepsInOrder(t *testing.T) {
	m := &MockProvider{
		ModelName: "mock-model",
		Steps: []MockStep{
			{Text: "first"},
			{ToolCalls: []ToolCallRequest{{ID: "1", ToolName: "search"}}},
		},
	}

	ch, err := m.Step(context.Background(), StepRequest{})
	require.NoError(t, err)
	deltas := drain(t, ch)
	require.Len(t, deltas, 2)
	assert.Equal(t, "first", deltas[0].Text)
	assert.Equal(t, "stop", deltas[1].StopText)

	ch, err = m.Step(context.Background(), StepRequest{})
	require.NoError(t, err)
	deltas = drain(t, ch)
	require.Len(t, deltas, 2)
	assert.Equal(t, DeltaToolCall, deltas[0].Kind)
	assert.Equal(t, "tool-calls", deltas[1].StopText)
}

func TestMockProvider_PastEndOfScriptAlwaysStops(t *testing.T) {
	m := &MockProvider{ModelName: "mock-model"}
	ch, err := m.Step(context.Background(), StepRequest{})
	require.NoError(t, err)
	deltas := drain(t, ch)
	require.Len(t, deltas, 1)
	assert.Equal(t, "stop", deltas[0].StopText)
}

func TestMockProvider_CancelledContextStopsWithError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := &MockProvider{Steps: []MockStep{{Text: "never sent"}}}
	ch, err := m.Step(ctx, StepRequest{})
	require.NoError(t, err)
	deltas := drain(t, ch)
	require.Len(t, deltas, 1)
	assert.Equal(t, "error", deltas[0].StopText)
}
