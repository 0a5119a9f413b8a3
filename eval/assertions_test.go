package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relaylabs/agentloop/agent"
	"github.com/relaylabs/agentloop/limits"
	"github.com/relaylabs/agentloop/provider"
)

func resultWithTools(text string, names ...string) *agent.RunResult {
	calls := make([]provider.ToolCallRequest, len(names))
	for i, n := range names {
		calls[i] = provider.ToolCallRequest{ToolName: n}
	}
	return &agent.RunResult{
		Text:       text,
		Steps:      []agent.StepRecord{{ToolCalls: calls}},
		TotalUsage: limits.Totals{InputTokens: 10, OutputTokens: 5},
	}
}

func TestToolCalled(t *testing.T) {
	res := resultWithTools("ok", "search")
	assert.NoError(t, ToolCalled("search").Check(res))
	assert.Error(t, ToolCalled("shell").Check(res))
}

func TestNoToolCalled(t *testing.T) {
	res := resultWithTools("ok", "search")
	assert.NoError(t, NoToolCalled("shell").Check(res))
	assert.Error(t, NoToolCalled("search").Check(res))
}

func TestToolCalledTimes(t *testing.T) {
	res := resultWithTools("ok", "search", "search")
	assert.NoError(t, ToolCalledTimes("search", 2).Check(res))
	assert.Error(t, ToolCalledTimes("search", 1).Check(res))
}

func TestOutputMatchesAndContains(t *testing.T) {
	res := resultWithTools("the answer is 42")
	assert.NoError(t, OutputMatches(`\d+`).Check(res))
	assert.Error(t, OutputMatches(`^\d+$`).Check(res))
	assert.NoError(t, OutputContains("42").Check(res))
	assert.Error(t, OutputContains("43").Check(res))
}

func TestStepCount(t *testing.T) {
	res := resultWithTools("ok")
	assert.NoError(t, StepCount(1, 1).Check(res))
	assert.Error(t, StepCount(2, 0).Check(res), "min above actual step count must fail even with no max")
	assert.NoError(t, StepCount(0, 0).Check(res), "max=0 means unbounded")
}

func TestTokenUsage(t *testing.T) {
	res := resultWithTools("ok")
	assert.NoError(t, TokenUsage(15).Check(res))
	assert.Error(t, TokenUsage(14).Check(res))
}
