package agent

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/relaylabs/agentloop/config"
	"github.com/relaylabs/agentloop/limits"
	"github.com/relaylabs/agentloop/provider"
	"github.com/relaylabs/agentloop/tool"
)

// NewFromConfig builds one Agent from its named config entry: resolves
// the provider from providers, carves the agent's tool subset out of
// toolRegistry (preset or explicit list, approval-wrapped where
// dangerous), and builds a dedicated usage-limit guard.
func NewFromConfig(name string, cfg *config.Config, providers *provider.Registry, toolRegistry *tool.Registry, meter metric.Meter) (*Agent, error) {
	agentCfg, ok := cfg.GetAgent(name)
	if !ok {
		return nil, fmt.Errorf("agent %q not found in configuration", name)
	}

	p, ok := providers.Get(agentCfg.LLM)
	if !ok {
		return nil, fmt.Errorf("agent %q references unknown llm %q", name, agentCfg.LLM)
	}

	subset := agentToolSubset(agentCfg, toolRegistry)
	wrapApprovalTools(subset, agentCfg)

	guard, err := limits.NewGuard(agentCfg.UsageLimits, meter)
	if err != nil {
		return nil, fmt.Errorf("agent %q: build usage guard: %w", name, err)
	}

	a := New(name, p, subset, guard, agentCfg)
	llmCfg := cfg.LLMs[agentCfg.LLM]
	a.temperature = llmCfg.Temperature
	a.maxTokens = llmCfg.MaxTokens
	return a, nil
}

func agentToolSubset(cfg *config.AgentConfig, registry *tool.Registry) *tool.Registry {
	if len(cfg.Tools) > 0 {
		return registry.Subset(cfg.Tools)
	}
	return registry.ForPreset(tool.Preset(cfg.ToolPreset))
}

// wrapApprovalTools re-registers every subset tool that requires approval
// (the built-in dangerous set plus the agent's Approval.RequireFor list)
// through tool.Wrap, without mutating the
// shared registry the subset was carved from (Subset already returned a
// fresh map; Wrap further guarantees the underlying Tool is untouched).
func wrapApprovalTools(subset *tool.Registry, cfg *config.AgentConfig) {
	extra := make(map[string]bool, len(cfg.Approval.RequireFor))
	for _, n := range cfg.Approval.RequireFor {
		extra[n] = true
	}
	for _, t := range subset.List() {
		if tool.RequiresApproval(t.Name(), extra) {
			_ = subset.Replace(tool.Wrap(t))
		}
	}
}
