package team

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/relaylabs/agentloop/agent"
	"github.com/relaylabs/agentloop/config"
	"github.com/relaylabs/agentloop/provider"
	"github.com/relaylabs/agentloop/team/teamtools"
	"github.com/relaylabs/agentloop/tool"
)

// BuildFromConfig constructs a Team from its named config entry: builds
// the lead and every member as ordinary agents, constructs the Team, and
// only then installs the team-scoped tools (teamtools.ForMember) into each
// member's private tool registry; the tools capture a pointer to the
// constructed Team.
func BuildFromConfig(name string, cfg *config.Config, tasks []TaskSpec, synthesize Synthesize, providers *provider.Registry, toolRegistry *tool.Registry, meter metric.Meter) (*Team, error) {
	teamCfg, ok := cfg.GetTeam(name)
	if !ok {
		return nil, fmt.Errorf("team %q not found in configuration", name)
	}

	lead, err := agent.NewFromConfig(teamCfg.Lead, cfg, providers, toolRegistry, meter)
	if err != nil {
		return nil, fmt.Errorf("team %q: build lead %q: %w", name, teamCfg.Lead, err)
	}
	if leadCfg, ok := cfg.GetAgent(teamCfg.Lead); ok {
		lead.SetRole(leadCfg.Description)
	}

	members := make(map[string]*agent.Agent, len(teamCfg.Members))
	for _, memberName := range teamCfg.Members {
		m, err := agent.NewFromConfig(memberName, cfg, providers, toolRegistry, meter)
		if err != nil {
			return nil, fmt.Errorf("team %q: build member %q: %w", name, memberName, err)
		}
		if memberCfg, ok := cfg.GetAgent(memberName); ok {
			m.SetRole(memberCfg.Description)
		}
		members[memberName] = m
	}

	teamName := teamCfg.Name
	if teamName == "" {
		teamName = name
	}
	t, err := New(teamName, lead, members, teamCfg.Members, tasks, teamCfg.MaxRounds, synthesize)
	if err != nil {
		return nil, fmt.Errorf("team %q: %w", name, err)
	}

	for memberName, m := range members {
		for _, mt := range teamtools.ForMember(memberName, t) {
			if err := m.RegisterTool(mt); err != nil {
				return nil, fmt.Errorf("team %q: wire tools for %q: %w", name, memberName, err)
			}
		}
	}

	return t, nil
}
