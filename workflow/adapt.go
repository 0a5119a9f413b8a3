package workflow

import (
	"context"

	"github.com/relaylabs/agentloop/agent"
)

// Adapt wraps an Agent as a Step: Run calls a.Generate({prompt}) and
// projects the result into {text, metadata: {agentId, role, steps, usage}}.
func Adapt(a *agent.Agent) Step {
	return Step{
		Name: a.Name(),
		Run: func(ctx context.Context, input string) (StepOutput, error) {
			res, err := a.Generate(ctx, input)
			if err != nil {
				return StepOutput{}, err
			}
			return StepOutput{
				Text: res.Text,
				Metadata: map[string]any{
					"agentId": a.AgentID(),
					"role":    a.Role(),
					"steps":   len(res.Steps),
					"usage":   res.TotalUsage,
				},
			}, nil
		},
	}
}
