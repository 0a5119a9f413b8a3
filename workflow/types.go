// Package workflow implements the builder-style composition layer
// (component G): pipelines, parallel fan-out, and agent adaptation, each
// producing the same {text, metadata} step shape so they nest freely.
package workflow

import (
	"context"
	"fmt"

	"github.com/relaylabs/agentloop/limits"
)

// StepOutput is what every workflow step — whether a raw function, an
// adapted agent, or a nested pipeline/parallel — produces.
type StepOutput struct {
	Text     string
	Metadata map[string]any
}

// Step is one unit of work in a Pipeline or Parallel. Transform receives
// the previous step's output and this step's index and projects whatever
// input this step actually wants to run on.
type Step struct {
	Name      string
	Run       func(ctx context.Context, input string) (StepOutput, error)
	Transform func(prev StepOutput, index int) string
}

// AgentResult mirrors the usage an Adapt()-wrapped agent run produced, as
// a type separate from agent.RunResult. Adapt itself reports these fields
// through StepOutput.Metadata and does not build an AgentResult.
type AgentResult struct {
	AgentID string
	Role    string
	Steps   int
	Usage   limits.Totals
}

func errStepFailed(name string, index int, err error) error {
	return fmt.Errorf("step %d (%s) failed: %w", index, name, err)
}
