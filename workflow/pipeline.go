package workflow

import "context"

// Pipeline runs steps in order. Step 0 receives prompt verbatim; step k
// receives transform(previousOutput, k) or, when that step has no
// Transform, the previous step's raw text. The first step to error
// surfaces immediately — no rollback is attempted.
type Pipeline struct {
	steps []Step
}

// NewPipeline builds a Pipeline. An empty steps slice is rejected so a
// misconfigured workflow fails at construction rather than at run time.
func NewPipeline(steps []Step) (*Pipeline, error) {
	if len(steps) == 0 {
		return nil, errEmptySteps("pipeline")
	}
	return &Pipeline{steps: steps}, nil
}

func (p *Pipeline) Run(ctx context.Context, prompt string) (StepOutput, error) {
	input := prompt
	var out StepOutput
	for i, step := range p.steps {
		if i > 0 {
			if step.Transform != nil {
				input = step.Transform(out, i)
			} else {
				input = out.Text
			}
		}
		result, err := step.Run(ctx, input)
		if err != nil {
			return StepOutput{}, errStepFailed(step.Name, i, err)
		}
		out = result
	}
	return out, nil
}

func errEmptySteps(kind string) error {
	return &emptyStepsError{kind: kind}
}

type emptyStepsError struct{ kind string }

func (e *emptyStepsError) Error() string { return e.kind + " requires at least one step" }
