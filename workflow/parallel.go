package workflow

import (
	"context"
	"fmt"
	"sync"
)

// Synthesize combines every parallel step's output into the workflow's
// final result.
type Synthesize func(outputs []StepOutput) (StepOutput, error)

// Parallel runs every step against the same input concurrently. A
// step's failure never aborts its siblings (allSettled semantics): it is
// recorded as a textual placeholder and still passed to Synthesize.
type Parallel struct {
	steps      []Step
	synthesize Synthesize
}

func NewParallel(steps []Step, synthesize Synthesize) (*Parallel, error) {
	if len(steps) == 0 {
		return nil, errEmptySteps("parallel")
	}
	if synthesize == nil {
		synthesize = defaultSynthesize
	}
	return &Parallel{steps: steps, synthesize: synthesize}, nil
}

func (p *Parallel) Run(ctx context.Context, prompt string) (StepOutput, error) {
	outputs := make([]StepOutput, len(p.steps))
	var wg sync.WaitGroup
	for i, step := range p.steps {
		wg.Add(1)
		go func(i int, step Step) {
			defer wg.Done()
			result, err := step.Run(ctx, prompt)
			if err != nil {
				outputs[i] = StepOutput{Text: fmt.Sprintf("[Step %d failed: %s]", i, err.Error())}
				return
			}
			outputs[i] = result
		}(i, step)
	}
	wg.Wait()
	return p.synthesize(outputs)
}

func defaultSynthesize(outputs []StepOutput) (StepOutput, error) {
	var combined string
	for i, o := range outputs {
		if i > 0 {
			combined += "\n\n"
		}
		combined += o.Text
	}
	return StepOutput{Text: combined}, nil
}
