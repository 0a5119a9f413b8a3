package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upperStep(name string) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context, input string) (StepOutput, error) {
			return StepOutput{Text: name + ":" + input}, nil
		},
	}
}

func failingStep(name string, err error) Step {
	return Step{
		Name: name,
		Run: func(ctx context.Context, input string) (StepOutput, error) {
			return StepOutput{}, err
		},
	}
}

func TestNewPipeline_RejectsEmptySteps(t *testing.T) {
	_, err := NewPipeline(nil)
	assert.Error(t, err)
}

func TestPipeline_Run_ChainsStepsInOrder(t *testing.T) {
	p, err := NewPipeline([]Step{upperStep("a"), upperStep("b")})
	require.NoError(t, err)

	out, err := p.Run(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "b:a:start", out.Text)
}

func TestPipeline_Run_UsesTransform(t *testing.T) {
	steps := []Step{
		upperStep("a"),
		{
			Name: "b",
			Run: func(ctx context.Context, input string) (StepOutput, error) {
				return StepOutput{Text: "got:" + input}, nil
			},
			Transform: func(prev StepOutput, index int) string {
				return "transformed:" + prev.Text
			},
		},
	}
	p, err := NewPipeline(steps)
	require.NoError(t, err)

	out, err := p.Run(context.Background(), "start")
	require.NoError(t, err)
	assert.Equal(t, "got:transformed:a:start", out.Text)
}

func TestPipeline_Run_FailFast(t *testing.T) {
	sentinel := errors.New("boom")
	p, err := NewPipeline([]Step{upperStep("a"), failingStep("b", sentinel), upperStep("c")})
	require.NoError(t, err)

	_, err = p.Run(context.Background(), "start")
	require.Error(t, err)
	assert.ErrorIs(t, err, sentinel)
}
