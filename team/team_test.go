package team

import (
	"context"
	"fmt"
	"sync/atomic"
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

// stubProvider answers every step with canned text and an immediate stop,
// recording the prompts it was asked to respond to.
type stubProvider struct {
	reply func(req provider.StepRequest) string
	calls int32
}

func (s *stubProvider) Name() string  { return "stub" }
func (s *stubProvider) Model() string { return "stub-model" }

func (s *stubProvider) Step(ctx context.Context, req provider.StepRequest) (<-chan provider.Delta, error) {
	atomic.AddInt32(&s.calls, 1)
	ch := make(chan provider.Delta, 2)
	text := s.reply(req)
	ch <- provider.Delta{Kind: provider.DeltaText, Text: text}
	ch <- provider.Delta{Kind: provider.DeltaDone, StopText: "stop"}
	close(ch)
	return ch, nil
}

func newTestAgent(t *testing.T, name string, reply func(req provider.StepRequest) string) *agent.Agent {
	t.Helper()
	guard, err := limits.NewGuard(config.UsageLimits{}, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return agent.New(name, &stubProvider{reply: reply}, tool.NewRegistry(), guard, &config.AgentConfig{MaxSteps: 5})
}

func echoReply(label string) func(provider.StepRequest) string {
	return func(req provider.StepRequest) string {
		return label + " output"
	}
}

func TestTeam_PromptBased_RunsMembersInParallelAndSynthesizes(t *testing.T) {
	lead := newTestAgent(t, "lead", func(req provider.StepRequest) string {
		if len(req.Messages) > 0 && len(req.Messages[0].Text) > 0 {
			return "synthesized: " + req.Messages[0].Text[:10]
		}
		return "synthesis"
	})
	alice := newTestAgent(t, "alice", echoReply("alice"))
	bob := newTestAgent(t, "bob", echoReply("bob"))

	members := map[string]*agent.Agent{"alice": alice, "bob": bob}
	tm, err := New("research", lead, members, []string{"alice", "bob"}, nil, 0, nil)
	require.NoError(t, err)

	final, err := tm.Run(context.Background(), "investigate the bug")
	require.NoError(t, err)
	assert.NotEmpty(t, final)
	assert.Equal(t, PhaseCompleted, tm.Phase())

	snap := tm.GetPersistedSnapshot()
	assert.Equal(t, MemberCompleted, snap.MemberPhases["alice"])
	assert.Equal(t, MemberCompleted, snap.MemberPhases["bob"])
	assert.Len(t, snap.Outputs, 2)
}

func TestTeam_TaskBased_ExecutesInDependencyOrder(t *testing.T) {
	lead := newTestAgent(t, "lead", echoReply("plan"))
	alice := newTestAgent(t, "alice", echoReply("alice"))
	bob := newTestAgent(t, "bob", echoReply("bob"))

	members := map[string]*agent.Agent{"alice": alice, "bob": bob}
	tasks := []TaskSpec{
		{ID: "design", Description: "design the fix"},
		{ID: "implement", Description: "implement the fix", DependsOn: []string{"design"}},
	}

	tm, err := New("build-team", lead, members, []string{"alice", "bob"}, tasks, 10, nil)
	require.NoError(t, err)

	final, err := tm.Run(context.Background(), "ship the feature")
	require.NoError(t, err)
	assert.NotEmpty(t, final)
	assert.True(t, tm.Board().IsAllCompleted())
}

func TestTeam_TaskBased_SingleMemberRoundRobin(t *testing.T) {
	lead := newTestAgent(t, "lead", echoReply("plan"))
	alice := newTestAgent(t, "alice", echoReply("alice"))

	members := map[string]*agent.Agent{"alice": alice}
	tasks := []TaskSpec{
		{ID: "t1", Description: "first"},
		{ID: "t2", Description: "second"},
	}

	tm, err := New("solo-team", lead, members, []string{"alice"}, tasks, 10, nil)
	require.NoError(t, err)

	_, err = tm.Run(context.Background(), "do two independent things")
	require.NoError(t, err, "one member should complete both independent tasks across two rounds")
	assert.True(t, tm.Board().IsAllCompleted())
}

func TestTeam_CustomSynthesize(t *testing.T) {
	lead := newTestAgent(t, "lead", echoReply("lead"))
	alice := newTestAgent(t, "alice", echoReply("alice"))

	members := map[string]*agent.Agent{"alice": alice}
	called := false
	synth := func(outputs []string) (string, error) {
		called = true
		return fmt.Sprintf("combined %d outputs", len(outputs)), nil
	}

	tm, err := New("custom-team", lead, members, []string{"alice"}, nil, 0, synth)
	require.NoError(t, err)

	final, err := tm.Run(context.Background(), "prompt")
	require.NoError(t, err)
	assert.True(t, called)
	assert.Equal(t, "combined 1 outputs", final)
}

func TestNew_RequiresLeadAndMembers(t *testing.T) {
	_, err := New("x", nil, map[string]*agent.Agent{"a": nil}, []string{"a"}, nil, 0, nil)
	assert.Error(t, err)

	lead := newTestAgent(t, "lead", echoReply("lead"))
	_, err = New("x", lead, map[string]*agent.Agent{}, nil, nil, 0, nil)
	assert.Error(t, err)
}
