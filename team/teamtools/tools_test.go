package teamtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaylabs/agentloop/team"
	"github.com/relaylabs/agentloop/tool"
)

// fakeTeam implements Coordinator directly against a Board/Mailbox pair,
// without needing a full team.Team (and therefore no agents/providers).
type fakeTeam struct {
	board   *team.Board
	mailbox *team.Mailbox
	members []string
	phase   team.Phase
}

func (f *fakeTeam) Board() *team.Board      { return f.board }
func (f *fakeTeam) Mailbox() *team.Mailbox  { return f.mailbox }
func (f *fakeTeam) MemberNames() []string   { return f.members }
func (f *fakeTeam) Phase() team.Phase       { return f.phase }

func newFakeTeam(members ...string) *fakeTeam {
	return &fakeTeam{
		board:   team.NewBoard(),
		mailbox: team.NewMailbox(members),
		members: members,
		phase:   team.PhaseExecuting,
	}
}

func TestMessageTool_SendsFromOwner(t *testing.T) {
	ft := newFakeTeam("alice", "bob")
	tl := &MessageTool{owner: "alice", team: ft}

	res, err := tl.Execute(context.Background(), map[string]any{"to": "bob", "content": "hi"})
	require.NoError(t, err)
	assert.Equal(t, tool.StateOutputAvailable, res.State)

	msgs := ft.mailbox.For("bob")
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice", msgs[0].From)
}

func TestClaimTool_OnlyClaimsAsOwner(t *testing.T) {
	ft := newFakeTeam("alice", "bob")
	require.NoError(t, ft.board.AddTask("t1", "do it", nil))

	claim := &ClaimTool{owner: "alice", team: ft}
	res, err := claim.Execute(context.Background(), map[string]any{"taskId": "t1"})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "claimed")

	snapshot := ft.board.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "alice", snapshot[0].ClaimedBy)
}

func TestCompleteTool_RejectsCompletionByNonClaimer(t *testing.T) {
	ft := newFakeTeam("alice", "bob")
	require.NoError(t, ft.board.AddTask("t1", "do it", nil))
	_, err := ft.board.Claim("t1", "alice")
	require.NoError(t, err)

	complete := &CompleteTool{owner: "bob", team: ft}
	res, err := complete.Execute(context.Background(), map[string]any{"taskId": "t1", "result": "done"})
	require.NoError(t, err)
	assert.Equal(t, tool.StateOutputError, res.State, "bob never claimed t1 and must not be able to complete it")
}

func TestCompleteTool_AllowsCompletionByClaimer(t *testing.T) {
	ft := newFakeTeam("alice", "bob")
	require.NoError(t, ft.board.AddTask("t1", "do it", nil))
	_, err := ft.board.Claim("t1", "alice")
	require.NoError(t, err)

	complete := &CompleteTool{owner: "alice", team: ft}
	res, err := complete.Execute(context.Background(), map[string]any{"taskId": "t1", "result": "done"})
	require.NoError(t, err)
	assert.Equal(t, tool.StateOutputAvailable, res.State)
	assert.True(t, ft.board.IsAllCompleted())
}

func TestTasksTool_ListsAvailable(t *testing.T) {
	ft := newFakeTeam("alice")
	require.NoError(t, ft.board.AddTask("t1", "first task", nil))

	tasks := &TasksTool{owner: "alice", team: ft}
	res, err := tasks.Execute(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Contains(t, res.Output, "t1")
}

func TestForMember_ReturnsAllSixTools(t *testing.T) {
	ft := newFakeTeam("alice", "bob")
	tools := ForMember("alice", ft)
	names := make(map[string]bool, len(tools))
	for _, tl := range tools {
		names[tl.Name()] = true
	}
	for _, want := range []string{"team_message", "team_broadcast", "team_tasks", "team_claim", "team_complete", "team_status"} {
		assert.True(t, names[want], "missing tool %s", want)
	}
}
