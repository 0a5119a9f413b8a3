package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMailbox_SendMessage_ValidatesKnownMembers(t *testing.T) {
	m := NewMailbox([]string{"lead", "alice"})

	require.NoError(t, m.SendMessage("lead", "alice", "hello"))

	err := m.SendMessage("ghost", "alice", "hi")
	assert.Error(t, err, "unknown sender must be rejected")

	err = m.SendMessage("lead", "ghost", "hi")
	assert.Error(t, err, "unknown recipient must be rejected")
}

func TestMailbox_Broadcast_MarksBroadcastAndReachesEveryone(t *testing.T) {
	m := NewMailbox([]string{"lead", "alice", "bob"})
	require.NoError(t, m.Broadcast("lead", "status update"))

	for _, member := range []string{"alice", "bob"} {
		msgs := m.For(member)
		require.Len(t, msgs, 1)
		assert.True(t, msgs[0].Broadcast)
		assert.Equal(t, "lead", msgs[0].From)
	}
}

func TestMailbox_For_OnlyDirectAndBroadcast(t *testing.T) {
	m := NewMailbox([]string{"lead", "alice", "bob"})
	require.NoError(t, m.SendMessage("lead", "alice", "just for alice"))
	require.NoError(t, m.Broadcast("lead", "for everyone"))

	aliceMsgs := m.For("alice")
	assert.Len(t, aliceMsgs, 2)

	bobMsgs := m.For("bob")
	require.Len(t, bobMsgs, 1)
	assert.Equal(t, "for everyone", bobMsgs[0].Content)
}

func TestMailbox_All_PreservesSendOrder(t *testing.T) {
	m := NewMailbox([]string{"lead", "alice"})
	require.NoError(t, m.SendMessage("lead", "alice", "first"))
	require.NoError(t, m.SendMessage("alice", "lead", "second"))

	all := m.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Content)
	assert.Equal(t, "second", all[1].Content)
}
