package team

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoard_AddTask_RejectsDuplicate(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.AddTask("t1", "first", nil))
	err := b.AddTask("t1", "again", nil)
	assert.Error(t, err)
}

func TestBoard_Claim_RequiresDependenciesCompleted(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.AddTask("setup", "prepare", nil))
	require.NoError(t, b.AddTask("build", "compile", []string{"setup"}))

	claimed, err := b.Claim("build", "alice")
	require.NoError(t, err)
	assert.False(t, claimed, "build should not be claimable before setup completes")

	claimedSetup, err := b.Claim("setup", "alice")
	require.NoError(t, err)
	assert.True(t, claimedSetup)
	require.NoError(t, b.Complete("setup", "done"))

	claimed, err = b.Claim("build", "bob")
	require.NoError(t, err)
	assert.True(t, claimed, "build should be claimable once setup completes")
}

func TestBoard_Claim_AtomicAgainstDoubleClaim(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.AddTask("t1", "work", nil))

	first, err := b.Claim("t1", "alice")
	require.NoError(t, err)
	assert.True(t, first)

	second, err := b.Claim("t1", "bob")
	require.NoError(t, err)
	assert.False(t, second, "a claimed task cannot be claimed again")
}

func TestBoard_Complete_RequiresClaimedFirst(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.AddTask("t1", "work", nil))

	err := b.Complete("t1", "result")
	assert.Error(t, err, "completing a pending (unclaimed) task must fail")

	_, err = b.Claim("t1", "alice")
	require.NoError(t, err)
	require.NoError(t, b.Complete("t1", "result"))

	err = b.Complete("t1", "again")
	assert.Error(t, err, "completing an already-completed task must fail")
}

func TestBoard_IsAllCompleted(t *testing.T) {
	b := NewBoard()
	assert.True(t, b.IsAllCompleted(), "an empty board is trivially all-completed")

	require.NoError(t, b.AddTask("t1", "work", nil))
	assert.False(t, b.IsAllCompleted())

	_, err := b.Claim("t1", "alice")
	require.NoError(t, err)
	require.NoError(t, b.Complete("t1", "result"))
	assert.True(t, b.IsAllCompleted())
}

func TestBoard_GetAvailable_ExcludesUnmetDependencies(t *testing.T) {
	b := NewBoard()
	require.NoError(t, b.AddTask("a", "a", nil))
	require.NoError(t, b.AddTask("b", "b", []string{"a"}))

	available := b.GetAvailable()
	require.Len(t, available, 1)
	assert.Equal(t, "a", available[0].ID)
}

func TestBoard_Claim_UnknownTask(t *testing.T) {
	b := NewBoard()
	_, err := b.Claim("missing", "alice")
	assert.Error(t, err)
}
