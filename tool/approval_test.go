package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiresApproval_BuiltInDangerousSet(t *testing.T) {
	assert.True(t, RequiresApproval("run_shell_command", nil))
	assert.True(t, RequiresApproval("write_file", nil))
	assert.False(t, RequiresApproval("read_text_file", nil))
}

func TestRequiresApproval_AgentConfiguredExtra(t *testing.T) {
	extra := map[string]bool{"custom_risky_tool": true}
	assert.True(t, RequiresApproval("custom_risky_tool", extra))
	assert.False(t, RequiresApproval("custom_risky_tool", nil))
}

func TestWrap_PreservesUnderlyingBehavior(t *testing.T) {
	inner := &stubTool{name: "write_file"}
	wrapped := Wrap(inner)

	assert.Equal(t, inner.Name(), wrapped.Name())
	assert.Equal(t, inner.Description(), wrapped.Description())
	assert.Equal(t, inner.Durability(), wrapped.Durability())
	assert.Equal(t, inner.Timeout(), wrapped.Timeout())

	res, err := wrapped.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "write_file", res.Output)
}

func TestWrap_DoesNotMutateInnerTool(t *testing.T) {
	inner := &stubTool{name: "write_file"}
	_ = Wrap(inner)
	assert.Equal(t, "write_file", inner.Name(), "Wrap must return a derived copy, not mutate inner")
}
