package corerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WrapsUnderlyingError(t *testing.T) {
	cause := errors.New("boom")
	err := New("tool.shell", "execute", ExecutionFailed, "command failed", cause)

	assert.Equal(t, "tool.shell", err.Component)
	assert.Equal(t, ExecutionFailed, err.Category)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "command failed")
	assert.Contains(t, err.Error(), "boom")
}

func TestError_OmitsCauseWhenNil(t *testing.T) {
	err := New("tool.fs", "read", NotFound, "no such file", nil)
	assert.NotContains(t, err.Error(), "<nil>")
	assert.Contains(t, err.Error(), "no such file")
}

func TestIs_MatchesByCategory(t *testing.T) {
	err := New("tool.browser", "probe", BrowserCLIMissing, "no chrome binary", nil)
	assert.True(t, errors.Is(err, ErrBrowserCLIMissing))
	assert.False(t, errors.Is(err, ErrTimeout))
}

func TestIs_DoesNotMatchPlainError(t *testing.T) {
	err := New("team", "claim", ValidationFailed, "already claimed", nil)
	assert.False(t, errors.Is(err, errors.New("plain")))
}

func TestAs_RecoversStructuredFields(t *testing.T) {
	wrapped := New("limits", "check", UsageLimitExceeded, "max_requests exceeded", nil)
	var ce *CoreError
	require.True(t, errors.As(error(wrapped), &ce))
	assert.Equal(t, UsageLimitExceeded, ce.Category)
}
