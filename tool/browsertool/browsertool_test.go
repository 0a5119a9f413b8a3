package browsertool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// NewFrameStreamer clamps fps/quality before ever touching chromedp, so this
// is exercised without spinning up a real browser.

func TestNewFrameStreamer_ClampsFPSToRange(t *testing.T) {
	assert.Equal(t, 0.5, NewFrameStreamer(nil, nil, 0, 50).fps, "below minimum must clamp up")
	assert.Equal(t, 10.0, NewFrameStreamer(nil, nil, 100, 50).fps, "above maximum must clamp down")
	assert.Equal(t, 2.0, NewFrameStreamer(nil, nil, 2, 50).fps, "in-range values pass through unchanged")
}

func TestNewFrameStreamer_ClampsQualityToRange(t *testing.T) {
	assert.Equal(t, 1, NewFrameStreamer(nil, nil, 1, -5).quality, "below minimum must clamp up")
	assert.Equal(t, 100, NewFrameStreamer(nil, nil, 1, 500).quality, "above maximum must clamp down")
	assert.Equal(t, 42, NewFrameStreamer(nil, nil, 1, 42).quality, "in-range values pass through unchanged")
}

func TestActionKinds_CoversEveryDispatchedAction(t *testing.T) {
	want := []string{
		"open", "click", "dblclick", "fill", "type", "hover", "scroll",
		"screenshot", "snapshot", "getText", "getUrl", "getTitle", "wait",
		"eval", "check", "uncheck", "close",
	}
	known := make(map[string]bool, len(actionKinds))
	for _, k := range actionKinds {
		known[k] = true
	}
	for _, w := range want {
		assert.True(t, known[w], "actionKinds is missing %q, a name Execute's switch dispatches on", w)
	}
}
