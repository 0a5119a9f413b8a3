package tool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTool struct {
	name string
}

func (s *stubTool) Name() string                { return s.name }
func (s *stubTool) Description() string         { return "stub" }
func (s *stubTool) InputSchema() map[string]any { return map[string]any{} }
func (s *stubTool) Durability() Durability      { return Durability{Independent: true} }
func (s *stubTool) Timeout() time.Duration      { return time.Second }
func (s *stubTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	return Result{State: StateOutputAvailable, Output: s.name}, nil
}

func TestRegistry_Register_RejectsDuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "a"}))
	assert.Error(t, r.Register(&stubTool{name: "a"}))
}

func TestRegistry_Register_RejectsEmptyName(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.Register(&stubTool{name: ""}))
}

func TestRegistry_Replace_OverwritesExisting(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "a"}))
	require.NoError(t, r.Replace(&stubTool{name: "a"}))

	got, ok := r.Get("a")
	require.True(t, ok)
	assert.Equal(t, "a", got.Name())
}

func TestRegistry_Subset_KeepsOnlyNamedTools(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "a"}))
	require.NoError(t, r.Register(&stubTool{name: "b"}))

	sub := r.Subset([]string{"a", "missing"})
	_, ok := sub.Get("a")
	assert.True(t, ok)
	_, ok = sub.Get("b")
	assert.False(t, ok)
	_, ok = sub.Get("missing")
	assert.False(t, ok)
}

func TestRegistry_Subset_IsIndependentFromSource(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "a"}))
	sub := r.Subset([]string{"a"})

	require.NoError(t, sub.Replace(&stubTool{name: "a"}))
	got, _ := r.Get("a")
	assert.Equal(t, "a", got.Name(), "mutating a subset must not affect the source registry")
}

func TestRegistry_ForPreset_Minimal(t *testing.T) {
	r := NewRegistry()
	for _, n := range []string{"read_text_file", "write_file", "run_shell_command"} {
		require.NoError(t, r.Register(&stubTool{name: n}))
	}
	sub := r.ForPreset(PresetMinimal)
	_, ok := sub.Get("read_text_file")
	assert.True(t, ok)
	_, ok = sub.Get("write_file")
	assert.False(t, ok, "write_file is not in the minimal preset")
}

func TestRegistry_ForPreset_FullIncludesEverything(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "browser_action"}))
	require.NoError(t, r.Register(&stubTool{name: "read_text_file"}))

	sub := r.ForPreset(PresetFull)
	_, ok := sub.Get("browser_action")
	assert.True(t, ok)
	_, ok = sub.Get("read_text_file")
	assert.True(t, ok)
}

func TestRegistry_List_IsSortedByName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(&stubTool{name: "zeta"}))
	require.NoError(t, r.Register(&stubTool{name: "alpha"}))

	list := r.List()
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Name())
	assert.Equal(t, "zeta", list[1].Name())
}
