package fstool

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaylabs/agentloop/corerr"
	"github.com/relaylabs/agentloop/tool"
)

// decodePayload parses a tool result's Output as the {"success": bool, ...}
// JSON every handler in this package emits.
func decodePayload(t *testing.T, output string) map[string]any {
	t.Helper()
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &payload))
	return payload
}

func newSandbox(t *testing.T) (*Sandbox, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewSandbox([]string{root})
	require.NoError(t, err)
	return s, root
}

func TestNewSandbox_RequiresAtLeastOneRoot(t *testing.T) {
	_, err := NewSandbox(nil)
	assert.Error(t, err)
}

func TestSandbox_Resolve_RejectsEscape(t *testing.T) {
	s, root := newSandbox(t)

	resolved, err := s.Resolve(filepath.Join(root, "file.txt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "file.txt"), resolved)

	_, err = s.Resolve("/etc/passwd")
	require.Error(t, err, "paths outside every allowed root must be rejected")
	var ce *corerr.CoreError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Access denied: /etc/passwd is outside allowed directories", ce.Message)
}

func TestReadWriteTool_RoundTrip(t *testing.T) {
	s, root := newSandbox(t)
	write := NewWriteTool(s)
	read := NewReadTool(s)

	target := filepath.Join(root, "notes.txt")
	res, err := write.Execute(context.Background(), map[string]any{"path": target, "content": "hello world"})
	require.NoError(t, err)
	assert.Equal(t, tool.StateOutputAvailable, res.State)

	res, err = read.Execute(context.Background(), map[string]any{"path": target})
	require.NoError(t, err)
	payload := decodePayload(t, res.Output)
	assert.Equal(t, true, payload["success"])
	assert.Equal(t, "hello world", payload["content"])
}

func TestWriteTool_IsAtomic_NoPartialFileOnRename(t *testing.T) {
	s, root := newSandbox(t)
	write := NewWriteTool(s)
	target := filepath.Join(root, "atomic.txt")

	_, err := write.Execute(context.Background(), map[string]any{"path": target, "content": "v1"})
	require.NoError(t, err)

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no leftover temp file should remain after a successful write")
}

func TestReadTool_TruncatesOversizedFiles(t *testing.T) {
	s, root := newSandbox(t)
	target := filepath.Join(root, "big.txt")
	big := make([]byte, maxReadBytes+100)
	require.NoError(t, os.WriteFile(target, big, 0o644))

	read := NewReadTool(s)
	res, err := read.Execute(context.Background(), map[string]any{"path": target})
	require.NoError(t, err)
	payload := decodePayload(t, res.Output)
	assert.Len(t, payload["content"], maxReadBytes)
	assert.Equal(t, true, payload["truncated"])
	require.Len(t, res.DataParts, 1)
	assert.True(t, res.DataParts[0].Truncated)
}

func TestListTool_ListsDirectoryEntries(t *testing.T) {
	s, root := newSandbox(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(root, "sub"), 0o755))

	list := NewListTool(s)
	res, err := list.Execute(context.Background(), map[string]any{"path": root})
	require.NoError(t, err)
	payload := decodePayload(t, res.Output)
	entries, ok := payload["entries"].([]any)
	require.True(t, ok)
	assert.Contains(t, entries, "a.txt")
	assert.Contains(t, entries, "sub/")
}

func TestMkdirTool_CreatesNestedDirectories(t *testing.T) {
	s, root := newSandbox(t)
	mkdir := NewMkdirTool(s)
	nested := filepath.Join(root, "a", "b", "c")

	res, err := mkdir.Execute(context.Background(), map[string]any{"path": nested})
	require.NoError(t, err)
	assert.Equal(t, tool.StateOutputAvailable, res.State)

	info, err := os.Stat(nested)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestStatTool_ReportsFileInfo(t *testing.T) {
	s, root := newSandbox(t)
	target := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(target, []byte("1234"), 0o644))

	stat := NewStatTool(s)
	res, err := stat.Execute(context.Background(), map[string]any{"path": target})
	require.NoError(t, err)
	payload := decodePayload(t, res.Output)
	assert.Equal(t, float64(4), payload["size"])
}

func TestReadTool_UnknownPath_ReturnsErrorState(t *testing.T) {
	s, root := newSandbox(t)
	read := NewReadTool(s)
	res, err := read.Execute(context.Background(), map[string]any{"path": filepath.Join(root, "missing.txt")})
	require.NoError(t, err)
	assert.Equal(t, tool.StateOutputError, res.State)
}
