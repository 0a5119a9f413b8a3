// Package fstool implements the filesystem tool set (component C.2):
// read/write/list/create/stat, each gated by a path-containment check
// against a fixed set of allowed roots before any I/O happens.
package fstool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/relaylabs/agentloop/corerr"
	"github.com/relaylabs/agentloop/tool"
)

const maxReadBytes = 512 * 1024

// Sandbox resolves and validates paths against a fixed set of allowed
// roots, established once at agent construction (§5: "path sandbox
// allowed-roots fixed at agent construction").
type Sandbox struct {
	roots []string
}

func NewSandbox(roots []string) (*Sandbox, error) {
	resolved := make([]string, 0, len(roots))
	for _, r := range roots {
		abs, err := expandAndResolve(r)
		if err != nil {
			return nil, fmt.Errorf("resolve allowed root %q: %w", r, err)
		}
		resolved = append(resolved, abs)
	}
	if len(resolved) == 0 {
		return nil, fmt.Errorf("at least one allowed root is required")
	}
	return &Sandbox{roots: resolved}, nil
}

func expandAndResolve(p string) (string, error) {
	if strings.HasPrefix(p, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	// EvalSymlinks requires the path to exist; fall back to the absolute
	// path for not-yet-created targets (e.g. a file about to be written).
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

// Resolve validates that p falls under one of the sandbox's allowed
// roots, expanding ~ and resolving symlinks first, and returns the
// resolved absolute path. Containment is checked before any I/O call.
func (s *Sandbox) Resolve(p string) (string, error) {
	resolved, err := expandAndResolve(p)
	if err != nil {
		return "", corerr.New("tool.fs", "resolve", corerr.ValidationFailed, "path could not be resolved", err)
	}
	for _, root := range s.roots {
		if resolved == root || strings.HasPrefix(resolved, root+string(os.PathSeparator)) {
			return resolved, nil
		}
	}
	return "", corerr.New("tool.fs", "resolve", corerr.AccessDenied,
		fmt.Sprintf("Access denied: %s is outside allowed directories", p), nil)
}

// ============================================================================
// read_text_file
// ============================================================================

type ReadTool struct{ sandbox *Sandbox }

func NewReadTool(s *Sandbox) *ReadTool { return &ReadTool{sandbox: s} }

func (t *ReadTool) Name() string               { return "read_text_file" }
func (t *ReadTool) Description() string        { return "Read a UTF-8 text file within the allowed workspace." }
func (t *ReadTool) Timeout() time.Duration      { return 10 * time.Second }
func (t *ReadTool) Durability() tool.Durability { return tool.Durability{Enabled: true, Independent: true, RetryCount: 2} }
func (t *ReadTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []string{"path"},
	}
}

func (t *ReadTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()
	p, _ := args["path"].(string)
	resolved, err := t.sandbox.Resolve(p)
	if err != nil {
		return errResult(err, started), nil
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return errResult(corerr.New("tool.fs", "read", corerr.NotFound, err.Error(), err), started), nil
	}
	truncated := false
	content := data
	if len(content) > maxReadBytes {
		content = content[:maxReadBytes]
		truncated = true
	}
	return tool.Result{
		State:      tool.StateOutputAvailable,
		Output:     toJSON(map[string]any{"success": true, "content": string(content), "truncated": truncated}),
		StartedAt:  started,
		FinishedAt: time.Now(),
		DataParts: []tool.DataPart{{
			Type:      "file-content",
			Payload:   map[string]any{"path": resolved, "size": len(data)},
			Truncated: truncated,
		}},
	}, nil
}

// ============================================================================
// write_file (atomic via temp file + rename)
// ============================================================================

type WriteTool struct{ sandbox *Sandbox }

func NewWriteTool(s *Sandbox) *WriteTool { return &WriteTool{sandbox: s} }

func (t *WriteTool) Name() string               { return "write_file" }
func (t *WriteTool) Description() string        { return "Create or overwrite a file within the allowed workspace." }
func (t *WriteTool) Timeout() time.Duration      { return 10 * time.Second }
func (t *WriteTool) Durability() tool.Durability { return tool.Durability{Independent: false} }
func (t *WriteTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"path":    map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
		},
		"required": []string{"path", "content"},
	}
}

func (t *WriteTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()
	p, _ := args["path"].(string)
	content, _ := args["content"].(string)
	resolved, err := t.sandbox.Resolve(p)
	if err != nil {
		return errResult(err, started), nil
	}
	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return errResult(corerr.New("tool.fs", "write", corerr.ExecutionFailed, err.Error(), err), started), nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(resolved), ".tmp-*")
	if err != nil {
		return errResult(corerr.New("tool.fs", "write", corerr.ExecutionFailed, err.Error(), err), started), nil
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errResult(corerr.New("tool.fs", "write", corerr.ExecutionFailed, err.Error(), err), started), nil
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errResult(corerr.New("tool.fs", "write", corerr.ExecutionFailed, err.Error(), err), started), nil
	}
	if err := os.Rename(tmpName, resolved); err != nil {
		os.Remove(tmpName)
		return errResult(corerr.New("tool.fs", "write", corerr.ExecutionFailed, err.Error(), err), started), nil
	}

	return tool.Result{
		State:      tool.StateOutputAvailable,
		Output:     toJSON(map[string]any{"success": true, "path": p, "bytesWritten": len(content)}),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}, nil
}

// ============================================================================
// list_directory
// ============================================================================

type ListTool struct{ sandbox *Sandbox }

func NewListTool(s *Sandbox) *ListTool { return &ListTool{sandbox: s} }

func (t *ListTool) Name() string               { return "list_directory" }
func (t *ListTool) Description() string        { return "List entries of a directory within the allowed workspace." }
func (t *ListTool) Timeout() time.Duration      { return 10 * time.Second }
func (t *ListTool) Durability() tool.Durability { return tool.Durability{Enabled: true, Independent: true, RetryCount: 2} }
func (t *ListTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []string{"path"},
	}
}

func (t *ListTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()
	p, _ := args["path"].(string)
	resolved, err := t.sandbox.Resolve(p)
	if err != nil {
		return errResult(err, started), nil
	}
	entries, err := os.ReadDir(resolved)
	if err != nil {
		return errResult(corerr.New("tool.fs", "list", corerr.NotFound, err.Error(), err), started), nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		suffix := ""
		if e.IsDir() {
			suffix = "/"
		}
		names = append(names, e.Name()+suffix)
	}
	return tool.Result{
		State:      tool.StateOutputAvailable,
		Output:     toJSON(map[string]any{"success": true, "entries": names}),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}, nil
}

// ============================================================================
// create_directory
// ============================================================================

type MkdirTool struct{ sandbox *Sandbox }

func NewMkdirTool(s *Sandbox) *MkdirTool { return &MkdirTool{sandbox: s} }

func (t *MkdirTool) Name() string               { return "create_directory" }
func (t *MkdirTool) Description() string        { return "Create a directory (and parents) within the allowed workspace." }
func (t *MkdirTool) Timeout() time.Duration      { return 10 * time.Second }
func (t *MkdirTool) Durability() tool.Durability { return tool.Durability{Enabled: true, Independent: false, RetryCount: 1} }
func (t *MkdirTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []string{"path"},
	}
}

func (t *MkdirTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()
	p, _ := args["path"].(string)
	resolved, err := t.sandbox.Resolve(p)
	if err != nil {
		return errResult(err, started), nil
	}
	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return errResult(corerr.New("tool.fs", "mkdir", corerr.ExecutionFailed, err.Error(), err), started), nil
	}
	return tool.Result{
		State:      tool.StateOutputAvailable,
		Output:     toJSON(map[string]any{"success": true, "path": p}),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}, nil
}

// ============================================================================
// get_file_info
// ============================================================================

type StatTool struct{ sandbox *Sandbox }

func NewStatTool(s *Sandbox) *StatTool { return &StatTool{sandbox: s} }

func (t *StatTool) Name() string               { return "get_file_info" }
func (t *StatTool) Description() string        { return "Return size/mode/modtime for a path within the allowed workspace." }
func (t *StatTool) Timeout() time.Duration      { return 10 * time.Second }
func (t *StatTool) Durability() tool.Durability { return tool.Durability{Enabled: true, Independent: true, RetryCount: 2} }
func (t *StatTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"path": map[string]any{"type": "string"}},
		"required":   []string{"path"},
	}
}

func (t *StatTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()
	p, _ := args["path"].(string)
	resolved, err := t.sandbox.Resolve(p)
	if err != nil {
		return errResult(err, started), nil
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return errResult(corerr.New("tool.fs", "stat", corerr.NotFound, err.Error(), err), started), nil
	}
	return tool.Result{
		State: tool.StateOutputAvailable,
		Output: toJSON(map[string]any{
			"success": true,
			"size":    info.Size(),
			"mode":    info.Mode().String(),
			"modTime": info.ModTime().Format(time.RFC3339),
			"isDir":   info.IsDir(),
		}),
		StartedAt: started, FinishedAt: time.Now(),
	}, nil
}

func errResult(err error, started time.Time) tool.Result {
	return tool.Result{
		State:      tool.StateOutputError,
		Error:      err.Error(),
		Output:     toJSON(map[string]any{"success": false, "error": errMessage(err)}),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
}

// errMessage returns the bare, user-facing message for a handler error —
// the CoreError.Message itself for a classified error, not its
// component/operation/category-prefixed Error() string.
func errMessage(err error) string {
	var ce *corerr.CoreError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

// toJSON marshals a handler's result payload per the {"success": bool, ...}
// convention every tool follows. A marshal failure here would mean a bug in
// the payload shape itself, not a runtime condition to report to the model.
func toJSON(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("tool.fs: payload not json-marshalable: %v", err))
	}
	return string(b)
}
