package tool

import (
	"context"
	"time"
)

// DefaultDangerousTools is the built-in set of tool names the approval
// gate requires confirmation for, regardless of agent configuration.
var DefaultDangerousTools = map[string]bool{
	"run_shell_command": true,
	"browser_action":    true,
	"write_file":        true,
	"create_directory":  true,
	"background_process": true,
}

// approvalTool wraps an underlying Tool so that Execute is only reached
// after an approval decision has been recorded. It never mutates the
// wrapped tool: Wrap returns a derived copy.
type approvalTool struct {
	inner Tool
}

// Wrap returns a Tool that forwards every method to inner unchanged; the
// wrapper carries no approval tag of its own (the tool-loop driver checks
// RequiresApproval by tool name, not a property of the Execute method
// itself — wrapping here only exists to let call sites treat "dangerous"
// tools uniformly without special-casing the underlying implementation).
func Wrap(inner Tool) Tool {
	return &approvalTool{inner: inner}
}

func (a *approvalTool) Name() string                   { return a.inner.Name() }
func (a *approvalTool) Description() string            { return a.inner.Description() }
func (a *approvalTool) InputSchema() map[string]any     { return a.inner.InputSchema() }
func (a *approvalTool) Durability() Durability          { return a.inner.Durability() }
func (a *approvalTool) Timeout() time.Duration          { return a.inner.Timeout() }
func (a *approvalTool) Execute(ctx context.Context, args map[string]any) (Result, error) {
	return a.inner.Execute(ctx, args)
}

// RequiresApproval reports whether name is in the built-in dangerous set
// or the agent-configured extra set.
func RequiresApproval(name string, extra map[string]bool) bool {
	if DefaultDangerousTools[name] {
		return true
	}
	return extra[name]
}
