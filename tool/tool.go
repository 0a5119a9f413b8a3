// Package tool defines the tool contract and registry used by the
// tool-loop driver (component B): a Tool describes its schema and
// durability; ToolCall/ToolResult carry one invocation through its
// lifecycle states.
package tool

import (
	"context"
	"time"
)

// Durability is advisory metadata a tool attaches to every call: whether
// a scheduler may treat it as safe to retry (Enabled), whether it may run
// concurrently with other calls in the same step (Independent with no
// pending approval), and the default retry envelope (RetryCount) the
// dispatcher wraps around the handler. Timeout is carried separately, via
// Tool.Timeout().
type Durability struct {
	Enabled     bool
	Independent bool
	RetryCount  int
}

// Tool is one callable capability exposed to the model.
type Tool interface {
	Name() string
	Description() string
	InputSchema() map[string]any
	Durability() Durability
	Timeout() time.Duration
	// Execute runs the tool. ctx is cancelled on run cancellation or when
	// min(Timeout(), remaining run budget) elapses. args has already been
	// validated against InputSchema().
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// ResultState is the closed set of states a ToolResult can be in.
type ResultState string

const (
	StateOutputAvailable   ResultState = "output-available"
	StateOutputError       ResultState = "output-error"
	StateOutputDenied      ResultState = "output-denied"
	StateApprovalRequested ResultState = "approval-requested"
	StateApprovalResponded ResultState = "approval-responded"
	StateInputAvailable    ResultState = "input-available"
)

// DataPart is a transient, non-conversational payload attached to a
// result. Data parts are shown to a UI/stream consumer but never folded
// back into the model's conversation history (invariant: transient data
// never re-enters model context).
type DataPart struct {
	Type      string
	Payload   map[string]any
	Truncated bool
}

// Call is one tool invocation requested by a model step.
type Call struct {
	ID       string
	ToolName string
	Args     map[string]any
}

// Result is the outcome of dispatching a Call.
type Result struct {
	CallID     string
	State      ResultState
	Output     string // text folded back into conversation history
	Error      string
	DataParts  []DataPart
	StartedAt  time.Time
	FinishedAt time.Time
}

func (r Result) IsTerminal() bool {
	switch r.State {
	case StateOutputAvailable, StateOutputError, StateOutputDenied:
		return true
	}
	return false
}
