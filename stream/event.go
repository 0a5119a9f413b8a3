// Package stream defines the run-level event bus: a closed tagged union of
// StreamEvents (component D) produced by the tool-loop driver and consumed
// by callers (CLI renderer, UI, logger).
package stream

import "time"

// EventKind is the closed set of event tags.
type EventKind string

const (
	KindTextDelta      EventKind = "text-delta"
	KindReasoningDelta EventKind = "reasoning-delta"
	KindToolCall       EventKind = "tool-call"
	KindToolResult     EventKind = "tool-result"
	KindApprovalNeeded EventKind = "approval-needed"
	KindDataPart       EventKind = "data-part"
	KindStepStart      EventKind = "step-start"
	KindStepFinish     EventKind = "step-finish"
	KindError          EventKind = "error"
	KindFinish         EventKind = "finish"
)

// Event is one item on the bus. Exactly the fields matching Kind are
// meaningful; this mirrors a discriminated union without runtime type
// assertions at call sites.
type Event struct {
	Kind      EventKind
	Timestamp time.Time

	Text      string         // text-delta, reasoning-delta
	CallID    string         // tool-call, tool-result, approval-needed
	ToolName  string         // tool-call, approval-needed
	Args      map[string]any // tool-call
	Output    string         // tool-result
	IsError   bool           // tool-result
	DataType  string         // data-part
	DataPart  map[string]any // data-part
	Truncated bool           // data-part

	StepIndex int // step-start, step-finish

	Err error // error

	FinishReason string // finish: "stop" | "tool-calls" | "length" | "error" | "team-stalled"
	Cancelled    bool   // finish
}

// ErrProtocolViolation tags a finish/error event caused by a consumer
// misusing the bus contract (e.g. an unhandled browser-stream error),
// rather than by the model or a tool.
const ErrProtocolViolation = "protocol-violation"
