// Package provider defines the model-provider contract (component A): a
// single streaming step over a conversation, producing text/reasoning
// deltas and tool-call requests, independent of any concrete vendor SDK.
package provider

import "context"

// Role identifies the speaker of a Message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallRequest is a single tool invocation the model asked for during a
// step. Arguments is the raw JSON object the model produced; it is
// validated against the tool's schema by the caller, not by the provider.
type ToolCallRequest struct {
	ID        string
	ToolName  string
	Arguments map[string]any
}

// ToolResultMessage feeds a completed tool call back into the conversation.
type ToolResultMessage struct {
	CallID  string
	Content string
	IsError bool
}

// Message is one turn of conversation history sent to the provider.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCallRequest   // set on assistant messages that called tools
	ToolResults []ToolResultMessage // set on tool-role messages
}

// ToolSpec is the provider-facing description of a callable tool: name,
// description and a JSON Schema for its input.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// StepRequest is everything a provider needs to produce one model step.
type StepRequest struct {
	SystemPrompt string
	Messages     []Message
	Tools        []ToolSpec
	Temperature  float64
	MaxTokens    int
}

// Usage reports token accounting for a single step. A provider that cannot
// report usage leaves all fields zero; callers fall back to an estimator.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// DeltaKind tags the closed union of streaming deltas a provider emits
// while producing one step.
type DeltaKind string

const (
	DeltaText      DeltaKind = "text"
	DeltaReasoning DeltaKind = "reasoning"
	DeltaToolCall  DeltaKind = "tool-call"
	DeltaDone      DeltaKind = "done"
)

// Delta is one increment of a streamed step. Which payload fields are
// populated depends on Kind: Text for text and reasoning deltas, ToolCall
// for DeltaToolCall, StopText and Usage for DeltaDone.
type Delta struct {
	Kind      DeltaKind
	Text      string
	ToolCall  *ToolCallRequest // populated once per completed call on DeltaToolCall
	StopText  string           // populated on DeltaDone: "stop" | "tool-calls" | "length" | "error"
	Usage     Usage            // populated on DeltaDone when the provider reports it
}

// Provider is the minimal surface the tool-loop driver depends on: a single
// streaming call that yields deltas on a channel and terminates it when the
// step is complete or ctx is cancelled.
type Provider interface {
	// Name identifies the provider for logging/telemetry (e.g. "anthropic").
	Name() string
	// Model returns the concrete model identifier in use.
	Model() string
	// Step streams one model step. The returned channel is closed exactly
	// once, normally right after a DeltaDone delta. The returned error
	// covers failures before streaming starts; a failure mid-stream ends
	// with a DeltaDone whose StopText is "error", and the underlying error
	// is not passed on to the caller.
	Step(ctx context.Context, req StepRequest) (<-chan Delta, error)
}
