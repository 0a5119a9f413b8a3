// Package agent implements the tool-loop driver (component E) and the
// approval gate it enforces (component F): the central state machine
// that turns a prompt into a sequence of model steps and tool
// dispatches, streaming typed events as it goes.
package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/relaylabs/agentloop/config"
	"github.com/relaylabs/agentloop/corerr"
	"github.com/relaylabs/agentloop/limits"
	"github.com/relaylabs/agentloop/provider"
	"github.com/relaylabs/agentloop/stream"
	"github.com/relaylabs/agentloop/tool"
	"github.com/relaylabs/agentloop/toolschema"
	"github.com/relaylabs/agentloop/utils"
)

// ApprovalRequest carries everything a handler needs to decide whether a
// dangerous call proceeds.
type ApprovalRequest struct {
	CallID   string
	ToolName string
	Args     map[string]any
}

// ApprovalHandler decides a pending approval. A handler that returns
// before the agent's approval timeout wins; otherwise the configured
// timeoutAction applies.
type ApprovalHandler func(ctx context.Context, req ApprovalRequest) (approved bool)

// StepRecord is one completed model step, retained on the run result.
type StepRecord struct {
	Index        int
	Text         string
	ToolCalls    []provider.ToolCallRequest
	ToolResults  []tool.Result
	Usage        provider.Usage
	FinishReason string
}

// RunResult is the outcome of a full Generate call.
type RunResult struct {
	Text         string
	Steps        []StepRecord
	TotalUsage   limits.Totals
	FinishReason string // "stop" | "tool-calls" | "length" | "error"
	Cancelled    bool
}

// Agent is one configured tool-loop driver: a provider, a fixed tool
// registry, and the approval/usage-limit policy wrapped around them.
type Agent struct {
	id           string
	name         string
	description  string
	role         string
	systemPrompt string
	temperature  float64
	maxTokens    int
	maxSteps     int

	provider provider.Provider
	tools    *tool.Registry
	guard    *limits.Guard

	approvalExtra   map[string]bool
	approvalTimeout time.Duration
	approvalDeny    bool
	approvalHandler ApprovalHandler

	pendingApprovals sync.Map // callID -> chan bool, monotonic: first send wins
}

// New builds an Agent directly from its dependencies. NewFromConfig is
// the usual entry point; this constructor exists for tests and for
// team-member construction where the registry subset is already built.
func New(name string, p provider.Provider, tools *tool.Registry, guard *limits.Guard, cfg *config.AgentConfig) *Agent {
	extra := make(map[string]bool, len(cfg.Approval.RequireFor))
	for _, n := range cfg.Approval.RequireFor {
		extra[n] = true
	}
	deny := true
	if cfg.Approval.DefaultDeny != nil {
		deny = *cfg.Approval.DefaultDeny
	}
	return &Agent{
		id:              uuid.NewString(),
		name:            name,
		description:     cfg.Description,
		systemPrompt:    cfg.SystemPrompt,
		maxSteps:        cfg.MaxSteps,
		provider:        p,
		tools:           tools,
		guard:           guard,
		approvalExtra:   extra,
		approvalTimeout: cfg.Approval.Timeout,
		approvalDeny:    deny,
	}
}

// WithApprovalHandler installs a handler that races against the
// configured approval timeout instead of blocking for an external
// response via AddToolApprovalResponse.
func (a *Agent) WithApprovalHandler(h ApprovalHandler) *Agent {
	a.approvalHandler = h
	return a
}

func (a *Agent) AgentID() string      { return a.id }
func (a *Agent) Role() string         { return a.role }
func (a *Agent) SetRole(role string)  { a.role = role }
func (a *Agent) Name() string         { return a.name }
func (a *Agent) Description() string  { return a.description }
func (a *Agent) GetSystemPrompt() string { return a.systemPrompt }

// RegisterTool installs an additional tool into this agent's private
// registry subset, overwriting any existing tool of the same name. Used
// to wire team-scoped tools (team_message, team_claim, ...) into a
// member's loop once it joins a team.
func (a *Agent) RegisterTool(t tool.Tool) error {
	return a.tools.Replace(t)
}

func (a *Agent) GetToolNames() []string {
	list := a.tools.List()
	names := make([]string, len(list))
	for i, t := range list {
		names[i] = t.Name()
	}
	return names
}

// AddToolApprovalResponse resolves a pending approval for a call with no
// registered handler. A call with no pending approval (never requested,
// or already resolved) gets a NotFound error; a second response sent
// before the first one is consumed is silently dropped.
func (a *Agent) AddToolApprovalResponse(callID string, approved bool) error {
	v, ok := a.pendingApprovals.Load(callID)
	if !ok {
		return corerr.New("agent", "approve", corerr.NotFound, "no pending approval for call "+callID, nil)
	}
	ch := v.(chan bool)
	select {
	case ch <- approved:
	default:
	}
	return nil
}

// Generate runs the tool loop to completion and returns the final result.
func (a *Agent) Generate(ctx context.Context, prompt string) (*RunResult, error) {
	bus := stream.NewBus(256)
	done := make(chan struct{})
	var res *RunResult
	var runErr error
	go func() {
		defer close(done)
		res, runErr = a.run(ctx, prompt, bus)
	}()
	for range bus.Events() {
		// Generate discards events; Stream is the path that surfaces them.
	}
	<-done
	return res, runErr
}

// Stream runs the tool loop and exposes every StreamEvent as it happens.
// The returned channel is closed once the run finishes.
func (a *Agent) Stream(ctx context.Context, prompt string) <-chan stream.Event {
	bus := stream.NewBus(256)
	go func() {
		_, _ = a.run(ctx, prompt, bus)
	}()
	return bus.Events()
}

func (a *Agent) run(ctx context.Context, prompt string, bus *stream.Bus) (*RunResult, error) {
	defer bus.Close()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	conv := []provider.Message{{Role: provider.RoleUser, Text: prompt}}
	totals := limits.Totals{}
	var steps []StepRecord
	var fullText strings.Builder

	maxSteps := a.maxSteps
	if maxSteps <= 0 {
		maxSteps = 25
	}
	toolSpecs := a.buildToolSpecs()

	for i := 1; i <= maxSteps; i++ {
		bus.Emit(stream.Event{Kind: stream.KindStepStart, StepIndex: i})

		if runCtx.Err() != nil {
			return a.finishCancelled(bus, steps, totals, fullText.String())
		}

		req := provider.StepRequest{
			SystemPrompt: a.systemPrompt,
			Messages:     conv,
			Tools:        toolSpecs,
			Temperature:  a.temperature,
			MaxTokens:    a.maxTokens,
		}

		deltaCh, err := a.provider.Step(runCtx, req)
		if err != nil {
			bus.Emit(stream.Event{Kind: stream.KindError, Err: err})
			bus.Emit(stream.Event{Kind: stream.KindFinish, FinishReason: "error"})
			return &RunResult{Text: fullText.String(), Steps: steps, TotalUsage: totals, FinishReason: "error"}, err
		}

		var stepText strings.Builder
		var calls []provider.ToolCallRequest
		var usage provider.Usage
		finishReason := "stop"

		for d := range deltaCh {
			switch d.Kind {
			case provider.DeltaText:
				stepText.WriteString(d.Text)
				bus.Emit(stream.Event{Kind: stream.KindTextDelta, Text: d.Text, StepIndex: i})
			case provider.DeltaReasoning:
				bus.Emit(stream.Event{Kind: stream.KindReasoningDelta, Text: d.Text, StepIndex: i})
			case provider.DeltaToolCall:
				if d.ToolCall != nil {
					call := *d.ToolCall
					if call.ID == "" {
						call.ID = uuid.NewString()
					}
					calls = append(calls, call)
					bus.Emit(stream.Event{Kind: stream.KindToolCall, CallID: call.ID, ToolName: call.ToolName, Args: call.Arguments, StepIndex: i})
				}
			case provider.DeltaDone:
				if d.StopText != "" {
					finishReason = d.StopText
				}
				usage = d.Usage
			}
		}

		fullText.WriteString(stepText.String())

		toolResults := a.dispatchCalls(runCtx, calls, bus, i)

		assistantMsg := provider.Message{Role: provider.RoleAssistant, Text: stepText.String(), ToolCalls: calls}
		conv = append(conv, assistantMsg)
		if len(toolResults) > 0 {
			trMsgs := make([]provider.ToolResultMessage, len(toolResults))
			for idx, r := range toolResults {
				trMsgs[idx] = provider.ToolResultMessage{CallID: r.CallID, Content: resultText(r), IsError: r.State == tool.StateOutputError}
			}
			conv = append(conv, provider.Message{Role: provider.RoleTool, ToolResults: trMsgs})
		}

		inputTokens, outputTokens := usage.InputTokens, usage.OutputTokens
		if inputTokens == 0 && outputTokens == 0 {
			inputTokens = utils.EstimateTokens(req.SystemPrompt + conversationText(conv))
			outputTokens = utils.EstimateTokens(stepText.String())
		}
		a.guard.Record(runCtx, &totals, 1, inputTokens, outputTokens)

		bus.Emit(stream.Event{Kind: stream.KindStepFinish, StepIndex: i, FinishReason: finishReason})
		steps = append(steps, StepRecord{
			Index: i, Text: stepText.String(), ToolCalls: calls, ToolResults: toolResults,
			Usage: usage, FinishReason: finishReason,
		})

		if err := a.guard.Check(totals); err != nil {
			bus.Emit(stream.Event{Kind: stream.KindFinish, FinishReason: "length"})
			return &RunResult{Text: fullText.String(), Steps: steps, TotalUsage: totals, FinishReason: "length"}, nil
		}

		if finishReason == "stop" || len(calls) == 0 {
			bus.Emit(stream.Event{Kind: stream.KindFinish, FinishReason: "stop"})
			return &RunResult{Text: fullText.String(), Steps: steps, TotalUsage: totals, FinishReason: "stop"}, nil
		}
		if i == maxSteps {
			bus.Emit(stream.Event{Kind: stream.KindFinish, FinishReason: "length"})
			return &RunResult{Text: fullText.String(), Steps: steps, TotalUsage: totals, FinishReason: "length"}, nil
		}
		// finishReason == "tool-calls" and steps remain: loop.
	}

	bus.Emit(stream.Event{Kind: stream.KindFinish, FinishReason: "length"})
	return &RunResult{Text: fullText.String(), Steps: steps, TotalUsage: totals, FinishReason: "length"}, nil
}

func (a *Agent) finishCancelled(bus *stream.Bus, steps []StepRecord, totals limits.Totals, text string) (*RunResult, error) {
	bus.Emit(stream.Event{Kind: stream.KindFinish, FinishReason: "error", Cancelled: true})
	return &RunResult{Text: text, Steps: steps, TotalUsage: totals, FinishReason: "error", Cancelled: true}, nil
}

func (a *Agent) buildToolSpecs() []provider.ToolSpec {
	list := a.tools.List()
	specs := make([]provider.ToolSpec, len(list))
	for i, t := range list {
		specs[i] = provider.ToolSpec{Name: t.Name(), Description: t.Description(), InputSchema: t.InputSchema()}
	}
	return specs
}

// dispatchCalls runs every call from one step, choosing concurrent
// dispatch only when every call is independent and none needs approval
// (§4.E.3); otherwise calls run sequentially in the order produced.
func (a *Agent) dispatchCalls(ctx context.Context, calls []provider.ToolCallRequest, bus *stream.Bus, stepIndex int) []tool.Result {
	if len(calls) == 0 {
		return nil
	}

	allConcurrent := true
	for _, c := range calls {
		t, ok := a.tools.Get(c.ToolName)
		if !ok || !t.Durability().Independent || tool.RequiresApproval(c.ToolName, a.approvalExtra) {
			allConcurrent = false
			break
		}
	}

	results := make([]tool.Result, len(calls))
	if allConcurrent {
		g, gctx := errgroup.WithContext(ctx)
		for idx, call := range calls {
			idx, call := idx, call
			g.Go(func() error {
				results[idx] = a.dispatchOne(gctx, call, bus, stepIndex)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for idx, call := range calls {
			results[idx] = a.dispatchOne(ctx, call, bus, stepIndex)
			if ctx.Err() != nil {
				for j := idx + 1; j < len(calls); j++ {
					results[j] = tool.Result{CallID: calls[j].ID, State: tool.StateOutputDenied, Error: "run cancelled"}
				}
				break
			}
		}
	}
	return results
}

func (a *Agent) dispatchOne(ctx context.Context, call provider.ToolCallRequest, bus *stream.Bus, stepIndex int) tool.Result {
	t, ok := a.tools.Get(call.ToolName)
	if !ok {
		errMsg := fmt.Sprintf("unknown tool %q", call.ToolName)
		bus.Emit(stream.Event{Kind: stream.KindToolResult, CallID: call.ID, Output: errMsg, IsError: true, StepIndex: stepIndex})
		return tool.Result{CallID: call.ID, State: tool.StateOutputError, Error: errMsg}
	}

	if err := toolschema.Validate(t.InputSchema(), call.Arguments); err != nil {
		bus.Emit(stream.Event{Kind: stream.KindToolResult, CallID: call.ID, Output: err.Error(), IsError: true, StepIndex: stepIndex})
		return tool.Result{CallID: call.ID, State: tool.StateOutputError, Error: err.Error()}
	}

	if tool.RequiresApproval(call.ToolName, a.approvalExtra) {
		approved, err := a.awaitApproval(ctx, call, bus, stepIndex)
		if err != nil {
			return tool.Result{CallID: call.ID, State: tool.StateOutputDenied, Error: err.Error()}
		}
		if !approved {
			bus.Emit(stream.Event{Kind: stream.KindToolResult, CallID: call.ID, IsError: true, StepIndex: stepIndex})
			return tool.Result{CallID: call.ID, State: tool.StateOutputDenied}
		}
	}

	result, err := a.executeWithRetry(ctx, t, call)
	result.CallID = call.ID
	if err != nil {
		result.State = tool.StateOutputError
		result.Error = err.Error()
	}
	bus.Emit(stream.Event{
		Kind: stream.KindToolResult, CallID: call.ID, Output: result.Output,
		IsError: result.State == tool.StateOutputError, StepIndex: stepIndex,
	})
	for _, dp := range result.DataParts {
		bus.Emit(stream.Event{Kind: stream.KindDataPart, CallID: call.ID, DataType: dp.Type, DataPart: dp.Payload, Truncated: dp.Truncated, StepIndex: stepIndex})
	}
	return result
}

// executeWithRetry runs t.Execute under an effective timeout of
// min(t.Timeout(), remaining run budget via ctx), retrying up to
// Durability().RetryCount additional times when the handler itself fails
// (not when it returns a normal output-error result) and durability is
// enabled. Cancellation or expiry of the run context ctx stops retrying;
// a handler error caused by its own per-attempt Timeout() is retried.
func (a *Agent) executeWithRetry(ctx context.Context, t tool.Tool, call provider.ToolCallRequest) (tool.Result, error) {
	durability := t.Durability()
	attempts := 1
	if durability.Enabled && durability.RetryCount > 0 {
		attempts += durability.RetryCount
	}

	var result tool.Result
	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		execCtx := ctx
		var cancel context.CancelFunc
		if t.Timeout() > 0 {
			execCtx, cancel = context.WithTimeout(ctx, t.Timeout())
		}
		result, err = t.Execute(execCtx, call.Arguments)
		if cancel != nil {
			cancel()
		}
		if err == nil {
			return result, nil
		}
		if ctx.Err() != nil {
			return result, err
		}
	}
	return result, err
}

// awaitApproval suspends call until a decision is made: a registered
// handler races the configured timeout (default-deny on expiry); with
// no handler, the call blocks indefinitely on AddToolApprovalResponse or
// run cancellation — no timeout applies to this path.
func (a *Agent) awaitApproval(ctx context.Context, call provider.ToolCallRequest, bus *stream.Bus, stepIndex int) (bool, error) {
	bus.Emit(stream.Event{Kind: stream.KindApprovalNeeded, CallID: call.ID, ToolName: call.ToolName, Args: call.Arguments, StepIndex: stepIndex})

	if a.approvalHandler != nil {
		approvalCtx, cancel := context.WithTimeout(ctx, a.approvalTimeout)
		defer cancel()
		resultCh := make(chan bool, 1)
		go func() {
			resultCh <- a.approvalHandler(approvalCtx, ApprovalRequest{CallID: call.ID, ToolName: call.ToolName, Args: call.Arguments})
		}()
		select {
		case approved := <-resultCh:
			return approved, nil
		case <-approvalCtx.Done():
			return !a.approvalDeny, nil
		}
	}

	ch := make(chan bool, 1)
	a.pendingApprovals.Store(call.ID, ch)
	defer a.pendingApprovals.Delete(call.ID)

	select {
	case approved := <-ch:
		return approved, nil
	case <-ctx.Done():
		return false, corerr.New("agent", "approve", corerr.Cancelled, "run cancelled while awaiting approval", ctx.Err())
	}
}

func resultText(r tool.Result) string {
	if r.State == tool.StateOutputError {
		return "Error: " + r.Error
	}
	if r.State == tool.StateOutputDenied {
		return "Denied by approval gate."
	}
	return r.Output
}

func conversationText(conv []provider.Message) string {
	var b strings.Builder
	for _, m := range conv {
		b.WriteString(m.Text)
	}
	return b.String()
}
