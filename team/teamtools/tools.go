// Package teamtools exposes a team's task board and mailbox to its
// members as tool-loop tools (§4.H "Member tools"): team_message,
// team_broadcast, team_tasks, team_claim, team_complete, team_status.
// Every tool is bound to one owning member at construction so a member
// can never act, claim, or message as another.
package teamtools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/relaylabs/agentloop/corerr"
	"github.com/relaylabs/agentloop/team"
	"github.com/relaylabs/agentloop/tool"
)

// Coordinator is the subset of *team.Team a member tool needs; kept
// narrow so tests can fake it without building a full Team.
type Coordinator interface {
	Board() *team.Board
	Mailbox() *team.Mailbox
	MemberNames() []string
	Phase() team.Phase
}

// ForMember builds the six member tools scoped to owner, ready to install
// into that member agent's private tool registry subset.
func ForMember(owner string, t Coordinator) []tool.Tool {
	return []tool.Tool{
		&MessageTool{owner: owner, team: t},
		&BroadcastTool{owner: owner, team: t},
		&TasksTool{owner: owner, team: t},
		&ClaimTool{owner: owner, team: t},
		&CompleteTool{owner: owner, team: t},
		&StatusTool{owner: owner, team: t},
	}
}

func errResult(err error) (tool.Result, error) {
	return tool.Result{State: tool.StateOutputError, Error: err.Error()}, nil
}

// ============================================================================
// team_message
// ============================================================================

type MessageTool struct {
	owner string
	team  Coordinator
}

func (t *MessageTool) Name() string        { return "team_message" }
func (t *MessageTool) Description() string { return "Send a direct message to another team member." }
func (t *MessageTool) Timeout() time.Duration      { return 5 * time.Second }
func (t *MessageTool) Durability() tool.Durability { return tool.Durability{Independent: true} }
func (t *MessageTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to":      map[string]any{"type": "string"},
			"content": map[string]any{"type": "string"},
		},
		"required": []string{"to", "content"},
	}
}

func (t *MessageTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	to, _ := args["to"].(string)
	content, _ := args["content"].(string)
	if err := t.team.Mailbox().SendMessage(t.owner, to, content); err != nil {
		return errResult(err)
	}
	return tool.Result{State: tool.StateOutputAvailable, Output: "message sent to " + to}, nil
}

// ============================================================================
// team_broadcast
// ============================================================================

type BroadcastTool struct {
	owner string
	team  Coordinator
}

func (t *BroadcastTool) Name() string        { return "team_broadcast" }
func (t *BroadcastTool) Description() string { return "Broadcast a message to every team member." }
func (t *BroadcastTool) Timeout() time.Duration      { return 5 * time.Second }
func (t *BroadcastTool) Durability() tool.Durability { return tool.Durability{Independent: true} }
func (t *BroadcastTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"content": map[string]any{"type": "string"}},
		"required":   []string{"content"},
	}
}

func (t *BroadcastTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	content, _ := args["content"].(string)
	if err := t.team.Mailbox().Broadcast(t.owner, content); err != nil {
		return errResult(err)
	}
	return tool.Result{State: tool.StateOutputAvailable, Output: "broadcast sent"}, nil
}

// ============================================================================
// team_tasks
// ============================================================================

type TasksTool struct {
	owner string
	team  Coordinator
}

func (t *TasksTool) Name() string        { return "team_tasks" }
func (t *TasksTool) Description() string { return "List tasks currently available to claim." }
func (t *TasksTool) Timeout() time.Duration      { return 5 * time.Second }
func (t *TasksTool) Durability() tool.Durability { return tool.Durability{Enabled: true, Independent: true, RetryCount: 2} }
func (t *TasksTool) InputSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *TasksTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	available := t.team.Board().GetAvailable()
	lines := make([]string, 0, len(available))
	for _, task := range available {
		lines = append(lines, fmt.Sprintf("%s: %s", task.ID, task.Description))
	}
	if len(lines) == 0 {
		return tool.Result{State: tool.StateOutputAvailable, Output: "no tasks available"}, nil
	}
	return tool.Result{State: tool.StateOutputAvailable, Output: strings.Join(lines, "\n")}, nil
}

// ============================================================================
// team_claim
// ============================================================================

type ClaimTool struct {
	owner string
	team  Coordinator
}

func (t *ClaimTool) Name() string        { return "team_claim" }
func (t *ClaimTool) Description() string { return "Claim an available task by id." }
func (t *ClaimTool) Timeout() time.Duration      { return 5 * time.Second }
func (t *ClaimTool) Durability() tool.Durability { return tool.Durability{Independent: false} }
func (t *ClaimTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"taskId": map[string]any{"type": "string"}},
		"required":   []string{"taskId"},
	}
}

func (t *ClaimTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	taskID, _ := args["taskId"].(string)
	claimed, err := t.team.Board().Claim(taskID, t.owner)
	if err != nil {
		return errResult(err)
	}
	if !claimed {
		return tool.Result{State: tool.StateOutputAvailable, Output: "task " + taskID + " is not claimable"}, nil
	}
	return tool.Result{State: tool.StateOutputAvailable, Output: "claimed " + taskID}, nil
}

// ============================================================================
// team_complete
// ============================================================================

type CompleteTool struct {
	owner string
	team  Coordinator
}

func (t *CompleteTool) Name() string        { return "team_complete" }
func (t *CompleteTool) Description() string { return "Mark a task you claimed as complete with its result." }
func (t *CompleteTool) Timeout() time.Duration      { return 5 * time.Second }
func (t *CompleteTool) Durability() tool.Durability { return tool.Durability{Independent: false} }
func (t *CompleteTool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"taskId": map[string]any{"type": "string"},
			"result": map[string]any{"type": "string"},
		},
		"required": []string{"taskId", "result"},
	}
}

func (t *CompleteTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	taskID, _ := args["taskId"].(string)
	result, _ := args["result"].(string)

	var claimedByOwner bool
	for _, task := range t.team.Board().Snapshot() {
		if task.ID == taskID && task.Status == team.TaskClaimed && task.ClaimedBy == t.owner {
			claimedByOwner = true
			break
		}
	}
	if !claimedByOwner {
		return errResult(corerr.New("team.tools", "complete", corerr.ValidationFailed, "task "+taskID+" is not claimed by "+t.owner, nil))
	}

	if err := t.team.Board().Complete(taskID, result); err != nil {
		return errResult(err)
	}
	return tool.Result{State: tool.StateOutputAvailable, Output: "completed " + taskID}, nil
}

// ============================================================================
// team_status
// ============================================================================

type StatusTool struct {
	owner string
	team  Coordinator
}

func (t *StatusTool) Name() string        { return "team_status" }
func (t *StatusTool) Description() string { return "Report the team's current phase and task board." }
func (t *StatusTool) Timeout() time.Duration      { return 5 * time.Second }
func (t *StatusTool) Durability() tool.Durability { return tool.Durability{Enabled: true, Independent: true, RetryCount: 2} }
func (t *StatusTool) InputSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (t *StatusTool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	summary := map[string]any{
		"phase":   string(t.team.Phase()),
		"members": t.team.MemberNames(),
		"tasks":   t.team.Board().Snapshot(),
	}
	out, err := json.Marshal(summary)
	if err != nil {
		return errResult(err)
	}
	return tool.Result{State: tool.StateOutputAvailable, Output: string(out)}, nil
}
