// Package reasoningtool implements the deep-reasoning tool (component
// C.3): a scratchpad the model uses to record numbered thoughts,
// optionally revising or branching earlier ones, with a bounded
// rolling history.
package reasoningtool

import (
	"context"
	"sync"
	"time"

	"github.com/relaylabs/agentloop/tool"
)

const defaultMaxHistory = 50

// thought is one recorded entry in the scratchpad.
type thought struct {
	Text              string
	ThoughtNumber     int
	IsRevision        bool
	RevisesThought    int
	BranchFromThought int
	BranchID          string
}

// Tool is stateful per agent instance: history and branches are owned by
// one Tool, never shared across agents (module-level mutable state in the
// teacher's reasoning engine is replaced here with explicit ownership).
type Tool struct {
	mu         sync.Mutex
	maxHistory int
	history    []thought
	branches   map[string][]thought
	totals     int
}

func New() *Tool {
	return &Tool{maxHistory: defaultMaxHistory, branches: make(map[string][]thought)}
}

func (t *Tool) Name() string        { return "deep_reasoning" }
func (t *Tool) Description() string { return "Record a step of structured, revisable reasoning before acting." }
func (t *Tool) Timeout() time.Duration      { return 5 * time.Second }
func (t *Tool) Durability() tool.Durability { return tool.Durability{Independent: false} }

func (t *Tool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"thought":            map[string]any{"type": "string"},
			"thoughtNumber":      map[string]any{"type": "integer"},
			"totalThoughts":      map[string]any{"type": "integer"},
			"nextThoughtNeeded":  map[string]any{"type": "boolean"},
			"isRevision":         map[string]any{"type": "boolean"},
			"revisesThought":     map[string]any{"type": "integer"},
			"branchFromThought":  map[string]any{"type": "integer"},
			"branchId":           map[string]any{"type": "string"},
		},
		"required": []string{"thought", "thoughtNumber", "totalThoughts", "nextThoughtNeeded"},
	}
}

func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

func (t *Tool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()

	text, _ := args["thought"].(string)
	thoughtNumber := intArg(args, "thoughtNumber")
	totalThoughts := intArg(args, "totalThoughts")
	nextNeeded, _ := args["nextThoughtNeeded"].(bool)
	isRevision, _ := args["isRevision"].(bool)
	revisesThought := intArg(args, "revisesThought")
	branchFromThought := intArg(args, "branchFromThought")
	branchID, _ := args["branchId"].(string)

	if thoughtNumber > totalThoughts {
		totalThoughts = thoughtNumber
	}

	entry := thought{
		Text: text, ThoughtNumber: thoughtNumber, IsRevision: isRevision,
		RevisesThought: revisesThought, BranchFromThought: branchFromThought, BranchID: branchID,
	}

	t.mu.Lock()
	t.totals = totalThoughts
	if branchID != "" {
		b := t.branches[branchID]
		b = append(b, entry)
		t.branches[branchID] = b
	} else {
		t.history = append(t.history, entry)
		if len(t.history) > t.maxHistory {
			t.history = t.history[len(t.history)-t.maxHistory:]
		}
	}
	historyLength := len(t.history)
	branchNames := make([]string, 0, len(t.branches))
	for name := range t.branches {
		branchNames = append(branchNames, name)
	}
	t.mu.Unlock()

	return tool.Result{
		State:      tool.StateOutputAvailable,
		Output:     "thought recorded",
		StartedAt:  started,
		FinishedAt: time.Now(),
		DataParts: []tool.DataPart{{
			Type: "reasoning-step",
			Payload: map[string]any{
				"thoughtNumber":     thoughtNumber,
				"totalThoughts":     totalThoughts,
				"nextThoughtNeeded": nextNeeded,
				"branches":          branchNames,
				"historyLength":     historyLength,
			},
		}},
	}, nil
}
