// Package team implements the team coordinator (component H): a lead
// agent, a set of members, a task board, and a mailbox, driven through
// three strictly ordered phases — planning, executing, synthesizing.
package team

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/relaylabs/agentloop/agent"
	"github.com/relaylabs/agentloop/corerr"
)

// Phase is the team's closed lifecycle.
type Phase string

const (
	PhasePlanning     Phase = "planning"
	PhaseExecuting    Phase = "executing"
	PhaseSynthesizing Phase = "synthesizing"
	PhaseCompleted    Phase = "completed"
	PhaseError        Phase = "error"
)

// MemberPhase is a member's per-task lifecycle.
type MemberPhase string

const (
	MemberIdle      MemberPhase = "idle"
	MemberWorking   MemberPhase = "working"
	MemberCompleted MemberPhase = "completed"
)

const defaultMaxRounds = 10

// Synthesize, when provided, replaces the default lead-prompted synthesis
// step.
type Synthesize func(outputs []string) (string, error)

// TaskSpec describes one task to seed the board with at construction.
type TaskSpec struct {
	ID          string
	Description string
	DependsOn   []string
}

// Team coordinates a lead agent and a fixed set of members through
// plan/execute/synthesize.
type Team struct {
	mu sync.Mutex

	name    string
	lead    *agent.Agent
	members map[string]*agent.Agent
	order   []string // member names, registration order, excludes lead

	board        *Board
	mailbox      *Mailbox
	phase        Phase
	memberPhases map[string]MemberPhase
	maxRounds    int
	synthesize   Synthesize

	outputs []string
}

// New builds a Team. lead and every member must already be constructed
// agents (see agent.NewFromConfig); tasks seeds the task board and may be
// empty, which selects prompt-based execution.
func New(name string, lead *agent.Agent, members map[string]*agent.Agent, memberOrder []string, tasks []TaskSpec, maxRounds int, synthesize Synthesize) (*Team, error) {
	if lead == nil {
		return nil, corerr.New("team", "new", corerr.ValidationFailed, "a lead agent is required", nil)
	}
	if len(members) == 0 {
		return nil, corerr.New("team", "new", corerr.ValidationFailed, "at least one member is required", nil)
	}
	if maxRounds <= 0 {
		maxRounds = defaultMaxRounds
	}

	known := make([]string, 0, len(memberOrder)+1)
	known = append(known, lead.Name())
	known = append(known, memberOrder...)

	board := NewBoard()
	for _, t := range tasks {
		if err := board.AddTask(t.ID, t.Description, t.DependsOn); err != nil {
			return nil, err
		}
	}

	phases := make(map[string]MemberPhase, len(memberOrder))
	for _, m := range memberOrder {
		phases[m] = MemberIdle
	}

	return &Team{
		name:         name,
		lead:         lead,
		members:      members,
		order:        memberOrder,
		board:        board,
		mailbox:      NewMailbox(known),
		phase:        PhasePlanning,
		memberPhases: phases,
		maxRounds:    maxRounds,
		synthesize:   synthesize,
	}, nil
}

func (t *Team) Phase() Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.phase
}

func (t *Team) setPhase(p Phase) {
	t.mu.Lock()
	t.phase = p
	t.mu.Unlock()
}

func (t *Team) setMemberPhase(member string, p MemberPhase) {
	t.mu.Lock()
	t.memberPhases[member] = p
	t.mu.Unlock()
}

// Board exposes the task board so member tool implementations (teamtools)
// can enforce the same claim/complete invariants the coordinator uses.
func (t *Team) Board() *Board { return t.board }

// Mailbox exposes the mailbox for the same reason.
func (t *Team) Mailbox() *Mailbox { return t.mailbox }

func (t *Team) MemberNames() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// Run executes the full planning -> executing -> synthesizing pipeline
// for one user prompt and returns the final synthesized text.
func (t *Team) Run(ctx context.Context, prompt string) (string, error) {
	plan, err := t.plan(ctx, prompt)
	if err != nil {
		t.setPhase(PhaseError)
		return "", err
	}

	t.setPhase(PhaseExecuting)
	if len(t.board.Snapshot()) > 0 {
		if err := t.executeTaskBased(ctx, plan, prompt); err != nil {
			t.setPhase(PhaseError)
			return "", err
		}
	} else {
		if err := t.executePromptBased(ctx, plan, prompt); err != nil {
			t.setPhase(PhaseError)
			return "", err
		}
	}

	t.setPhase(PhaseSynthesizing)
	final, err := t.synthesizeOutputs(ctx, prompt)
	if err != nil {
		t.setPhase(PhaseError)
		return "", err
	}

	t.mu.Lock()
	for _, m := range t.order {
		t.memberPhases[m] = MemberCompleted
	}
	t.mu.Unlock()
	t.setPhase(PhaseCompleted)
	return final, nil
}

func (t *Team) plan(ctx context.Context, prompt string) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "User request: %s\n\nTeam members: %s\n", prompt, strings.Join(t.order, ", "))
	if tasks := t.board.Snapshot(); len(tasks) > 0 {
		b.WriteString("Tasks:\n")
		for _, task := range tasks {
			deps := "none"
			if len(task.DependsOn) > 0 {
				deps = strings.Join(task.DependsOn, ", ")
			}
			fmt.Fprintf(&b, "- %s: %s (depends on: %s)\n", task.ID, task.Description, deps)
		}
	}
	b.WriteString("\nProduce a short plan coordinating the team to satisfy the request.")

	res, err := t.lead.Generate(ctx, b.String())
	if err != nil {
		return "", corerr.New("team", "plan", corerr.ExecutionFailed, "lead planning step failed", err)
	}
	return res.Text, nil
}

// executeTaskBased runs bounded round-robin claim/generate/complete over
// the task board until every task completes, maxRounds is hit, or a round
// makes no forward progress (the team-stalled signal).
func (t *Team) executeTaskBased(ctx context.Context, plan, prompt string) error {
	for round := 0; round < t.maxRounds; round++ {
		available := t.board.GetAvailable()
		if len(available) == 0 {
			if t.board.IsAllCompleted() {
				return nil
			}
			return corerr.New("team", "execute", corerr.ExecutionFailed, "team-stalled: no available tasks but board is not complete", nil)
		}

		idle := t.idleMembers()
		if len(idle) == 0 {
			return corerr.New("team", "execute", corerr.ExecutionFailed, "team-stalled: no idle members for available tasks", nil)
		}

		assignments := assignTasks(available, idle)
		if len(assignments) == 0 {
			return corerr.New("team", "execute", corerr.ExecutionFailed, "team-stalled: no forward progress this round", nil)
		}

		var wg sync.WaitGroup
		errs := make([]error, len(assignments))
		for i, a := range assignments {
			wg.Add(1)
			go func(i int, taskID, member string) {
				defer wg.Done()
				errs[i] = t.runTask(ctx, plan, prompt, taskID, member)
			}(i, a.taskID, a.member)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return err
			}
		}

		if t.board.IsAllCompleted() {
			return nil
		}
	}
	if t.board.IsAllCompleted() {
		return nil
	}
	return corerr.New("team", "execute", corerr.ExecutionFailed, fmt.Sprintf("team-stalled: maxRounds (%d) exceeded", t.maxRounds), nil)
}

type assignment struct {
	taskID string
	member string
}

// assignTasks pairs each available task with a distinct idle member,
// claiming order-stable to keep execution deterministic.
func assignTasks(available []Task, idle []string) []assignment {
	n := len(available)
	if len(idle) < n {
		n = len(idle)
	}
	out := make([]assignment, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, assignment{taskID: available[i].ID, member: idle[i]})
	}
	return out
}

func (t *Team) idleMembers() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []string
	for _, m := range t.order {
		if t.memberPhases[m] == MemberIdle {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out
}

func (t *Team) runTask(ctx context.Context, plan, prompt, taskID, member string) error {
	claimed, err := t.board.Claim(taskID, member)
	if err != nil {
		return err
	}
	if !claimed {
		return nil
	}

	t.setMemberPhase(member, MemberWorking)
	defer t.setMemberPhase(member, MemberIdle)

	task := t.taskByID(taskID)
	taskPrompt := fmt.Sprintf("%s\n\nYour task: %s\nContext: %s", plan, task.Description, prompt)

	a, ok := t.members[member]
	if !ok {
		return corerr.New("team", "execute", corerr.NotFound, "unknown member "+member, nil)
	}
	res, err := a.Generate(ctx, taskPrompt)
	if err != nil {
		return corerr.New("team", "execute", corerr.ExecutionFailed, "member "+member+" failed task "+taskID, err)
	}
	return t.board.Complete(taskID, res.Text)
}

func (t *Team) taskByID(id string) Task {
	for _, task := range t.board.Snapshot() {
		if task.ID == id {
			return task
		}
	}
	return Task{ID: id}
}

// executePromptBased runs every non-lead member in parallel with the same
// role-scoped prompt, appending each output in member order.
func (t *Team) executePromptBased(ctx context.Context, plan, prompt string) error {
	outputs := make([]string, len(t.order))
	errs := make([]error, len(t.order))
	var wg sync.WaitGroup
	for i, name := range t.order {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			t.setMemberPhase(name, MemberWorking)
			defer t.setMemberPhase(name, MemberIdle)

			a := t.members[name]
			rolePrompt := fmt.Sprintf("%s\n\nYour role: %s\nTask: %s", plan, a.Role(), prompt)
			res, err := a.Generate(ctx, rolePrompt)
			if err != nil {
				errs[i] = corerr.New("team", "execute", corerr.ExecutionFailed, "member "+name+" failed", err)
				return
			}
			outputs[i] = res.Text
		}(i, name)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	t.mu.Lock()
	t.outputs = append(t.outputs, outputs...)
	t.mu.Unlock()
	return nil
}

func (t *Team) synthesizeOutputs(ctx context.Context, prompt string) (string, error) {
	t.mu.Lock()
	outputs := append([]string(nil), t.outputs...)
	if len(outputs) == 0 {
		for _, task := range t.board.Snapshot() {
			outputs = append(outputs, task.Result)
		}
	}
	t.mu.Unlock()

	if t.synthesize != nil {
		return t.synthesize(outputs)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Original request: %s\n\nMember outputs:\n", prompt)
	for i, o := range outputs {
		fmt.Fprintf(&b, "\n--- Output %d ---\n%s\n", i+1, o)
	}
	b.WriteString("\nSynthesize these into one final answer.")

	res, err := t.lead.Generate(ctx, b.String())
	if err != nil {
		return "", corerr.New("team", "synthesize", corerr.ExecutionFailed, "lead synthesis step failed", err)
	}
	return res.Text, nil
}

// Snapshot is a serialisable audit view of the team's current state.
type Snapshot struct {
	Name         string
	Phase        Phase
	MemberPhases map[string]MemberPhase
	Tasks        []Task
	Messages     []Message
	Outputs      []string
}

func (t *Team) GetPersistedSnapshot() Snapshot {
	t.mu.Lock()
	phases := make(map[string]MemberPhase, len(t.memberPhases))
	for k, v := range t.memberPhases {
		phases[k] = v
	}
	outputs := append([]string(nil), t.outputs...)
	phase := t.phase
	t.mu.Unlock()

	return Snapshot{
		Name:         t.name,
		Phase:        phase,
		MemberPhases: phases,
		Tasks:        t.board.Snapshot(),
		Messages:     t.mailbox.All(),
		Outputs:      outputs,
	}
}
