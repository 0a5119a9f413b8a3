// Package bgtool implements the background-process tool set (component
// C.4): start/status/output/stop/list over detached shell commands,
// each with a rolling output buffer and a single-writer session store.
package bgtool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/relaylabs/agentloop/corerr"
	"github.com/relaylabs/agentloop/tool"
)

const (
	bufferCap       = 1 << 20 // 1 MiB
	bufferTruncTo   = 512 << 10
	outputStdoutCap = 10 << 10
	outputStderrCap = 5 << 10
	stopGrace       = 5 * time.Second
)

type sessionStatus string

const (
	statusRunning  sessionStatus = "running"
	statusExited   sessionStatus = "exited"
	statusStopped  sessionStatus = "stopped"
)

// session is a single detached command and its rolling output buffers.
// Buffers and status are guarded by mu; one writer goroutine (the
// command's own output pump) and any number of readers (status/output
// tool calls) share it.
type session struct {
	mu         sync.Mutex
	id         string
	command    string
	startedAt  time.Time
	cmd        *exec.Cmd
	stdout     bytes.Buffer
	stderr     bytes.Buffer
	status     sessionStatus
	exitCode   int
	hasExit    bool
}

func (s *session) appendStdout(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stdout.Write(p)
	trimRolling(&s.stdout)
}

func (s *session) appendStderr(p []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stderr.Write(p)
	trimRolling(&s.stderr)
}

func trimRolling(buf *bytes.Buffer) {
	if buf.Len() <= bufferCap {
		return
	}
	b := buf.Bytes()
	tail := b[len(b)-bufferTruncTo:]
	kept := make([]byte, len(tail))
	copy(kept, tail)
	buf.Reset()
	buf.Write(kept)
}

// Store is the process-wide session registry. It is guarded by a single
// mutex (single-writer discipline) since sessions must be visible to
// list/status/output regardless of which agent started them.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*session
	logger   hclog.Logger
	validate func(string) error
}

func NewStore(validate func(string) error) *Store {
	return &Store{
		sessions: make(map[string]*session),
		logger:   hclog.New(&hclog.LoggerOptions{Name: "bgtool", Level: hclog.Info}),
		validate: validate,
	}
}

func newSessionID() string {
	const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = alphabet[rand.Intn(len(alphabet))]
	}
	return fmt.Sprintf("bg-%d-%s", time.Now().UnixMilli(), suffix)
}

func (st *Store) start(command, workingDir string) (*session, error) {
	if st.validate != nil {
		if err := st.validate(command); err != nil {
			return nil, err
		}
	}

	id := newSessionID()
	cmd := exec.Command("sh", "-c", command)
	if workingDir != "" {
		cmd.Dir = workingDir
	}
	cmd.Env = append(cmd.Env, "TERM=dumb")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	sess := &session{id: id, command: command, startedAt: time.Now(), cmd: cmd, status: statusRunning}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	go pump(stdoutPipe, sess.appendStdout)
	go pump(stderrPipe, sess.appendStderr)
	go func() {
		err := cmd.Wait()
		sess.mu.Lock()
		sess.hasExit = true
		if sess.status == statusRunning {
			sess.status = statusExited
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			sess.exitCode = exitErr.ExitCode()
		}
		sess.mu.Unlock()
		st.logger.Debug("background session exited", "id", id, "err", err)
	}()

	st.mu.Lock()
	st.sessions[id] = sess
	st.mu.Unlock()

	return sess, nil
}

func pump(r interface{ Read([]byte) (int, error) }, sink func([]byte)) {
	buf := make([]byte, 4096)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			sink(chunk)
		}
		if err != nil {
			return
		}
	}
}

func (st *Store) get(id string) (*session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.sessions[id]
	return s, ok
}

// stop requests termination of the session's process group. alreadyDone
// reports whether the session had already stopped or exited on its own,
// in which case stop is a no-op (idempotent).
func (st *Store) stop(id string) (alreadyDone bool, status sessionStatus, err error) {
	sess, ok := st.get(id)
	if !ok {
		return false, "", corerr.New("tool.bg", "stop", corerr.NotFound, "unknown session "+id, nil)
	}

	sess.mu.Lock()
	current := sess.status
	sess.mu.Unlock()
	if current == statusStopped || current == statusExited {
		return true, current, nil
	}

	if sess.cmd.Process == nil {
		return false, "", nil
	}
	pgid := -sess.cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)
	go func() {
		time.Sleep(stopGrace)
		sess.mu.Lock()
		exited := sess.hasExit
		sess.mu.Unlock()
		if !exited {
			_ = syscall.Kill(pgid, syscall.SIGKILL)
		}
	}()
	sess.mu.Lock()
	sess.status = statusStopped
	sess.mu.Unlock()
	return false, statusStopped, nil
}

// Tool is the single `background_process` entry point; the `action` field
// selects start/status/output/stop/list, mirroring the safe shell tool's
// single-command surface instead of five separate tool registrations.
type Tool struct {
	store      *Store
	workingDir string
}

func New(store *Store, workingDir string) *Tool {
	return &Tool{store: store, workingDir: workingDir}
}

func (t *Tool) Name() string        { return "background_process" }
func (t *Tool) Description() string { return "Start, inspect, and stop long-running background shell commands." }
func (t *Tool) Timeout() time.Duration      { return 10 * time.Second }
func (t *Tool) Durability() tool.Durability { return tool.Durability{Independent: false} }

func (t *Tool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"action":  map[string]any{"type": "string", "enum": []string{"start", "status", "output", "stop", "list"}},
			"command": map[string]any{"type": "string"},
			"id":      map[string]any{"type": "string"},
		},
		"required": []string{"action"},
	}
}

func (t *Tool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()
	action, _ := args["action"].(string)

	switch action {
	case "start":
		command, _ := args["command"].(string)
		sess, err := t.store.start(command, t.workingDir)
		if err != nil {
			return errResult(errMessage(err), started), nil
		}
		return tool.Result{
			State:      tool.StateOutputAvailable,
			Output:     toJSON(map[string]any{"success": true, "id": sess.id}),
			StartedAt:  started,
			FinishedAt: time.Now(),
		}, nil

	case "status":
		id, _ := args["id"].(string)
		sess, ok := t.store.get(id)
		if !ok {
			return errResult("unknown session "+id, started), nil
		}
		sess.mu.Lock()
		status := sess.status
		exitCode := sess.exitCode
		hasExit := sess.hasExit
		runningFor := time.Since(sess.startedAt).String()
		sess.mu.Unlock()
		payload := map[string]any{"success": true, "status": status, "runningFor": runningFor}
		if hasExit {
			payload["exitCode"] = exitCode
		}
		return tool.Result{State: tool.StateOutputAvailable, Output: toJSON(payload), StartedAt: started, FinishedAt: time.Now()}, nil

	case "output":
		id, _ := args["id"].(string)
		sess, ok := t.store.get(id)
		if !ok {
			return errResult("unknown session "+id, started), nil
		}
		sess.mu.Lock()
		stdout := tailBytes(sess.stdout.Bytes(), outputStdoutCap)
		stderr := tailBytes(sess.stderr.Bytes(), outputStderrCap)
		sess.mu.Unlock()
		return tool.Result{
			State:      tool.StateOutputAvailable,
			Output:     toJSON(map[string]any{"success": true, "stdout": string(stdout), "stderr": string(stderr)}),
			StartedAt:  started,
			FinishedAt: time.Now(),
		}, nil

	case "stop":
		id, _ := args["id"].(string)
		alreadyDone, status, err := t.store.stop(id)
		if err != nil {
			return errResult(errMessage(err), started), nil
		}
		if alreadyDone {
			return tool.Result{
				State:      tool.StateOutputAvailable,
				Output:     toJSON(map[string]any{"success": true, "message": fmt.Sprintf("Session already %s", status)}),
				StartedAt:  started, FinishedAt: time.Now(),
			}, nil
		}
		return tool.Result{
			State:      tool.StateOutputAvailable,
			Output:     toJSON(map[string]any{"success": true, "message": "stop requested for " + id}),
			StartedAt:  started, FinishedAt: time.Now(),
		}, nil

	case "list":
		t.store.mu.Lock()
		sessions := make([]map[string]any, 0, len(t.store.sessions))
		for id, sess := range t.store.sessions {
			sess.mu.Lock()
			cmd := sess.command
			if len(cmd) > 60 {
				cmd = cmd[:60] + "..."
			}
			sessions = append(sessions, map[string]any{"id": id, "status": sess.status, "command": cmd})
			sess.mu.Unlock()
		}
		t.store.mu.Unlock()
		return tool.Result{
			State:      tool.StateOutputAvailable,
			Output:     toJSON(map[string]any{"success": true, "sessions": sessions}),
			StartedAt:  started, FinishedAt: time.Now(),
		}, nil

	default:
		return errResult("unknown action "+action, started), nil
	}
}

func tailBytes(b []byte, cap int) []byte {
	if len(b) <= cap {
		return b
	}
	return b[len(b)-cap:]
}

func errResult(msg string, started time.Time) tool.Result {
	return tool.Result{
		State:      tool.StateOutputError,
		Error:      msg,
		Output:     toJSON(map[string]any{"success": false, "error": msg}),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
}

// errMessage returns the bare message of a classified error, not its
// component/operation/category-prefixed Error() string.
func errMessage(err error) string {
	var ce *corerr.CoreError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}

func toJSON(payload map[string]any) string {
	b, err := json.Marshal(payload)
	if err != nil {
		panic(fmt.Sprintf("tool.bg: payload not json-marshalable: %v", err))
	}
	return string(b)
}
