// Package shelltool implements the safe shell tool (component C.1): runs a
// command through the system shell after rejecting destructive patterns
// and interactive commands that would hang waiting on a tty.
package shelltool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/relaylabs/agentloop/corerr"
	"github.com/relaylabs/agentloop/tool"
)

// blocklist rejects commands with catastrophic or irreversible effects
// before they ever reach exec.Command.
var blocklist = []*regexp.Regexp{
	regexp.MustCompile(`rm\s+-rf\s+/(\s|$)`),
	regexp.MustCompile(`rm\s+-rf\s+~(\s|$)`),
	regexp.MustCompile(`>\s*/dev/sd[a-z]`),
	regexp.MustCompile(`\bmkfs\b`),
	regexp.MustCompile(`\bdd\s+if=`),
	regexp.MustCompile(`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;\s*:`), // fork bomb
	regexp.MustCompile(`\bsudo\b`),
	regexp.MustCompile(`\bsu\b`),
	regexp.MustCompile(`\b(shutdown|reboot|halt|poweroff)\b`),
	regexp.MustCompile(`(curl|wget)[^|]*\|\s*(sh|bash|zsh)\b`),
	regexp.MustCompile(`\beval\b`),
	regexp.MustCompile(`chmod\s+(777|755)\b`),
}

// interactiveCommands would block forever waiting on a terminal; they are
// rejected rather than run with a dumb terminal, since there is nothing on
// the other end to drive them.
var interactiveCommands = map[string]bool{
	"vi": true, "vim": true, "nvim": true, "nano": true, "emacs": true,
	"pico": true, "htop": true, "top": true, "less": true, "more": true,
	"man": true, "screen": true, "tmux": true, "ssh": true, "telnet": true,
	"ftp": true,
}

func firstWord(command string) string {
	fields := strings.FieldsFunc(command, func(r rune) bool {
		return r == '|' || r == '>' || r == '<' || r == ';' || r == '&'
	})
	if len(fields) == 0 {
		return ""
	}
	parts := strings.Fields(strings.TrimSpace(fields[0]))
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func validate(command string) error {
	for _, re := range blocklist {
		if re.MatchString(command) {
			return corerr.New("tool.shell", "validate", corerr.CommandBlocked,
				fmt.Sprintf("command matches blocked pattern %q", re.String()), nil)
		}
	}
	if interactiveCommands[firstWord(command)] {
		return corerr.New("tool.shell", "validate", corerr.InteractiveUnsupported,
			fmt.Sprintf("%q requires an interactive terminal and is not supported", firstWord(command)), nil)
	}
	return nil
}

// Args is the JSON Schema-backed input for run_shell_command.
type Args struct {
	Command    string `json:"command" jsonschema:"required,description=Shell command to execute"`
	WorkingDir string `json:"working_dir,omitempty" jsonschema:"description=Working directory (defaults to the tool's configured directory)"`
}

type Tool struct {
	workingDir string
	timeout    time.Duration
	grace      time.Duration
}

func New(workingDir string, timeout, grace time.Duration) *Tool {
	if workingDir == "" {
		workingDir = "."
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if grace == 0 {
		grace = 3 * time.Second
	}
	return &Tool{workingDir: workingDir, timeout: timeout, grace: grace}
}

func (t *Tool) Name() string        { return "run_shell_command" }
func (t *Tool) Description() string { return "Run a shell command and return its exit code, stdout, and stderr." }
func (t *Tool) Timeout() time.Duration { return t.timeout }
func (t *Tool) Durability() tool.Durability { return tool.Durability{Independent: false} }

func (t *Tool) InputSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"command":     map[string]any{"type": "string", "description": "Shell command to execute"},
			"working_dir": map[string]any{"type": "string", "description": "Working directory"},
		},
		"required": []string{"command"},
	}
}

func (t *Tool) Execute(ctx context.Context, args map[string]any) (tool.Result, error) {
	started := time.Now()
	command, _ := args["command"].(string)
	if command == "" {
		return errResult("command parameter is required", started), nil
	}
	if err := validate(command); err != nil {
		return errResult(errMessage(err), started), nil
	}

	workingDir, _ := args["working_dir"].(string)
	if workingDir == "" {
		workingDir = t.workingDir
	}

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = workingDir
	cmd.Env = append(cmd.Env, "TERM=dumb")
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return errResult(fmt.Sprintf("failed to start command: %v", err), started), nil
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var runErr error
	select {
	case runErr = <-done:
	case <-ctx.Done():
		terminateGroup(cmd, t.grace)
		<-done
		return errResult("command cancelled", started), nil
	}

	durationMs := time.Since(started).Milliseconds()
	exitCode := 0
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		exitCode = exitErr.ExitCode()
	} else if runErr != nil {
		return errResult(fmt.Sprintf("command execution failed: %v", runErr), started), nil
	}

	status := "success"
	if exitCode != 0 {
		status = "failed"
	}

	return tool.Result{
		State: tool.StateOutputAvailable,
		Output: toJSON(map[string]any{
			"success":    true,
			"exitCode":   exitCode,
			"stdout":     stdout.String(),
			"stderr":     stderr.String(),
			"durationMs": durationMs,
			"status":     status,
		}),
		StartedAt:  started,
		FinishedAt: time.Now(),
		DataParts: []tool.DataPart{{
			Type: "shell-output",
			Payload: map[string]any{
				"command":     command,
				"working_dir": workingDir,
			},
		}},
	}, nil
}

// terminateGroup sends SIGTERM to the process group, then SIGKILL if it is
// still alive after grace.
func terminateGroup(cmd *exec.Cmd, grace time.Duration) {
	if cmd.Process == nil {
		return
	}
	pgid := -cmd.Process.Pid
	_ = syscall.Kill(pgid, syscall.SIGTERM)
	timer := time.NewTimer(grace)
	defer timer.Stop()
	<-timer.C
	_ = syscall.Kill(pgid, syscall.SIGKILL)
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
		panic(fmt.Sprintf("tool.shell: payload not json-marshalable: %v", err))
	}
	return string(b)
}
