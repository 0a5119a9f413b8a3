package eval

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relaylabs/agentloop/agent"
)

func toolCallCount(res *agent.RunResult, name string) int {
	n := 0
	for _, step := range res.Steps {
		for _, call := range step.ToolCalls {
			if call.ToolName == name {
				n++
			}
		}
	}
	return n
}

// ToolCalled asserts the named tool was invoked at least once.
func ToolCalled(name string) Assertion {
	return Assertion{
		Name: "toolCalled(" + name + ")",
		Check: func(res *agent.RunResult) error {
			if toolCallCount(res, name) == 0 {
				return fmt.Errorf("tool %q was never called", name)
			}
			return nil
		},
	}
}

// NoToolCalled asserts the named tool was never invoked.
func NoToolCalled(name string) Assertion {
	return Assertion{
		Name: "noToolCalled(" + name + ")",
		Check: func(res *agent.RunResult) error {
			if n := toolCallCount(res, name); n > 0 {
				return fmt.Errorf("tool %q was called %d time(s)", name, n)
			}
			return nil
		},
	}
}

// ToolCalledTimes asserts the named tool was invoked exactly n times.
func ToolCalledTimes(name string, n int) Assertion {
	return Assertion{
		Name: fmt.Sprintf("toolCalledTimes(%s, %d)", name, n),
		Check: func(res *agent.RunResult) error {
			if got := toolCallCount(res, name); got != n {
				return fmt.Errorf("tool %q was called %d time(s), want %d", name, got, n)
			}
			return nil
		},
	}
}

// OutputMatches asserts the run's final text matches pattern.
func OutputMatches(pattern string) Assertion {
	re := regexp.MustCompile(pattern)
	return Assertion{
		Name: "outputMatches(" + pattern + ")",
		Check: func(res *agent.RunResult) error {
			if !re.MatchString(res.Text) {
				return fmt.Errorf("output does not match %q", pattern)
			}
			return nil
		},
	}
}

// OutputContains asserts the run's final text contains substring.
func OutputContains(substring string) Assertion {
	return Assertion{
		Name: "outputContains(" + substring + ")",
		Check: func(res *agent.RunResult) error {
			if !strings.Contains(res.Text, substring) {
				return fmt.Errorf("output does not contain %q", substring)
			}
			return nil
		},
	}
}

// StepCount asserts the run took between min and max steps inclusive. A
// zero max means no upper bound.
func StepCount(min, max int) Assertion {
	return Assertion{
		Name: fmt.Sprintf("stepCount(%d, %d)", min, max),
		Check: func(res *agent.RunResult) error {
			n := len(res.Steps)
			if n < min {
				return fmt.Errorf("ran %d step(s), want at least %d", n, min)
			}
			if max > 0 && n > max {
				return fmt.Errorf("ran %d step(s), want at most %d", n, max)
			}
			return nil
		},
	}
}

// TokenUsage asserts the run's total token usage did not exceed maxTotal.
func TokenUsage(maxTotal int) Assertion {
	return Assertion{
		Name: fmt.Sprintf("tokenUsage(%d)", maxTotal),
		Check: func(res *agent.RunResult) error {
			if total := res.TotalUsage.TotalTokens(); total > maxTotal {
				return fmt.Errorf("used %d total tokens, want at most %d", total, maxTotal)
			}
			return nil
		},
	}
}

// Custom wraps an arbitrary caller-supplied check as a named assertion.
func Custom(name string, fn func(res *agent.RunResult) error) Assertion {
	return Assertion{Name: name, Check: fn}
}
