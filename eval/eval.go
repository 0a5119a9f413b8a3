// Package eval implements the eval runner (component I): bounded-
// concurrency execution of named cases against one agent, each case
// judged by a set of assertions against its run result.
package eval

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/relaylabs/agentloop/agent"
	"github.com/relaylabs/agentloop/telemetry"
)

// Assertion judges one completed run. Name identifies it in a case's
// failure report.
type Assertion struct {
	Name  string
	Check func(res *agent.RunResult) error
}

// Case is one prompt to run and the assertions its result must satisfy.
type Case struct {
	Name       string
	Prompt     string
	Assertions []Assertion
}

// CaseResult is one case's outcome.
type CaseResult struct {
	Name     string
	Passed   bool
	TimedOut bool
	Duration time.Duration
	Failures []string
	Result   *agent.RunResult
}

// SuiteResult aggregates every case in a run.
type SuiteResult struct {
	Name     string
	Total    int
	Passed   int
	Failed   int
	Duration time.Duration
	Cases    []CaseResult
}

// Suite runs a fixed case list against one agent under a concurrency cap.
type Suite struct {
	Name           string
	Agent          *agent.Agent
	Cases          []Case
	MaxConcurrency int
	CaseTimeout    time.Duration
	Metrics        *telemetry.Metrics
}

// NewSuite builds a Suite, defaulting MaxConcurrency to 1 and CaseTimeout
// to 30s when unset (mirrors config.EvalSuiteConfig.SetDefaults).
func NewSuite(name string, a *agent.Agent, cases []Case, maxConcurrency int, caseTimeout time.Duration, metrics *telemetry.Metrics) *Suite {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	if caseTimeout <= 0 {
		caseTimeout = 30 * time.Second
	}
	return &Suite{Name: name, Agent: a, Cases: cases, MaxConcurrency: maxConcurrency, CaseTimeout: caseTimeout, Metrics: metrics}
}

// Run executes every case, honoring MaxConcurrency, and returns the
// aggregate result.
func (s *Suite) Run(ctx context.Context) SuiteResult {
	start := time.Now()
	results := make([]CaseResult, len(s.Cases))
	sem := semaphore.NewWeighted(int64(s.MaxConcurrency))

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range s.Cases {
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = CaseResult{Name: s.Cases[i].Name, Failures: []string{err.Error()}}
				continue
			}
			i := i
			go func() {
				defer sem.Release(1)
				results[i] = s.runCase(ctx, s.Cases[i])
			}()
		}
		_ = sem.Acquire(ctx, int64(s.MaxConcurrency))
	}()
	<-done

	out := SuiteResult{Name: s.Name, Total: len(results), Duration: time.Since(start), Cases: results}
	for _, r := range results {
		if r.Passed {
			out.Passed++
		} else {
			out.Failed++
		}
		if s.Metrics != nil {
			outcome := "pass"
			if !r.Passed {
				outcome = "fail"
			}
			s.Metrics.EvalResults.WithLabelValues(s.Name, outcome).Inc()
		}
	}
	return out
}

func (s *Suite) runCase(ctx context.Context, c Case) CaseResult {
	start := time.Now()
	caseCtx, cancel := context.WithTimeout(ctx, s.CaseTimeout)
	defer cancel()

	type outcome struct {
		res *agent.RunResult
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		res, err := s.Agent.Generate(caseCtx, c.Prompt)
		ch <- outcome{res: res, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil {
			return CaseResult{Name: c.Name, Duration: time.Since(start), Failures: []string{o.err.Error()}}
		}
		var failures []string
		for _, a := range c.Assertions {
			if err := a.Check(o.res); err != nil {
				failures = append(failures, fmt.Sprintf("%s: %s", a.Name, err.Error()))
			}
		}
		return CaseResult{Name: c.Name, Passed: len(failures) == 0, Duration: time.Since(start), Failures: failures, Result: o.res}
	case <-caseCtx.Done():
		return CaseResult{Name: c.Name, TimedOut: true, Duration: time.Since(start), Failures: []string{"timed out"}}
	}
}
