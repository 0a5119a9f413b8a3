// Package limits implements the usage-limit guard (component J): an
// ordered check over a run's accumulated usage, raising the first limit
// that is violated.
package limits

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"

	"github.com/relaylabs/agentloop/config"
	"github.com/relaylabs/agentloop/corerr"
)

// Totals is the additive usage accumulated across all steps of a run. A
// step whose provider usage was unreported contributes zero to each field
// (never estimated here — estimation is the caller's responsibility, see
// utils.EstimateTokens).
type Totals struct {
	Requests     int
	InputTokens  int
	OutputTokens int
}

func (t Totals) TotalTokens() int { return t.InputTokens + t.OutputTokens }

// Guard checks Totals against a configured UsageLimits in declaration
// order (maxRequests, maxInputTokens, maxOutputTokens, maxTotalTokens) so
// the first violated limit is the one reported. An empty UsageLimits never
// stops a run.
type Guard struct {
	limits config.UsageLimits

	requests     metric.Int64UpDownCounter
	inputTokens  metric.Int64UpDownCounter
	outputTokens metric.Int64UpDownCounter
}

func NewGuard(l config.UsageLimits, meter metric.Meter) (*Guard, error) {
	g := &Guard{limits: l}
	if meter == nil {
		return g, nil
	}
	var err error
	if g.requests, err = meter.Int64UpDownCounter("agentloop.run.requests"); err != nil {
		return nil, fmt.Errorf("create requests counter: %w", err)
	}
	if g.inputTokens, err = meter.Int64UpDownCounter("agentloop.run.input_tokens"); err != nil {
		return nil, fmt.Errorf("create input tokens counter: %w", err)
	}
	if g.outputTokens, err = meter.Int64UpDownCounter("agentloop.run.output_tokens"); err != nil {
		return nil, fmt.Errorf("create output tokens counter: %w", err)
	}
	return g, nil
}

// Record adds one step's usage to running totals and emits it to the
// configured OTel meter, if any.
func (g *Guard) Record(ctx context.Context, totals *Totals, requests, inputTokens, outputTokens int) {
	totals.Requests += requests
	totals.InputTokens += inputTokens
	totals.OutputTokens += outputTokens

	if g.requests != nil {
		g.requests.Add(ctx, int64(requests))
		g.inputTokens.Add(ctx, int64(inputTokens))
		g.outputTokens.Add(ctx, int64(outputTokens))
	}
}

// Check returns a corerr.UsageLimitExceeded error naming the first limit
// (in declaration order) that totals has crossed, or nil if none has.
// MaxRequests trips as soon as the count reaches the limit (a run that
// has made exactly maxRequests calls must not be allowed to start
// another step); the token-based limits only trip once actually
// exceeded, since a step's usage is reported after it runs.
func (g *Guard) Check(totals Totals) error {
	l := g.limits
	switch {
	case l.MaxRequests > 0 && totals.Requests >= l.MaxRequests:
		return limitErr("max_requests", l.MaxRequests, totals.Requests)
	case l.MaxInputTokens > 0 && totals.InputTokens > l.MaxInputTokens:
		return limitErr("max_input_tokens", l.MaxInputTokens, totals.InputTokens)
	case l.MaxOutputTokens > 0 && totals.OutputTokens > l.MaxOutputTokens:
		return limitErr("max_output_tokens", l.MaxOutputTokens, totals.OutputTokens)
	case l.MaxTotalTokens > 0 && totals.TotalTokens() > l.MaxTotalTokens:
		return limitErr("max_total_tokens", l.MaxTotalTokens, totals.TotalTokens())
	}
	return nil
}

func limitErr(name string, limit, actual int) error {
	return corerr.New("limits", "check", corerr.UsageLimitExceeded,
		fmt.Sprintf("%s exceeded: limit %d, actual %d", name, limit, actual), nil)
}
