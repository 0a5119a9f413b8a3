package limits

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/relaylabs/agentloop/config"
)

func newGuard(t *testing.T, l config.UsageLimits) *Guard {
	t.Helper()
	meter := noop.NewMeterProvider().Meter("test")
	g, err := NewGuard(l, meter)
	require.NoError(t, err)
	return g
}

func TestGuard_ZeroLimitsNeverTrip(t *testing.T) {
	g := newGuard(t, config.UsageLimits{})
	assert.NoError(t, g.Check(Totals{Requests: 1000, InputTokens: 1000000, OutputTokens: 1000000}))
}

func TestGuard_NilMeterIsAccepted(t *testing.T) {
	g, err := NewGuard(config.UsageLimits{MaxRequests: 2}, nil)
	require.NoError(t, err)
	assert.NoError(t, g.Check(Totals{Requests: 1}))
}

func TestGuard_Check_MaxRequests_TripsOnReachingLimit(t *testing.T) {
	g := newGuard(t, config.UsageLimits{MaxRequests: 1})
	assert.NoError(t, g.Check(Totals{Requests: 0}), "below the limit must not trip")
	assert.Error(t, g.Check(Totals{Requests: 1}), "reaching the limit must trip: a run that made maxRequests calls may not start another step")
}

func TestGuard_Check_TokenLimits_TripOnlyOnceExceeded(t *testing.T) {
	g := newGuard(t, config.UsageLimits{MaxInputTokens: 10})
	assert.NoError(t, g.Check(Totals{InputTokens: 10}), "token limits report usage after a step runs, so reaching the limit is not yet a violation")
	assert.Error(t, g.Check(Totals{InputTokens: 11}))
}

func TestGuard_Check_FirstViolationInDeclarationOrderWins(t *testing.T) {
	g := newGuard(t, config.UsageLimits{MaxRequests: 1, MaxInputTokens: 1})
	err := g.Check(Totals{Requests: 5, InputTokens: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_requests")
}

func TestGuard_Check_ChecksEachFieldIndependently(t *testing.T) {
	g := newGuard(t, config.UsageLimits{MaxOutputTokens: 10})
	assert.NoError(t, g.Check(Totals{InputTokens: 1000}))
	assert.Error(t, g.Check(Totals{OutputTokens: 11}))
}

func TestGuard_Check_MaxTotalTokens(t *testing.T) {
	g := newGuard(t, config.UsageLimits{MaxTotalTokens: 10})
	assert.NoError(t, g.Check(Totals{InputTokens: 5, OutputTokens: 5}))
	assert.Error(t, g.Check(Totals{InputTokens: 6, OutputTokens: 5}))
}

func TestGuard_Record_AccumulatesIntoTotals(t *testing.T) {
	g := newGuard(t, config.UsageLimits{})
	var totals Totals
	g.Record(context.Background(), &totals, 1, 10, 20)
	g.Record(context.Background(), &totals, 1, 5, 5)

	assert.Equal(t, 2, totals.Requests)
	assert.Equal(t, 15, totals.InputTokens)
	assert.Equal(t, 25, totals.OutputTokens)
	assert.Equal(t, 40, totals.TotalTokens())
}
