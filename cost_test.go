package chatpod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateCost(t *testing.T) {
	cost, ok := EstimateCost("gpt-4o-mini", Usage{PromptTokens: 1000000, CompletionTokens: 1000000})
	require.True(t, ok)
	assert.InDelta(t, GPT4oMiniInputRate+GPT4oMiniOutputRate, cost.TotalCost, 1e-9)

	cost, ok = EstimateCost("gpt-4o-mini-2024-07-18", Usage{PromptTokens: 1000000})
	require.True(t, ok)
	assert.InDelta(t, GPT4oMiniInputRate, cost.TotalCost, 1e-9)

	cost, ok = EstimateCost("gpt-4o-2024-08-06", Usage{CompletionTokens: 1000000})
	require.True(t, ok)
	assert.InDelta(t, GPT4oOutputRate, cost.TotalCost, 1e-9)

	_, ok = EstimateCost("llama-3", Usage{PromptTokens: 10})
	assert.False(t, ok)
}

func TestSessionCost(t *testing.T) {
	session := NewSession()
	assert.NotEmpty(t, session.ID())

	session.addUsage("gpt-4o-mini", Usage{PromptTokens: 1000000})
	session.addUsage("gpt-4o-mini", Usage{CompletionTokens: 1000000})
	cost, ok := session.Cost()
	require.True(t, ok)
	assert.Equal(t, int64(1000000), cost.InputTokens)
	assert.Equal(t, int64(1000000), cost.OutputTokens)
	assert.InDelta(t, GPT4oMiniInputRate+GPT4oMiniOutputRate, cost.TotalCost, 1e-9)

	session.addUsage("llama-3", Usage{PromptTokens: 5})
	_, ok = session.Cost()
	assert.False(t, ok)
}

func TestSessionSummaryAttrs(t *testing.T) {
	session := NewSessionWithID("s1")
	session.addUsage("gpt-4o-mini", Usage{PromptTokens: 10, CompletionTokens: 5})
	assert.Equal(t, []any{
		"sessionID", "s1",
		"inputTokens", int64(10),
		"outputTokens", int64(5),
		"costUSD", session.accumulatedCost,
	}, session.SummaryAttrs())

	// totals are still reported when a turn had no pricing
	unpriced := NewSessionWithID("s2")
	unpriced.addUsage("llama-3", Usage{PromptTokens: 7, CompletionTokens: 3})
	assert.Equal(t, []any{
		"sessionID", "s2",
		"inputTokens", int64(7),
		"outputTokens", int64(3),
		"unpricedTurns", 1,
	}, unpriced.SummaryAttrs())
}
