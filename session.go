package chatpod

import (
	"context"

	"github.com/google/uuid"
)

// Session groups the turns of one interactive run and accumulates what they cost.
type Session struct {
	id string

	accumulatedInputTokens  int64
	accumulatedOutputTokens int64
	accumulatedCost         float64
	unpricedTurns           int
}

// NewSession starts a session with a random UUID.
func NewSession() *Session {
	return NewSessionWithID(uuid.NewString())
}

// NewSessionWithID resumes the session with the given identifier.
func NewSessionWithID(id string) *Session {
	return &Session{id: id}
}

func (s *Session) ID() string {
	return s.id
}

// Context tags ctx with the session id so outgoing LLM requests carry it.
func (s *Session) Context(ctx context.Context) context.Context {
	return context.WithValue(ctx, ContextKey("sessionID"), s.id)
}

func (s *Session) addUsage(model string, usage Usage) *CostDetails {
	s.accumulatedInputTokens += usage.PromptTokens
	s.accumulatedOutputTokens += usage.CompletionTokens
	cost, ok := EstimateCost(model, usage)
	if !ok {
		s.unpricedTurns++
		return nil
	}
	s.accumulatedCost += cost.TotalCost
	return cost
}

// Cost returns the accumulated cost of the session. The bool is false when some turn
// used a model without known pricing, in which case TotalCost undercounts.
func (s *Session) Cost() (*CostDetails, bool) {
	return &CostDetails{
		InputTokens:  s.accumulatedInputTokens,
		OutputTokens: s.accumulatedOutputTokens,
		TotalCost:    s.accumulatedCost,
	}, s.unpricedTurns == 0
}

// SummaryAttrs returns the session totals as slog attributes. costUSD is only included
// when every turn was priced.
func (s *Session) SummaryAttrs() []any {
	cost, priced := s.Cost()
	attrs := []any{
		"sessionID", s.id,
		"inputTokens", cost.InputTokens,
		"outputTokens", cost.OutputTokens,
	}
	if priced {
		attrs = append(attrs, "costUSD", cost.TotalCost)
	} else {
		attrs = append(attrs, "unpricedTurns", s.unpricedTurns)
	}
	return attrs
}
