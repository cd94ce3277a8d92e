// Package chatpod is a minimal conversational agent: it assembles the recent history of a
// session, asks a language model for the next response and records the exchange.
package chatpod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"gorm.io/datatypes"
)

// Responder produces the agent response to one user message of a session.
type Responder interface {
	Respond(ctx context.Context, session *Session, userMessage string) (string, error)
}

var _ Responder = &Agent{}

// Agent runs one turn at a time: assemble the context, complete it, record the turn.
type Agent struct {
	assembler    *ContextAssembler
	llm          Completer
	turns        ConversationStore
	historyLimit int

	knowledge          *KnowledgeBase
	knowledgeThreshold float64

	logger *slog.Logger
}

func NewAgent(assembler *ContextAssembler, llm Completer, turns ConversationStore, historyLimit int) *Agent {
	return &Agent{
		assembler:    assembler,
		llm:          llm,
		turns:        turns,
		historyLimit: historyLimit,
		logger:       slog.Default(),
	}
}

// WithKnowledge makes the agent look up the nearest stored fact for every user message
// and render it into the system prompt when it is within threshold.
func (a *Agent) WithKnowledge(kb *KnowledgeBase, threshold float64) *Agent {
	a.knowledge = kb
	a.knowledgeThreshold = threshold
	return a
}

func (a *Agent) GetLogger() *slog.Logger {
	return a.logger
}

func (a *Agent) SetLogger(logger *slog.Logger) {
	a.logger = logger
}

// Respond returns the model response to userMessage. A *CompletionError means the model
// call failed and nothing was stored. An error matching ErrTurnNotRecorded comes with a
// valid response that could not be persisted.
func (a *Agent) Respond(ctx context.Context, session *Session, userMessage string) (string, error) {
	ctx = session.Context(ctx)

	knowledge := a.lookupKnowledge(ctx, userMessage)
	messages, err := a.assembler.Assemble(ctx, ContextRequest{
		SessionID:   session.ID(),
		UserMessage: userMessage,
		Limit:       a.historyLimit,
		Knowledge:   knowledge,
	})
	if err != nil {
		return "", err
	}

	completion, err := a.llm.Complete(ctx, messages)
	if err != nil {
		var completionErr *CompletionError
		if !errors.As(err, &completionErr) {
			err = &CompletionError{Err: err}
		}
		a.logger.Error("An error occurred", "sessionID", session.ID(), "error", err)
		return "", err
	}

	metadata := datatypes.JSONMap{
		"turn_id":           gonanoid.Must(),
		"model":             completion.Model,
		"prompt_tokens":     completion.Usage.PromptTokens,
		"completion_tokens": completion.Usage.CompletionTokens,
	}
	if cost := session.addUsage(completion.Model, completion.Usage); cost != nil {
		metadata["cost_usd"] = cost.TotalCost
	}
	if len(knowledge) > 0 {
		keys := make([]string, 0, len(knowledge))
		for key := range knowledge {
			keys = append(keys, key)
		}
		metadata["knowledge_keys"] = keys
	}

	turn := &ConversationTurn{
		SessionID:     session.ID(),
		UserMessage:   userMessage,
		AgentResponse: completion.Text,
		Metadata:      metadata,
	}
	if err := a.turns.RecordTurn(ctx, turn); err != nil {
		if !errors.Is(err, ErrTurnNotRecorded) {
			err = fmt.Errorf("%w: %w", ErrTurnNotRecorded, err)
		}
		a.logger.Error("Error storing conversation", "sessionID", session.ID(), "error", err)
		return completion.Text, err
	}

	a.logger.Debug("turn recorded", "sessionID", session.ID(), "turnID", metadata["turn_id"], "promptTokens", completion.Usage.PromptTokens)
	return completion.Text, nil
}

func (a *Agent) lookupKnowledge(ctx context.Context, userMessage string) map[string]string {
	if a.knowledge == nil {
		return nil
	}
	match, err := a.knowledge.Query(ctx, userMessage, a.knowledgeThreshold)
	if err != nil {
		if !errors.Is(err, ErrNoMatch) {
			a.logger.Warn("knowledge lookup failed", "error", err)
		}
		return nil
	}
	return map[string]string{match.Entry.Key: match.Entry.Value}
}
