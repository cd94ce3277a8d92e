package chatpod

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/boat-builder/chatpod/prompts"
)

// ContextRequest describes one context window to assemble.
type ContextRequest struct {
	SessionID   string
	UserMessage string
	// Limit is the maximum number of prior turns to include.
	Limit int
	// Knowledge is rendered into the system prompt when not empty.
	Knowledge map[string]string
}

// ContextAssembler builds the ordered message list sent to the model: the system
// instruction, the most recent turns of the session oldest first, then the new message.
type ContextAssembler struct {
	store ConversationStore
	// maxTokens bounds the assembled prompt when positive. Zero leaves it unbounded.
	maxTokens int
	counter   TokenCounter
	logger    *slog.Logger
}

func NewContextAssembler(store ConversationStore) *ContextAssembler {
	return &ContextAssembler{
		store:  store,
		logger: slog.Default(),
	}
}

// WithTokenBudget drops the oldest turns until the estimated prompt size fits maxTokens.
func (a *ContextAssembler) WithTokenBudget(maxTokens int, counter TokenCounter) *ContextAssembler {
	a.maxTokens = maxTokens
	a.counter = counter
	return a
}

func (a *ContextAssembler) SetLogger(logger *slog.Logger) {
	a.logger = logger
}

func (a *ContextAssembler) Assemble(ctx context.Context, req ContextRequest) (*MessageList, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("%w: negative history limit %d", ErrInvalidInput, req.Limit)
	}

	systemPrompt, err := prompts.System(prompts.SystemData{Knowledge: req.Knowledge})
	if err != nil {
		return nil, fmt.Errorf("failed to render system prompt: %w", err)
	}

	turns, err := a.store.RecentTurns(ctx, req.SessionID, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}
	// the store returns newest first so that LIMIT keeps the latest turns
	slices.Reverse(turns)

	messages := a.build(systemPrompt, turns, req.UserMessage)
	if a.maxTokens > 0 && a.counter != nil {
		dropped := 0
		for len(turns) > 0 && CountMessages(a.counter, messages) > a.maxTokens {
			turns = turns[1:]
			dropped++
			messages = a.build(systemPrompt, turns, req.UserMessage)
		}
		if dropped > 0 {
			a.logger.Debug("dropped turns over token budget", "sessionID", req.SessionID, "dropped", dropped, "maxTokens", a.maxTokens)
		}
	}

	a.logger.Debug("context assembled", "sessionID", req.SessionID, "turns", len(turns), "messages", messages.Len())
	return messages, nil
}

func (a *ContextAssembler) build(systemPrompt string, turns []ConversationTurn, userMessage string) *MessageList {
	messages := NewMessageList()
	for _, turn := range turns {
		messages.AddTurn(turn)
	}
	messages.Add(UserMessage(userMessage))
	messages.AddFirstSystemMessage(SystemMessage(systemPrompt))
	return messages
}
