package chatpod

import "context"

// Completer defines the minimal contract the agent needs from a language-model provider.
type Completer interface {
	// Complete sends the ordered messages and returns the best completion.
	// Failures are returned as *CompletionError.
	Complete(ctx context.Context, messages *MessageList) (*Completion, error)
}

// Embedder turns text into a vector for similarity lookups.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Usage is the token accounting reported for one completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Completion is the text of the first choice plus what it cost.
type Completion struct {
	Text  string
	Model string
	Usage Usage
}

// LanguageModel is a provider that can both complete and embed.
type LanguageModel interface {
	Completer
	Embedder
}
