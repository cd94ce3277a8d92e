package chatpod

import "context"

// ConversationStore reads and writes conversation turns.
type ConversationStore interface {
	RecentTurns(ctx context.Context, sessionID string, limit int) ([]ConversationTurn, error)
	RecordTurn(ctx context.Context, turn *ConversationTurn) error
}

// KnowledgeStore persists knowledge entries and finds the nearest one to an embedding.
type KnowledgeStore interface {
	UpsertKnowledge(ctx context.Context, key, value string, embedding []float32) (*KnowledgeEntry, error)
	GetKnowledge(ctx context.Context, key string) (*KnowledgeEntry, error)
	NearestKnowledge(ctx context.Context, embedding []float32) (*KnowledgeMatch, error)
}

type Storage interface {
	ConversationStore
	KnowledgeStore
	Close() error
}
