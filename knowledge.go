package chatpod

import (
	"context"
	"errors"
	"log/slog"
)

// KnowledgeBase stores facts by key and finds the one closest in meaning to a query.
type KnowledgeBase struct {
	store    KnowledgeStore
	embedder Embedder
	logger   *slog.Logger
}

func NewKnowledgeBase(store KnowledgeStore, embedder Embedder) *KnowledgeBase {
	return &KnowledgeBase{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}
}

func (k *KnowledgeBase) SetLogger(logger *slog.Logger) {
	k.logger = logger
}

// Upsert stores value under key, replacing the previous value if the key exists. The
// entry is kept without an embedding when the embedder fails; it just won't show up
// in similarity queries.
func (k *KnowledgeBase) Upsert(ctx context.Context, key, value string) (*KnowledgeEntry, error) {
	var embedding []float32
	if k.embedder != nil && key != "" {
		var err error
		embedding, err = k.embedder.Embed(ctx, value)
		if err != nil {
			k.logger.Warn("storing knowledge without embedding", "key", key, "error", err)
			embedding = nil
		}
	}
	return k.store.UpsertKnowledge(ctx, key, value, embedding)
}

// Query returns the value of the stored entry nearest to text when its cosine distance
// is below threshold. It returns ErrNoMatch when nothing is close enough, and also when
// the query text can't be embedded or the store can't be read.
func (k *KnowledgeBase) Query(ctx context.Context, text string, threshold float64) (*KnowledgeMatch, error) {
	if k.embedder == nil {
		return nil, ErrNoMatch
	}
	embedding, err := k.embedder.Embed(ctx, text)
	if err == nil && len(embedding) == 0 {
		err = errors.New("embedding is empty")
	}
	if err != nil {
		k.logger.Error("Error querying knowledge", "error", err)
		return nil, ErrNoMatch
	}

	match, err := k.store.NearestKnowledge(ctx, embedding)
	if err != nil {
		if !errors.Is(err, ErrNoMatch) {
			k.logger.Error("Error querying knowledge", "error", err)
		}
		return nil, ErrNoMatch
	}
	if match.Distance >= threshold {
		k.logger.Debug("nearest knowledge above threshold", "key", match.Entry.Key, "distance", match.Distance, "threshold", threshold)
		return nil, ErrNoMatch
	}
	return match, nil
}
