package chatpod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var _ Storage = &GormStore{}

const postgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS conversations (
	id SERIAL PRIMARY KEY,
	session_id VARCHAR(255) NOT NULL,
	user_message TEXT,
	agent_response TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	metadata JSONB
);

CREATE INDEX IF NOT EXISTS idx_conversations_session_created
	ON conversations (session_id, created_at DESC);

CREATE TABLE IF NOT EXISTS agent_knowledge (
	id SERIAL PRIMARY KEY,
	key VARCHAR(255) NOT NULL,
	value TEXT,
	embedding VECTOR(%d),
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`

// sqliteSchema mirrors the postgres tables for local runs and tests. Embeddings are kept
// in pgvector's text form and compared in process.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS conversations (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	user_message TEXT,
	agent_response TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	metadata JSON
);

CREATE INDEX IF NOT EXISTS idx_conversations_session_created
	ON conversations (session_id, created_at DESC);

CREATE TABLE IF NOT EXISTS agent_knowledge (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	key TEXT NOT NULL,
	value TEXT,
	embedding TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);`

// GormStore implements Storage on top of gorm. It owns exactly one database connection
// for its whole lifetime; callers share the store instead of opening their own.
type GormStore struct {
	db     *gorm.DB
	now    func() time.Time
	logger *slog.Logger
}

// OpenPostgres connects to the postgres database at dsn and ensures the schema exists.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*GormStore, error) {
	return NewStore(ctx, postgres.Open(dsn), logger)
}

// NewStore opens a store over any gorm dialector, pings it and creates the tables if
// they don't exist.
func NewStore(ctx context.Context, dialector gorm.Dialector, logger *slog.Logger) (*GormStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newGormLogger(ctx, logger),
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &GormStore{
		db:     db,
		now:    db.Config.NowFunc,
		logger: logger,
	}
	if err := store.ensureSchema(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	logger.Info("database connected", "dialect", db.Dialector.Name())
	return store, nil
}

func newGormLogger(ctx context.Context, logger *slog.Logger) gormlogger.Interface {
	level := gormlogger.Silent
	if logger.Enabled(ctx, slog.LevelDebug) {
		level = gormlogger.Info
	}
	return gormlogger.New(slog.NewLogLogger(logger.Handler(), slog.LevelDebug), gormlogger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func (s *GormStore) SetLogger(logger *slog.Logger) {
	s.logger = logger
}

// ensureSchema creates the necessary tables if they don't exist.
func (s *GormStore) ensureSchema(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *gorm.DB) error {
		for _, stmt := range schemaStatements(s.db.Dialector.Name()) {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("failed to create tables: %w", err)
			}
		}
		return nil
	})
}

// WithTx runs fn inside a transaction. The transaction commits when fn returns nil and
// rolls back when fn returns an error or panics; the connection goes back to the store
// either way.
func (s *GormStore) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	err := s.db.WithContext(ctx).Transaction(fn)
	if err != nil {
		s.logger.Warn("transaction rolled back", "error", err)
	}
	return err
}

// Close releases the database connection.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RecentTurns returns up to limit turns of the session, newest first.
func (s *GormStore) RecentTurns(ctx context.Context, sessionID string, limit int) ([]ConversationTurn, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: negative history limit %d", ErrInvalidInput, limit)
	}
	if limit == 0 {
		return nil, nil
	}

	var turns []ConversationTurn
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&turns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	return turns, nil
}

// RecordTurn inserts a new turn. CreatedAt is filled in when zero.
func (s *GormStore) RecordTurn(ctx context.Context, turn *ConversationTurn) error {
	if turn.SessionID == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidInput)
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = s.now()
	}
	err := s.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(turn).Error
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTurnNotRecorded, err)
	}
	return nil
}

// UpsertKnowledge looks the key up and updates the entry in place when it exists,
// inserting it otherwise. A nil embedding clears any stored one, since it would no
// longer describe the value.
func (s *GormStore) UpsertKnowledge(ctx context.Context, key, value string, embedding []float32) (*KnowledgeEntry, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty knowledge key", ErrInvalidInput)
	}

	var vec *pgvector.Vector
	if len(embedding) > 0 {
		v := pgvector.NewVector(embedding)
		vec = &v
	}

	var entry KnowledgeEntry
	err := s.WithTx(ctx, func(tx *gorm.DB) error {
		err := tx.Where(map[string]interface{}{"key": key}).Take(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := s.now()
			entry = KnowledgeEntry{
				Key:       key,
				Value:     value,
				Embedding: vec,
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Create(&entry).Error
		}
		if err != nil {
			return err
		}

		updatedAt := s.now()
		if !updatedAt.After(entry.UpdatedAt) {
			updatedAt = entry.UpdatedAt.Add(time.Microsecond)
		}
		var embeddingColumn interface{} = gorm.Expr("NULL")
		if vec != nil {
			embeddingColumn = *vec
		}
		err = tx.Model(&KnowledgeEntry{}).
			Where("id = ?", entry.ID).
			Updates(map[string]interface{}{
				"value":      value,
				"embedding":  embeddingColumn,
				"updated_at": updatedAt,
			}).Error
		if err != nil {
			return err
		}
		entry.Value = value
		entry.Embedding = vec
		entry.UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upsert knowledge %q: %w", key, err)
	}
	return &entry, nil
}

// GetKnowledge returns the entry stored under key, or ErrNoMatch.
func (s *GormStore) GetKnowledge(ctx context.Context, key string) (*KnowledgeEntry, error) {
	var entry KnowledgeEntry
	err := s.db.WithContext(ctx).Where(map[string]interface{}{"key": key}).Take(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge %q: %w", key, err)
	}
	return &entry, nil
}

// NearestKnowledge returns the entry with the smallest cosine distance to embedding.
// Entries without an embedding are never candidates. Returns ErrNoMatch when nothing
// can be compared.
func (s *GormStore) NearestKnowledge(ctx context.Context, embedding []float32) (*KnowledgeMatch, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", ErrInvalidInput)
	}
	if s.db.Dialector.Name() == "postgres" {
		return s.nearestPostgres(ctx, embedding)
	}
	return s.nearestInProcess(ctx, embedding)
}

const nearestKnowledgeSQL = `
SELECT id, key, value, created_at, updated_at, embedding <=> ? AS distance
FROM agent_knowledge
WHERE embedding IS NOT NULL
ORDER BY distance, id
LIMIT 1`

// nearestKnowledgeQuery orders by pgvector's cosine distance operator, smaller id first on ties.
func nearestKnowledgeQuery(db *gorm.DB, embedding []float32) *gorm.DB {
	return db.Raw(nearestKnowledgeSQL, pgvector.NewVector(embedding))
}

func (s *GormStore) nearestPostgres(ctx context.Context, embedding []float32) (*KnowledgeMatch, error) {
	var rows []struct {
		ID        uint
		Key       string
		Value     string
		CreatedAt time.Time
		UpdatedAt time.Time
		Distance  float64
	}
	err := nearestKnowledgeQuery(s.db.WithContext(ctx), embedding).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNoMatch
	}
	r := rows[0]
	return &KnowledgeMatch{
		Entry: KnowledgeEntry{
			ID:        r.ID,
			Key:       r.Key,
			Value:     r.Value,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		Distance: r.Distance,
	}, nil
}

func (s *GormStore) nearestInProcess(ctx context.Context, embedding []float32) (*KnowledgeMatch, error) {
	var entries []KnowledgeEntry
	err := s.db.WithContext(ctx).
		Where("embedding IS NOT NULL").
		Order("id").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}

	var best *KnowledgeMatch
	for _, entry := range entries {
		if entry.Embedding == nil {
			continue
		}
		distance, ok := CosineDistance(embedding, entry.Embedding.Slice())
		if !ok {
			continue
		}
		if best == nil || distance < best.Distance {
			best = &KnowledgeMatch{Entry: entry, Distance: distance}
		}
	}
	if best == nil {
		return nil, ErrNoMatch
	}
	return best, nil
}

// schemaStatements returns the bootstrap DDL for a gorm dialect name, one statement each.
func schemaStatements(dialect string) []string {
	if dialect == "postgres" {
		return splitStatements(fmt.Sprintf(postgresSchema, EmbeddingDimensions))
	}
	return splitStatements(sqliteSchema)
}

func splitStatements(schema string) []string {
	var stmts []string
	for _, stmt := range strings.Split(schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}
