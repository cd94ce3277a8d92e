package chatpod

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// EmbeddingDimensions is the vector width of the agent_knowledge.embedding column.
const EmbeddingDimensions = 1536

// ConversationTurn is one user message and the agent response to it. Rows are written
// once and never updated.
type ConversationTurn struct {
	ID            uint              `gorm:"column:id;primaryKey;autoIncrement"`
	SessionID     string            `gorm:"column:session_id;not null"`
	UserMessage   string            `gorm:"column:user_message"`
	AgentResponse string            `gorm:"column:agent_response"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	Metadata      datatypes.JSONMap `gorm:"column:metadata"`
}

func (ConversationTurn) TableName() string { return "conversations" }

// KnowledgeEntry is a key/value fact with an optional embedding of its value.
type KnowledgeEntry struct {
	ID        uint             `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string           `gorm:"column:key;not null"`
	Value     string           `gorm:"column:value"`
	Embedding *pgvector.Vector `gorm:"column:embedding"`
	CreatedAt time.Time        `gorm:"column:created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at"`
}

func (KnowledgeEntry) TableName() string { return "agent_knowledge" }

// KnowledgeMatch is the nearest stored entry for a query embedding.
type KnowledgeMatch struct {
	Entry    KnowledgeEntry
	Distance float64
}
