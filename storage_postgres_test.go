package chatpod

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newDryRunPostgres returns a gorm handle on the postgres dialector that renders SQL
// without ever connecting.
func newDryRunPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=chatpod dbname=chatpod sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               newGormLogger(context.Background(), discardLogger()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestPostgresSchemaStatements(t *testing.T) {
	stmts := schemaStatements("postgres")
	require.Len(t, stmts, 4)

	assert.Equal(t, "CREATE EXTENSION IF NOT EXISTS vector", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE IF NOT EXISTS conversations"))
	assert.Contains(t, stmts[1], "metadata JSONB")
	assert.True(t, strings.HasPrefix(stmts[2], "CREATE INDEX IF NOT EXISTS idx_conversations_session_created"))
	assert.True(t, strings.HasPrefix(stmts[3], "CREATE TABLE IF NOT EXISTS agent_knowledge"))
	assert.Contains(t, stmts[3], fmt.Sprintf("embedding VECTOR(%d)", EmbeddingDimensions))
	assert.Contains(t, stmts[3], "embedding VECTOR(1536)")

	for _, stmt := range stmts {
		assert.NotContains(t, stmt, "%!", "unformatted verb in %q", stmt)
	}
}

func TestSqliteSchemaStatements(t *testing.T) {
	stmts := schemaStatements("sqlite")
	require.Len(t, stmts, 3)
	for _, stmt := range stmts {
		assert.NotContains(t, stmt, "EXTENSION")
		assert.NotContains(t, stmt, "VECTOR(")
	}
}

func TestNearestKnowledgeQueryOnPostgres(t *testing.T) {
	db := newDryRunPostgres(t)
	require.Equal(t, "postgres", db.Dialector.Name())

	stmt := nearestKnowledgeQuery(db, []float32{1, 0, 0}).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, "embedding <=> $1 AS distance")
	assert.Contains(t, sql, "WHERE embedding IS NOT NULL")
	assert.Contains(t, sql, "ORDER BY distance, id")
	assert.Contains(t, sql, "LIMIT 1")

	require.Len(t, stmt.Vars, 1)
	vec, ok := stmt.Vars[0].(pgvector.Vector)
	require.True(t, ok, "bound %T", stmt.Vars[0])
	assert.Equal(t, []float32{1, 0, 0}, vec.Slice())
}
