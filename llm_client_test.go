package chatpod

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatCompletionResponse = `{
	"id": "chatcmpl-1",
	"object": "chat.completion",
	"created": 1700000000,
	"model": "gpt-4o-mini-2024-07-18",
	"choices": [{
		"index": 0,
		"finish_reason": "stop",
		"message": {"role": "assistant", "content": "Hi there"}
	}],
	"usage": {"prompt_tokens": 21, "completion_tokens": 3, "total_tokens": 24}
}`

const embeddingResponse = `{
	"object": "list",
	"model": "text-embedding-ada-002",
	"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 1]}],
	"usage": {"prompt_tokens": 2, "total_tokens": 2}
}`

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLM {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewLLM(LLMConfig{
		APIKey:      "test-key",
		BaseURL:     server.URL + "/",
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	})
}

func TestLLMComplete(t *testing.T) {
	var body map[string]interface{}
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionResponse))
	})

	messages := NewMessageList()
	messages.Add(UserMessage("Hello"))
	messages.AddFirstSystemMessage(SystemMessage("be brief"))

	ctx := NewSessionWithID("s1").Context(context.Background())
	completion, err := llm.Complete(ctx, messages)
	require.NoError(t, err)

	assert.Equal(t, "Hi there", completion.Text)
	assert.Equal(t, "gpt-4o-mini-2024-07-18", completion.Model)
	assert.Equal(t, Usage{PromptTokens: 21, CompletionTokens: 3}, completion.Usage)

	assert.Equal(t, DefaultModel, body["model"])
	assert.EqualValues(t, DefaultTemperature, body["temperature"])
	assert.EqualValues(t, DefaultMaxTokens, body["max_tokens"])
	assert.Equal(t, true, body["store"])
	assert.Equal(t, map[string]interface{}{"session_id": "s1"}, body["metadata"])

	sent, ok := body["messages"].([]interface{})
	require.True(t, ok)
	require.Len(t, sent, 2)
	assert.Equal(t, "system", sent[0].(map[string]interface{})["role"])
	assert.Equal(t, "user", sent[1].(map[string]interface{})["role"])
	assert.Equal(t, "Hello", sent[1].(map[string]interface{})["content"])
}

func TestLLMCompleteFailureIsNotRetried(t *testing.T) {
	var hits int32
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit_error", "code": "rate_limit_exceeded"}}`))
	})

	messages := NewMessageList()
	messages.Add(UserMessage("Hello"))
	_, err := llm.Complete(context.Background(), messages)

	var completionErr *CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, DefaultModel, completionErr.Model)

	var apiErr *openai.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestLLMCompleteWithoutChoices(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "x", "object": "chat.completion", "model": "gpt-4o-mini", "choices": []}`))
	})

	messages := NewMessageList()
	messages.Add(UserMessage("Hello"))
	_, err := llm.Complete(context.Background(), messages)

	var completionErr *CompletionError
	assert.ErrorAs(t, err, &completionErr)
}

func TestLLMEmbed(t *testing.T) {
	var body map[string]interface{}
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(embeddingResponse))
	})

	embedding, err := llm.Embed(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1}, embedding)
	assert.Equal(t, "hello world", body["input"])
	assert.Equal(t, DefaultEmbeddingModel, body["model"])
}

func TestLLMEmbedFailure(t *testing.T) {
	llm := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "bad key", "type": "invalid_request_error"}}`))
	})

	_, err := llm.Embed(context.Background(), "hello world")
	require.Error(t, err)
}
