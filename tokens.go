package chatpod

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// messageOverheadTokens approximates the per-message framing the chat API adds
// around each role and content.
const messageOverheadTokens = 4

type TokenCounter interface {
	Count(text string) int
}

// TiktokenCounter counts tokens with the cl100k_base encoding.
type TiktokenCounter struct {
	codec tokenizer.Codec
}

func NewTiktokenCounter() (*TiktokenCounter, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}
	return &TiktokenCounter{codec: codec}, nil
}

func (t *TiktokenCounter) Count(text string) int {
	ids, _, err := t.codec.Encode(text)
	if err != nil {
		// fall back to the usual four characters per token
		return len(text)/4 + 1
	}
	return len(ids)
}

// CountMessages estimates the prompt size of a message list.
func CountMessages(counter TokenCounter, messages *MessageList) int {
	total := 0
	for _, text := range messages.Texts() {
		total += counter.Count(text) + messageOverheadTokens
	}
	return total
}
