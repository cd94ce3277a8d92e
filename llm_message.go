package chatpod

import (
	"fmt"

	"github.com/openai/openai-go"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

func SystemMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.SystemMessage(content)
}

func UserMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.UserMessage(content)
}

func AssistantMessage(content string) openai.ChatCompletionMessageParamUnion {
	return openai.AssistantMessage(content)
}

// MessageList holds an ordered collection of chat messages to preserve the history.
type MessageList struct {
	Messages []openai.ChatCompletionMessageParamUnion
}

func NewMessageList() *MessageList {
	return &MessageList{
		Messages: []openai.ChatCompletionMessageParamUnion{},
	}
}

func (ml *MessageList) Len() int {
	return len(ml.Messages)
}

// Add appends one or more new messages to the MessageList in a FIFO order.
func (ml *MessageList) Add(msgs ...openai.ChatCompletionMessageParamUnion) {
	ml.Messages = append(ml.Messages, msgs...)
}

// AddTurn appends a stored turn as a user message followed by an assistant message.
func (ml *MessageList) AddTurn(turn ConversationTurn) {
	ml.Add(UserMessage(turn.UserMessage), AssistantMessage(turn.AgentResponse))
}

// AddFirstSystemMessage prepends a system message to the message list.
// It panics if the provided message is not a system message.
func (ml *MessageList) AddFirstSystemMessage(msg openai.ChatCompletionMessageParamUnion) {
	if msg.OfSystem == nil {
		panic("AddFirstSystemMessage expects a SystemMessage")
	}
	ml.Messages = append([]openai.ChatCompletionMessageParamUnion{msg}, ml.Messages...)
}

func (ml *MessageList) All() []openai.ChatCompletionMessageParamUnion {
	return ml.Messages
}

func (ml *MessageList) Clone() *MessageList {
	return &MessageList{
		Messages: append([]openai.ChatCompletionMessageParamUnion{}, ml.Messages...),
	}
}

// Roles returns the role of every message, in order.
func (ml *MessageList) Roles() []string {
	roles := make([]string, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		role, _ := messageRoleAndText(msg)
		roles = append(roles, role)
	}
	return roles
}

// Texts returns the plain text content of every message, in order.
func (ml *MessageList) Texts() []string {
	texts := make([]string, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		_, text := messageRoleAndText(msg)
		texts = append(texts, text)
	}
	return texts
}

// String is for debugging purposes
func (ml *MessageList) String() string {
	var out string
	for _, msg := range ml.Messages {
		role, content := messageRoleAndText(msg)
		out += fmt.Sprintf("Role: %s\nContent: %s\n\n", role, content)
	}
	return out
}

func messageRoleAndText(msg openai.ChatCompletionMessageParamUnion) (string, string) {
	switch {
	case msg.OfSystem != nil:
		return RoleSystem, msg.OfSystem.Content.OfString.Value
	case msg.OfUser != nil:
		return RoleUser, msg.OfUser.Content.OfString.Value
	case msg.OfAssistant != nil:
		return RoleAssistant, msg.OfAssistant.Content.OfString.Value
	case msg.OfDeveloper != nil:
		return "developer", msg.OfDeveloper.Content.OfString.Value
	}
	return "unknown", ""
}
