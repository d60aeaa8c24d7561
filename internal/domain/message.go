package domain

import "strings"

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// PartTypeText is the only part type that carries retrievable content.
const PartTypeText = "text"

// MessagePart is a typed fragment of a conversation message.
type MessagePart struct {
	Type string  `json:"type"`
	Text *string `json:"text,omitempty"`
}

// ConversationMessage is one turn of a chat, replayed by the client on every request.
type ConversationMessage struct {
	ID    *string       `json:"id"`
	Role  string        `json:"role"`
	Parts []MessagePart `json:"parts"`
}

// Text concatenates the text-typed parts of the message.
func (m ConversationMessage) Text() string {
	var sb strings.Builder
	for _, p := range m.Parts {
		if p.Type == PartTypeText && p.Text != nil {
			sb.WriteString(*p.Text)
		}
	}
	return sb.String()
}

// ChatTurn is a role/content pair sent to the generation model.
type ChatTurn struct {
	Role    string
	Content string
}

// StreamChunk is one element of a streamed completion.
// A chunk carrying Err is terminal.
type StreamChunk struct {
	Delta string
	Err   error
}
