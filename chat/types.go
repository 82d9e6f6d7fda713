package chat

import (
	"errors"
	"time"
)

// Author identifies which side of the conversation produced a message.
type Author string

const (
	AuthorUser      Author = "user"
	AuthorAssistant Author = "assistant"
)

// ErrInvalidEditTarget is returned when an edit is attempted on a message
// that is not editable (assistant-authored, error, or voice messages) or when
// the replacement text trims to empty.
var ErrInvalidEditTarget = errors.New("chat: message is not editable")

// Voice is the payload of a message that originated from a finished
// recording session.
type Voice struct {
	AudioRef        string `json:"audioRef"`
	DurationSeconds int    `json:"durationSeconds"`
}

// Attachment describes one file attached to a message. ContentRef points at
// the staged copy under the data dir.
type Attachment struct {
	Name       string `json:"name"`
	SizeBytes  int64  `json:"sizeBytes"`
	MimeType   string `json:"mimeType"`
	ContentRef string `json:"contentRef"`
}

// Message is one turn in the conversation. Its id is its position in the
// log and is not stored on the struct.
type Message struct {
	Text        string       `json:"text"`
	Author      Author       `json:"author"`
	CreatedAt   time.Time    `json:"createdAt"`
	IsError     bool         `json:"isError,omitempty"`
	Edited      bool         `json:"edited,omitempty"`
	EditedAt    *time.Time   `json:"editedAt,omitempty"`
	Voice       *Voice       `json:"voice,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// NewMessage creates a plain text message stamped with the current time.
func NewMessage(author Author, text string) Message {
	return Message{Text: text, Author: author, CreatedAt: time.Now()}
}

// Reaction is one emoji's aggregate count on a message.
type Reaction struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}
