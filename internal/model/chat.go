package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// SnippetLength is the number of characters of a message kept in a chat summary.
const SnippetLength = 50

// Snippet is the preview text of a chat's most recent message. The backend
// sends either the text or the whole message object.
type Snippet string

// UnmarshalJSON accepts a string, null or an object with a "message" field.
func (s *Snippet) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*s = ""
		return nil
	case b[0] == '{':
		var m struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(b, &m); err != nil {
			return err
		}
		*s = Snippet(m.Message)
		return nil
	default:
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*s = Snippet(str)
		return nil
	}
}

// SnippetOf shortens text to SnippetLength characters, adding "..." when cut.
func SnippetOf(text string) Snippet {
	if utf8.RuneCountInString(text) <= SnippetLength {
		return Snippet(text)
	}
	runes := []rune(text)
	return Snippet(string(runes[:SnippetLength]) + "...")
}

// Chat is a conversation between two users about a listing.
type Chat struct {
	ID                  ID        `json:"id"`
	SenderID            ID        `json:"sender_id"`
	Sender              *User     `json:"sender,omitempty"`
	ReceiverID          ID        `json:"receiver_id"`
	Receiver            *User     `json:"receiver,omitempty"`
	PropertyID          ID        `json:"property_id"`
	InquiryID           *ID       `json:"inquiry_id,omitempty"`
	Property            *Listing  `json:"property,omitempty"`
	IsRead              bool      `json:"is_read"`
	LastMessageSenderID *ID       `json:"last_message_sender_id,omitempty"`
	LastMessage         Snippet   `json:"last_message,omitempty"`
	CreatedAt           Timestamp `json:"created_at"`
	UpdatedAt           Timestamp `json:"updated_at"`
}

// Clone returns a deep copy of c.
func (c Chat) Clone() Chat {
	out := c
	out.Sender = c.Sender.Clone()
	out.Receiver = c.Receiver.Clone()
	if c.InquiryID != nil {
		out.InquiryID = IDPtr(*c.InquiryID)
	}
	if c.LastMessageSenderID != nil {
		id := *c.LastMessageSenderID
		out.LastMessageSenderID = &id
	}
	if c.Property != nil {
		p := c.Property.Clone()
		out.Property = &p
	}
	return out
}

// HasParticipant reports whether user takes part in the chat.
func (c Chat) HasParticipant(user ID) bool {
	return user != "" && (c.SenderID == user || c.ReceiverID == user)
}

// Message is a single chat message.
type Message struct {
	ID        ID        `json:"id"`
	ChatID    ID        `json:"chat_id"`
	SenderID  ID        `json:"sender_id"`
	Message   string    `json:"message"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// MessageInput is the payload for sending a message.
type MessageInput struct {
	Message string `json:"message" validate:"required"`
}

// Validate rejects blank messages.
func (in MessageInput) Validate() error {
	in.Message = strings.TrimSpace(in.Message)
	return validateStruct(in)
}
