package domain

import "errors"

var (
	ErrMessageFromEmpty = errors.New("message sender cannot be empty")
	ErrMessageToEmpty   = errors.New("message recipient cannot be empty")
	ErrMessageTextEmpty = errors.New("message text cannot be empty")
)

// Message is one private chat message between two users. Immutable once
// written; ownership passes to the message store permanently.
type Message struct {
	From      UserID `json:"from"`
	To        UserID `json:"to"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // seconds since epoch
}

func (m *Message) Validate() error {
	if m.From == "" {
		return ErrMessageFromEmpty
	}
	if m.To == "" {
		return ErrMessageToEmpty
	}
	if m.Text == "" {
		return ErrMessageTextEmpty
	}
	return nil
}
