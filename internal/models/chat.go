package models

import "time"

// Participant identifies one side of a chat.
type Participant struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Message is an immutable chat entry. SentBy1 is true when User1 wrote it.
type Message struct {
	Timestamp int64  `json:"timestamp"`
	Content   string `json:"content"`
	SentBy1   bool   `json:"sent_by1"`
}

// Chat is a two-party conversation created when a trade request is accepted.
// User1 accepted the request, User2 sent it.
type Chat struct {
	ID        string      `json:"id"`
	User1     Participant `json:"user1"`
	User2     Participant `json:"user2"`
	Messages  []Message   `json:"messages"`
	CreatedAt time.Time   `json:"created_at"`
}

func (c *Chat) GetID() string   { return c.ID }
func (c *Chat) SetID(id string) { c.ID = id }

// Counterpart resolves the other participant for userID. ok is false when
// userID is not in the chat.
func (c *Chat) Counterpart(userID string) (other Participant, isUser1 bool, ok bool) {
	switch userID {
	case c.User1.ID:
		return c.User2, true, true
	case c.User2.ID:
		return c.User1, false, true
	}
	return Participant{}, false, false
}

// ChatNotification is the payload pushed to a receiver when a message lands.
type ChatNotification struct {
	ChatID  string  `json:"chat_id"`
	Message Message `json:"message"`
}
