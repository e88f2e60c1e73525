package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/repository"
)

const maxMessageLength = 10000

// Dispatcher delivers real-time payloads to a user's open connections.
type Dispatcher interface {
	SendToUser(ctx context.Context, userID string, payload any) error
}

// ChatService appends messages to chats and notifies the receiver.
type ChatService struct {
	chatRepo      repository.ChatRepository
	dispatcher    Dispatcher
	notifyTimeout time.Duration
	// afterCommit runs the post-commit hook. It defaults to a new goroutine.
	afterCommit func(func())
}

// NewChatService returns a new ChatService. dispatcher may be nil.
func NewChatService(chatRepo repository.ChatRepository, dispatcher Dispatcher, notifyTimeout time.Duration) *ChatService {
	if notifyTimeout <= 0 {
		notifyTimeout = 3 * time.Second
	}
	return &ChatService{
		chatRepo:      chatRepo,
		dispatcher:    dispatcher,
		notifyTimeout: notifyTimeout,
		afterCommit:   func(f func()) { go f() },
	}
}

// SendMessage appends a message from senderID to the chat. The receiver is
// notified after the write commits; delivery failures are only logged.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, models.NewValidationError("Message content is too long")
	}

	var (
		msg      models.Message
		receiver string
	)
	_, err := s.chatRepo.Update(ctx, chatID, func(c *models.Chat) error {
		other, isUser1, ok := c.Counterpart(senderID)
		if !ok {
			return models.NewUnauthorizedError("Not a participant of this chat")
		}
		receiver = other.ID
		msg = models.Message{
			Timestamp: time.Now().UnixMilli(),
			Content:   content,
			SentBy1:   isUser1,
		}
		c.Messages = append(c.Messages, msg)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, receiver, models.ChatNotification{ChatID: chatID, Message: msg})
	return &msg, nil
}

func (s *ChatService) notify(ctx context.Context, receiverID string, payload models.ChatNotification) {
	if s.dispatcher == nil {
		return
	}
	// detached so the hook outlives the request
	base := context.WithoutCancel(ctx)
	s.afterCommit(func() {
		nctx, cancel := context.WithTimeout(base, s.notifyTimeout)
		defer cancel()
		if err := s.dispatcher.SendToUser(nctx, receiverID, payload); err != nil {
			observability.NotificationsSent.WithLabelValues("failed").Inc()
			observability.Logger.WarnContext(nctx, "chat notification failed",
				"chat_id", payload.ChatID, "receiver_id", receiverID, "error", err)
			return
		}
		observability.NotificationsSent.WithLabelValues("sent").Inc()
	})
}

// GetChat returns the chat's messages. Participation is not checked.
func (s *ChatService) GetChat(ctx context.Context, chatID string) ([]models.Message, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if chat.Messages == nil {
		return []models.Message{}, nil
	}
	return chat.Messages, nil
}
