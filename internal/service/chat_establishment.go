package service

import (
	"context"
	"time"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/observability"
	"bigvyapaar/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// chatNamespace seeds chat ids derived from trade request ids.
var chatNamespace = uuid.MustParse("6f1c2a9e-3b7d-4c55-9e21-8d0b4f6a7c13")

// chatIDFor returns the chat id an accepted request always maps to, so a
// retried acceptance finds the chat an earlier attempt created.
func chatIDFor(request models.TradeRequest) string {
	return uuid.NewSHA1(chatNamespace, []byte(request.ID)).String()
}

// EstablishedChat is the responder's view of the chat an acceptance produced.
type EstablishedChat struct {
	ChatID             string `json:"chat_id"`
	PartnerID          string `json:"partner_id"`
	PartnerName        string `json:"partner_name"`
	IsUser1            bool   `json:"is_user1"`
	AlreadyEstablished bool   `json:"already_established"`
}

// ChatEstablisher creates the chat for an accepted trade request and links it
// into both users.
type ChatEstablisher struct {
	userRepo repository.UserRepository
	chatRepo repository.ChatRepository
}

// NewChatEstablisher returns a new ChatEstablisher.
func NewChatEstablisher(userRepo repository.UserRepository, chatRepo repository.ChatRepository) *ChatEstablisher {
	return &ChatEstablisher{userRepo: userRepo, chatRepo: chatRepo}
}

// Establish creates a chat between responder (user1) and the request's sender
// (user2). Only the responder's links are checked for an existing chat with
// the sender; a link present on the sender's side alone does not count.
func (e *ChatEstablisher) Establish(ctx context.Context, responder *models.User, request models.TradeRequest) (*EstablishedChat, error) {
	ctx, span := observability.StartServiceSpan(ctx, "ChatEstablisher", "Establish")
	var err error
	defer func() { observability.EndSpan(span, err) }()

	if request.UserID == responder.ID {
		err = models.NewInvalidStateError("Invalid trade request")
		return nil, err
	}

	chatID := chatIDFor(request)
	// a link to this request's own chat means an earlier attempt stopped
	// half way; resume it instead of short-circuiting
	if link, ok := responder.ChatWith(request.UserID); ok && link.ChatID != chatID {
		return &EstablishedChat{
			ChatID:             link.ChatID,
			PartnerID:          link.PartnerID,
			PartnerName:        link.PartnerName,
			IsUser1:            link.IsUser1,
			AlreadyEstablished: true,
		}, nil
	}

	var chat *models.Chat
	if chat, err = e.createOrLoad(ctx, chatID, responder, request); err != nil {
		return nil, err
	}

	if err = e.LinkParticipants(ctx, chat); err != nil {
		observability.SagaPartialFailures.WithLabelValues("establish_chat").Inc()
		observability.Logger.ErrorContext(ctx, "chat links partially applied",
			"chat_id", chat.ID, "user1", chat.User1.ID, "user2", chat.User2.ID, "error", err)
		err = models.NewUpstreamError("Chat created but not linked to both users", err)
		return nil, err
	}

	return &EstablishedChat{
		ChatID:      chat.ID,
		PartnerID:   chat.User2.ID,
		PartnerName: chat.User2.Username,
		IsUser1:     true,
	}, nil
}

// createOrLoad creates the chat for request, or returns the one a previous
// attempt already stored under chatID.
func (e *ChatEstablisher) createOrLoad(ctx context.Context, chatID string, responder *models.User, request models.TradeRequest) (*models.Chat, error) {
	chat := &models.Chat{
		ID:        chatID,
		User1:     models.Participant{ID: responder.ID, Username: responder.Username},
		User2:     models.Participant{ID: request.UserID, Username: request.Username},
		Messages:  []models.Message{},
		CreatedAt: time.Now().UTC(),
	}
	err := e.chatRepo.Create(ctx, chat)
	if err == nil {
		return chat, nil
	}
	if models.ErrorCode(err) != models.CodeConflict {
		return nil, err
	}
	existing, err := e.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if existing.User1.ID != responder.ID || existing.User2.ID != request.UserID {
		return nil, models.NewInvalidStateError("Chat id already used by other participants")
	}
	return existing, nil
}

// LinkParticipants writes the chat link into both users concurrently. Each
// write is skipped when the link is already there. One failing write does not
// cancel the other.
func (e *ChatEstablisher) LinkParticipants(ctx context.Context, chat *models.Chat) error {
	var g errgroup.Group
	g.Go(func() error {
		_, err := e.addLink(ctx, chat.User1.ID, models.ChatLink{
			ChatID:      chat.ID,
			PartnerID:   chat.User2.ID,
			PartnerName: chat.User2.Username,
			IsUser1:     true,
		})
		return err
	})
	g.Go(func() error {
		_, err := e.addLink(ctx, chat.User2.ID, models.ChatLink{
			ChatID:      chat.ID,
			PartnerID:   chat.User1.ID,
			PartnerName: chat.User1.Username,
			IsUser1:     false,
		})
		return err
	})
	return g.Wait()
}

// addLink reports whether a link was actually written.
func (e *ChatEstablisher) addLink(ctx context.Context, userID string, link models.ChatLink) (bool, error) {
	added := false
	_, err := e.userRepo.Update(ctx, userID, func(u *models.User) error {
		added = false
		if u.HasChat(link.ChatID) {
			return repository.ErrNoChange
		}
		u.Chats = append(u.Chats, link)
		added = true
		return nil
	})
	return added && err == nil, err
}
