package repository

import (
	"context"

	"bigvyapaar/internal/docstore"
	"bigvyapaar/internal/models"
)

// ChatRepository defines data access methods for chat documents.
type ChatRepository interface {
	GetByID(ctx context.Context, id string) (*models.Chat, error)
	List(ctx context.Context) ([]*models.Chat, error)
	Create(ctx context.Context, chat *models.Chat) error
	Update(ctx context.Context, id string, fn func(*models.Chat) error) (*models.Chat, error)
}

type chatRepository struct {
	docs docstore.Collection[*models.Chat]
}

// NewChatRepository returns a ChatRepository over the chat collection.
func NewChatRepository(docs docstore.Collection[*models.Chat]) ChatRepository {
	return &chatRepository{docs: docs}
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*models.Chat, error) {
	chat, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "Chat not found")
	}
	return chat, nil
}

func (r *chatRepository) List(ctx context.Context) ([]*models.Chat, error) {
	chats, err := r.docs.List(ctx)
	return chats, mapStoreError(err, "Chat not found")
}

func (r *chatRepository) Create(ctx context.Context, chat *models.Chat) error {
	return mapStoreError(r.docs.Create(ctx, chat), "Chat not found")
}

func (r *chatRepository) Update(ctx context.Context, id string, fn func(*models.Chat) error) (*models.Chat, error) {
	chat, err := r.docs.Mutate(ctx, id, fn)
	if err != nil {
		return nil, mapStoreError(err, "Chat not found")
	}
	return chat, nil
}
