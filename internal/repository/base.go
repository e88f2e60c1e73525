// Package repository exposes typed document repositories over the docstore.
package repository

import (
	"errors"

	"bigvyapaar/internal/docstore"
	"bigvyapaar/internal/models"
)

// Collection names. Chat documents live in the "requests" collection.
const (
	CollectionUsers    = "users"
	CollectionProducts = "products"
	CollectionChats    = "requests"
	CollectionPhones   = "phones"
)

// ErrNoChange may be returned from an Update callback to leave the document
// untouched. Update then returns the current document.
var ErrNoChange = docstore.ErrSkipWrite

// mapStoreError converts store failures into AppErrors. Errors that already
// are AppErrors (raised by update callbacks) pass through.
func mapStoreError(err error, notFound string) error {
	if err == nil {
		return nil
	}
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		return models.NewNotFoundError(notFound)
	case errors.Is(err, docstore.ErrAlreadyExists):
		return models.NewConflictError("Document already exists")
	case errors.Is(err, docstore.ErrConflict):
		return models.NewUpstreamError("Document is busy, try again", err)
	default:
		return models.NewUpstreamError("Document store unavailable", err)
	}
}

// Stores groups the repositories backed by one docstore backend.
type Stores struct {
	Users    UserRepository
	Products ProductRepository
	Chats    ChatRepository
	Phones   PhoneIndexRepository
}

// NewStores opens every collection on backend.
func NewStores(backend docstore.Backend) (*Stores, error) {
	users, err := docstore.Open[*models.User](backend, CollectionUsers)
	if err != nil {
		return nil, err
	}
	products, err := docstore.Open[*models.Product](backend, CollectionProducts)
	if err != nil {
		return nil, err
	}
	chats, err := docstore.Open[*models.Chat](backend, CollectionChats)
	if err != nil {
		return nil, err
	}
	phones, err := docstore.Open[*models.PhoneIndex](backend, CollectionPhones)
	if err != nil {
		return nil, err
	}
	return &Stores{
		Users:    NewUserRepository(users),
		Products: NewProductRepository(products),
		Chats:    NewChatRepository(chats),
		Phones:   NewPhoneIndexRepository(phones),
	}, nil
}
