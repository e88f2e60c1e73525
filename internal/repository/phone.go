package repository

import (
	"context"
	"errors"

	"bigvyapaar/internal/docstore"
	"bigvyapaar/internal/models"
)

// PhoneIndexRepository keeps phone numbers unique across users.
type PhoneIndexRepository interface {
	// Reserve claims phone for userID, failing with a conflict if taken.
	Reserve(ctx context.Context, phone, userID string) error
	Lookup(ctx context.Context, phone string) (string, error)
	Release(ctx context.Context, phone string) error
}

type phoneIndexRepository struct {
	docs docstore.Collection[*models.PhoneIndex]
}

// NewPhoneIndexRepository returns a PhoneIndexRepository over the phones collection.
func NewPhoneIndexRepository(docs docstore.Collection[*models.PhoneIndex]) PhoneIndexRepository {
	return &phoneIndexRepository{docs: docs}
}

func (r *phoneIndexRepository) Reserve(ctx context.Context, phone, userID string) error {
	err := r.docs.Create(ctx, &models.PhoneIndex{ID: phone, UserID: userID})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return models.NewConflictError("Phone number already registered")
	}
	return mapStoreError(err, "User not found")
}

func (r *phoneIndexRepository) Lookup(ctx context.Context, phone string) (string, error) {
	entry, err := r.docs.Get(ctx, phone)
	if err != nil {
		return "", mapStoreError(err, "User not found")
	}
	return entry.UserID, nil
}

func (r *phoneIndexRepository) Release(ctx context.Context, phone string) error {
	err := r.docs.Delete(ctx, phone)
	if errors.Is(err, docstore.ErrNotFound) {
		return nil
	}
	return mapStoreError(err, "User not found")
}
