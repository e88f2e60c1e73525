package repository

import (
	"context"

	"bigvyapaar/internal/docstore"
	"bigvyapaar/internal/models"
)

// UserRepository defines data access methods for user documents.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update applies fn to the stored user with a conditional write.
	Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error)
}

type userRepository struct {
	docs docstore.Collection[*models.User]
}

// NewUserRepository returns a UserRepository over the users collection.
func NewUserRepository(docs docstore.Collection[*models.User]) UserRepository {
	return &userRepository{docs: docs}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := r.docs.Get(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "User not found")
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	users, err := r.docs.List(ctx)
	return users, mapStoreError(err, "User not found")
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return mapStoreError(r.docs.Create(ctx, user), "User not found")
}

func (r *userRepository) Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	user, err := r.docs.Mutate(ctx, id, fn)
	if err != nil {
		return nil, mapStoreError(err, "User not found")
	}
	return user, nil
}
