package testutil

import (
	"context"
	"sync"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/repository"
)

// FaultyUsers wraps a UserRepository and fails Update for selected user ids.
type FaultyUsers struct {
	repository.UserRepository

	mu       sync.Mutex
	failFor  map[string]error
	attempts map[string]int
}

// NewFaultyUsers wraps next with no faults configured.
func NewFaultyUsers(next repository.UserRepository) *FaultyUsers {
	return &FaultyUsers{
		UserRepository: next,
		failFor:        map[string]error{},
		attempts:       map[string]int{},
	}
}

// FailUpdates makes every Update of userID return err until Heal is called.
func (f *FaultyUsers) FailUpdates(userID string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFor[userID] = err
}

// Heal removes all configured faults.
func (f *FaultyUsers) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failFor = map[string]error{}
}

// UpdateAttempts reports how many times Update was called for userID.
func (f *FaultyUsers) UpdateAttempts(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[userID]
}

func (f *FaultyUsers) Update(ctx context.Context, id string, fn func(*models.User) error) (*models.User, error) {
	f.mu.Lock()
	f.attempts[id]++
	err := f.failFor[id]
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return f.UserRepository.Update(ctx, id, fn)
}
