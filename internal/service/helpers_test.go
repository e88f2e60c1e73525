package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bigvyapaar/internal/models"
	"bigvyapaar/internal/repository"
	"bigvyapaar/internal/testutil"
)

type fixture struct {
	stores   *repository.Stores
	users    *testutil.FaultyUsers
	trades   *TradeService
	requests *RequestService
	chats    *ChatService
	sent     *recordingDispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return buildFixture(testutil.NewSQLiteStores(t))
}

func newRedisFixture(t *testing.T) *fixture {
	t.Helper()
	stores, _ := testutil.NewRedisStores(t)
	return buildFixture(stores)
}

func buildFixture(stores *repository.Stores) *fixture {
	users := testutil.NewFaultyUsers(stores.Users)
	dispatcher := &recordingDispatcher{}
	chats := NewChatService(stores.Chats, dispatcher, 0)
	chats.afterCommit = func(f func()) { f() }
	return &fixture{
		stores:   stores,
		users:    users,
		trades:   NewTradeService(stores.Products),
		requests: NewRequestService(stores.Products, users, NewChatEstablisher(users, stores.Chats)),
		chats:    chats,
		sent:     dispatcher,
	}
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.stores.Users.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load user %s: %v", id, err)
	}
	return u
}

func (f *fixture) chatCount(t *testing.T) int {
	t.Helper()
	all, err := f.stores.Chats.List(context.Background())
	if err != nil {
		t.Fatalf("list chats: %v", err)
	}
	return len(all)
}

type delivery struct {
	userID  string
	payload any
}

type recordingDispatcher struct {
	mu         sync.Mutex
	deliveries []delivery
	err        error
}

func (d *recordingDispatcher) SendToUser(_ context.Context, userID string, payload any) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deliveries = append(d.deliveries, delivery{userID: userID, payload: payload})
	return d.err
}

func (d *recordingDispatcher) all() []delivery {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]delivery(nil), d.deliveries...)
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s error, got %v", code, err)
	}
}
