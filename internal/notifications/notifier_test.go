package notifications

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "notification-secret-32-characters!"

func newTestNotifier(t *testing.T) *Notifier {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewNotifier(rdb, secret)
}

func TestNotifier_SendToUserWithoutRedis(t *testing.T) {
	n := NewNotifier(nil, secret)
	assert.NoError(t, n.SendToUser(context.Background(), "u1", map[string]string{"a": "b"}))
}

func TestUserChannel(t *testing.T) {
	assert.Equal(t, "notifications:user:abc", UserChannel("abc"))
}

func TestNotifier_SubscribeUserReceivesPayloads(t *testing.T) {
	n := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 4)
	require.NoError(t, n.SubscribeUser(ctx, "u1", func(p string) { payloads <- p }))

	require.NoError(t, n.SendToUser(context.Background(), "u1", map[string]string{"chat_id": "c1"}))
	require.NoError(t, n.SendToUser(context.Background(), "u2", map[string]string{"chat_id": "other"}))

	select {
	case p := <-payloads:
		assert.JSONEq(t, `{"chat_id":"c1"}`, p)
	case <-time.After(time.Second):
		t.Fatal("payload not delivered")
	}
	assert.Never(t, func() bool { return len(payloads) > 0 }, 100*time.Millisecond, 10*time.Millisecond)
}

func TestNotifier_SubscribeStopsOnCancel(t *testing.T) {
	n := newTestNotifier(t)
	ctx, cancel := context.WithCancel(context.Background())

	var received int32
	require.NoError(t, n.SubscribeUser(ctx, "u1", func(string) { atomic.AddInt32(&received, 1) }))
	require.NoError(t, n.SendToUser(context.Background(), "u1", "before"))
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&received) == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(50 * time.Millisecond)
	_ = n.SendToUser(context.Background(), "u1", "after")
	assert.Never(t, func() bool { return atomic.LoadInt32(&received) > 1 }, 200*time.Millisecond, 10*time.Millisecond)
}

func TestNotifier_RequireListener(t *testing.T) {
	n := newTestNotifier(t)
	n.RequireListener = true
	assert.ErrorIs(t, n.SendToUser(context.Background(), "nobody", "x"), ErrNoSubscribers)
}

func TestNotifier_AccessTokenRoundTrip(t *testing.T) {
	n := NewNotifier(nil, secret)
	tok, err := n.AccessToken(context.Background(), "u1")
	require.NoError(t, err)

	userID, err := n.VerifyAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)

	other := NewNotifier(nil, "a-different-secret-of-32-characters")
	_, err = other.VerifyAccessToken(tok)
	assert.Error(t, err)

	_, err = NewNotifier(nil, "").AccessToken(context.Background(), "u1")
	assert.Error(t, err)
}
