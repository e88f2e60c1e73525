// Package notifications delivers real-time payloads to users over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"bigvyapaar/internal/observability"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

const (
	accessTokenTTL      = time.Hour
	accessTokenAudience = "notifications"
)

// ErrNoSubscribers is returned when a publish reached nobody.
var ErrNoSubscribers = errors.New("no subscribers for user channel")

// Notifier publishes user notifications into Redis channels and issues the
// tokens clients use to subscribe.
type Notifier struct {
	rdb    *redis.Client
	secret []byte
	// RequireListener turns publishes that reach nobody into ErrNoSubscribers.
	RequireListener bool
}

// NewNotifier creates a Notifier. A nil client makes every publish a no-op.
func NewNotifier(rdb *redis.Client, secret string) *Notifier {
	return &Notifier{rdb: rdb, secret: []byte(secret)}
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID string) string {
	return "notifications:user:" + userID
}

// SendToUser JSON-encodes payload and publishes it on the user's channel.
func (n *Notifier) SendToUser(ctx context.Context, userID string, payload any) error {
	if n.rdb == nil {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	receivers, err := n.rdb.Publish(ctx, UserChannel(userID), data).Result()
	if err != nil {
		return fmt.Errorf("publish to user %s: %w", userID, err)
	}
	if receivers == 0 && n.RequireListener {
		return ErrNoSubscribers
	}
	return nil
}

// AccessToken issues a short-lived token that lets userID subscribe to its
// own notification channel.
func (n *Notifier) AccessToken(_ context.Context, userID string) (string, error) {
	if len(n.secret) == 0 {
		return "", errors.New("notification token secret not configured")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		Audience:  jwt.ClaimStrings{accessTokenAudience},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(accessTokenTTL)),
	})
	return token.SignedString(n.secret)
}

// VerifyAccessToken returns the user id an access token was issued for.
func (n *Notifier) VerifyAccessToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return n.secret, nil
	}, jwt.WithAudience(accessTokenAudience), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// SubscribeUser forwards every payload published for userID to onMessage
// until ctx is cancelled. It returns once the subscription is confirmed.
func (n *Notifier) SubscribeUser(ctx context.Context, userID string, onMessage func(payload string)) error {
	if n.rdb == nil {
		return errors.New("notifications unavailable")
	}
	sub := n.rdb.Subscribe(ctx, UserChannel(userID))
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe to user %s: %w", userID, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							observability.Logger.Error("panic in user subscriber",
								"user_id", userID, "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onMessage(msg.Payload)
				}()
			}
		}
	}()

	return nil
}
