// Package middleware provides the Fiber middleware shared by every route group.
package middleware

import (
	"slices"
	"strings"

	"bigvyapaar/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const notificationAudience = "notifications"

// UserIDLocal is the Fiber locals key holding the authenticated user id.
const UserIDLocal = "userID"

// TokenVerifier resolves a token to the user id it was issued for.
type TokenVerifier func(token string) (string, error)

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: msg, Code: models.CodeUnauthorized})
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// SessionVerifier validates HS256 session tokens signed with secret.
func SessionVerifier(secret string) TokenVerifier {
	return func(tokenString string) (string, error) {
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}
		if aud, _ := token.Claims.GetAudience(); slices.Contains(aud, notificationAudience) {
			return "", fiber.NewError(fiber.StatusUnauthorized, "Notification tokens cannot open sessions")
		}
		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			return "", fiber.NewError(fiber.StatusUnauthorized, "Invalid token structure - missing subject")
		}
		return sub, nil
	}
}

// AuthRequired enforces a bearer session token and stores the caller's id
// under UserIDLocal.
func AuthRequired(secret string) fiber.Handler {
	verify := SessionVerifier(secret)
	return func(c *fiber.Ctx) error {
		if c.Get("Authorization") == "" {
			return unauthorized(c, "Authorization header required")
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			return unauthorized(c, "Invalid authorization header format")
		}
		userID, err := verify(tokenString)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}
		c.Locals(UserIDLocal, userID)
		return c.Next()
	}
}

// WebSocketAuthRequired validates the ?token= query parameter (falling back
// to the Authorization header) with verify.
func WebSocketAuthRequired(verify TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := c.Query("token")
		if tokenString == "" {
			var ok bool
			if tokenString, ok = bearerToken(c); !ok {
				return unauthorized(c, "Token required")
			}
		}
		userID, err := verify(tokenString)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}
		c.Locals(UserIDLocal, userID)
		return c.Next()
	}
}

// UserID returns the authenticated caller, or "" outside AuthRequired routes.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(UserIDLocal).(string)
	return id
}
