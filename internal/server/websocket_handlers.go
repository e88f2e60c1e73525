package server

import (
	"context"

	"bigvyapaar/internal/middleware"
	"bigvyapaar/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const wsSendBuffer = 32

// WebsocketHandler streams the caller's notifications until either side
// closes the connection or the server shuts down.
// @Summary Notification stream
// @Description Upgrades to a websocket carrying chat notifications
// @Tags realtime
// @Param token query string true "Notification access token"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		observability.ActiveWebSockets.Inc()
		defer observability.ActiveWebSockets.Dec()

		uid, _ := conn.Locals(middleware.UserIDLocal).(string)
		ctx, cancel := context.WithCancel(s.shutdownCtx)
		defer cancel()
		ctx = context.WithValue(ctx, observability.UserIDKey, uid)

		outbound := make(chan string, wsSendBuffer)
		err := s.notifier.SubscribeUser(ctx, uid, func(payload string) {
			select {
			case outbound <- payload:
			default:
				observability.Logger.WarnContext(ctx, "websocket send buffer full, dropping notification")
			}
		})
		if err != nil {
			observability.Logger.ErrorContext(ctx, "websocket subscribe failed", "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"notifications unavailable"}`))
			_ = conn.Close()
			return
		}

		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case <-ctx.Done():
				_ = conn.Close()
				return
			case payload := <-outbound:
				if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
					return
				}
			}
		}
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
