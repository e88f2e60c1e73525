package server

import (
	"github.com/gofiber/fiber/v2"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

// GetChat returns the messages of a chat.
// @Summary Get chat messages
// @Tags chats
// @Produce json
// @Param chatId path string true "Chat ID"
// @Success 200 {object} object{messages=[]models.Message}
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{chatId} [get]
func (s *Server) GetChat(c *fiber.Ctx) error {
	messages, err := s.chatService.GetChat(c.UserContext(), c.Params("chatId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// SendMessage appends a message from the caller and notifies the other participant.
// @Summary Send chat message
// @Tags chats
// @Accept json
// @Produce json
// @Param chatId path string true "Chat ID"
// @Param request body object{content=string} true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /chats/{chatId}/send [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req sendMessageRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	msg, err := s.chatService.SendMessage(c.UserContext(), c.Params("chatId"), userID(c), req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
