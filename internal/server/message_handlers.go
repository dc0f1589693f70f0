package server

import (
	"campusrent/internal/service"

	"github.com/gofiber/fiber/v2"
)

// SendMessage handles POST /messages/send
// @Summary Send a message about a rental
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param sender_id query int false "Sender (legacy identity)"
// @Param request body service.SendMessageInput true "Message"
// @Success 201 {object} models.Message
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /messages/send [post]
func (s *Server) SendMessage(c *fiber.Ctx) error {
	var req service.SendMessageInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	msg, err := s.messageService.Send(c.UserContext(), currentUserID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(msg)
}

// GetInbox handles GET /messages/inbox
// @Summary Messages sent or received, newest first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "User (legacy identity)"
// @Success 200 {array} models.Message
// @Router /messages/inbox [get]
func (s *Server) GetInbox(c *fiber.Ctx) error {
	messages, err := s.messageService.Inbox(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(messages)
}

// GetNotifications handles GET /notifications
// @Summary Notifications, newest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param user_id query int false "User (legacy identity)"
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	notifications, err := s.notificationService.List(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(notifications)
}
