package server

import (
	"strings"

	"freebies/internal/models"
	"freebies/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMessages handles GET /api/messages
// @Summary List inbox messages
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Param type query string false "like, comment, got_it or follow"
// @Param unread_only query bool false "Only unread messages"
// @Param skip query int false "Messages to skip" default(0)
// @Param limit query int false "Page size" default(20)
// @Success 200 {array} models.Message
// @Router /messages [get]
func (s *Server) GetMessages(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	list, err := s.messageService.List(c.UserContext(), service.ListMessagesInput{
		UserID:     currentUserID(c),
		Type:       models.MessageType(strings.TrimSpace(c.Query("type"))),
		UnreadOnly: c.QueryBool("unread_only", false),
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// MarkMessageRead handles PUT /api/messages/:id/read
func (s *Server) MarkMessageRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	m, err := s.messageService.MarkRead(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(m)
}

// MarkAllMessagesRead handles PUT /api/messages/read-all
func (s *Server) MarkAllMessagesRead(c *fiber.Ctx) error {
	updated, err := s.messageService.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}

// DeleteMessage handles DELETE /api/messages/:id
func (s *Server) DeleteMessage(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.messageService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetUnreadMessageCount handles GET /api/messages/unread/count
// @Summary Unread inbox summary
// @Tags Messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UnreadMessageCount
// @Router /messages/unread/count [get]
func (s *Server) GetUnreadMessageCount(c *fiber.Ctx) error {
	count, err := s.messageService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(count)
}
