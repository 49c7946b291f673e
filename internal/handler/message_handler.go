package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"coursebook/internal/errors"
	"coursebook/internal/service"
)

// MessageHandler handles course messaging endpoints.
type MessageHandler struct {
	msgService  service.MessageService
	userService service.UserService
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(msgService service.MessageService, userService service.UserService) *MessageHandler {
	return &MessageHandler{msgService: msgService, userService: userService}
}

// SendMessageRequest represents a message submission. A missing recipient
// means broadcast when the sender leads the course.
type SendMessageRequest struct {
	CourseID    string  `json:"course_id" validate:"required,uuid4"`
	RecipientID *string `json:"recipient_id" validate:"omitempty,uuid4"`
	Content     string  `json:"content" validate:"required,max=5000"`
}

// Send godoc
// @Summary Send a message within a course
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendMessageRequest true "Message"
// @Success 201 {object} model.Message
// @Failure 403 {object} errors.ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) Send(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}

	var req SendMessageRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "invalid course_id",
			Code:  "INVALID_UUID",
		})
	}

	var recipientID *uuid.UUID
	if req.RecipientID != nil {
		id, err := uuid.Parse(*req.RecipientID)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid recipient_id",
				Code:  "INVALID_UUID",
			})
		}
		recipientID = &id
	}

	sender, err := h.userService.GetUser(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}

	msg, err := h.msgService.Send(c.Request().Context(), sender, courseID, recipientID, req.Content)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, msg)
}

// Inbox godoc
// @Summary List received messages, broadcasts included
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Message
// @Router /messages/inbox [get]
func (h *MessageHandler) Inbox(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	messages, err := h.msgService.Inbox(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, messages)
}

// Sent godoc
// @Summary List sent messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Message
// @Router /messages/sent [get]
func (h *MessageHandler) Sent(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	messages, err := h.msgService.Sent(c.Request().Context(), userID)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, messages)
}

// MarkRead godoc
// @Summary Mark a direct message as read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path string true "Message ID"
// @Success 200 {object} MessageResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /messages/{id}/read [patch]
func (h *MessageHandler) MarkRead(c echo.Context) error {
	userID, err := CurrentUserID(c)
	if err != nil {
		return err
	}
	messageID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	if err := h.msgService.MarkRead(c.Request().Context(), userID, messageID); err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Message marked as read"})
}
