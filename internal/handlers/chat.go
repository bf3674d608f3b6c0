package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/chat"
	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

// ChatHandler manages direct-message endpoints.
type ChatHandler struct {
	lifecycle *chat.Lifecycle
	projector *chat.Projector
	messages  repositories.MessageRepository
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(lifecycle *chat.Lifecycle, projector *chat.Projector, messages repositories.MessageRepository) *ChatHandler {
	return &ChatHandler{
		lifecycle: lifecycle,
		projector: projector,
		messages:  messages,
	}
}

// ListChats returns the authenticated user's chat list, newest first.
func (h *ChatHandler) ListChats(c *gin.Context) {
	userID := c.GetString("userID")

	chats, err := h.projector.ChatList(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetChatMessages returns the messages of one chat ordered by timestamp.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := c.GetString("userID")

	if !models.IsChatParticipant(chatID, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	msgs, err := h.messages.ListByChat(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostMessage stores a direct message and fans it out.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req struct {
		ReceiverID string `json:"receiverId" binding:"required"`
		Message    string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetString("userID")
	msg, err := h.lifecycle.Send(c.Request.Context(), userID, req.ReceiverID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkChatRead marks every message addressed to the caller in a chat as read.
func (h *ChatHandler) MarkChatRead(c *gin.Context) {
	chatID := c.Param("chat_id")
	userID := c.GetString("userID")

	if !models.IsChatParticipant(chatID, userID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat member"})
		return
	}

	if err := h.lifecycle.MarkRead(c.Request.Context(), userID, chatID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark chat read"})
		return
	}

	c.Status(http.StatusNoContent)
}

// UpdateMessageStatus moves one message forward along the delivery lifecycle.
func (h *ChatHandler) UpdateMessageStatus(c *gin.Context) {
	messageID := c.Param("message_id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.lifecycle.UpdateStatus(c.Request.Context(), messageID, models.MessageStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrBadStatus), errors.Is(err, repositories.ErrInvalidTransition):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status transition"})
		case errors.Is(err, repositories.ErrMessageNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "message not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update message"})
		}
		return
	}

	c.JSON(http.StatusOK, msg)
}
