package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"messenger-service/internal/calls"
)

// CallHandler exposes the call history endpoint.
type CallHandler struct {
	engine *calls.Engine
}

// NewCallHandler builds a CallHandler.
func NewCallHandler(engine *calls.Engine) *CallHandler {
	return &CallHandler{engine: engine}
}

// ListCalls returns the caller's call log, newest first.
func (h *CallHandler) ListCalls(c *gin.Context) {
	userID := c.GetString("userID")

	logs, err := h.engine.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load call history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"calls": logs})
}
