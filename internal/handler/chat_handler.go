package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nickhawn/news-agent/internal/assistant"
)

type Responder interface {
	Respond(ctx context.Context, profileID, message string) assistant.Response
}

type ChatHandler struct {
	assistant Responder
}

func NewChatHandler(a Responder) *ChatHandler {
	return &ChatHandler{assistant: a}
}

func (h *ChatHandler) Chat(c *gin.Context) {

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "profile_id and message are required"})
		return
	}

	requestID := uuid.NewString()

	res := h.assistant.Respond(c.Request.Context(), req.ProfileID, req.Message)

	slog.Info("chat request handled", "request_id", requestID, "profile_id", req.ProfileID, "intent", res.Intent)

	c.JSON(http.StatusOK, ChatResponse{
		RequestID: requestID,
		Intent:    string(res.Intent),
		Reply:     res.Reply,
	})
}
