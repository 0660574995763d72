package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lexiguide-backend/internal/shared/server/middleware"
	"lexiguide-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the chat service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/chat", h.chat)
}

type chatRequest struct {
	DocumentText string `json:"documentText"`
	Question     string `json:"question"`
	Language     string `json:"language"`
}

func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid request body")
		return
	}

	answer, err := h.Svc.Answer(c.Request.Context(), Request{
		DocumentText: req.DocumentText,
		Question:     req.Question,
		Language:     req.Language,
		RequestID:    middleware.RequestIDFromContext(c),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrQuestionRequired):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Question is required")
		case errors.Is(err, ErrModelReply):
			respond.Error(c, http.StatusBadGateway, "chat_failed", "The assistant could not answer right now. Please try again.")
		default:
			respond.Error(c, http.StatusInternalServerError, "internal", "Failed to answer question")
		}
		return
	}

	respond.OK(c, gin.H{"answer": answer})
}
