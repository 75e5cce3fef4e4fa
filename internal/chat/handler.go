package chat

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches chat routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/chat-sessions", h.list)
	rg.POST("/chat-sessions", h.create)
	rg.GET("/chat-sessions/:id", h.get)
	rg.DELETE("/chat-sessions/:id", h.remove)
	rg.GET("/chat-sessions/:id/messages", h.messages)
	rg.POST("/chat-sessions/:id/messages", h.ask)
}

func (h *Handler) list(c *gin.Context) {
	sessions, err := h.Svc.ListSessions(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list chat sessions", nil)
		return
	}

	resp := make([]sessionResponse, 0, len(sessions))
	for _, session := range sessions {
		resp = append(resp, toSessionResponse(session))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) create(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	session, err := h.Svc.CreateSession(c.Request.Context(), req.Name, req.DocumentIDs)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrUnknownDocuments):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create chat session", nil)
		}
		return
	}

	c.Set("sessionId", session.ID)
	respond.JSON(c, http.StatusCreated, toSessionResponse(session))
}

func (h *Handler) get(c *gin.Context) {
	session, err := h.Svc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondGetError(c, err)
		return
	}
	c.Set("sessionId", session.ID)
	respond.JSON(c, http.StatusOK, toSessionResponse(session))
}

func (h *Handler) remove(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.Svc.DeleteSession(c.Request.Context(), sessionID); err != nil {
		h.respondGetError(c, err)
		return
	}
	c.Set("sessionId", sessionID)
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) messages(c *gin.Context) {
	sessionID := c.Param("id")
	msgs, err := h.Svc.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		h.respondGetError(c, err)
		return
	}

	resp := make([]messageResponse, 0, len(msgs))
	for _, msg := range msgs {
		resp = append(resp, toMessageResponse(msg))
	}
	c.Set("sessionId", sessionID)
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) ask(c *gin.Context) {
	sessionID := c.Param("id")

	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	userMsg, assistantMsg, err := h.Svc.Ask(c.Request.Context(), sessionID, req.Question)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "chat session not found", nil)
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to answer question", nil)
		}
		return
	}

	c.Set("sessionId", sessionID)
	respond.JSON(c, http.StatusOK, askResponse{
		UserMessage:      toMessageResponse(userMsg),
		AssistantMessage: toMessageResponse(assistantMsg),
	})
}

func (h *Handler) respondGetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "chat session not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch chat session", nil)
	}
}
