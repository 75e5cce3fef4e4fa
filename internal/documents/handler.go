package documents

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/shared/server/respond"
)

const maxUploadSize = 50 << 20 // 50MB

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/documents", h.list)
	rg.POST("/documents", h.upload)
	rg.GET("/documents/:id", h.get)
	rg.DELETE("/documents/:id", h.remove)
	rg.GET("/documents/:id/content", h.content)
	rg.GET("/documents/:id/chunks", h.chunks)
}

func (h *Handler) list(c *gin.Context) {
	docs, err := h.Svc.List(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list documents", nil)
		return
	}

	resp := make([]documentResponse, 0, len(docs))
	for _, doc := range docs {
		resp = append(resp, toResponse(doc))
	}
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	fileHeader, err := c.FormFile("document")
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "document file is required", nil)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
		return
	}
	defer file.Close()

	doc, err := h.Svc.Upload(c.Request.Context(), fileHeader.Filename, file)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to upload document", nil)
		}
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusCreated, toResponse(doc))
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondGetError(c, err)
		return
	}
	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusOK, toResponse(doc))
}

func (h *Handler) remove(c *gin.Context) {
	documentID := c.Param("id")
	if err := h.Svc.Delete(c.Request.Context(), documentID); err != nil {
		h.respondGetError(c, err)
		return
	}
	c.Set("documentId", documentID)
	respond.JSON(c, http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) content(c *gin.Context) {
	doc, err := h.Svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondGetError(c, err)
		return
	}

	c.Set("documentId", doc.ID)
	respond.JSON(c, http.StatusOK, gin.H{
		"documentId": doc.ID,
		"name":       doc.Name,
		"type":       doc.FileType,
		"content":    doc.Content,
	})
}

func (h *Handler) chunks(c *gin.Context) {
	documentID := c.Param("id")
	chunks, err := h.Svc.ListChunks(c.Request.Context(), documentID)
	if err != nil {
		h.respondGetError(c, err)
		return
	}

	resp := make([]chunkResponse, 0, len(chunks))
	for _, chunk := range chunks {
		resp = append(resp, toChunkResponse(chunk))
	}
	c.Set("documentId", documentID)
	respond.JSON(c, http.StatusOK, resp)
}

func (h *Handler) respondGetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch document", nil)
	}
}
