package session

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"qrdrop/internal/pkg/qr"
	"qrdrop/internal/pkg/response"
)

// Handler exposes session lifecycle over HTTP: creation (with QR payload),
// entry validation for the upload and viewer pages, and pin resolution.
type Handler struct {
	registry      *Registry
	publicBaseURL string
}

func NewHandler(registry *Registry, publicBaseURL string) *Handler {
	return &Handler{registry: registry, publicBaseURL: publicBaseURL}
}

// Create godoc
// @Summary Open a new drop-point session
// @Description Returns the session id, its pin and a QR code encoding the upload URL.
// @Tags Sessions
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /sessions [post]
func (h *Handler) Create(c *gin.Context) {
	s, err := h.registry.Create()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "SESSION_CREATE_FAILED", "could not create session")
		return
	}

	uploadURL := h.publicBaseURL + "/upload/" + s.ID
	png, err := qr.PNG(uploadURL)
	if err != nil {
		h.registry.Destroy(s.ID)
		response.Error(c, http.StatusInternalServerError, "QR_RENDER_FAILED", "could not render qr code")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"session_id":    s.ID,
		"pin":           s.PIN,
		"upload_url":    uploadURL,
		"qr_png_base64": base64.StdEncoding.EncodeToString(png),
	})
}

// Get godoc
// @Summary Session entry for upload and viewer pages
// @Description Validates the session exists and returns its current file list.
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /sessions/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	s, err := h.registry.Get(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown or expired session")
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session_id": s.ID,
		"created_at": s.CreatedAt,
		"files":      s.Files,
	})
}

// ResolvePin godoc
// @Summary Resolve a pin to its session
// @Tags Sessions
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /sessions/resolve-pin [post]
func (h *Handler) ResolvePin(c *gin.Context) {
	var req struct {
		Pin string `json:"pin" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_PIN", "pin is required")
		return
	}

	id, err := h.registry.ResolvePin(req.Pin)
	if err != nil {
		if errors.Is(err, ErrInvalidPin) {
			response.Error(c, http.StatusBadRequest, "INVALID_PIN", "no live session has that pin")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL", "pin resolution failed")
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"session_id": id,
		"redirect":   "/upload/" + id,
	})
}
