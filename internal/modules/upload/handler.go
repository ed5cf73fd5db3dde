package upload

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"qrdrop/internal/modules/session"
	"qrdrop/internal/pkg/response"
)

// Handler handles HTTP upload requests. No authentication: possession of the
// session id or pin is the capability.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UploadByID godoc
// @Summary Upload files to a session by id
// @Description Accepts a multipart batch under the "file" field. All-or-nothing: one bad file rejects the batch.
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Session ID"
// @Param file formData file true "Files to upload"
// @Success 201 {object} map[string]interface{}
// @Failure 400,404,413,500 {object} map[string]interface{}
// @Router /upload/{id} [post]
func (h *Handler) UploadByID(c *gin.Context) {
	h.upload(c, ByID(c.Param("id")))
}

// UploadByPin godoc
// @Summary Upload files to a session by pin
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Param pin formData string true "6-digit session pin"
// @Param file formData file true "Files to upload"
// @Success 201 {object} map[string]interface{}
// @Failure 400,413,500 {object} map[string]interface{}
// @Router /upload [post]
func (h *Handler) UploadByPin(c *gin.Context) {
	pin := c.PostForm("pin")
	if pin == "" {
		response.Error(c, http.StatusBadRequest, "INVALID_PIN", "pin is required")
		return
	}
	h.upload(c, ByPin(pin))
}

func (h *Handler) upload(c *gin.Context, addr Address) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILES", "no files provided")
		return
	}

	files := make([]IncomingFile, 0, len(form.File["file"]))
	for _, fh := range form.File["file"] {
		files = append(files, FromMultipart(fh))
	}

	records, err := h.service.Ingest(addr, files)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionNotFound):
			response.Error(c, http.StatusNotFound, "SESSION_NOT_FOUND", "unknown or expired session")
		case errors.Is(err, session.ErrInvalidPin):
			response.Error(c, http.StatusBadRequest, "INVALID_PIN", "no live session has that pin")
		case errors.Is(err, ErrNoFilesProvided):
			response.Error(c, http.StatusBadRequest, "NO_FILES", "no files provided")
		case errors.Is(err, ErrTooManyFiles):
			response.Error(c, http.StatusBadRequest, "TOO_MANY_FILES", err.Error())
		case errors.Is(err, ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, "STORAGE_WRITE_FAILURE", "failed to store files")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"files": records})
}
