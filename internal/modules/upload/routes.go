package upload

import "github.com/gin-gonic/gin"

// RegisterRoutes registers the two upload addressing paths: direct session id
// (QR flow) and pin form field (manual flow).
func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	r.POST("/upload/:id", h.UploadByID)
	r.POST("/upload", h.UploadByPin)
}
