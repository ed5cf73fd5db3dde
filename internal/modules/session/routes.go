package session

import "github.com/gin-gonic/gin"

func RegisterRoutes(r *gin.RouterGroup, h *Handler) {
	sessions := r.Group("/sessions")
	{
		sessions.POST("", h.Create)
		sessions.POST("/resolve-pin", h.ResolvePin)
		sessions.GET("/:id", h.Get)
	}
}
