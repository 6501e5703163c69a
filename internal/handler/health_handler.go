package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler はヘルスチェックAPIのハンドラー
type HealthHandler struct {
	service string
}

// NewHealthHandler は新しいHealthHandlerインスタンスを作成
func NewHealthHandler(service string) *HealthHandler {
	return &HealthHandler{service: service}
}

// GetHealth GET /health
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
	})
}
