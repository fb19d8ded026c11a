package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/internal/service/orchestrator"
	"gorm.io/gorm"
)

type queueStatusProvider interface {
	GetQueueStatus() *orchestrator.QueueStatus
}

// HealthHandler 存活与数据库连通性检查
type HealthHandler struct {
	db    *gorm.DB
	queue queueStatusProvider
}

// NewHealthHandler queue 可为 nil
func NewHealthHandler(db *gorm.DB, queue queueStatusProvider) *HealthHandler {
	return &HealthHandler{db: db, queue: queue}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	status := gin.H{"status": "ok", "database": "ok"}
	if h.queue != nil {
		status["notifications"] = h.queue.GetQueueStatus()
	}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		sqlDB, err := h.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Message: "service degraded", Data: status, Error: "database unavailable"})
			return
		}
	}
	respondOK(c, status)
}
