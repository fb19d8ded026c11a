package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/internal/service"
)

// SweepHandler 手动触发定时任务
type SweepHandler struct {
	sweeper service.SweeperService
}

func NewSweepHandler(sweeper service.SweeperService) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// RegisterRoutes 注册路由
func (h *SweepHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/sweeps/:job/run", h.Run)
}

// Run 执行指定任务，任务自身失败体现在结果中
func (h *SweepHandler) Run(c *gin.Context) {
	result, err := h.sweeper.Run(c.Request.Context(), c.Param("job"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}
