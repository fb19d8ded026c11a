package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/internal/middleware"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/service"
)

// ContractInstanceHandler 合同实例 Handler
type ContractInstanceHandler struct {
	instanceService service.InstanceService
	auditService    service.AuditService
}

func NewContractInstanceHandler(instanceService service.InstanceService, auditService service.AuditService) *ContractInstanceHandler {
	return &ContractInstanceHandler{instanceService: instanceService, auditService: auditService}
}

// RegisterRoutes 注册路由
func (h *ContractInstanceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/instances", h.List)
	router.POST("/instances", h.Create)
	router.GET("/instances/:id", h.Get)
	router.DELETE("/instances/:id", h.Delete)
	router.POST("/instances/:id/send", h.Send)
	router.POST("/instances/:id/viewed", h.MarkViewed)
	router.POST("/instances/:id/in-progress", h.MarkInProgress)
	router.POST("/instances/:id/complete", h.Complete)
	router.POST("/instances/:id/sign", h.Sign)
	router.POST("/instances/:id/decline", h.Decline)
	router.POST("/instances/:id/cancel", h.Cancel)
	router.POST("/instances/:id/remind", h.Remind)
	router.GET("/instances/:id/audit-trail", h.AuditTrail)
}

type completeRequest struct {
	SignedFilePath string `json:"signed_file_path"`
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (h *ContractInstanceHandler) List(c *gin.Context) {
	var filter service.InstanceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	result, err := h.instanceService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

// Create 基于模板创建草稿实例
func (h *ContractInstanceHandler) Create(c *gin.Context) {
	var req service.CreateInstanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	instance, err := h.instanceService.Create(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, instance)
}

func (h *ContractInstanceHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	instance, err := h.instanceService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, instance)
}

func (h *ContractInstanceHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.instanceService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "contract instance deleted", nil, "")
}

func (h *ContractInstanceHandler) Send(c *gin.Context) {
	h.transition(c, "contract sent", func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error) {
		return h.instanceService.Send(ctx, id, actor)
	})
}

func (h *ContractInstanceHandler) MarkViewed(c *gin.Context) {
	h.transition(c, "contract viewed", func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error) {
		return h.instanceService.MarkViewed(ctx, id, actor)
	})
}

func (h *ContractInstanceHandler) MarkInProgress(c *gin.Context) {
	h.transition(c, "contract in progress", func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error) {
		return h.instanceService.MarkInProgress(ctx, id, actor)
	})
}

func (h *ContractInstanceHandler) Complete(c *gin.Context) {
	var req completeRequest
	if !bindJSON(c, &req) {
		return
	}
	h.transition(c, "contract completed", func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error) {
		return h.instanceService.Complete(ctx, id, req.SignedFilePath, actor)
	})
}

// Sign 渲染字段与签名后完成实例
func (h *ContractInstanceHandler) Sign(c *gin.Context) {
	var req service.SignRequest
	if !bindJSON(c, &req) {
		return
	}
	h.transition(c, "contract signed", func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error) {
		return h.instanceService.Sign(ctx, id, req, actor)
	})
}

func (h *ContractInstanceHandler) Decline(c *gin.Context) {
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}
	h.transition(c, "contract declined", func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error) {
		return h.instanceService.Decline(ctx, id, req.Reason, actor)
	})
}

func (h *ContractInstanceHandler) Cancel(c *gin.Context) {
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}
	h.transition(c, "contract cancelled", func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error) {
		return h.instanceService.Cancel(ctx, id, req.Reason, actor)
	})
}

func (h *ContractInstanceHandler) Remind(c *gin.Context) {
	h.transition(c, "reminder sent", func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error) {
		return h.instanceService.Remind(ctx, id, actor)
	})
}

// AuditTrail 审计记录，按时间倒序
func (h *ContractInstanceHandler) AuditTrail(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	logs, err := h.auditService.List(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, logs)
}

type transitionFunc func(ctx context.Context, id uint, actor model.Actor) (*service.TransitionResult, error)

func (h *ContractInstanceHandler) transition(c *gin.Context, message string, fn transitionFunc) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	result, err := fn(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, message, result.Instance, result.Warning)
}
