package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/internal/middleware"
	"github.com/hrms-go/backend/internal/service"
)

// OnboardingHandler 入职文档 Handler
type OnboardingHandler struct {
	onboardingService service.OnboardingService
}

func NewOnboardingHandler(onboardingService service.OnboardingService) *OnboardingHandler {
	return &OnboardingHandler{onboardingService: onboardingService}
}

type employeeRequest struct {
	EmployeeID uint `json:"employee_id" binding:"required"`
}

// RegisterRoutes 注册路由
func (h *OnboardingHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/create-checklist", h.CreateChecklist)
	router.POST("/send-documents", h.SendDocuments)
	router.POST("/:id/waive", h.Waive)
	router.GET("/employee/:employeeId", h.ListByEmployee)
	router.GET("/employee/:employeeId/progress", h.Progress)
}

// CreateChecklist 按策略生成入职清单
func (h *OnboardingHandler) CreateChecklist(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, msgValidation, "employee_id is required")
		return
	}
	docs, err := h.onboardingService.CreateChecklist(c.Request.Context(), req.EmployeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, docs)
}

// SendDocuments 为待处理文档生成并发送合同
func (h *OnboardingHandler) SendDocuments(c *gin.Context) {
	var req employeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, msgValidation, "employee_id is required")
		return
	}
	result, err := h.onboardingService.SendDocuments(c.Request.Context(), req.EmployeeID, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *OnboardingHandler) Waive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req reasonRequest
	if !bindJSON(c, &req) {
		return
	}
	doc, err := h.onboardingService.Waive(c.Request.Context(), id, req.Reason, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "document waived", doc, "")
}

func (h *OnboardingHandler) ListByEmployee(c *gin.Context) {
	employeeID, ok := parseID(c, "employeeId")
	if !ok {
		return
	}
	docs, err := h.onboardingService.ListByEmployee(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, docs)
}

// Progress 入职进度
func (h *OnboardingHandler) Progress(c *gin.Context) {
	employeeID, ok := parseID(c, "employeeId")
	if !ok {
		return
	}
	progress, err := h.onboardingService.GetEmployeeProgress(c.Request.Context(), employeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, progress)
}
