package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/internal/middleware"
	"github.com/hrms-go/backend/internal/service"
)

// maxUploadSize 模板源文件大小上限
const maxUploadSize = 20 << 20

// ContractTemplateHandler 合同模板 Handler
type ContractTemplateHandler struct {
	templateService service.TemplateService
}

// NewContractTemplateHandler 创建 Handler
func NewContractTemplateHandler(templateService service.TemplateService) *ContractTemplateHandler {
	return &ContractTemplateHandler{templateService: templateService}
}

// RegisterRoutes 注册路由
func (h *ContractTemplateHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/templates", h.ListTemplates)
	router.POST("/templates", h.CreateTemplate)
	router.GET("/templates/:id", h.GetTemplate)
	router.PUT("/templates/:id", h.UpdateTemplate)
	router.DELETE("/templates/:id", h.DeleteTemplate)
	router.PUT("/templates/:id/fields", h.SaveFields)
	router.POST("/templates/:id/duplicate", h.Duplicate)
	router.POST("/templates/:id/upload", h.Upload)
}

// ListTemplates 获取模板列表
func (h *ContractTemplateHandler) ListTemplates(c *gin.Context) {
	var filter service.TemplateListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	templates, err := h.templateService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, templates)
}

// GetTemplate 获取模板详情
func (h *ContractTemplateHandler) GetTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	template, err := h.templateService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, template)
}

// CreateTemplate 创建模板
func (h *ContractTemplateHandler) CreateTemplate(c *gin.Context) {
	var req service.CreateContractTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	template, err := h.templateService.Create(c.Request.Context(), req, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, template)
}

// UpdateTemplate 更新模板
func (h *ContractTemplateHandler) UpdateTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateContractTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	template, err := h.templateService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, template)
}

// DeleteTemplate 删除模板
func (h *ContractTemplateHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.templateService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, "template deleted", nil, "")
}

// SaveFields 整体替换字段
func (h *ContractTemplateHandler) SaveFields(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Fields []service.TemplateFieldInput `json:"fields"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	template, err := h.templateService.SaveFields(c.Request.Context(), id, req.Fields)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, template)
}

// Duplicate 复制模板
func (h *ContractTemplateHandler) Duplicate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	template, err := h.templateService.Duplicate(c.Request.Context(), id, middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, template)
}

// Upload 上传模板源 PDF（multipart 字段 file）
func (h *ContractTemplateHandler) Upload(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondFail(c, http.StatusBadRequest, msgInvalidRequest, "file is required")
		return
	}
	if fileHeader.Size > maxUploadSize {
		respondFail(c, http.StatusBadRequest, msgValidation, "file is too large")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		respondError(c, err)
		return
	}

	template, err := h.templateService.UploadSource(c.Request.Context(), id, fileHeader.Filename, data)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, template)
}
