package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/internal/service"
)

// DocumentEditorHandler PDF 编辑 Handler
type DocumentEditorHandler struct {
	editor service.DocumentEditorService
}

func NewDocumentEditorHandler(editor service.DocumentEditorService) *DocumentEditorHandler {
	return &DocumentEditorHandler{editor: editor}
}

type templateRequest struct {
	TemplateID uint `json:"template_id"`
}

// RegisterRoutes 注册路由
func (h *DocumentEditorHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/fill-fields", edit(h.editor.FillFields))
	router.POST("/add-signature", edit(h.editor.AddSignature))
	router.POST("/merge", edit(h.editor.Merge))
	router.POST("/extract-pages", edit(h.editor.ExtractPages))
	router.POST("/delete-pages", edit(h.editor.DeletePages))
	router.POST("/reorder-pages", edit(h.editor.ReorderPages))
	router.POST("/rotate-pages", edit(h.editor.RotatePages))
	router.POST("/watermark", edit(h.editor.Watermark))
	router.POST("/metadata", edit(h.editor.WriteMetadata))
	router.POST("/compress", edit(func(ctx context.Context, req templateRequest) (*service.EditResult, error) {
		return h.editor.Compress(ctx, req.TemplateID)
	}))
	router.POST("/split", h.Split)
	router.GET("/metadata/:templateId", h.GetMetadata)
	router.GET("/info/:templateId", h.GetInfo)
}

// edit 绑定请求体并执行编辑操作
func edit[T any](fn func(ctx context.Context, req T) (*service.EditResult, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req T
		if err := c.ShouldBindJSON(&req); err != nil {
			respondFail(c, http.StatusBadRequest, msgInvalidRequest, "invalid request body: "+err.Error())
			return
		}
		result, err := fn(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, result)
	}
}

// Split 按页拆分
func (h *DocumentEditorHandler) Split(c *gin.Context) {
	var req templateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, msgInvalidRequest, "invalid request body: "+err.Error())
		return
	}
	parts, err := h.editor.Split(c.Request.Context(), req.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, parts)
}

func (h *DocumentEditorHandler) GetMetadata(c *gin.Context) {
	id, ok := parseID(c, "templateId")
	if !ok {
		return
	}
	metadata, err := h.editor.GetMetadata(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, metadata)
}

func (h *DocumentEditorHandler) GetInfo(c *gin.Context) {
	id, ok := parseID(c, "templateId")
	if !ok {
		return
	}
	info, err := h.editor.GetInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, info)
}
