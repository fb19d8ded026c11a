package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/internal/service"
	"k8s.io/klog/v2"
)

// Response 统一响应结构
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Warning string `json:"warning,omitempty"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Success: true, Data: data})
}

func respondMessage(c *gin.Context, message string, data any, warning string) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data, Warning: warning})
}

// respondFail message 供前端展示，detail 为原始错误信息
func respondFail(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message, Error: detail})
}

func respondInvalidRequest(c *gin.Context, err error) {
	respondFail(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
}

const (
	msgInvalidRequest = "invalid request"
	msgValidation     = "validation failed"
	msgInvalidState   = "invalid state"
	msgInternal       = "internal server error"
)

// respondError 按错误类别映射状态码：NotFound 404，校验与非法状态 400，其余 500
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTemplateNotFound):
		respondFail(c, http.StatusNotFound, "contract template not found", err.Error())
	case errors.Is(err, service.ErrInstanceNotFound):
		respondFail(c, http.StatusNotFound, "contract instance not found", err.Error())
	case errors.Is(err, service.ErrOnboardingDocNotFound):
		respondFail(c, http.StatusNotFound, "onboarding document not found", err.Error())
	case errors.Is(err, service.ErrEmployeeNotFound):
		respondFail(c, http.StatusNotFound, "employee not found", err.Error())
	case errors.Is(err, service.ErrValidation):
		respondFail(c, http.StatusBadRequest, msgValidation, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		respondFail(c, http.StatusBadRequest, msgInvalidState, err.Error())
	case errors.Is(err, service.ErrUnknownSweep):
		respondFail(c, http.StatusBadRequest, "unknown sweep job", err.Error())
	default:
		klog.Errorf("请求处理失败: method=%s, path=%s, error=%v", c.Request.Method, c.FullPath(), err)
		_ = c.Error(err)
		respondFail(c, http.StatusInternalServerError, msgInternal, err.Error())
	}
}

// parseID 解析路径中的数字 ID，失败时已写入 400 响应
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		respondFail(c, http.StatusBadRequest, msgInvalidRequest, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON 请求体为空时保持零值
func bindJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		respondFail(c, http.StatusBadRequest, msgInvalidRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
