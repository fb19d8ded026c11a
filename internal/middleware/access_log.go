package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"k8s.io/klog/v2"
)

// AccessLog 请求结束后记录访问日志，5xx 按错误级别输出
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path += "?" + raw
		}

		c.Next()

		status := c.Writer.Status()
		latency := time.Since(start)
		switch {
		case status >= 500:
			klog.Errorf("%s %s status=%d latency=%v ip=%s request_id=%s errors=%s",
				c.Request.Method, path, status, latency, c.ClientIP(), GetRequestID(c), c.Errors.String())
		case status >= 400:
			klog.Warningf("%s %s status=%d latency=%v ip=%s request_id=%s",
				c.Request.Method, path, status, latency, c.ClientIP(), GetRequestID(c))
		default:
			klog.V(6).Infof("%s %s status=%d latency=%v ip=%s request_id=%s",
				c.Request.Method, path, status, latency, c.ClientIP(), GetRequestID(c))
		}
	}
}

// Recovery 捕获 panic 并返回统一的 500 响应
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		klog.Errorf("panic recovered: %v, method=%s, path=%s, request_id=%s",
			recovered, c.Request.Method, c.Request.URL.Path, GetRequestID(c))
		c.AbortWithStatusJSON(500, gin.H{
			"success": false,
			"message": "internal server error",
			"error":   "internal server error",
		})
	})
}
