package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/hrms-go/backend/internal/model"
	"k8s.io/klog/v2"
)

const actorKey = "actor"

// Claims 由 HRMS 登录服务签发，这里只做校验
type Claims struct {
	UserID uint   `json:"user_id"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// OptionalAuth 有 Bearer 令牌时校验并记录操作人；无令牌或未配置密钥时按 System 处理。
// 携带了无效令牌的请求返回 401。
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := model.Actor{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}

		header := c.GetHeader("Authorization")
		if header == "" || secret == "" {
			c.Set(actorKey, actor)
			c.Next()
			return
		}

		claims, err := parseToken(header, secret)
		if err != nil {
			klog.V(6).Infof("令牌校验失败: ip=%s, error=%v", actor.IPAddress, err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "authentication failed",
				"error":   "invalid or expired token",
			})
			return
		}
		if claims.UserID != 0 {
			id := claims.UserID
			actor.ID = &id
		}
		actor.Name = claims.Name
		if actor.Name == "" {
			actor.Name = claims.Subject
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func parseToken(header, secret string) (*Claims, error) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, errors.New("invalid authorization header format")
	}
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token is not valid")
	}
	return claims, nil
}

// GetActor 返回当前请求的操作人，未经过认证中间件时为 System
func GetActor(c *gin.Context) model.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(model.Actor); ok {
			return actor
		}
	}
	return model.Actor{IPAddress: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}
