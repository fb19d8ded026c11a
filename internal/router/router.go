package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/handler"
	"github.com/hrms-go/backend/internal/middleware"
)

// Handlers 路由依赖的全部 Handler
type Handlers struct {
	Health     *handler.HealthHandler
	Templates  *handler.ContractTemplateHandler
	Instances  *handler.ContractInstanceHandler
	Sweeps     *handler.SweepHandler
	Editor     *handler.DocumentEditorHandler
	Onboarding *handler.OnboardingHandler
}

func Setup(cfg *config.Config, h Handlers) *gin.Engine {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.AccessLog(), middleware.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	r.GET("/healthz", h.Health.Healthz)

	api := r.Group("/api", middleware.OptionalAuth(cfg.Auth.JWTSecret))
	{
		contracts := api.Group("/contracts")
		h.Templates.RegisterRoutes(contracts)
		h.Instances.RegisterRoutes(contracts)
		h.Sweeps.RegisterRoutes(contracts)

		h.Editor.RegisterRoutes(api.Group("/document-editor"))
		h.Onboarding.RegisterRoutes(api.Group("/onboarding"))
	}

	return r
}
