package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/eventbus"
	"github.com/hrms-go/backend/internal/handler"
	"github.com/hrms-go/backend/internal/pkg/database"
	"github.com/hrms-go/backend/internal/pkg/mailer"
	"github.com/hrms-go/backend/internal/pkg/storage"
	"github.com/hrms-go/backend/internal/repository"
	"github.com/hrms-go/backend/internal/router"
	"github.com/hrms-go/backend/internal/service"
	"github.com/hrms-go/backend/internal/service/orchestrator"
	"github.com/hrms-go/backend/internal/subscriber"
	"gorm.io/gorm"
	"k8s.io/klog/v2"
)

// app 进程内共享的依赖
type app struct {
	cfg          *config.Config
	db           *gorm.DB
	orchestrator *orchestrator.Orchestrator

	templates  service.TemplateService
	instances  service.InstanceService
	audit      service.AuditService
	onboarding service.OnboardingService
	sweeper    service.SweeperService
	editor     service.DocumentEditorService
}

// newApp 初始化数据库、存储、通知与全部服务
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := database.InitDB(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}

	notifier, err := service.NewNotificationService(mailer.New(cfg.SMTP), cfg.SMTP, cfg.Contract)
	if err != nil {
		return nil, fmt.Errorf("initialize notifications: %w", err)
	}
	if !notifier.Enabled() {
		klog.Warningf("SMTP 未配置，邮件通知已禁用")
	}

	// 通知在协程池中异步发送，不阻塞状态变更
	exec, err := orchestrator.NewOrchestrator(cfg.Notifier.Workers)
	if err != nil {
		return nil, fmt.Errorf("initialize orchestrator: %w", err)
	}

	// 初始化 Repository
	templateRepo := repository.NewTemplateRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	onboardingRepo := repository.NewOnboardingRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)

	// 初始化 Service
	bus := eventbus.NewContractEventBus()
	a := &app{cfg: cfg, db: db, orchestrator: exec}
	a.audit = service.NewAuditService(auditRepo, instanceRepo)
	a.templates = service.NewTemplateService(templateRepo, store)
	a.instances = service.NewInstanceService(cfg.Contract, instanceRepo, templateRepo, store, a.audit, bus)
	a.onboarding = service.NewOnboardingService(cfg.Onboarding.Documents, onboardingRepo, employeeRepo, a.instances)
	a.sweeper = service.NewSweeperService(cfg.Contract, instanceRepo, onboardingRepo, a.instances)
	a.editor = service.NewDocumentEditorService(a.templates, store)

	subscriber.NewContractNotificationSubscriber(notifier, exec).Register(bus)
	subscriber.NewOnboardingSyncSubscriber(a.onboarding).Register(bus)

	return a, nil
}

func (a *app) router() *gin.Engine {
	return router.Setup(a.cfg, router.Handlers{
		Health:     handler.NewHealthHandler(a.db, a.orchestrator),
		Templates:  handler.NewContractTemplateHandler(a.templates),
		Instances:  handler.NewContractInstanceHandler(a.instances, a.audit),
		Sweeps:     handler.NewSweepHandler(a.sweeper),
		Editor:     handler.NewDocumentEditorHandler(a.editor),
		Onboarding: handler.NewOnboardingHandler(a.onboarding),
	})
}

// close 等待未发送的通知，随后关闭数据库连接
func (a *app) close() {
	a.orchestrator.Stop(30 * time.Second)
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
