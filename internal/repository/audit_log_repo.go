package repository

import (
	"context"

	"github.com/hrms-go/backend/internal/model"
	"gorm.io/gorm"
)

// auditLogRepository 合同审计日志仓储实现
type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository 创建审计日志仓储
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

// Create 追加一条审计记录
func (r *auditLogRepository) Create(ctx context.Context, log *model.ContractAuditLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// ListByInstance 按时间倒序返回实例的全部审计记录
func (r *auditLogRepository) ListByInstance(ctx context.Context, instanceID uint) ([]model.ContractAuditLog, error) {
	var logs []model.ContractAuditLog
	err := r.db.WithContext(ctx).
		Where("instance_id = ?", instanceID).
		Order("created_at DESC, id DESC").
		Find(&logs).Error
	return logs, err
}
