package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/repository"
	"github.com/hrms-go/backend/internal/utils"
	"k8s.io/klog/v2"
)

// 审计动作
const (
	AuditActionCreated      = "created"
	AuditActionSent         = "sent"
	AuditActionViewed       = "viewed"
	AuditActionInProgress   = "in_progress"
	AuditActionCompleted    = "completed"
	AuditActionDeclined     = "declined"
	AuditActionCancelled    = "cancelled"
	AuditActionExpired      = "expired"
	AuditActionReminderSent = "reminder_sent"
)

// AuditService 合同审计日志服务
type AuditService interface {
	// Append 追加一条审计记录，失败只记录日志
	Append(ctx context.Context, instanceID uint, action string, actor model.Actor, details map[string]any)
	List(ctx context.Context, instanceID uint) ([]model.ContractAuditLog, error)
}

type auditService struct {
	auditRepo    repository.AuditLogRepository
	instanceRepo repository.InstanceRepository
}

func NewAuditService(auditRepo repository.AuditLogRepository, instanceRepo repository.InstanceRepository) AuditService {
	return &auditService{auditRepo: auditRepo, instanceRepo: instanceRepo}
}

// NewAuditEntry 构建审计记录，操作人为空时记为 System
func NewAuditEntry(instanceID uint, action string, actor model.Actor, details map[string]any) *model.ContractAuditLog {
	return &model.ContractAuditLog{
		InstanceID: instanceID,
		Action:     action,
		ActorID:    actor.ID,
		ActorName:  actor.DisplayName(),
		IPAddress:  actor.IPAddress,
		UserAgent:  actor.UserAgent,
		Details:    utils.ToJSONColumn(details),
	}
}

func (s *auditService) Append(ctx context.Context, instanceID uint, action string, actor model.Actor, details map[string]any) {
	entry := NewAuditEntry(instanceID, action, actor, details)
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		klog.Warningf("写入审计日志失败: instanceID=%d, action=%s, error=%v", instanceID, action, err)
	}
}

// List 按时间倒序返回审计记录
func (s *auditService) List(ctx context.Context, instanceID uint) ([]model.ContractAuditLog, error) {
	if _, err := s.instanceRepo.Get(ctx, instanceID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get contract instance: %w", err)
	}
	logs, err := s.auditRepo.ListByInstance(ctx, instanceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit trail: %w", err)
	}
	return logs, nil
}
