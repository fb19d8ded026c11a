package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/eventbus"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/pkg/pdfdoc"
	"github.com/hrms-go/backend/internal/pkg/storage"
	"github.com/hrms-go/backend/internal/repository"
	"github.com/hrms-go/backend/internal/service/statemachine"
	"github.com/hrms-go/backend/internal/utils"
	"k8s.io/klog/v2"
)

var recipientTypes = []string{"employee", "vendor", "other"}

// CreateInstanceRequest 创建合同实例请求
type CreateInstanceRequest struct {
	TemplateID     uint           `json:"template_id"`
	Title          string         `json:"title"`
	RecipientType  string         `json:"recipient_type"`
	RecipientID    *uint          `json:"recipient_id"`
	RecipientEmail string         `json:"recipient_email"`
	RecipientName  string         `json:"recipient_name"`
	ExpiresInDays  *int           `json:"expires_in_days"`
	Metadata       map[string]any `json:"metadata"`
}

// SignRequest 签署请求：字段值按 field_name 提供，签名为 base64 PNG
type SignRequest struct {
	Values    map[string]string `json:"values"`
	Signature string            `json:"signature"`
}

// InstanceListFilter 实例列表过滤
type InstanceListFilter struct {
	Status         string `form:"status"`
	TemplateID     uint   `form:"template_id"`
	RecipientEmail string `form:"recipient_email"`
	RecipientID    uint   `form:"recipient_id"`
	Search         string `form:"search"`
	Page           int    `form:"page"`
	PageSize       int    `form:"page_size"`
}

// InstanceListResult 分页结果
type InstanceListResult struct {
	Items    []model.ContractInstance `json:"items"`
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
}

// TransitionResult 状态迁移结果。Changed=false 表示未产生写入（如重复的 viewed），
// Warning 记录通知未能入队等不影响结果的问题
type TransitionResult struct {
	Instance *model.ContractInstance `json:"instance"`
	Changed  bool                    `json:"changed"`
	Warning  string                  `json:"warning,omitempty"`
}

// InstanceService 合同实例生命周期服务
type InstanceService interface {
	Create(ctx context.Context, req CreateInstanceRequest, actor model.Actor) (*model.ContractInstance, error)
	Get(ctx context.Context, id uint) (*model.ContractInstance, error)
	List(ctx context.Context, filter InstanceListFilter) (*InstanceListResult, error)
	Delete(ctx context.Context, id uint) error

	Send(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error)
	MarkViewed(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error)
	MarkInProgress(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error)
	Complete(ctx context.Context, id uint, signedFilePath string, actor model.Actor) (*TransitionResult, error)
	Sign(ctx context.Context, id uint, req SignRequest, actor model.Actor) (*TransitionResult, error)
	Decline(ctx context.Context, id uint, reason string, actor model.Actor) (*TransitionResult, error)
	Cancel(ctx context.Context, id uint, reason string, actor model.Actor) (*TransitionResult, error)
	Expire(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error)
	Remind(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error)
}

type instanceService struct {
	cfg          config.ContractConfig
	instanceRepo repository.InstanceRepository
	templateRepo repository.TemplateRepository
	store        storage.Storage
	audit        AuditService
	bus          *eventbus.ContractEventBus
	now          func() time.Time
}

// NewInstanceService 创建合同实例服务
func NewInstanceService(cfg config.ContractConfig, instanceRepo repository.InstanceRepository, templateRepo repository.TemplateRepository, store storage.Storage, audit AuditService, bus *eventbus.ContractEventBus) InstanceService {
	return &instanceService{
		cfg:          cfg,
		instanceRepo: instanceRepo,
		templateRepo: templateRepo,
		store:        store,
		audit:        audit,
		bus:          bus,
		now:          time.Now,
	}
}

// Create 基于模板创建草稿实例，并写入 created 审计记录
func (s *instanceService) Create(ctx context.Context, req CreateInstanceRequest, actor model.Actor) (*model.ContractInstance, error) {
	if req.TemplateID == 0 {
		return nil, validationError("template_id is required")
	}
	email := strings.TrimSpace(req.RecipientEmail)
	if email == "" {
		return nil, validationError("recipient_email is required")
	}
	recipientType := strings.ToLower(strings.TrimSpace(req.RecipientType))
	if recipientType == "" {
		recipientType = "employee"
	}
	if !slice.Contain(recipientTypes, recipientType) {
		return nil, validationError("invalid recipient_type %q", req.RecipientType)
	}
	days := s.cfg.DefaultExpiresInDays
	if req.ExpiresInDays != nil {
		if *req.ExpiresInDays <= 0 {
			return nil, validationError("expires_in_days must be positive")
		}
		days = *req.ExpiresInDays
	}

	template, err := s.templateRepo.GetByID(ctx, req.TemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	now := s.now()
	expiresAt := now.AddDate(0, 0, days)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = template.Name
	}

	instance := &model.ContractInstance{
		TemplateID:     &template.ID,
		Title:          title,
		RecipientType:  recipientType,
		RecipientID:    req.RecipientID,
		RecipientEmail: email,
		RecipientName:  strings.TrimSpace(req.RecipientName),
		Status:         string(statemachine.ContractStatusDraft),
		ExpiresAt:      &expiresAt,
		OriginalFile:   template.FilePath,
		Metadata:       utils.ToJSONColumn(req.Metadata),
		CreatedBy:      actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	for attempt := 1; ; attempt++ {
		instance.ID = 0
		instance.ContractNumber = NewContractNumber(s.now())
		audit := NewAuditEntry(0, AuditActionCreated, actor, map[string]any{
			"template_id":     template.ID,
			"contract_number": instance.ContractNumber,
		})
		err = s.instanceRepo.CreateWithAudit(ctx, instance, audit)
		if err == nil {
			break
		}
		if !repository.IsDuplicateKey(err) || attempt >= maxContractNumberAttempts {
			return nil, fmt.Errorf("failed to create contract instance: %w", err)
		}
		klog.Warningf("合同编号冲突，重新生成: number=%s, attempt=%d", instance.ContractNumber, attempt)
	}

	klog.V(6).Infof("合同实例已创建: id=%d, number=%s, template=%d", instance.ID, instance.ContractNumber, template.ID)
	return instance, nil
}

func (s *instanceService) Get(ctx context.Context, id uint) (*model.ContractInstance, error) {
	instance, err := s.instanceRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInstanceNotFound
		}
		return nil, fmt.Errorf("failed to get contract instance: %w", err)
	}
	return instance, nil
}

func (s *instanceService) List(ctx context.Context, filter InstanceListFilter) (*InstanceListResult, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 200 {
		filter.PageSize = 20
	}
	items, total, err := s.instanceRepo.List(ctx, repository.InstanceFilter{
		Status:         filter.Status,
		TemplateID:     filter.TemplateID,
		RecipientEmail: filter.RecipientEmail,
		RecipientID:    filter.RecipientID,
		Keyword:        strings.TrimSpace(filter.Search),
		Page:           filter.Page,
		PageSize:       filter.PageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list contract instances: %w", err)
	}
	return &InstanceListResult{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// Delete 删除实例及其审计记录
func (s *instanceService) Delete(ctx context.Context, id uint) error {
	if err := s.instanceRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInstanceNotFound
		}
		return fmt.Errorf("failed to delete contract instance: %w", err)
	}
	klog.V(6).Infof("合同实例已删除: id=%d", id)
	return nil
}

// Send draft -> sent，提交后发布通知事件
func (s *instanceService) Send(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error) {
	now := s.now()
	return s.transition(ctx, id, statemachine.ActionSend, transitionSpec{
		updates:     map[string]any{"sent_date": now},
		auditAction: AuditActionSent,
		event:       eventbus.ContractEventSent,
		actor:       actor,
	})
}

// MarkViewed 仅在 sent 且未记录查看时间时生效，其余情况静默成功
func (s *instanceService) MarkViewed(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != string(statemachine.ContractStatusSent) || current.ViewedDate != nil {
		return &TransitionResult{Instance: current}, nil
	}
	result, err := s.transition(ctx, id, statemachine.ActionMarkViewed, transitionSpec{
		updates:     map[string]any{"viewed_date": s.now()},
		auditAction: AuditActionViewed,
		event:       eventbus.ContractEventViewed,
		actor:       actor,
	})
	if errors.Is(err, ErrInvalidState) {
		// 并发请求已先一步改变状态
		latest, getErr := s.Get(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		return &TransitionResult{Instance: latest}, nil
	}
	return result, err
}

// MarkInProgress 接收人开始填写
func (s *instanceService) MarkInProgress(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error) {
	return s.transition(ctx, id, statemachine.ActionStart, transitionSpec{
		auditAction: AuditActionInProgress,
		event:       eventbus.ContractEventInProgress,
		actor:       actor,
	})
}

// Complete 完成签署并记录签署文件路径
func (s *instanceService) Complete(ctx context.Context, id uint, signedFilePath string, actor model.Actor) (*TransitionResult, error) {
	return s.complete(ctx, id, signedFilePath, actor, nil)
}

func (s *instanceService) complete(ctx context.Context, id uint, signedFilePath string, actor model.Actor, details map[string]any) (*TransitionResult, error) {
	signedFilePath = strings.TrimSpace(signedFilePath)
	if details == nil {
		details = map[string]any{}
	}
	updates := map[string]any{"completed_date": s.now()}
	if signedFilePath != "" {
		updates["signed_file_path"] = signedFilePath
		details["signed_file_path"] = signedFilePath
	}
	return s.transition(ctx, id, statemachine.ActionComplete, transitionSpec{
		updates:     updates,
		auditAction: AuditActionCompleted,
		details:     details,
		event:       eventbus.ContractEventCompleted,
		actor:       actor,
	})
}

// Sign 将字段值与签名渲染到模板源文件上，保存后完成实例
func (s *instanceService) Sign(ctx context.Context, id uint, req SignRequest, actor model.Actor) (*TransitionResult, error) {
	instance, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := statemachine.Next(statemachine.ContractStatus(instance.Status), statemachine.ActionComplete); err != nil {
		var transitionErr *statemachine.InvalidTransitionError
		errors.As(err, &transitionErr)
		return nil, invalidStateError(transitionErr)
	}
	if instance.OriginalFile == "" {
		return nil, validationError("contract instance %d has no source document", id)
	}

	var fields []model.TemplateField
	if instance.TemplateID != nil {
		template, err := s.templateRepo.GetByID(ctx, *instance.TemplateID)
		switch {
		case err == nil:
			fields = template.Fields
		case errors.Is(err, repository.ErrNotFound):
			klog.Warningf("签署时模板已删除，仅保留原文: instanceID=%d, templateID=%d", id, *instance.TemplateID)
		default:
			return nil, fmt.Errorf("failed to get template: %w", err)
		}
	}

	texts, signatures, err := buildOverlays(fields, req)
	if err != nil {
		return nil, err
	}

	source, err := s.store.Load(ctx, instance.OriginalFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load contract source: %w", err)
	}
	rendered, err := pdfdoc.FillText(source, texts)
	if err != nil {
		return nil, renderError(err)
	}
	for _, sig := range signatures {
		if rendered, err = pdfdoc.AddSignature(rendered, sig); err != nil {
			return nil, renderError(err)
		}
	}

	key, err := s.store.Save(ctx, storage.NewObjectKey("signed", ".pdf"), rendered, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to store signed document: %w", err)
	}
	return s.complete(ctx, id, key, actor, map[string]any{
		"signed_fields": len(texts),
		"signature":     len(signatures) > 0,
	})
}

// Decline 接收人拒签
func (s *instanceService) Decline(ctx context.Context, id uint, reason string, actor model.Actor) (*TransitionResult, error) {
	reason = strings.TrimSpace(reason)
	return s.transition(ctx, id, statemachine.ActionDecline, transitionSpec{
		updates:     map[string]any{"declined_date": s.now(), "decline_reason": reason},
		auditAction: AuditActionDeclined,
		details:     map[string]any{"reason": reason},
		event:       eventbus.ContractEventDeclined,
		actor:       actor,
	})
}

// Cancel 发起方取消，completed 等终止态不可取消
func (s *instanceService) Cancel(ctx context.Context, id uint, reason string, actor model.Actor) (*TransitionResult, error) {
	var details map[string]any
	if reason = strings.TrimSpace(reason); reason != "" {
		details = map[string]any{"reason": reason}
	}
	return s.transition(ctx, id, statemachine.ActionCancel, transitionSpec{
		auditAction: AuditActionCancelled,
		details:     details,
		event:       eventbus.ContractEventCancelled,
		actor:       actor,
	})
}

// Expire 过期扫描使用的单实例迁移
func (s *instanceService) Expire(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error) {
	return s.transition(ctx, id, statemachine.ActionExpire, transitionSpec{
		auditAction: AuditActionExpired,
		event:       eventbus.ContractEventExpired,
		actor:       actor,
	})
}

// Remind 为等待签署的实例发送提醒，不改变状态
func (s *instanceService) Remind(ctx context.Context, id uint, actor model.Actor) (*TransitionResult, error) {
	instance, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !statemachine.IsActive(statemachine.ContractStatus(instance.Status)) {
		return nil, invalidStateError(&statemachine.InvalidTransitionError{From: instance.Status, Action: "remind"})
	}

	daysLeft := instance.DaysUntilExpiry(s.now())
	kind := reminderKind(daysLeft)
	s.audit.Append(ctx, id, AuditActionReminderSent, actor, map[string]any{
		"kind":      string(kind),
		"days_left": daysLeft,
	})

	return &TransitionResult{
		Instance: instance,
		Changed:  false,
		Warning: s.publish(ctx, eventbus.ContractEvent{
			Type:     eventbus.ContractEventReminder,
			Instance: *instance,
			Actor:    actor,
			Reminder: kind,
			DaysLeft: daysLeft,
		}),
	}, nil
}

type transitionSpec struct {
	updates     map[string]any
	auditAction string
	details     map[string]any
	event       eventbus.ContractEventType
	actor       model.Actor
}

// transition 校验状态机后执行条件更新，状态写入与审计记录在同一事务中
func (s *instanceService) transition(ctx context.Context, id uint, action statemachine.ContractAction, spec transitionSpec) (*TransitionResult, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := statemachine.Transition(statemachine.ContractStatus(current.Status), action, id)
	if err != nil {
		var transitionErr *statemachine.InvalidTransitionError
		errors.As(err, &transitionErr)
		return nil, invalidStateError(transitionErr)
	}

	updates := map[string]any{}
	for k, v := range spec.updates {
		updates[k] = v
	}
	updates["status"] = string(next)
	updates["updated_at"] = s.now()

	audit := NewAuditEntry(id, spec.auditAction, spec.actor, spec.details)
	applied, err := s.instanceRepo.Transition(ctx, id, statemachine.Sources(action), updates, audit)
	if err != nil {
		return nil, fmt.Errorf("failed to %s contract instance: %w", action, err)
	}
	if !applied {
		// 读取后被并发请求修改
		latest, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		klog.Warningf("合同状态迁移未生效: instanceID=%d, action=%s, status=%s", id, action, latest.Status)
		return nil, invalidStateError(&statemachine.InvalidTransitionError{From: latest.Status, Action: string(action)})
	}

	updated, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	result := &TransitionResult{Instance: updated, Changed: true}
	if spec.event != "" {
		result.Warning = s.publish(ctx, eventbus.ContractEvent{Type: spec.event, Instance: *updated, Actor: spec.actor})
	}
	return result, nil
}

// publish 在事务提交后发布事件，订阅者错误只作为警告返回
func (s *instanceService) publish(ctx context.Context, event eventbus.ContractEvent) string {
	if s.bus == nil {
		return ""
	}
	if err := s.bus.Publish(ctx, event); err != nil {
		klog.Warningf("合同事件处理失败: type=%s, instanceID=%d, error=%v", event.Type, event.Instance.ID, err)
		return fmt.Sprintf("notification not sent: %v", err)
	}
	return ""
}

func reminderKind(daysLeft int) eventbus.ReminderKind {
	if daysLeft >= 0 && daysLeft <= 1 {
		return eventbus.ReminderFinal
	}
	return eventbus.ReminderFollowup
}

func buildOverlays(fields []model.TemplateField, req SignRequest) ([]pdfdoc.TextValue, []pdfdoc.SignatureImage, error) {
	var texts []pdfdoc.TextValue
	var signatures []pdfdoc.SignatureImage
	for _, f := range fields {
		switch f.FieldType {
		case model.FieldTypeSignature:
			if strings.TrimSpace(req.Signature) == "" {
				if f.IsRequired {
					return nil, nil, validationError("signature is required")
				}
				continue
			}
			signatures = append(signatures, pdfdoc.SignatureImage{
				Page: f.PageNumber, X: f.X, Y: f.Y, Width: f.Width, Height: f.Height,
				ImageBase64: req.Signature,
			})
		default:
			value := strings.TrimSpace(req.Values[f.FieldName])
			if f.FieldType == model.FieldTypeCheckbox {
				if value == "true" || value == "1" || value == "on" {
					value = "X"
				} else {
					value = ""
				}
			}
			if value == "" {
				if f.IsRequired {
					return nil, nil, validationError("field %s is required", f.FieldName)
				}
				continue
			}
			texts = append(texts, pdfdoc.TextValue{Page: f.PageNumber, X: f.X, Y: f.Y, Text: value})
		}
	}
	return texts, signatures, nil
}

// renderError 页码越界、图片无效等输入问题归为校验错误
func renderError(err error) error {
	if errors.Is(err, pdfdoc.ErrInvalidPages) || errors.Is(err, pdfdoc.ErrInvalidImage) ||
		errors.Is(err, pdfdoc.ErrInvalidRotation) || errors.Is(err, pdfdoc.ErrEmptyInput) ||
		errors.Is(err, pdfdoc.ErrReadOnlyField) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("failed to render document: %w", err)
}
