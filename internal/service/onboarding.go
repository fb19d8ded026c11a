package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/repository"
	"github.com/hrms-go/backend/internal/service/statemachine"
	"k8s.io/klog/v2"
)

// SendDocumentsFailure 单个文档发送失败原因
type SendDocumentsFailure struct {
	DocumentID   uint   `json:"document_id"`
	DocumentType string `json:"document_type"`
	Error        string `json:"error"`
}

// SendDocumentsResult 批量发送结果
type SendDocumentsResult struct {
	EmployeeID uint                   `json:"employee_id"`
	Sent       int                    `json:"sent"`
	Skipped    int                    `json:"skipped"`
	Failed     []SendDocumentsFailure `json:"failed"`
	Warnings   []string               `json:"warnings,omitempty"`
}

// OnboardingService 员工入职文档清单
type OnboardingService interface {
	CreateChecklist(ctx context.Context, employeeID uint) ([]model.EmployeeOnboardingDocument, error)
	SendDocuments(ctx context.Context, employeeID uint, actor model.Actor) (*SendDocumentsResult, error)
	Waive(ctx context.Context, id uint, reason string, actor model.Actor) (*model.EmployeeOnboardingDocument, error)
	GetEmployeeProgress(ctx context.Context, employeeID uint) (*statemachine.OnboardingProgress, error)
	ListByEmployee(ctx context.Context, employeeID uint) ([]model.EmployeeOnboardingDocument, error)
	SyncContractStatus(ctx context.Context, instanceID uint, status string) (int64, error)
}

type onboardingService struct {
	policies       []config.OnboardingDocumentPolicy
	onboardingRepo repository.OnboardingRepository
	employeeRepo   repository.EmployeeRepository
	instances      InstanceService
	stateMachine   *statemachine.OnboardingStateMachine
	now            func() time.Time
}

// NewOnboardingService 创建入职服务，policies 为需要收集的文档清单
func NewOnboardingService(policies []config.OnboardingDocumentPolicy, onboardingRepo repository.OnboardingRepository, employeeRepo repository.EmployeeRepository, instances InstanceService) OnboardingService {
	return &onboardingService{
		policies:       policies,
		onboardingRepo: onboardingRepo,
		employeeRepo:   employeeRepo,
		instances:      instances,
		stateMachine:   statemachine.NewOnboardingStateMachine(),
		now:            time.Now,
	}
}

// CreateChecklist 按文档策略为员工生成清单，已存在的文档类型跳过
func (s *onboardingService) CreateChecklist(ctx context.Context, employeeID uint) ([]model.EmployeeOnboardingDocument, error) {
	employee, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if len(s.policies) == 0 {
		return nil, validationError("no onboarding documents are configured")
	}

	existing, err := s.onboardingRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding documents: %w", err)
	}
	existingTypes := make(map[string]struct{}, len(existing))
	for _, doc := range existing {
		existingTypes[doc.DocumentType] = struct{}{}
	}

	base := s.now()
	if employee.JoinDate != nil {
		base = *employee.JoinDate
	}
	base = time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, base.Location())

	docs := make([]model.EmployeeOnboardingDocument, 0, len(s.policies))
	for _, policy := range s.policies {
		if _, ok := existingTypes[policy.Type]; ok {
			continue
		}
		doc := model.EmployeeOnboardingDocument{
			EmployeeID:   employeeID,
			DocumentType: policy.Type,
			DocumentName: policy.Name,
			Status:       model.OnboardingStatusPending,
			IsRequired:   policy.Required,
		}
		if policy.TemplateID != 0 {
			templateID := policy.TemplateID
			doc.TemplateID = &templateID
		}
		if policy.DueDays > 0 {
			due := base.AddDate(0, 0, policy.DueDays)
			doc.DueDate = &due
		}
		docs = append(docs, doc)
	}

	if err := s.onboardingRepo.CreateBatch(ctx, docs); err != nil {
		return nil, fmt.Errorf("failed to create onboarding checklist: %w", err)
	}
	klog.V(6).Infof("入职清单已生成: employeeID=%d, created=%d, skipped=%d", employeeID, len(docs), len(existing))
	return docs, nil
}

// SendDocuments 为每个待处理且配置了模板的文档创建并发送合同实例
func (s *onboardingService) SendDocuments(ctx context.Context, employeeID uint, actor model.Actor) (*SendDocumentsResult, error) {
	employee, err := s.getEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	docs, err := s.onboardingRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding documents: %w", err)
	}

	result := &SendDocumentsResult{EmployeeID: employeeID, Failed: []SendDocumentsFailure{}}
	for i := range docs {
		doc := &docs[i]
		if doc.Status != model.OnboardingStatusPending || doc.TemplateID == nil {
			result.Skipped++
			continue
		}
		warning, err := s.sendDocument(ctx, employee, doc, actor)
		if err != nil {
			klog.Warningf("入职文档发送失败: employeeID=%d, docID=%d, error=%v", employeeID, doc.ID, err)
			result.Failed = append(result.Failed, SendDocumentsFailure{
				DocumentID:   doc.ID,
				DocumentType: doc.DocumentType,
				Error:        err.Error(),
			})
			continue
		}
		if warning != "" {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: %s", doc.DocumentType, warning))
		}
		result.Sent++
	}
	return result, nil
}

func (s *onboardingService) sendDocument(ctx context.Context, employee *model.Employee, doc *model.EmployeeOnboardingDocument, actor model.Actor) (string, error) {
	instance, err := s.linkedDraft(ctx, doc)
	if err != nil {
		return "", err
	}
	if instance == nil {
		if instance, err = s.createLinkedInstance(ctx, employee, doc, actor); err != nil {
			return "", err
		}
	}

	sent, err := s.instances.Send(ctx, instance.ID, actor)
	if err != nil {
		return "", err
	}
	doc.Status = model.OnboardingStatusSent
	if err := s.onboardingRepo.Save(ctx, doc); err != nil {
		return "", fmt.Errorf("failed to update onboarding document: %w", err)
	}
	return sent.Warning, nil
}

// linkedDraft 返回上次发送失败后遗留的草稿实例，没有可复用的草稿时返回 nil
func (s *onboardingService) linkedDraft(ctx context.Context, doc *model.EmployeeOnboardingDocument) (*model.ContractInstance, error) {
	if doc.ContractInstanceID == nil {
		return nil, nil
	}
	instance, err := s.instances.Get(ctx, *doc.ContractInstanceID)
	if err != nil {
		if errors.Is(err, ErrInstanceNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if instance.Status != string(statemachine.ContractStatusDraft) {
		return nil, nil
	}
	klog.V(6).Infof("复用入职文档关联的草稿实例: docID=%d, instanceID=%d", doc.ID, instance.ID)
	return instance, nil
}

func (s *onboardingService) createLinkedInstance(ctx context.Context, employee *model.Employee, doc *model.EmployeeOnboardingDocument, actor model.Actor) (*model.ContractInstance, error) {
	instance, err := s.instances.Create(ctx, CreateInstanceRequest{
		TemplateID:     *doc.TemplateID,
		Title:          doc.DocumentName,
		RecipientType:  "employee",
		RecipientID:    &employee.ID,
		RecipientEmail: employee.Email,
		RecipientName:  employee.Name,
		Metadata: map[string]any{
			"onboarding_document_id": doc.ID,
			"document_type":          doc.DocumentType,
		},
	}, actor)
	if err != nil {
		return nil, err
	}

	// 先关联再发送，发送事件会据此同步文档状态
	doc.ContractInstanceID = &instance.ID
	if err := s.onboardingRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to link contract instance: %w", err)
	}
	return instance, nil
}

// Waive 豁免文档，不检查当前状态
func (s *onboardingService) Waive(ctx context.Context, id uint, reason string, actor model.Actor) (*model.EmployeeOnboardingDocument, error) {
	doc, err := s.onboardingRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOnboardingDocNotFound
		}
		return nil, fmt.Errorf("failed to get onboarding document: %w", err)
	}

	now := s.now()
	doc.Status = model.OnboardingStatusWaived
	doc.WaivedAt = &now
	doc.WaivedBy = actor.ID
	doc.WaiveReason = strings.TrimSpace(reason)
	if err := s.onboardingRepo.Save(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to waive onboarding document: %w", err)
	}
	klog.V(6).Infof("入职文档已豁免: docID=%d, by=%s", id, actor.DisplayName())
	return doc, nil
}

// GetEmployeeProgress 统计各状态数量与完成百分比
func (s *onboardingService) GetEmployeeProgress(ctx context.Context, employeeID uint) (*statemachine.OnboardingProgress, error) {
	docs, err := s.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	return statemachine.AggregateProgress(employeeID, docs), nil
}

func (s *onboardingService) ListByEmployee(ctx context.Context, employeeID uint) ([]model.EmployeeOnboardingDocument, error) {
	docs, err := s.onboardingRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list onboarding documents: %w", err)
	}
	return docs, nil
}

// SyncContractStatus 将合同实例状态同步到关联的入职文档
func (s *onboardingService) SyncContractStatus(ctx context.Context, instanceID uint, status string) (int64, error) {
	var target statemachine.OnboardingStatus
	switch statemachine.ContractStatus(status) {
	case statemachine.ContractStatusSent:
		target = statemachine.OnboardingSent
	case statemachine.ContractStatusInProgress:
		target = statemachine.OnboardingInProgress
	case statemachine.ContractStatusCompleted:
		target = statemachine.OnboardingCompleted
	default:
		return 0, nil
	}

	updates := map[string]any{"status": string(target), "updated_at": s.now()}
	if target == statemachine.OnboardingCompleted {
		updates["completed_at"] = s.now()
	}
	affected, err := s.onboardingRepo.UpdateByInstance(ctx, instanceID, s.stateMachine.SourcesOf(target), updates)
	if err != nil {
		return 0, fmt.Errorf("failed to sync onboarding documents: %w", err)
	}
	return affected, nil
}

func (s *onboardingService) getEmployee(ctx context.Context, employeeID uint) (*model.Employee, error) {
	employee, err := s.employeeRepo.Get(ctx, employeeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrEmployeeNotFound
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}
