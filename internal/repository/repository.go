package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hrms-go/backend/internal/model"
	"gorm.io/gorm"
)

// ErrNotFound 记录不存在错误
var ErrNotFound = errors.New("record not found")

// TemplateFilter 模板列表过滤条件
type TemplateFilter struct {
	Category string
	Region   string
	Active   *bool
	Keyword  string
}

// InstanceFilter 合同实例列表过滤条件
type InstanceFilter struct {
	Status         string
	TemplateID     uint
	RecipientEmail string
	RecipientID    uint
	Keyword        string
	Page           int
	PageSize       int
}

type TemplateRepository interface {
	List(ctx context.Context, filter TemplateFilter) ([]model.ContractTemplate, error)
	GetByID(ctx context.Context, id uint) (*model.ContractTemplate, error)
	Create(ctx context.Context, template *model.ContractTemplate) error
	Update(ctx context.Context, template *model.ContractTemplate) error
	Delete(ctx context.Context, id uint) error
	ReplaceFields(ctx context.Context, templateID uint, fields []model.TemplateField) error
}

type InstanceRepository interface {
	// CreateWithAudit 在同一事务中写入实例与 created 审计记录
	CreateWithAudit(ctx context.Context, instance *model.ContractInstance, audit *model.ContractAuditLog) error
	Get(ctx context.Context, id uint) (*model.ContractInstance, error)
	List(ctx context.Context, filter InstanceFilter) ([]model.ContractInstance, int64, error)
	// Transition 条件更新：仅当当前状态属于 from 时才写入，并在同一事务中追加审计记录
	Transition(ctx context.Context, id uint, from []string, updates map[string]any, audit *model.ContractAuditLog) (bool, error)
	Delete(ctx context.Context, id uint) error
	ListReminderCandidates(ctx context.Context, statuses []string, sentBefore, expiresBefore time.Time) ([]model.ContractInstance, error)
	ListExpired(ctx context.Context, statuses []string, now time.Time) ([]model.ContractInstance, error)
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *model.ContractAuditLog) error
	ListByInstance(ctx context.Context, instanceID uint) ([]model.ContractAuditLog, error)
}

type OnboardingRepository interface {
	CreateBatch(ctx context.Context, docs []model.EmployeeOnboardingDocument) error
	Get(ctx context.Context, id uint) (*model.EmployeeOnboardingDocument, error)
	ListByEmployee(ctx context.Context, employeeID uint) ([]model.EmployeeOnboardingDocument, error)
	Save(ctx context.Context, doc *model.EmployeeOnboardingDocument) error
	UpdateByInstance(ctx context.Context, instanceID uint, from []string, updates map[string]any) (int64, error)
	MarkOverdue(ctx context.Context, today time.Time, from []string) (int64, error)
}

type EmployeeRepository interface {
	Create(ctx context.Context, employee *model.Employee) error
	Get(ctx context.Context, id uint) (*model.Employee, error)
}

func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// IsDuplicateKey 判断是否违反唯一约束（兼容未实现错误翻译的驱动）
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "duplicate key value")
}
