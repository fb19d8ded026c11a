package repository

import (
	"context"
	"time"

	"github.com/hrms-go/backend/internal/model"
	"gorm.io/gorm"
)

type onboardingRepository struct {
	db *gorm.DB
}

// NewOnboardingRepository 创建入职文档仓储
func NewOnboardingRepository(db *gorm.DB) OnboardingRepository {
	return &onboardingRepository{db: db}
}

func (r *onboardingRepository) CreateBatch(ctx context.Context, docs []model.EmployeeOnboardingDocument) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&docs).Error
}

func (r *onboardingRepository) Get(ctx context.Context, id uint) (*model.EmployeeOnboardingDocument, error) {
	var doc model.EmployeeOnboardingDocument
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &doc, nil
}

func (r *onboardingRepository) ListByEmployee(ctx context.Context, employeeID uint) ([]model.EmployeeOnboardingDocument, error) {
	var docs []model.EmployeeOnboardingDocument
	err := r.db.WithContext(ctx).
		Where("employee_id = ?", employeeID).
		Order("due_date ASC, id ASC").
		Find(&docs).Error
	return docs, err
}

func (r *onboardingRepository) Save(ctx context.Context, doc *model.EmployeeOnboardingDocument) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// UpdateByInstance 同步合同实例状态到关联的入职文档
func (r *onboardingRepository) UpdateByInstance(ctx context.Context, instanceID uint, from []string, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.EmployeeOnboardingDocument{}).
		Where("contract_instance_id = ? AND status IN ?", instanceID, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// MarkOverdue 将截止日期早于今天且未完成的文档批量标记为 overdue
func (r *onboardingRepository) MarkOverdue(ctx context.Context, today time.Time, from []string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.EmployeeOnboardingDocument{}).
		Where("due_date IS NOT NULL AND due_date < ? AND status IN ?", today, from).
		Updates(map[string]any{
			"status":     model.OnboardingStatusOverdue,
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}
