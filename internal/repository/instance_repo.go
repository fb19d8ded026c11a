package repository

import (
	"context"
	"time"

	"github.com/hrms-go/backend/internal/model"
	"gorm.io/gorm"
)

type instanceRepository struct {
	db *gorm.DB
}

func NewInstanceRepository(db *gorm.DB) InstanceRepository {
	return &instanceRepository{db: db}
}

func (r *instanceRepository) CreateWithAudit(ctx context.Context, instance *model.ContractInstance, audit *model.ContractAuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(instance).Error; err != nil {
			return err
		}
		if audit == nil {
			return nil
		}
		audit.InstanceID = instance.ID
		return tx.Create(audit).Error
	})
}

func (r *instanceRepository) Get(ctx context.Context, id uint) (*model.ContractInstance, error) {
	var instance model.ContractInstance
	if err := r.db.WithContext(ctx).First(&instance, id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &instance, nil
}

func (r *instanceRepository) List(ctx context.Context, filter InstanceFilter) ([]model.ContractInstance, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ContractInstance{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TemplateID != 0 {
		query = query.Where("template_id = ?", filter.TemplateID)
	}
	if filter.RecipientEmail != "" {
		query = query.Where("recipient_email = ?", filter.RecipientEmail)
	}
	if filter.RecipientID != 0 {
		query = query.Where("recipient_id = ?", filter.RecipientID)
	}
	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("title LIKE ? OR contract_number LIKE ? OR recipient_name LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 20
	}

	var instances []model.ContractInstance
	err := query.Order("created_at DESC, id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&instances).Error
	return instances, total, err
}

// Transition 单条件更新，避免先读后写导致的重复发送竞争
func (r *instanceRepository) Transition(ctx context.Context, id uint, from []string, updates map[string]any, audit *model.ContractAuditLog) (bool, error) {
	applied := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.ContractInstance{}).
			Where("id = ? AND status IN ?", id, from).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		applied = true
		if audit == nil {
			return nil
		}
		audit.InstanceID = id
		return tx.Create(audit).Error
	})
	return applied, err
}

// Delete 删除实例及其审计记录
func (r *instanceRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("instance_id = ?", id).Delete(&model.ContractAuditLog{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.EmployeeOnboardingDocument{}).
			Where("contract_instance_id = ?", id).
			Update("contract_instance_id", nil).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.ContractInstance{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ListReminderCandidates 查询需要提醒的实例：发送已久或即将过期
func (r *instanceRepository) ListReminderCandidates(ctx context.Context, statuses []string, sentBefore, expiresBefore time.Time) ([]model.ContractInstance, error) {
	var instances []model.ContractInstance
	err := r.db.WithContext(ctx).
		Where("status IN ?", statuses).
		Where(r.db.Where("sent_date IS NOT NULL AND sent_date <= ?", sentBefore).
			Or("expires_at IS NOT NULL AND expires_at <= ?", expiresBefore)).
		Order("id ASC").
		Find(&instances).Error
	return instances, err
}

func (r *instanceRepository) ListExpired(ctx context.Context, statuses []string, now time.Time) ([]model.ContractInstance, error) {
	var instances []model.ContractInstance
	err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at < ?", statuses, now).
		Order("id ASC").
		Find(&instances).Error
	return instances, err
}
