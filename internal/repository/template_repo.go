package repository

import (
	"context"

	"github.com/hrms-go/backend/internal/model"
	"gorm.io/gorm"
)

// templateRepository 实现
type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository 创建 Repository 实例
func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

// List 获取模板列表（不含字段）
func (r *templateRepository) List(ctx context.Context, filter TemplateFilter) ([]model.ContractTemplate, error) {
	var templates []model.ContractTemplate
	query := r.db.WithContext(ctx).Model(&model.ContractTemplate{})
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Region != "" {
		query = query.Where("region = ?", filter.Region)
	}
	if filter.Active != nil {
		query = query.Where("is_active = ?", *filter.Active)
	}
	if filter.Keyword != "" {
		query = query.Where("name LIKE ?", "%"+filter.Keyword+"%")
	}
	err := query.Order("created_at DESC, id DESC").Find(&templates).Error
	return templates, err
}

// GetByID 根据ID获取模板详情（含字段）
func (r *templateRepository) GetByID(ctx context.Context, id uint) (*model.ContractTemplate, error) {
	var template model.ContractTemplate
	result := r.db.WithContext(ctx).Preload("Fields", func(db *gorm.DB) *gorm.DB {
		return db.Order("page_number ASC, sort_order ASC, id ASC")
	}).First(&template, id)
	if result.Error != nil {
		return nil, translateNotFound(result.Error)
	}
	return &template, nil
}

// Create 创建模板（关联字段一并写入）
func (r *templateRepository) Create(ctx context.Context, template *model.ContractTemplate) error {
	return r.db.WithContext(ctx).Create(template).Error
}

// Update 更新模板基本信息，不触碰字段
func (r *templateRepository) Update(ctx context.Context, template *model.ContractTemplate) error {
	return r.db.WithContext(ctx).Omit("Fields").Save(template).Error
}

// Delete 删除模板及其字段
func (r *templateRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", id).Delete(&model.TemplateField{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&model.ContractTemplate{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ReplaceFields 整体替换模板字段
func (r *templateRepository) ReplaceFields(ctx context.Context, templateID uint, fields []model.TemplateField) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", templateID).Delete(&model.TemplateField{}).Error; err != nil {
			return err
		}
		if len(fields) == 0 {
			return nil
		}
		for i := range fields {
			fields[i].ID = 0
			fields[i].TemplateID = templateID
		}
		return tx.Create(&fields).Error
	})
}
