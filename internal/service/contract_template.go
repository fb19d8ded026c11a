package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/gabriel-vasile/mimetype"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/pkg/storage"
	"github.com/hrms-go/backend/internal/repository"
	"github.com/hrms-go/backend/internal/utils"
	"k8s.io/klog/v2"
)

// TemplateFieldInput 字段保存请求
type TemplateFieldInput struct {
	FieldName       string         `json:"field_name"`
	FieldLabel      string         `json:"field_label"`
	FieldType       string         `json:"field_type"`
	PageNumber      int            `json:"page_number"`
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	IsRequired      bool           `json:"is_required"`
	ValidationRules map[string]any `json:"validation_rules"`
	SortOrder       int            `json:"sort_order"`
}

// CreateContractTemplateRequest 创建模板请求
type CreateContractTemplateRequest struct {
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Region      string               `json:"region"`
	IsActive    *bool                `json:"is_active"`
	Fields      []TemplateFieldInput `json:"fields"`
}

// UpdateContractTemplateRequest 更新模板请求，空值字段保持不变
type UpdateContractTemplateRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Region      *string `json:"region"`
	IsActive    *bool   `json:"is_active"`
}

// TemplateListFilter 模板列表过滤
type TemplateListFilter struct {
	Category string `form:"category"`
	Region   string `form:"region"`
	Active   *bool  `form:"is_active"`
	Search   string `form:"search"`
}

// TemplateService 合同模板服务接口
type TemplateService interface {
	List(ctx context.Context, filter TemplateListFilter) ([]model.ContractTemplate, error)
	Get(ctx context.Context, id uint) (*model.ContractTemplate, error)
	Create(ctx context.Context, req CreateContractTemplateRequest, actor model.Actor) (*model.ContractTemplate, error)
	Update(ctx context.Context, id uint, req UpdateContractTemplateRequest) (*model.ContractTemplate, error)
	Delete(ctx context.Context, id uint) error
	SaveFields(ctx context.Context, id uint, fields []TemplateFieldInput) (*model.ContractTemplate, error)
	Duplicate(ctx context.Context, id uint, actor model.Actor) (*model.ContractTemplate, error)
	UploadSource(ctx context.Context, id uint, fileName string, data []byte) (*model.ContractTemplate, error)
	LoadSource(ctx context.Context, id uint) (*model.ContractTemplate, []byte, error)
}

// templateService 实现
type templateService struct {
	templateRepo repository.TemplateRepository
	store        storage.Storage
}

// NewTemplateService 创建服务实例
func NewTemplateService(templateRepo repository.TemplateRepository, store storage.Storage) TemplateService {
	return &templateService{templateRepo: templateRepo, store: store}
}

// List 获取模板列表
func (s *templateService) List(ctx context.Context, filter TemplateListFilter) ([]model.ContractTemplate, error) {
	templates, err := s.templateRepo.List(ctx, repository.TemplateFilter{
		Category: filter.Category,
		Region:   filter.Region,
		Active:   filter.Active,
		Keyword:  strings.TrimSpace(filter.Search),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

// Get 获取模板详情（含字段）
func (s *templateService) Get(ctx context.Context, id uint) (*model.ContractTemplate, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

// Create 创建模板
func (s *templateService) Create(ctx context.Context, req CreateContractTemplateRequest, actor model.Actor) (*model.ContractTemplate, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, validationError("name is required")
	}
	category, region, err := normalizeCategoryRegion(req.Category, req.Region)
	if err != nil {
		return nil, err
	}
	fields, err := toTemplateFields(req.Fields)
	if err != nil {
		return nil, err
	}

	template := &model.ContractTemplate{
		Name:        name,
		Description: req.Description,
		Category:    category,
		Region:      region,
		IsActive:    req.IsActive == nil || *req.IsActive,
		CreatedBy:   actor.ID,
		Fields:      fields,
	}
	if err := s.templateRepo.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}
	klog.V(6).Infof("合同模板已创建: id=%d, name=%s, fields=%d", template.ID, template.Name, len(fields))
	return template, nil
}

// Update 更新模板基本信息
func (s *templateService) Update(ctx context.Context, id uint, req UpdateContractTemplateRequest) (*model.ContractTemplate, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, validationError("name cannot be empty")
		}
		template.Name = name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	category, region := template.Category, template.Region
	if req.Category != nil {
		category = *req.Category
	}
	if req.Region != nil {
		region = *req.Region
	}
	if template.Category, template.Region, err = normalizeCategoryRegion(category, region); err != nil {
		return nil, err
	}
	if req.IsActive != nil {
		template.IsActive = *req.IsActive
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	return template, nil
}

// Delete 删除模板及字段，已创建的实例保留
func (s *templateService) Delete(ctx context.Context, id uint) error {
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}
	klog.V(6).Infof("合同模板已删除: id=%d", id)
	return nil
}

// SaveFields 整体替换模板字段
func (s *templateService) SaveFields(ctx context.Context, id uint, inputs []TemplateFieldInput) (*model.ContractTemplate, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	fields, err := toTemplateFields(inputs)
	if err != nil {
		return nil, err
	}
	if err := s.templateRepo.ReplaceFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("failed to save template fields: %w", err)
	}
	return s.Get(ctx, id)
}

// Duplicate 复制模板及字段，副本默认停用
func (s *templateService) Duplicate(ctx context.Context, id uint, actor model.Actor) (*model.ContractTemplate, error) {
	original, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := make([]model.TemplateField, 0, len(original.Fields))
	for _, f := range original.Fields {
		f.ID = 0
		f.TemplateID = 0
		fields = append(fields, f)
	}
	copied := &model.ContractTemplate{
		Name:        original.Name + " (Copy)",
		Description: original.Description,
		Category:    original.Category,
		Region:      original.Region,
		FilePath:    original.FilePath,
		FileName:    original.FileName,
		IsActive:    false,
		CreatedBy:   actor.ID,
		Fields:      fields,
	}
	if err := s.templateRepo.Create(ctx, copied); err != nil {
		return nil, fmt.Errorf("failed to duplicate template: %w", err)
	}
	klog.V(6).Infof("合同模板已复制: from=%d, to=%d", original.ID, copied.ID)
	return copied, nil
}

// UploadSource 上传模板源 PDF
func (s *templateService) UploadSource(ctx context.Context, id uint, fileName string, data []byte) (*model.ContractTemplate, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, validationError("file is empty")
	}
	if mt := mimetype.Detect(data); !mt.Is("application/pdf") {
		return nil, validationError("file must be a PDF, got %s", mt.String())
	}

	key, err := s.store.Save(ctx, storage.NewObjectKey("templates", ".pdf"), data, "application/pdf")
	if err != nil {
		return nil, fmt.Errorf("failed to store template source: %w", err)
	}
	previous := template.FilePath
	template.FilePath = key
	template.FileName = filepath.Base(fileName)
	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}
	if previous != "" && previous != key {
		// 旧文件可能仍被副本模板或实例引用，保留
		klog.V(6).Infof("模板源文件已替换: id=%d, old=%s, new=%s", id, previous, key)
	}
	return template, nil
}

// LoadSource 读取模板源文件
func (s *templateService) LoadSource(ctx context.Context, id uint) (*model.ContractTemplate, []byte, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if template.FilePath == "" {
		return nil, nil, validationError("template %d has no source document", id)
	}
	data, err := s.store.Load(ctx, template.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load template source: %w", err)
	}
	return template, data, nil
}

func normalizeCategoryRegion(category, region string) (string, string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	region = strings.ToLower(strings.TrimSpace(region))
	if category == "" {
		category = model.TemplateCategoryOther
	}
	if region == "" {
		region = model.TemplateRegionGlobal
	}
	if !slice.Contain(model.TemplateCategories, category) {
		return "", "", validationError("invalid category %q", category)
	}
	if !slice.Contain(model.TemplateRegions, region) {
		return "", "", validationError("invalid region %q", region)
	}
	return category, region, nil
}

var fieldTypes = []string{
	model.FieldTypeText, model.FieldTypeDate, model.FieldTypeSignature,
	model.FieldTypeCheckbox, model.FieldTypeInitials,
}

func toTemplateFields(inputs []TemplateFieldInput) ([]model.TemplateField, error) {
	fields := make([]model.TemplateField, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.FieldName)
		if name == "" {
			return nil, validationError("field %d: field_name is required", i+1)
		}
		fieldType := in.FieldType
		if fieldType == "" {
			fieldType = model.FieldTypeText
		}
		if !slice.Contain(fieldTypes, fieldType) {
			return nil, validationError("field %s: invalid field_type %q", name, fieldType)
		}
		page := in.PageNumber
		if page <= 0 {
			page = 1
		}
		fields = append(fields, model.TemplateField{
			FieldName:       name,
			FieldLabel:      in.FieldLabel,
			FieldType:       fieldType,
			PageNumber:      page,
			X:               in.X,
			Y:               in.Y,
			Width:           in.Width,
			Height:          in.Height,
			IsRequired:      in.IsRequired,
			ValidationRules: utils.ToJSONColumn(in.ValidationRules),
			SortOrder:       in.SortOrder,
		})
	}
	return fields, nil
}
