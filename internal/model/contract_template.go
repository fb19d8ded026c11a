package model

import "time"

// 模板分类
const (
	TemplateCategoryEmployee = "employee"
	TemplateCategoryVendor   = "vendor"
	TemplateCategoryMSA      = "msa"
	TemplateCategoryPO       = "po"
	TemplateCategorySOW      = "sow"
	TemplateCategoryNDA      = "nda"
	TemplateCategoryOther    = "other"
)

// 模板适用地区
const (
	TemplateRegionUSA    = "usa"
	TemplateRegionIndia  = "india"
	TemplateRegionGlobal = "global"
)

var TemplateCategories = []string{
	TemplateCategoryEmployee, TemplateCategoryVendor, TemplateCategoryMSA,
	TemplateCategoryPO, TemplateCategorySOW, TemplateCategoryNDA, TemplateCategoryOther,
}

var TemplateRegions = []string{TemplateRegionUSA, TemplateRegionIndia, TemplateRegionGlobal}

// ContractTemplate 合同模板表
type ContractTemplate struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"size:1000"`
	Category    string          `json:"category" gorm:"size:20;not null;default:'other';index"` // employee, vendor, msa, po, sow, nda, other
	Region      string          `json:"region" gorm:"size:20;not null;default:'global';index"`  // usa, india, global
	FilePath    string          `json:"file_path" gorm:"size:500"`                               // 模板源文件在存储中的路径
	FileName    string          `json:"file_name" gorm:"size:255"`
	IsActive    bool            `json:"is_active" gorm:"not null;index"`
	CreatedBy   *uint           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Fields      []TemplateField `json:"fields,omitempty" gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE;"`
}

// TableName 指定表名
func (ContractTemplate) TableName() string {
	return "contract_templates"
}
