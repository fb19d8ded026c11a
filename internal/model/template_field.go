package model

import (
	"time"

	"gorm.io/datatypes"
)

// 字段类型
const (
	FieldTypeText      = "text"
	FieldTypeDate      = "date"
	FieldTypeSignature = "signature"
	FieldTypeCheckbox  = "checkbox"
	FieldTypeInitials  = "initials"
)

// TemplateField 模板表单字段（带页面坐标）
type TemplateField struct {
	ID              uint           `json:"id" gorm:"primaryKey"`
	TemplateID      uint           `json:"template_id" gorm:"index;not null"`
	FieldName       string         `json:"field_name" gorm:"size:100;not null"`
	FieldLabel      string         `json:"field_label" gorm:"size:255"`
	FieldType       string         `json:"field_type" gorm:"size:20;not null;default:'text'"` // text, date, signature, checkbox, initials
	PageNumber      int            `json:"page_number" gorm:"not null;default:1"`             // 从1开始
	X               float64        `json:"x"`
	Y               float64        `json:"y"`
	Width           float64        `json:"width"`
	Height          float64        `json:"height"`
	IsRequired      bool           `json:"is_required" gorm:"default:false"`
	ValidationRules datatypes.JSON `json:"validation_rules,omitempty"`
	SortOrder       int            `json:"sort_order" gorm:"default:0"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (TemplateField) TableName() string {
	return "contract_template_fields"
}
