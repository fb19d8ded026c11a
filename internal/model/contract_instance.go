package model

import (
	"time"

	"gorm.io/datatypes"
)

// ContractInstance 合同实例：模板发给某一接收人的一份副本
type ContractInstance struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	TemplateID     *uint          `json:"template_id" gorm:"index"` // 模板可被独立删除
	ContractNumber string         `json:"contract_number" gorm:"size:32;uniqueIndex;not null"`
	Title          string         `json:"title" gorm:"size:255;not null"`
	RecipientType  string         `json:"recipient_type" gorm:"size:30;default:'employee'"` // employee, vendor, other
	RecipientID    *uint          `json:"recipient_id" gorm:"index"`
	RecipientEmail string         `json:"recipient_email" gorm:"size:255;not null"`
	RecipientName  string         `json:"recipient_name" gorm:"size:255"`
	Status         string         `json:"status" gorm:"size:20;not null;default:'draft';index"` // draft, sent, viewed, in_progress, completed, declined, expired, cancelled
	SentDate       *time.Time     `json:"sent_date"`
	ViewedDate     *time.Time     `json:"viewed_date"`
	CompletedDate  *time.Time     `json:"completed_date"`
	DeclinedDate   *time.Time     `json:"declined_date"`
	ExpiresAt      *time.Time     `json:"expires_at" gorm:"index"`
	OriginalFile   string         `json:"original_file_path" gorm:"column:original_file_path;size:500"`
	SignedFile     string         `json:"signed_file_path" gorm:"column:signed_file_path;size:500"`
	Metadata       datatypes.JSON `json:"metadata,omitempty"`
	DeclineReason  string         `json:"decline_reason" gorm:"size:1000"`
	CreatedBy      *uint          `json:"created_by"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName 指定表名
func (ContractInstance) TableName() string {
	return "contract_instances"
}

// DaysUntilExpiry 距离过期的天数（向上取整），无过期时间返回 -1
func (c *ContractInstance) DaysUntilExpiry(now time.Time) int {
	if c.ExpiresAt == nil {
		return -1
	}
	remaining := c.ExpiresAt.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) != 0 {
		days++
	}
	return days
}
