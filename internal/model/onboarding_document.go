package model

import "time"

// 入职文档状态
const (
	OnboardingStatusPending    = "pending"
	OnboardingStatusSent       = "sent"
	OnboardingStatusInProgress = "in_progress"
	OnboardingStatusCompleted  = "completed"
	OnboardingStatusWaived     = "waived"
	OnboardingStatusOverdue    = "overdue"
)

var OnboardingStatuses = []string{
	OnboardingStatusPending, OnboardingStatusSent, OnboardingStatusInProgress,
	OnboardingStatusCompleted, OnboardingStatusWaived, OnboardingStatusOverdue,
}

// EmployeeOnboardingDocument 员工入职所需文档跟踪
type EmployeeOnboardingDocument struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	EmployeeID         uint       `json:"employee_id" gorm:"index;not null"`
	ContractInstanceID *uint      `json:"contract_instance_id" gorm:"index"`
	TemplateID         *uint      `json:"template_id"`
	DocumentType       string     `json:"document_type" gorm:"size:50;not null"`
	DocumentName       string     `json:"document_name" gorm:"size:255;not null"`
	Status             string     `json:"status" gorm:"size:20;not null;default:'pending';index"` // pending, sent, in_progress, completed, waived, overdue
	IsRequired         bool       `json:"is_required" gorm:"not null"`
	DueDate            *time.Time `json:"due_date" gorm:"index"`
	CompletedAt        *time.Time `json:"completed_at"`
	WaivedAt           *time.Time `json:"waived_at"`
	WaivedBy           *uint      `json:"waived_by"`
	WaiveReason        string     `json:"waive_reason" gorm:"size:1000"`
	Notes              string     `json:"notes" gorm:"size:1000"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (EmployeeOnboardingDocument) TableName() string {
	return "employee_onboarding_documents"
}

// Employee 员工（由 HRMS 其他模块维护，这里只读取联系方式）
type Employee struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	EmployeeCode string     `json:"employee_code" gorm:"size:50;index"`
	Name         string     `json:"name" gorm:"size:255;not null"`
	Email        string     `json:"email" gorm:"size:255;not null"`
	Department   string     `json:"department" gorm:"size:100"`
	JoinDate     *time.Time `json:"join_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// TableName 指定表名
func (Employee) TableName() string {
	return "employees"
}
