package model

import (
	"time"

	"gorm.io/datatypes"
)

// ContractAuditLog 合同实例审计日志，只追加
type ContractAuditLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	InstanceID uint           `json:"instance_id" gorm:"index;not null"`
	Action     string         `json:"action" gorm:"size:50;not null"`
	ActorID    *uint          `json:"actor_id"`
	ActorName  string         `json:"actor_name" gorm:"size:255"`
	IPAddress  string         `json:"ip_address" gorm:"size:64"`
	UserAgent  string         `json:"user_agent" gorm:"size:500"`
	Details    datatypes.JSON `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// TableName 指定表名
func (ContractAuditLog) TableName() string {
	return "contract_audit_logs"
}

// Actor 操作人信息，未登录时为 System
type Actor struct {
	ID        *uint
	Name      string
	IPAddress string
	UserAgent string
}

const SystemActorName = "System"

// SystemActor 定时任务等无请求上下文时使用的操作人
func SystemActor() Actor {
	return Actor{Name: SystemActorName}
}

// DisplayName 返回操作人名称，为空时回退为 System
func (a Actor) DisplayName() string {
	if a.Name == "" {
		return SystemActorName
	}
	return a.Name
}
