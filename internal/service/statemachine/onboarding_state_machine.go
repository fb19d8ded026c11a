package statemachine

import (
	"fmt"
	"math"

	"github.com/hrms-go/backend/internal/model"
	"k8s.io/klog/v2"
)

// OnboardingStatus 入职文档状态
type OnboardingStatus string

const (
	OnboardingPending    OnboardingStatus = model.OnboardingStatusPending
	OnboardingSent       OnboardingStatus = model.OnboardingStatusSent
	OnboardingInProgress OnboardingStatus = model.OnboardingStatusInProgress
	OnboardingCompleted  OnboardingStatus = model.OnboardingStatusCompleted
	OnboardingWaived     OnboardingStatus = model.OnboardingStatusWaived
	OnboardingOverdue    OnboardingStatus = model.OnboardingStatusOverdue
)

// OverdueSources 可被逾期扫描标记为 overdue 的状态
var OverdueSources = []string{
	model.OnboardingStatusPending, model.OnboardingStatusSent, model.OnboardingStatusInProgress,
}

// OnboardingTransition 定义入职文档状态迁移
type OnboardingTransition struct {
	From OnboardingStatus
	To   OnboardingStatus
}

// OnboardingStateMachine 入职文档状态机
// waived 不经过状态机：豁免对任何当前状态都生效
type OnboardingStateMachine struct {
	allowedTransitions map[OnboardingTransition]bool
}

// NewOnboardingStateMachine 创建入职文档状态机
func NewOnboardingStateMachine() *OnboardingStateMachine {
	sm := &OnboardingStateMachine{
		allowedTransitions: make(map[OnboardingTransition]bool),
	}

	// pending -> sent -> in_progress -> completed
	// pending/sent/in_progress -> overdue，overdue 仍可继续推进
	transitions := []OnboardingTransition{
		{OnboardingPending, OnboardingSent},
		{OnboardingSent, OnboardingInProgress},
		{OnboardingSent, OnboardingCompleted},
		{OnboardingInProgress, OnboardingCompleted},

		{OnboardingPending, OnboardingOverdue},
		{OnboardingSent, OnboardingOverdue},
		{OnboardingInProgress, OnboardingOverdue},

		{OnboardingOverdue, OnboardingSent},
		{OnboardingOverdue, OnboardingInProgress},
		{OnboardingOverdue, OnboardingCompleted},
	}

	for _, t := range transitions {
		sm.allowedTransitions[t] = true
	}

	return sm
}

// CanTransition 检查状态迁移是否合法
func (sm *OnboardingStateMachine) CanTransition(from, to OnboardingStatus) bool {
	if from == to {
		return false
	}
	return sm.allowedTransitions[OnboardingTransition{From: from, To: to}]
}

// SourcesOf 返回可迁移到目标状态的全部起始状态
func (sm *OnboardingStateMachine) SourcesOf(to OnboardingStatus) []string {
	var out []string
	for t := range sm.allowedTransitions {
		if t.To == to {
			out = append(out, string(t.From))
		}
	}
	return out
}

// ValidateTransition 验证状态迁移并返回错误
func (sm *OnboardingStateMachine) ValidateTransition(from, to OnboardingStatus) error {
	if !sm.CanTransition(from, to) {
		return &InvalidOnboardingTransitionError{From: string(from), To: string(to)}
	}
	return nil
}

// InvalidOnboardingTransitionError 无效的入职文档状态迁移错误
type InvalidOnboardingTransitionError struct {
	From string
	To   string
}

func (e *InvalidOnboardingTransitionError) Error() string {
	return fmt.Sprintf("invalid onboarding document transition: %s -> %s", e.From, e.To)
}

// OnboardingProgress 员工入职进度汇总
type OnboardingProgress struct {
	EmployeeID           uint `json:"employee_id"`
	Total                int  `json:"total"`
	Pending              int  `json:"pending"`
	Sent                 int  `json:"sent"`
	InProgress           int  `json:"in_progress"`
	Completed            int  `json:"completed"`
	Waived               int  `json:"waived"`
	Overdue              int  `json:"overdue"`
	CompletionPercentage int  `json:"completion_percentage"`
	RequiredOutstanding  int  `json:"required_outstanding"`
	IsComplete           bool `json:"is_complete"`
}

// AggregateProgress 根据文档集合计算进度，total 为 0 时完成度为 0
func AggregateProgress(employeeID uint, docs []model.EmployeeOnboardingDocument) *OnboardingProgress {
	p := &OnboardingProgress{EmployeeID: employeeID, Total: len(docs)}
	for _, d := range docs {
		switch OnboardingStatus(d.Status) {
		case OnboardingPending:
			p.Pending++
		case OnboardingSent:
			p.Sent++
		case OnboardingInProgress:
			p.InProgress++
		case OnboardingCompleted:
			p.Completed++
		case OnboardingWaived:
			p.Waived++
		case OnboardingOverdue:
			p.Overdue++
		default:
			klog.Warningf("未知的入职文档状态: docID=%d, status=%s", d.ID, d.Status)
		}
		if d.IsRequired && d.Status != model.OnboardingStatusCompleted && d.Status != model.OnboardingStatusWaived {
			p.RequiredOutstanding++
		}
	}
	if p.Total > 0 {
		p.CompletionPercentage = int(math.Round(float64(p.Completed) / float64(p.Total) * 100))
	}
	p.IsComplete = p.Total > 0 && p.RequiredOutstanding == 0
	return p
}
