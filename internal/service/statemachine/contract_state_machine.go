package statemachine

import (
	"fmt"

	"github.com/duke-git/lancet/v2/slice"
	"k8s.io/klog/v2"
)

// ContractStatus 定义合同实例的所有可能状态
type ContractStatus string

const (
	ContractStatusDraft      ContractStatus = "draft"       // 已创建，未发送
	ContractStatusSent       ContractStatus = "sent"        // 已发送给接收人
	ContractStatusViewed     ContractStatus = "viewed"      // 接收人已打开
	ContractStatusInProgress ContractStatus = "in_progress" // 接收人正在填写
	ContractStatusCompleted  ContractStatus = "completed"   // 已签署
	ContractStatusDeclined   ContractStatus = "declined"    // 接收人拒签
	ContractStatusExpired    ContractStatus = "expired"     // 超过有效期
	ContractStatusCancelled  ContractStatus = "cancelled"   // 发起方取消
)

// ContractAction 触发状态迁移的动作
type ContractAction string

const (
	ActionSend       ContractAction = "send"
	ActionMarkViewed ContractAction = "mark_viewed"
	ActionStart      ContractAction = "start"
	ActionComplete   ContractAction = "complete"
	ActionDecline    ContractAction = "decline"
	ActionCancel     ContractAction = "cancel"
	ActionExpire     ContractAction = "expire"
)

// ActiveStatuses 等待接收人处理的状态，提醒与过期扫描只关心这些
var ActiveStatuses = []ContractStatus{ContractStatusSent, ContractStatusViewed, ContractStatusInProgress}

type contractEdge struct {
	From []ContractStatus
	To   ContractStatus
}

// 合法迁移：
// draft -send-> sent -mark_viewed-> viewed -start-> in_progress -complete-> completed
// sent/viewed/in_progress -decline-> declined, -expire-> expired
// draft/sent/viewed/in_progress -cancel-> cancelled
var contractGraph = map[ContractAction]contractEdge{
	ActionSend:       {From: []ContractStatus{ContractStatusDraft}, To: ContractStatusSent},
	ActionMarkViewed: {From: []ContractStatus{ContractStatusSent}, To: ContractStatusViewed},
	ActionStart:      {From: []ContractStatus{ContractStatusSent, ContractStatusViewed}, To: ContractStatusInProgress},
	ActionComplete:   {From: ActiveStatuses, To: ContractStatusCompleted},
	ActionDecline:    {From: ActiveStatuses, To: ContractStatusDeclined},
	ActionCancel: {
		From: []ContractStatus{ContractStatusDraft, ContractStatusSent, ContractStatusViewed, ContractStatusInProgress},
		To:   ContractStatusCancelled,
	},
	ActionExpire: {From: ActiveStatuses, To: ContractStatusExpired},
}

// Next 根据当前状态与动作计算目标状态，不合法时返回 InvalidTransitionError
func Next(current ContractStatus, action ContractAction) (ContractStatus, error) {
	edge, ok := contractGraph[action]
	if !ok || !slice.Contain(edge.From, current) {
		return current, &InvalidTransitionError{From: string(current), Action: string(action)}
	}
	return edge.To, nil
}

// Sources 返回动作允许的起始状态，用于条件更新
func Sources(action ContractAction) []string {
	edge, ok := contractGraph[action]
	if !ok {
		return nil
	}
	return StatusStrings(edge.From)
}

// Transition 校验迁移（带日志）
func Transition(current ContractStatus, action ContractAction, instanceID uint) (ContractStatus, error) {
	next, err := Next(current, action)
	if err != nil {
		klog.V(6).Infof("合同状态迁移被拒绝: instanceID=%d, %s -%s->, error=%v", instanceID, current, action, err)
		return current, err
	}
	klog.V(6).Infof("合同状态迁移: instanceID=%d, %s -> %s", instanceID, current, next)
	return next, nil
}

// InvalidTransitionError 无效的状态迁移错误
type InvalidTransitionError struct {
	From   string
	Action string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s contract in status %s", e.Action, e.From)
}

// IsTerminal 判断状态是否为终止态（不能再迁移）
func IsTerminal(status ContractStatus) bool {
	switch status {
	case ContractStatusCompleted, ContractStatusDeclined, ContractStatusExpired, ContractStatusCancelled:
		return true
	}
	return false
}

// IsActive 判断是否仍在等待接收人处理
func IsActive(status ContractStatus) bool {
	return slice.Contain(ActiveStatuses, status)
}

func StatusStrings(statuses []ContractStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
