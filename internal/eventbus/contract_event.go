package eventbus

import "github.com/hrms-go/backend/internal/model"

type ContractEventType string

const (
	ContractEventSent       ContractEventType = "Sent"
	ContractEventViewed     ContractEventType = "Viewed"
	ContractEventInProgress ContractEventType = "InProgress"
	ContractEventCompleted  ContractEventType = "Completed"
	ContractEventDeclined   ContractEventType = "Declined"
	ContractEventCancelled  ContractEventType = "Cancelled"
	ContractEventExpired    ContractEventType = "Expired"
	ContractEventReminder   ContractEventType = "Reminder"
)

// ReminderKind 提醒类型
type ReminderKind string

const (
	ReminderFollowup ReminderKind = "followup"
	ReminderFinal    ReminderKind = "final"
)

// ContractEvent 合同状态变化事件，Instance 为提交后的快照
type ContractEvent struct {
	Type     ContractEventType
	Instance model.ContractInstance
	Actor    model.Actor
	Reminder ReminderKind
	DaysLeft int
}

func (e ContractEvent) EventType() ContractEventType {
	return e.Type
}

type ContractEventHandler = Handler[ContractEvent]
type ContractEventBus = Bus[ContractEventType, ContractEvent]

func NewContractEventBus() *ContractEventBus {
	return NewBus[ContractEventType, ContractEvent]()
}
