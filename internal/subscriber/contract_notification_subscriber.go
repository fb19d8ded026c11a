package subscriber

import (
	"context"
	"errors"
	"fmt"

	"github.com/hrms-go/backend/internal/eventbus"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/service"
	"github.com/hrms-go/backend/internal/service/orchestrator"
	"k8s.io/klog/v2"
)

// ErrNotificationsDisabled SMTP 未启用时返回，调用方作为警告展示
var ErrNotificationsDisabled = errors.New("email notifications are disabled")

type jobSubmitter interface {
	Submit(job *orchestrator.Job) error
}

// ContractNotificationSubscriber 将合同事件转为异步邮件任务
type ContractNotificationSubscriber struct {
	notifier service.NotificationService
	executor jobSubmitter
}

func NewContractNotificationSubscriber(notifier service.NotificationService, executor jobSubmitter) *ContractNotificationSubscriber {
	return &ContractNotificationSubscriber{notifier: notifier, executor: executor}
}

func (s *ContractNotificationSubscriber) Register(bus *eventbus.ContractEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.ContractEventSent, s.handleSent)
	bus.Subscribe(eventbus.ContractEventCompleted, s.handleCompleted)
	bus.Subscribe(eventbus.ContractEventExpired, s.handleExpired)
	bus.Subscribe(eventbus.ContractEventReminder, s.handleReminder)
}

func (s *ContractNotificationSubscriber) handleSent(ctx context.Context, event eventbus.ContractEvent) error {
	return s.enqueue("contract-sent", event.Instance, func(ctx context.Context) service.NotificationResult {
		return s.notifier.SendContract(ctx, event.Instance)
	})
}

func (s *ContractNotificationSubscriber) handleCompleted(ctx context.Context, event eventbus.ContractEvent) error {
	return s.enqueue("contract-completed", event.Instance, func(ctx context.Context) service.NotificationResult {
		return s.notifier.SendCompletion(ctx, event.Instance)
	})
}

func (s *ContractNotificationSubscriber) handleExpired(ctx context.Context, event eventbus.ContractEvent) error {
	return s.enqueue("contract-expired", event.Instance, func(ctx context.Context) service.NotificationResult {
		return s.notifier.SendExpiryToHR(ctx, event.Instance)
	})
}

func (s *ContractNotificationSubscriber) handleReminder(ctx context.Context, event eventbus.ContractEvent) error {
	name := "contract-reminder-" + string(event.Reminder)
	return s.enqueue(name, event.Instance, func(ctx context.Context) service.NotificationResult {
		return s.notifier.SendReminder(ctx, event.Instance, event.Reminder, event.DaysLeft)
	})
}

// enqueue 提交到协程池后立即返回，发送结果只记录日志
func (s *ContractNotificationSubscriber) enqueue(name string, instance model.ContractInstance, send func(ctx context.Context) service.NotificationResult) error {
	if !s.notifier.Enabled() {
		klog.V(6).Infof("邮件通知未启用，跳过: job=%s, instanceID=%d", name, instance.ID)
		return ErrNotificationsDisabled
	}
	job := orchestrator.NewJob(fmt.Sprintf("%s:%d", name, instance.ID), func(ctx context.Context) error {
		result := send(ctx)
		if !result.Success {
			return errors.New(result.Error)
		}
		return nil
	})
	if err := s.executor.Submit(job); err != nil {
		return fmt.Errorf("failed to queue %s email: %w", name, err)
	}
	return nil
}
