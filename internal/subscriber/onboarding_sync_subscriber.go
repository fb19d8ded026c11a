package subscriber

import (
	"context"

	"github.com/hrms-go/backend/internal/eventbus"
	"k8s.io/klog/v2"
)

type onboardingSyncService interface {
	SyncContractStatus(ctx context.Context, instanceID uint, status string) (int64, error)
}

// OnboardingSyncSubscriber 合同状态变化时同步关联的入职文档
type OnboardingSyncSubscriber struct {
	onboarding onboardingSyncService
}

func NewOnboardingSyncSubscriber(onboarding onboardingSyncService) *OnboardingSyncSubscriber {
	return &OnboardingSyncSubscriber{onboarding: onboarding}
}

func (s *OnboardingSyncSubscriber) Register(bus *eventbus.ContractEventBus) {
	if bus == nil {
		return
	}
	bus.Subscribe(eventbus.ContractEventSent, s.handleStatusChanged)
	bus.Subscribe(eventbus.ContractEventInProgress, s.handleStatusChanged)
	bus.Subscribe(eventbus.ContractEventCompleted, s.handleStatusChanged)
}

func (s *OnboardingSyncSubscriber) handleStatusChanged(ctx context.Context, event eventbus.ContractEvent) error {
	if event.Instance.ID == 0 {
		return nil
	}
	affected, err := s.onboarding.SyncContractStatus(ctx, event.Instance.ID, event.Instance.Status)
	if err != nil {
		klog.Errorf("同步入职文档状态失败: instanceID=%d, status=%s, error=%v", event.Instance.ID, event.Instance.Status, err)
		return err
	}
	if affected > 0 {
		klog.V(6).Infof("入职文档状态已同步: instanceID=%d, status=%s, rows=%d", event.Instance.ID, event.Instance.Status, affected)
	}
	return nil
}
