package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/duke-git/lancet/v2/slice"
	"github.com/hrms-go/backend/config"
	"github.com/hrms-go/backend/internal/model"
	"github.com/hrms-go/backend/internal/repository"
	"github.com/hrms-go/backend/internal/service/statemachine"
	"github.com/hrms-go/backend/internal/utils"
	"k8s.io/klog/v2"
)

// 定时任务名称
const (
	SweepReminders = "reminders"
	SweepExpiry    = "expiry"
	SweepOverdue   = "overdue"
)

// SweepJobs 可手动触发的任务
var SweepJobs = []string{SweepReminders, SweepExpiry, SweepOverdue}

// ErrUnknownSweep 未知任务名
var ErrUnknownSweep = errors.New("unknown sweep job")

// SweepResult 单次扫描结果，Count 为成功处理的记录数
type SweepResult struct {
	Job     string `json:"job"`
	Success bool   `json:"success"`
	Count   int64  `json:"count"`
	Error   string `json:"error,omitempty"`
}

// SweeperService 提醒、过期、入职逾期三类扫描，均不向调用方抛出 panic
type SweeperService interface {
	Run(ctx context.Context, job string) (*SweepResult, error)
	RunReminders(ctx context.Context) *SweepResult
	RunExpiry(ctx context.Context) *SweepResult
	RunOverdue(ctx context.Context) *SweepResult
}

type sweeperService struct {
	cfg            config.ContractConfig
	instanceRepo   repository.InstanceRepository
	onboardingRepo repository.OnboardingRepository
	instances      InstanceService
	now            func() time.Time
}

// NewSweeperService 创建扫描服务
func NewSweeperService(cfg config.ContractConfig, instanceRepo repository.InstanceRepository, onboardingRepo repository.OnboardingRepository, instances InstanceService) SweeperService {
	return &sweeperService{
		cfg:            cfg,
		instanceRepo:   instanceRepo,
		onboardingRepo: onboardingRepo,
		instances:      instances,
		now:            time.Now,
	}
}

// Run 按名称执行扫描
func (s *sweeperService) Run(ctx context.Context, job string) (*SweepResult, error) {
	switch job {
	case SweepReminders:
		return s.RunReminders(ctx), nil
	case SweepExpiry:
		return s.RunExpiry(ctx), nil
	case SweepOverdue:
		return s.RunOverdue(ctx), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSweep, job)
}

// RunReminders 已发送超过 reminder_after_days 天，或将在 24 小时内过期的活跃实例
func (s *sweeperService) RunReminders(ctx context.Context) *SweepResult {
	return s.guard(SweepReminders, func(result *SweepResult) error {
		now := s.now()
		sentBefore := now.AddDate(0, 0, -s.cfg.ReminderAfterDays)
		candidates, err := s.instanceRepo.ListReminderCandidates(ctx,
			statemachine.StatusStrings(statemachine.ActiveStatuses), sentBefore, now.Add(24*time.Hour))
		if err != nil {
			return fmt.Errorf("failed to list reminder candidates: %w", err)
		}
		for _, inst := range candidates {
			if _, err := s.instances.Remind(ctx, inst.ID, model.SystemActor()); err != nil {
				klog.Warningf("提醒发送失败: instanceID=%d, error=%v", inst.ID, err)
				continue
			}
			result.Count++
		}
		return nil
	})
}

// RunExpiry 逐条执行 expire 迁移，每条都有审计记录与 HR 通知
func (s *sweeperService) RunExpiry(ctx context.Context) *SweepResult {
	return s.guard(SweepExpiry, func(result *SweepResult) error {
		statuses := statemachine.StatusStrings(statemachine.ActiveStatuses)
		candidates, err := s.instanceRepo.ListExpired(ctx, statuses, s.now())
		if err != nil {
			return fmt.Errorf("failed to list expired instances: %w", err)
		}
		for _, inst := range candidates {
			if !slice.Contain(statuses, inst.Status) {
				continue
			}
			res, err := s.instances.Expire(ctx, inst.ID, model.SystemActor())
			if err != nil {
				// 扫描期间被签署或取消的实例会返回 InvalidState
				if !errors.Is(err, ErrInvalidState) {
					klog.Warningf("实例过期处理失败: instanceID=%d, error=%v", inst.ID, err)
				}
				continue
			}
			if res.Changed {
				result.Count++
			}
		}
		return nil
	})
}

// RunOverdue 截止日期早于今天且未完成的入职文档标记为 overdue
func (s *sweeperService) RunOverdue(ctx context.Context) *SweepResult {
	return s.guard(SweepOverdue, func(result *SweepResult) error {
		now := s.now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		affected, err := s.onboardingRepo.MarkOverdue(ctx, today, statemachine.OverdueSources)
		if err != nil {
			return fmt.Errorf("failed to mark overdue documents: %w", err)
		}
		result.Count = affected
		return nil
	})
}

func (s *sweeperService) guard(job string, run func(result *SweepResult) error) (result *SweepResult) {
	result = &SweepResult{Job: job}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("扫描任务 panic: job=%s, panic=%v", job, r)
			result.Success = false
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		klog.V(6).Infof("扫描任务结束: result=%s, duration=%v", utils.ToJSON(result), time.Since(start))
	}()

	if err := run(result); err != nil {
		klog.Errorf("扫描任务失败: job=%s, error=%v", job, err)
		result.Error = err.Error()
		return result
	}
	result.Success = true
	return result
}
