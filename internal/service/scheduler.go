package service

import (
	"context"
	"fmt"
	"time"

	"github.com/hrms-go/backend/config"
	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"
)

// Scheduler 按 cron 表达式周期触发扫描任务
type Scheduler struct {
	cron    *cron.Cron
	sweeper SweeperService
	timeout time.Duration
}

// NewScheduler 根据配置注册三个扫描任务，时区为空时使用本地时区
func NewScheduler(cfg config.SchedulerConfig, sweeper SweeperService) (*Scheduler, error) {
	loc := time.Local
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid scheduler timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		sweeper: sweeper,
		timeout: 30 * time.Minute,
	}

	specs := map[string]string{
		SweepReminders: cfg.ReminderCron,
		SweepExpiry:    cfg.ExpiryCron,
		SweepOverdue:   cfg.OverdueCron,
	}
	for _, job := range SweepJobs {
		spec := specs[job]
		if spec == "" {
			klog.V(6).Infof("定时任务未配置，跳过: job=%s", job)
			continue
		}
		if _, err := s.cron.AddFunc(spec, s.runner(job)); err != nil {
			return nil, fmt.Errorf("invalid cron spec for %s: %w", job, err)
		}
		klog.V(6).Infof("定时任务已注册: job=%s, spec=%s", job, spec)
	}
	return s, nil
}

func (s *Scheduler) runner(job string) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		result, err := s.sweeper.Run(ctx, job)
		if err != nil {
			klog.Errorf("定时任务执行失败: job=%s, error=%v", job, err)
			return
		}
		klog.Infof("定时任务完成: job=%s, success=%v, count=%d", job, result.Success, result.Count)
	}
}

// Entries 已注册任务数
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	klog.Infof("定时任务调度器已启动: entries=%d", s.Entries())
}

// Stop 停止调度并等待正在运行的任务结束
func (s *Scheduler) Stop(timeout time.Duration) {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(timeout):
		klog.Warningf("定时任务未在 %v 内结束", timeout)
	}
}
