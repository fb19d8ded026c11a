package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// -----------------------------
// Job 定义
// -----------------------------
// Job 一次性的后台任务，执行失败只记录日志，不重试
type Job struct {
	Name       string
	EnqueuedAt time.Time
	Timeout    time.Duration
	Run        func(ctx context.Context) error
}

// NewJob 创建默认 1 分钟超时的任务
func NewJob(name string, run func(ctx context.Context) error) *Job {
	return &Job{
		Name:       name,
		EnqueuedAt: time.Now(),
		Timeout:    time.Minute,
		Run:        run,
	}
}

// -----------------------------
// Orchestrator
// -----------------------------
// Orchestrator 基于 ants 协程池的 fire-and-forget 执行器，用于提交后发送通知
type Orchestrator struct {
	pool *ants.Pool

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	wg       sync.WaitGroup

	submitted atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64
}

// -----------------------------
// 错误定义
// -----------------------------
var (
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
	ErrInvalidJob          = errors.New("job has no run function")
)

// -----------------------------
// 构造函数
// -----------------------------
func NewOrchestrator(maxWorkers int) (*Orchestrator, error) {
	if maxWorkers <= 0 {
		maxWorkers = 4
	}
	ctx, cancel := context.WithCancel(context.Background())

	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(1000),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		cancel()
		klog.Errorf("ants pool initialization failed: %v", err)
		return nil, err
	}

	return &Orchestrator{
		pool:   pool,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// -----------------------------
// 提交任务
// -----------------------------
func (o *Orchestrator) Submit(job *Job) error {
	if job == nil || job.Run == nil {
		return ErrInvalidJob
	}
	select {
	case <-o.ctx.Done():
		return ErrOrchestratorStopped
	default:
	}

	o.wg.Add(1)
	if err := o.pool.Submit(func() {
		defer o.wg.Done()
		o.executeJob(job)
	}); err != nil {
		o.wg.Done()
		klog.Errorf("提交任务到协程池失败: job=%s, err=%v", job.Name, err)
		if errors.Is(err, ants.ErrPoolClosed) {
			return ErrOrchestratorStopped
		}
		return err
	}
	o.submitted.Add(1)
	klog.V(6).Infof("Job submitted: job=%s", job.Name)
	return nil
}

// executeJob 执行单个任务，panic 不影响协程池
func (o *Orchestrator) executeJob(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			o.failed.Add(1)
			klog.Errorf("Job panic recovered: job=%s, err=%v", job.Name, r)
		}
	}()

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	ctx, cancel := context.WithTimeout(o.ctx, timeout)
	defer cancel()

	if err := job.Run(ctx); err != nil {
		o.failed.Add(1)
		klog.Warningf("后台任务执行失败: job=%s, waited=%v, err=%v", job.Name, time.Since(job.EnqueuedAt), err)
		return
	}
	o.succeeded.Add(1)
	klog.V(6).Infof("Job completed: job=%s", job.Name)
}

// Wait 等待已提交的任务全部结束
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// -----------------------------
// 停止
// -----------------------------
func (o *Orchestrator) Stop(timeout time.Duration) {
	o.stopOnce.Do(func() {
		klog.V(6).Infof("Orchestrator stopping...")

		runningTasks := o.pool.Running()
		if runningTasks > 0 {
			klog.V(6).Infof("Waiting for %d running jobs to complete (timeout: %v)", runningTasks, timeout)
		}

		// 先等待运行中的任务，再取消上下文
		if err := o.pool.ReleaseTimeout(timeout); err != nil {
			klog.Warningf("Timeout after %v: some running jobs may be forced to stop", timeout)
		}
		o.cancel()
		klog.V(6).Infof("Orchestrator stopped completely")
	})
}

// -----------------------------
// Queue Status
// -----------------------------
type QueueStatus struct {
	ActiveWorkers int   `json:"active_workers"`
	Submitted     int64 `json:"submitted"`
	Succeeded     int64 `json:"succeeded"`
	Failed        int64 `json:"failed"`
}

func (o *Orchestrator) GetQueueStatus() *QueueStatus {
	return &QueueStatus{
		ActiveWorkers: o.pool.Running(),
		Submitted:     o.submitted.Load(),
		Succeeded:     o.succeeded.Load(),
		Failed:        o.failed.Load(),
	}
}
