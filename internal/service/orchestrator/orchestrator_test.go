package orchestrator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSubmitRunsJob(t *testing.T) {
	o, err := NewOrchestrator(2)
	if err != nil {
		t.Fatalf("NewOrchestrator error: %v", err)
	}
	defer o.Stop(time.Second)

	var calls int32
	for i := 0; i < 5; i++ {
		if err := o.Submit(NewJob("mail", func(ctx context.Context) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})); err != nil {
			t.Fatalf("Submit error: %v", err)
		}
	}
	o.Wait()

	if got := atomic.LoadInt32(&calls); got != 5 {
		t.Fatalf("expected 5 calls, got %d", got)
	}
	status := o.GetQueueStatus()
	if status.Submitted != 5 || status.Succeeded != 5 || status.Failed != 0 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestJobFailureAndPanicAreContained(t *testing.T) {
	o, _ := NewOrchestrator(1)
	defer o.Stop(time.Second)

	_ = o.Submit(NewJob("fail", func(ctx context.Context) error {
		return errors.New("smtp down")
	}))
	_ = o.Submit(NewJob("panic", func(ctx context.Context) error {
		panic("boom")
	}))
	var ran int32
	_ = o.Submit(NewJob("ok", func(ctx context.Context) error {
		atomic.StoreInt32(&ran, 1)
		return nil
	}))
	o.Wait()

	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("expected job after panic to run")
	}
	if status := o.GetQueueStatus(); status.Failed != 2 || status.Succeeded != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestJobTimeout(t *testing.T) {
	o, _ := NewOrchestrator(1)
	defer o.Stop(time.Second)

	job := NewJob("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	job.Timeout = 20 * time.Millisecond

	start := time.Now()
	_ = o.Submit(job)
	o.Wait()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("job should stop on timeout, took %v", elapsed)
	}
}

func TestSubmitAfterStop(t *testing.T) {
	o, _ := NewOrchestrator(1)
	o.Stop(time.Second)

	err := o.Submit(NewJob("late", func(ctx context.Context) error { return nil }))
	if !errors.Is(err, ErrOrchestratorStopped) {
		t.Fatalf("expected ErrOrchestratorStopped, got %v", err)
	}
	if err := o.Submit(&Job{Name: "empty"}); !errors.Is(err, ErrInvalidJob) {
		t.Fatalf("expected ErrInvalidJob, got %v", err)
	}
}
