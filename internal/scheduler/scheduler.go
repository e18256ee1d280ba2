package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"StockTracker/internal/logger"
)

// Task is one unit of repeating work.
type Task func(ctx context.Context)

// Scheduler runs a task on a fixed cadence. Runs never overlap: a run requested
// while another is in flight is skipped.
type Scheduler struct {
	Cron     *cron.Cron
	Interval time.Duration

	task   Task
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
	run    sync.Mutex
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler for task every interval.
func NewScheduler(task Task, interval time.Duration, log *zap.Logger) *Scheduler {
	cl := cron.PrintfLogger(logger.StdLog(log, "cron"))
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		Cron:     cron.New(cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		Interval: interval,
		task:     task,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start runs the task once synchronously, then schedules it every Interval.
func (s *Scheduler) Start() error {
	if s.Interval <= 0 {
		return fmt.Errorf("register tick: interval must be positive, got %s", s.Interval)
	}
	s.RunNow()
	if _, err := s.Cron.AddFunc(fmt.Sprintf("@every %s", s.Interval), func() { s.RunNow() }); err != nil {
		return fmt.Errorf("register tick: %w", err)
	}
	s.Cron.Start()
	s.log.Info("scheduler started", zap.Duration("interval", s.Interval))
	return nil
}

// Stop cancels the task context and waits for a running task to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.Cron.Stop().Done()
	s.wg.Wait()
	s.log.Info("scheduler stopped")
}

// RunNow runs the task unless a run is already in flight or the scheduler is
// stopped. It reports whether the task ran.
func (s *Scheduler) RunNow() bool {
	if s.ctx.Err() != nil {
		return false
	}
	if !s.run.TryLock() {
		s.log.Debug("run skipped, previous still in flight")
		return false
	}
	defer s.run.Unlock()
	s.task(s.ctx)
	return true
}

// Trigger requests an immediate run without waiting for it.
func (s *Scheduler) Trigger() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunNow()
	}()
}
