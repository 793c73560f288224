package aggregator

import (
	"context"
	"log/slog"
	"time"

	"github.com/tokenforge/sale-analytics/internal/metrics"
)

const errBackoff = 1 * time.Minute

// Task is a named periodic unit of work. Run is expected to finish well
// within one poll interval; the scheduler never starts the same task twice
// concurrently.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Scheduler drives the periodic tasks from a single loop. Last-run state is
// process-local; after a restart every task is overdue and runs promptly.
type Scheduler struct {
	logger       *slog.Logger
	pollInterval time.Duration
	tasks        []Task
	lastRun      map[string]time.Time
	now          func() time.Time
}

func NewScheduler(logger *slog.Logger, pollInterval time.Duration) *Scheduler {
	return &Scheduler{
		logger:       logger,
		pollInterval: pollInterval,
		lastRun:      make(map[string]time.Time),
		now:          time.Now,
	}
}

// Add registers a task. Not safe to call once Run has started.
func (s *Scheduler) Add(name string, interval time.Duration, run func(ctx context.Context) error) {
	s.tasks = append(s.tasks, Task{Name: name, Interval: interval, Run: run})
	s.logger.Info("registered task", "task", name, "interval", interval)
}

// Run blocks until ctx is cancelled. No task failure terminates the loop;
// only cancellation does.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("scheduler started", "tasks", len(s.tasks), "poll_interval", s.pollInterval)

	for {
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return
		}

		if !s.cycle(ctx) {
			// Something escaped task isolation. Back off briefly and resume.
			if !sleepCtx(ctx, errBackoff) {
				s.logger.Info("scheduler stopped")
				return
			}
			continue
		}

		if !sleepCtx(ctx, s.pollInterval) {
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// cycle dispatches due tasks once; reports false if the cycle itself failed.
func (s *Scheduler) cycle(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("scheduler cycle failed", "panic", r)
			ok = false
		}
	}()
	s.runDue(ctx, s.now())
	return true
}

func (s *Scheduler) runDue(ctx context.Context, now time.Time) {
	for _, t := range s.tasks {
		if now.Sub(s.lastRun[t.Name]) < t.Interval {
			continue
		}
		// lastRun advances no matter how the run ends, so a failing task
		// waits a full interval instead of retrying every poll.
		s.lastRun[t.Name] = now
		s.invoke(ctx, t)
	}
}

func (s *Scheduler) invoke(ctx context.Context, t Task) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("task panicked", "task", t.Name, "panic", r)
			metrics.TaskRunsTotal.WithLabelValues(t.Name, "panic").Inc()
		}
	}()

	start := time.Now()
	err := t.Run(ctx)
	metrics.TaskDuration.WithLabelValues(t.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		s.logger.Error("task failed", "task", t.Name, "error", err)
		metrics.TaskRunsTotal.WithLabelValues(t.Name, "error").Inc()
		return
	}
	metrics.TaskRunsTotal.WithLabelValues(t.Name, "ok").Inc()
	metrics.TaskLastSuccess.WithLabelValues(t.Name).SetToCurrentTime()
}

// sleepCtx waits d or until ctx is cancelled; reports whether the full wait
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
