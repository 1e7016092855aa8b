// Package tasks provides a bounded background task queue with per-task error
// isolation. Tasks dispatched from request handlers run detached from the
// request lifecycle: they are never awaited by the caller, are not cancellable
// once started, and their failures are logged and counted, never propagated.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/semaphore"

	"github.com/SixtySecondsApp/use60-sub018/pkg/lifecycle"
)

var (
	tasksStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "background_tasks_started_total",
		Help: "Background tasks dispatched, by task name.",
	}, []string{"task"})

	tasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "background_tasks_failed_total",
		Help: "Background tasks that returned an error or panicked, by task name.",
	}, []string{"task"})
)

// Task is a named unit of background work.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Queue runs tasks concurrently up to a configured bound.
type Queue struct {
	sem     *semaphore.Weighted
	timeout time.Duration
	logger  *slog.Logger
	wg      sync.WaitGroup

	mu       sync.RWMutex
	draining bool
}

// New creates a Queue from the given configuration.
func New(cfg *Config, logger *slog.Logger) *Queue {
	return &Queue{
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
		timeout: cfg.TaskTimeoutDuration(),
		logger:  logger.With("system", "tasks"),
	}
}

// Start registers a shutdown hook that drains in-flight tasks.
// New dispatches are dropped once shutdown begins.
func (q *Queue) Start(lc *lifecycle.Coordinator) error {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		q.mu.Lock()
		q.draining = true
		q.mu.Unlock()

		q.logger.Info("draining background tasks")
		q.wg.Wait()
		q.logger.Info("background tasks drained")
	})
	return nil
}

// Dispatch schedules a task for background execution and returns immediately.
// The task runs against a fresh context with the queue's timeout, detached
// from any request context, so it cannot be cancelled by its originator.
func (q *Queue) Dispatch(t Task) {
	q.mu.RLock()
	draining := q.draining
	q.mu.RUnlock()

	if draining {
		q.logger.Warn("task dropped during shutdown", "task", t.Name)
		return
	}

	tasksStarted.WithLabelValues(t.Name).Inc()
	q.wg.Add(1)

	go func() {
		defer q.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		defer cancel()

		if err := q.sem.Acquire(ctx, 1); err != nil {
			q.fail(t.Name, fmt.Errorf("queue saturated: %w", err))
			return
		}
		defer q.sem.Release(1)

		defer func() {
			if r := recover(); r != nil {
				q.fail(t.Name, fmt.Errorf("panic: %v", r))
			}
		}()

		if err := t.Run(ctx); err != nil {
			q.fail(t.Name, err)
		}
	}()
}

// Wait blocks until all dispatched tasks have completed. Intended for tests.
func (q *Queue) Wait() {
	q.wg.Wait()
}

func (q *Queue) fail(name string, err error) {
	tasksFailed.WithLabelValues(name).Inc()
	q.logger.Error("background task failed", "task", name, "error", err)
}
