package instance

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrAsyncDisabled is returned by Work when the Manager was built without
// WithAsyncJobs.
var ErrAsyncDisabled = errors.New("async jobs are not enabled")

// Job continues an execution parked on an async activity.
type Job struct {
	InstanceID  string `json:"instance_id"`
	ExecutionID string `json:"execution_id"`
	ActivityID  string `json:"activity_id"`
}

// enqueue hands jobs to the workers. Jobs that cannot be queued before ctx
// ends stay parked in the store and are picked up by Recover.
func (m *Manager) enqueue(ctx context.Context, jobs []Job) {
	for _, j := range jobs {
		select {
		case m.jobs <- j:
		case <-ctx.Done():
			m.logger.Warn("Async job not queued", "instance_id", j.InstanceID, "activity_id", j.ActivityID, "err", ctx.Err())
			return
		}
	}
}

// Work runs workers goroutines consuming async jobs until ctx is done.
// Failed jobs are logged and leave the execution parked.
//
// Follow-up jobs a worker produces go back to the queue when there is room
// and are otherwise run by the same worker, so workers never block on their
// own queue.
func (m *Manager) Work(ctx context.Context, workers int) error {
	if m.jobs == nil {
		return ErrAsyncDisabled
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < max(workers, 1); i++ {
		g.Go(func() error {
			var backlog []Job
			for {
				var j Job
				if len(backlog) > 0 {
					if ctx.Err() != nil {
						m.logger.Warn("Async jobs left parked", "count", len(backlog), "err", ctx.Err())
						return nil
					}
					j, backlog = backlog[0], backlog[1:]
				} else {
					select {
					case <-ctx.Done():
						return nil
					case j = <-m.jobs:
					}
				}
				follow, err := m.runJob(ctx, j)
				if err != nil {
					m.logger.Error("Async job failed",
						"instance_id", j.InstanceID,
						"activity_id", j.ActivityID,
						"err", err,
					)
					continue
				}
				backlog = append(backlog, m.offer(follow)...)
			}
		})
	}
	return g.Wait()
}

// offer queues jobs without blocking and returns those that did not fit.
func (m *Manager) offer(jobs []Job) []Job {
	for i, j := range jobs {
		select {
		case m.jobs <- j:
		default:
			return jobs[i:]
		}
	}
	return nil
}

// RunJob continues one parked execution and saves the instance. Follow-up
// jobs are queued for the workers.
func (m *Manager) RunJob(ctx context.Context, j Job) error {
	follow, err := m.runJob(ctx, j)
	if err != nil {
		return err
	}
	if m.jobs != nil {
		m.enqueue(ctx, follow)
	}
	return nil
}

func (m *Manager) runJob(ctx context.Context, j Job) ([]Job, error) {
	var follow []Job
	err := m.WithLock(ctx, j.InstanceID, func(ctx context.Context) error {
		pi, err := m.restore(ctx, j.InstanceID, &follow)
		if err != nil {
			return err
		}
		e := pi.FindExecutionByID(j.ExecutionID)
		if e == nil {
			return fmt.Errorf("job %s/%s: execution no longer exists", j.InstanceID, j.ExecutionID)
		}
		if err := e.ContinueAsync(); err != nil {
			return err
		}
		_, err = m.save(ctx, pi)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.logger.Debug("Async job done", "instance_id", j.InstanceID, "activity_id", j.ActivityID)
	return follow, nil
}

// Recover scans the store for parked executions and queues a job for each.
// It is meant to run once at startup while Work consumes the queue.
func (m *Manager) Recover(ctx context.Context) (int, error) {
	if m.jobs == nil {
		return 0, ErrAsyncDisabled
	}
	ids, err := m.store.List(ctx)
	if err != nil {
		return 0, err
	}
	var jobs []Job
	for _, id := range ids {
		err := m.WithLock(ctx, id, func(ctx context.Context) error {
			pi, err := m.restore(ctx, id, nil)
			if err != nil {
				return err
			}
			for _, e := range pendingAsync(pi) {
				jobs = append(jobs, Job{InstanceID: id, ExecutionID: e.ID(), ActivityID: e.Activity().ID()})
			}
			return nil
		})
		if err != nil {
			m.logger.Warn("Skipping instance during recovery", "instance_id", id, "err", err)
		}
	}
	m.enqueue(ctx, jobs)
	return len(jobs), nil
}
