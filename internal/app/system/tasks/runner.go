// Package tasks runs periodic maintenance jobs in the background.
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	ledgerstore "github.com/dalemusser/stratadam/internal/app/store/ledger"
)

// Job is a named periodic task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner executes registered jobs on their intervals until stopped.
type Runner struct {
	logger *zap.Logger
	jobs   []Job

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a Runner.
func New(logger *zap.Logger) *Runner {
	return &Runner{logger: logger}
}

// Register adds a job. Call before Start.
func (r *Runner) Register(job Job) {
	r.jobs = append(r.jobs, job)
}

// Start launches one goroutine per registered job.
func (r *Runner) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	for _, job := range r.jobs {
		r.wg.Add(1)
		go func(job Job) {
			defer r.wg.Done()
			ticker := time.NewTicker(job.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := job.Run(ctx); err != nil {
						r.logger.Warn("background job failed",
							zap.String("job", job.Name),
							zap.Error(err))
					}
				}
			}
		}(job)
	}

	r.logger.Info("background task runner started", zap.Int("jobs", len(r.jobs)))
}

// Stop signals every job to exit and waits for them, honoring ctx.
func (r *Runner) Stop(ctx context.Context) error {
	if r.cancel == nil {
		return nil
	}
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LedgerCleanupJob deletes ledger entries older than the retention window.
// Runs hourly.
func LedgerCleanupJob(store *ledgerstore.Store, retention time.Duration, logger *zap.Logger) Job {
	return Job{
		Name:     "ledger_cleanup",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().Add(-retention)
			deleted, err := store.DeleteOlderThan(ctx, cutoff)
			if err != nil {
				return err
			}
			if deleted > 0 {
				logger.Info("pruned old ledger entries",
					zap.Int64("deleted", deleted),
					zap.Time("cutoff", cutoff))
			}
			return nil
		},
	}
}
