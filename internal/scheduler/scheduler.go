package scheduler

import (
	"context"
	"log/slog"
	"time"
)

// Job is one scheduled unit of work.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Start runs every job on its own ticker until ctx is cancelled.
// The returned channel is closed once all jobs stopped.
func Start(ctx context.Context, log *slog.Logger, jobs ...Job) <-chan struct{} {
	done := make(chan struct{})
	stopped := make(chan struct{}, len(jobs))

	for _, j := range jobs {
		go func(j Job) {
			defer func() { stopped <- struct{}{} }()
			loop(ctx, log.With("job", j.Name), j)
		}(j)
	}

	go func() {
		for range jobs {
			<-stopped
		}
		close(done)
	}()
	return done
}

func loop(ctx context.Context, log *slog.Logger, j Job) {
	t := time.NewTicker(j.Interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			// last run so buffered work is not lost on shutdown
			runOnce(context.WithoutCancel(ctx), log, j)
			return
		case <-t.C:
			runOnce(ctx, log, j)
		}
	}
}

func runOnce(ctx context.Context, log *slog.Logger, j Job) {
	start := time.Now()
	if err := j.Run(ctx); err != nil {
		log.Error("job_failed", "error", err, "duration_ms", time.Since(start).Milliseconds())
		return
	}
	log.Debug("job_done", "duration_ms", time.Since(start).Milliseconds())
}
