package job

import (
	"context"
	"log"
	"time"

	"coin-compass/internal/service"

	"go.opentelemetry.io/otel/trace"
)

type RefreshRunner interface {
	Refresh(ctx context.Context) (service.CycleSummary, error)
}

// RefreshJob runs the recommendation cycle on a fixed interval so the
// HTTP and bot surfaces always have a warm result to serve.
type RefreshJob struct {
	tracer       trace.Tracer
	runner       RefreshRunner
	pollInterval time.Duration
}

func NewRefreshJob(tracer trace.Tracer, runner RefreshRunner, pollInterval time.Duration) *RefreshJob {
	if pollInterval <= 0 {
		pollInterval = 10 * time.Minute
	}
	return &RefreshJob{tracer: tracer, runner: runner, pollInterval: pollInterval}
}

func (j *RefreshJob) Start(ctx context.Context) {
	if j.runner == nil {
		log.Println("Refresh job disabled: no runner")
		<-ctx.Done()
		return
	}

	j.runOnce(ctx)
	ticker := time.NewTicker(j.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *RefreshJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "refresh-job.run-once")
	defer span.End()

	summary, err := j.runner.Refresh(ctx)
	if err != nil {
		log.Printf("Recommendation cycle error: %v", err)
		return
	}
	log.Printf(
		"Recommendation cycle complete source=%s candidates=%d filtered=%d ranked=%d in %s",
		summary.Source,
		summary.Candidates,
		summary.Filtered,
		summary.Ranked,
		summary.Duration,
	)
}
