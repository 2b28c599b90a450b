package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/quantfolio/internal/pipeline"
)

// pipelineRunner runs a full portfolio pipeline.
type pipelineRunner interface {
	Run(ctx context.Context, cfg pipeline.Config) (*pipeline.RunResult, error)
}

// resultSink receives successful run results.
type resultSink interface {
	Save(result *pipeline.RunResult) error
}

// RefreshJob re-runs the pipeline on schedule, persists the result and
// publishes it to any registered listener.
type RefreshJob struct {
	runner  pipelineRunner
	sink    resultSink
	base    pipeline.Config
	timeout time.Duration
	publish func(*pipeline.RunResult)
	log     zerolog.Logger
}

// NewRefreshJob creates a refresh job. publish may be nil. The End date of
// the base config is ignored; each run extends to the current day.
func NewRefreshJob(runner pipelineRunner, sink resultSink, base pipeline.Config, publish func(*pipeline.RunResult), log zerolog.Logger) *RefreshJob {
	return &RefreshJob{
		runner:  runner,
		sink:    sink,
		base:    base,
		timeout: 10 * time.Minute,
		publish: publish,
		log:     log.With().Str("component", "refresh_job").Logger(),
	}
}

// Name implements Job.
func (j *RefreshJob) Name() string {
	return "portfolio_refresh"
}

// Run implements Job.
func (j *RefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	cfg := j.base
	cfg.End = time.Now().UTC()

	result, err := j.runner.Run(ctx, cfg)
	if err != nil {
		return err
	}

	if err := j.sink.Save(result); err != nil {
		// The run itself succeeded; keep serving it even if persistence fails.
		j.log.Error().Err(err).Str("run_id", result.ID).Msg("Failed to persist run result")
	}

	if j.publish != nil {
		j.publish(result)
	}
	return nil
}
