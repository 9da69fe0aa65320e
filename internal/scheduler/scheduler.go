package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// jobTimeout bounds a single scheduled run
const jobTimeout = 5 * time.Minute

// Runner is a unit of periodic work reporting how many records it touched
type Runner interface {
	Run(ctx context.Context) (int, error)
}

// Scheduler runs background jobs on cron specs
type Scheduler struct {
	cron   *cron.Cron
	logger zerolog.Logger
}

// New creates a scheduler. Overlapping runs of the same job are skipped and panics are recovered.
func New(logger zerolog.Logger) *Scheduler {
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		logger: logger,
	}
}

// Add registers runner under name on the given spec, e.g. "@every 15m" or "0 3 * * *"
func (s *Scheduler) Add(name, spec string, runner Runner) error {
	_, err := s.cron.AddFunc(spec, func() { s.run(name, runner) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	s.logger.Info().Str("job", name).Str("schedule", spec).Msg("Job scheduled")
	return nil
}

func (s *Scheduler) run(name string, runner Runner) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	start := time.Now()
	n, err := runner.Run(ctx)
	if err != nil {
		s.logger.Error().Err(err).Str("job", name).Int("processed", n).Msg("Scheduled job failed")
		return
	}
	s.logger.Info().Str("job", name).Int("processed", n).Dur("took", time.Since(start)).Msg("Scheduled job finished")
}

// Start begins running jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("Timed out waiting for scheduled jobs to finish")
	}
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
