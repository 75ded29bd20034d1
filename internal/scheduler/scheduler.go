package scheduler

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"PeakWatch/internal/collector"
	"PeakWatch/internal/metrics"
	"PeakWatch/internal/model"
	"PeakWatch/internal/notifier"
	"PeakWatch/internal/recorder"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options controls report output.
type Options struct {
	Metrics *metrics.Registry
	Out     io.Writer
	Color   bool
}

// Scheduler runs the report pipeline on demand and on a cron schedule.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Recorder  recorder.Recorder
	Notifier  notifier.Notifier
	Ctx       context.Context

	opts   Options
	logger zerolog.Logger
	last   atomic.Pointer[model.Report]
	job    cron.Job
}

// NewScheduler creates a new Scheduler. Overlapping scheduled runs are skipped.
func NewScheduler(ctx context.Context, col *collector.Collector, rec recorder.Recorder, n notifier.Notifier, opts Options) *Scheduler {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if n == nil {
		n = notifier.NoopNotifier{}
	}
	logger := log.With().Str("component", "scheduler").Logger()
	cronLogger := cron.PrintfLogger(&logger)
	s := &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Collector: col,
		Recorder:  rec,
		Notifier:  n,
		Ctx:       ctx,
		opts:      opts,
		logger:    logger,
	}
	// Scheduled fires and RunNow share one job so they never overlap.
	s.job = cron.NewChain(cron.SkipIfStillRunning(cronLogger)).Then(cron.FuncJob(s.reportTask))
	return s
}

// Register adds the report task at the given cron spec (with seconds field).
func (s *Scheduler) Register(spec string) error {
	if _, err := s.Cron.AddJob(spec, s.job); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running report to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

// RunNow executes the report task immediately (for manual trigger / run on start).
// It is skipped when a scheduled run is still in progress.
func (s *Scheduler) RunNow() {
	s.job.Run()
}

// NextRun returns the time of the next scheduled run, zero if none is registered.
func (s *Scheduler) NextRun() time.Time {
	entries := s.Cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// LastReport returns the most recent successful report, or nil.
func (s *Scheduler) LastReport() *model.Report {
	return s.last.Load()
}

func (s *Scheduler) reportTask() {
	if _, err := s.RunReport(s.Ctx); err != nil {
		s.logger.Error().Err(err).Msg("scheduled report failed")
	}
}

// RunReport collects, exports, prints and publishes one report. Notification
// failures are logged and do not fail the run.
func (s *Scheduler) RunReport(ctx context.Context) (*model.Report, error) {
	started := time.Now()
	s.logger.Info().Msg("running report")

	report, err := s.Collector.Collect(ctx)
	if err != nil {
		s.opts.Metrics.RunFinished(started, 0, 0, 0, 0, err)
		return nil, err
	}
	logger := s.logger.With().Str("run_id", report.RunID).Logger()

	// A cancelled run holds partial views; keep the previous export.
	if err := ctx.Err(); err != nil {
		s.opts.Metrics.RunFinished(started, 0, 0, 0, 0, err)
		return nil, fmt.Errorf("run cancelled: %w", err)
	}

	if err := s.Recorder.RecordReport(report); err != nil {
		s.opts.Metrics.RunFinished(started, 0, 0, 0, 0, err)
		return report, fmt.Errorf("record report: %w", err)
	}

	if err := s.print(report); err != nil {
		logger.Warn().Err(err).Msg("print report")
	}

	if err := s.Notifier.Notify(ctx, report); err != nil {
		logger.Error().Err(err).Msg("send notification")
	}

	s.last.Store(report)
	s.opts.Metrics.RunFinished(started, report.MarketsTotal, report.Eligible, len(report.ByNowPct), report.HighlightCount(), nil)
	logger.Info().
		Dur("took", time.Since(started)).
		Int("analyzed", len(report.ByNowPct)).
		Int("skipped", len(report.Skipped)).
		Msg("report finished")
	return report, nil
}

func (s *Scheduler) print(report *model.Report) error {
	if err := notifier.RenderTable(s.opts.Out, "All markets by NOW PCT", report.ByNowPct, s.opts.Color); err != nil {
		return err
	}
	return notifier.RenderTable(s.opts.Out, "Watchlist by NOW PCT", report.WatchlistByNowPct, s.opts.Color)
}
