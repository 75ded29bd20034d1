package main

import (
	"context"
	"io"

	"PeakWatch/internal/collector"
	"PeakWatch/internal/config"
	"PeakWatch/internal/filter"
	"PeakWatch/internal/metrics"
	"PeakWatch/internal/notifier"
	"PeakWatch/internal/recorder"
	"PeakWatch/internal/scheduler"

	"github.com/rs/zerolog/log"
)

// app is the wired report pipeline shared by the report and schedule commands.
type app struct {
	metrics  *metrics.Registry
	recorder recorder.Recorder
	sched    *scheduler.Scheduler
}

func newApp(ctx context.Context, c *config.Config, out io.Writer, dryRun bool) (*app, error) {
	reg := metrics.NewRegistry()

	exchange := collector.NewBinanceClient(collector.BinanceOptions{
		BaseURL:           c.Exchange.BaseURL,
		Proxy:             c.Proxy,
		Timeout:           c.Exchange.Timeout,
		RequestsPerSecond: c.Exchange.RequestsPerSecond,
		Burst:             c.Exchange.Burst,
		MaxRetryElapsed:   c.Exchange.MaxRetryElapsed,
		Metrics:           reg,
	})
	log.Info().Str("exchange", exchange.Name()).Msg("data source ready")

	col := collector.NewCollector(exchange, exchange, filter.New(c.Filter), collector.Options{
		Timeframe: c.Exchange.Timeframe,
		Limit:     c.Exchange.Limit,
		Workers:   c.Report.Workers,
		Metrics:   reg,
	})

	var rec recorder.Recorder
	if dryRun {
		log.Info().Msg("dry run, CSV export disabled")
		rec = recorder.NewNoopRecorder()
	} else {
		cr, err := recorder.NewCSVRecorder(c.Report.OutputDir)
		if err != nil {
			return nil, err
		}
		rec = cr
	}

	var n notifier.Notifier = notifier.NoopNotifier{}
	if c.TelegramEnabled() {
		tn, err := notifier.NewTelegramNotifier(notifier.TelegramOptions{
			BotToken: c.Telegram.BotToken,
			ChatID:   c.Telegram.ChatID,
			Proxy:    c.Proxy,
		})
		if err != nil {
			log.Warn().Err(err).Msg("init telegram notifier failed, digests disabled")
		} else {
			n = tn
		}
	}

	mode, err := notifier.ParseColorMode(c.Report.Color)
	if err != nil {
		return nil, err
	}

	sched := scheduler.NewScheduler(ctx, col, rec, n, scheduler.Options{
		Metrics: reg,
		Out:     out,
		Color:   mode.Enabled(out),
	})
	return &app{metrics: reg, recorder: rec, sched: sched}, nil
}

func (a *app) Close() error {
	return a.recorder.Close()
}
