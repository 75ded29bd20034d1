package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"PeakWatch/internal/server"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// scheduleCmd keeps running and reports on the configured cron schedule
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run reports on a cron schedule until interrupted",
	Long: `Run the report on schedule.cron (six fields, seconds first; default
"0 0 8 * * 1", Mondays at 08:00). When metrics.addr is set, /metrics, /health
and /status are served on that address.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func runSchedule(_ *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, os.Stdout, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.sched.Register(cfg.Schedule.Cron); err != nil {
		return err
	}
	a.sched.Start()
	defer a.sched.Stop()
	log.Info().Str("cron", cfg.Schedule.Cron).Time("next_run", a.sched.NextRun()).Msg("PeakWatch is running, press Ctrl+C to stop")

	var srv *server.Server
	if cfg.Metrics.Addr != "" {
		srv = server.New(cfg.Metrics.Addr, a.metrics, a.sched)
		go func() {
			if err := srv.Start(); err != nil {
				log.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	if cfg.Schedule.RunOnStart {
		log.Info().Msg("run_on_start enabled, executing report now")
		go a.sched.RunNow()
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, stopping")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http server shutdown")
		}
	}
	return nil
}
