package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/xolan/worktime/internal/logger"
	"github.com/xolan/worktime/internal/scheduler"
	"github.com/xolan/worktime/internal/server"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the daily scheduler",
	Long: `Start the HTTP API and, when schedule.enabled is set, run the daily
allocation on schedule.cron (six fields, with seconds).

Endpoints:
  GET  /healthz
  GET  /api/hours/{date}
  GET  /api/plan/{date}
  GET  /api/runs?limit=N
  POST /api/runs/{date}

Stop with Ctrl+C; in-flight requests and runs are given time to finish.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		addr, _ := cmd.Flags().GetString("addr")
		noSchedule, _ := cmd.Flags().GetBool("no-schedule")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		serve(ctx, addr, noSchedule)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: server.addr from config)")
	serveCmd.Flags().Bool("no-schedule", false, "Do not start the daily scheduler")
}

// serve runs the API and scheduler until ctx is cancelled
func serve(ctx context.Context, addr string, noSchedule bool) {
	configPath, cfg, ok := loadConfig()
	if !ok {
		return
	}
	log := commandLogger(cfg, false)
	logger.SetGlobalLogger(log)

	svcs, loc, ok := openServicesWith(configPath, cfg, log)
	if !ok {
		return
	}
	defer func() { _ = svcs.Close() }()

	if addr == "" {
		addr = cfg.Server.Addr
	}
	if cfg.Gateway.URL == "" && deps.Gateway == nil {
		log.Warn().Msg("No gateway configured; runs will be rejected until gateway.url is set")
	}

	if cfg.Schedule.Enabled && !noSchedule {
		sched := scheduler.New(loc, log)
		job := scheduler.NewDailyAllocationJob(svcs.Allocation, loc, deps.Now, log)
		if err := sched.AddJob(cfg.Schedule.Cron, job); err != nil {
			fail("Invalid schedule", err, "schedule.cron takes six fields, e.g. '0 30 18 * * MON-FRI'")
			return
		}
		sched.Start()
		defer sched.Stop()

		for _, next := range sched.Next() {
			log.Info().Time("next_run", next).Msg("Daily allocation scheduled")
		}
	}

	srv := server.New(server.Config{
		Addr:           addr,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Log:            log,
		Hours:          svcs.Hours,
		Allocation:     svcs.Allocation,
		History:        svcs.History,
		Location:       loc,
		Now:            deps.Now,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
		serveErr = <-errCh
	case serveErr = <-errCh:
	}

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		fail("HTTP server failed", serveErr, "Check that the address is free: "+addr)
		return
	}
	log.Info().Msg("Server stopped")
}
