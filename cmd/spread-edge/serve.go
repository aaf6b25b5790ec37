package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/spread-edge/internal/health"
	"github.com/yourusername/spread-edge/internal/metrics"
	"github.com/yourusername/spread-edge/internal/models"
	"github.com/yourusername/spread-edge/internal/scheduler"
	"github.com/yourusername/spread-edge/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve current ratings and edges over HTTP, refreshing on a schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		selector, err := models.ParseLineSelector(cfg.Serve.BetCheckpoint)
		if err != nil {
			return err
		}
		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		svc, err := service.NewLiveService(store, service.Options{
			Params:   cfg.ModelParams(),
			BetLine:  selector,
			CacheTTL: cfg.Serve.CacheTTL,
		}, appLog)
		if err != nil {
			return err
		}

		srv := health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Commit:      GitCommit,
			Port:        cfg.Serve.Port,
			Logger:      appLog,
		})
		if db != nil {
			srv.AddCheck("database", health.PingCheck(db))
		}
		metricsPath := cfg.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		srv.Handle(metricsPath, metrics.Handler())
		service.NewHandler(svc).Register(srv)
		if err := srv.Start(ctx); err != nil {
			return err
		}

		sched := scheduler.NewScheduler(svc, appLog)
		if _, err := sched.ScheduleRefresh(cfg.Serve.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid refresh schedule: %w", err)
		}
		if err := sched.RunNow(ctx); err != nil {
			return fmt.Errorf("initial rating build failed: %w", err)
		}
		srv.SetReady(true)
		if err := sched.Start(); err != nil {
			return err
		}

		appLog.WithFields(logrus.Fields{
			"port":     cfg.Serve.Port,
			"schedule": cfg.Serve.RefreshSchedule,
			"next_run": sched.GetNextRun(),
		}).Info("Serving ratings")

		<-ctx.Done()
		srv.SetReady(false)
		if err := sched.Stop(); err != nil {
			appLog.WithError(err).Warn("Scheduler did not stop cleanly")
		}
		return srv.Shutdown()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
