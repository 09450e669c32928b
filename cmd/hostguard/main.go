package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"hostguard/internal/alerting"
	"hostguard/internal/config"
	"hostguard/internal/maintenance"
	"hostguard/internal/metrics"
	"hostguard/internal/notifications"
	"hostguard/internal/sampler"
	"hostguard/internal/scheduler"
	"hostguard/internal/sink"
	"hostguard/internal/web"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Configuration file path")
	version := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *version {
		fmt.Println("hostguard v1.0.0")
		os.Exit(0)
	}

	// Load configuration. Invalid thresholds or intervals are fatal: the
	// process must not start on bad config.
	cfg, err := config.Load(*configFile)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	setupLogging(cfg.Logging)

	logrus.WithFields(logrus.Fields{
		"config_file": *configFile,
		"host_id":     cfg.Host.ID,
		"mount_point": cfg.Host.MountPoint,
		"interval":    cfg.Interval(),
	}).Info("Starting hostguard")

	// Durable sinks: the pipe-delimited alert log plus the BoltDB history
	// the web API reads from.
	fileSink, err := sink.NewFileSink(cfg.Alerts.LogPath)
	if err != nil {
		logrus.Fatalf("Failed to open alert log: %v", err)
	}
	defer fileSink.Close()

	history, err := sink.NewBoltStore(cfg.Alerts.DBPath)
	if err != nil {
		logrus.Fatalf("Failed to open alert history: %v", err)
	}
	defer history.Close()

	collector := metrics.NewCollector()

	smp := sampler.NewHostSampler(cfg.Host.ID, cfg.Host.MountPoint, cfg.CPUWindow())

	// Fail fast if the configured mount point is unreadable.
	probeCtx, probeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if _, err := smp.Sample(probeCtx); err != nil {
		probeCancel()
		logrus.Fatalf("Startup sample failed: %v", err)
	}
	probeCancel()

	sched := scheduler.New(smp, []sink.Sink{fileSink, history}, collector, scheduler.Options{
		Interval:   cfg.Interval(),
		Thresholds: cfg.Thresholds,
		MaxRetries: cfg.Alerts.SinkMaxRetries,
		RetryDelay: cfg.Alerts.SinkRetryDelay,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	notifier := notifications.NewService(&cfg.Notifications)

	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(cfg, sched, history)
	}

	sched.OnAlert(func(event alerting.AlertEvent) {
		if webServer != nil {
			webServer.BroadcastAlert(event)
		}
		notifier.Notify(event)
	})

	if webServer != nil {
		if err := webServer.Start(ctx); err != nil {
			logrus.Fatalf("Failed to start web server: %v", err)
		}
	}

	if err := sched.Start(ctx); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}

	runner := maintenance.NewRunner(cfg.Maintenance, collector)
	runner.Start(ctx)

	go pruneLoop(ctx, history, cfg.Alerts.Retention, cfg.Alerts.PruneInterval)

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logrus.WithField("signal", sig).Info("Received shutdown signal")

	// Graceful shutdown: the in-flight tick drains before the scheduler
	// reports stopped.
	cancel()
	sched.Stop()
	runner.Wait()

	if webServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := webServer.Stop(shutdownCtx); err != nil {
			logrus.WithError(err).Warn("Web server shutdown failed")
		}
	}

	logrus.Info("Shutdown complete")
}

func setupLogging(cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if cfg.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
}

func pruneLoop(ctx context.Context, history *sink.BoltStore, retention, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := history.Prune(retention)
			if err != nil {
				logrus.WithError(err).Error("Alert history prune failed")
				continue
			}
			if pruned > 0 {
				logrus.WithField("pruned", pruned).Info("Pruned expired alert history")
			}
		}
	}
}
