// internal/maintenance/runner.go
package maintenance

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"hostguard/internal/config"
	"hostguard/internal/metrics"
)

// Runner fires the configured one-shot maintenance commands (log
// truncation, container pruning, kernel tuning, package refresh) each on
// its own timer. These are opaque external collaborators: a failed run is
// logged and counted, nothing more — the alerting core never notices.
type Runner struct {
	actions   []config.ActionConfig
	collector *metrics.Collector
	wg        sync.WaitGroup
}

func NewRunner(actions []config.ActionConfig, collector *metrics.Collector) *Runner {
	return &Runner{actions: actions, collector: collector}
}

// Start launches one timer loop per enabled action. It returns immediately;
// the loops exit when ctx is cancelled.
func (r *Runner) Start(ctx context.Context) {
	for _, action := range r.actions {
		if !action.Enabled {
			continue
		}
		r.wg.Add(1)
		go func(action config.ActionConfig) {
			defer r.wg.Done()
			r.loop(ctx, action)
		}(action)
		logrus.WithFields(logrus.Fields{
			"action":   action.Name,
			"interval": action.Interval,
		}).Info("Maintenance action scheduled")
	}
}

// Wait blocks until all action loops have exited.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) loop(ctx context.Context, action config.ActionConfig) {
	ticker := time.NewTicker(action.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.runOnce(ctx, action)
		}
	}
}

func (r *Runner) runOnce(ctx context.Context, action config.ActionConfig) {
	runCtx, cancel := context.WithTimeout(ctx, action.Timeout)
	defer cancel()

	start := time.Now()
	output, err := execer.CombinedOutput(runCtx, action.Command, action.Args...)
	r.collector.RecordMaintenanceRun(action.Name, err)

	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"action": action.Name,
			"output": string(output),
		}).Error("Maintenance action failed")
		return
	}

	logrus.WithFields(logrus.Fields{
		"action":   action.Name,
		"duration": time.Since(start),
	}).Debug("Maintenance action completed")
}
