// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"hostguard/internal/alerting"
	"hostguard/internal/metrics"
	"hostguard/internal/sampler"
	"hostguard/internal/sink"
)

type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// ErrNotIdle is returned when Start is called on a scheduler that already
// ran. Stopped is terminal; construct a new Scheduler to restart.
var ErrNotIdle = errors.New("scheduler is not idle")

type Options struct {
	Interval   time.Duration
	Thresholds alerting.Thresholds
	MaxRetries int
	RetryDelay time.Duration
}

// Scheduler runs the sample-evaluate-sink cycle on a fixed interval with a
// single worker: one tick finishes (or fails) before the next one starts.
// The interval is best-effort, "at least N", like the cron cadence it
// replaces.
type Scheduler struct {
	sampler   sampler.Sampler
	sinks     []sink.Sink
	collector *metrics.Collector
	opts      Options

	onAlert func(alerting.AlertEvent)

	mu       sync.Mutex
	state    State
	lastSnap *alerting.Snapshot

	quit     chan struct{}
	quitOnce sync.Once
	done     chan struct{}
}

func New(smp sampler.Sampler, sinks []sink.Sink, collector *metrics.Collector, opts Options) *Scheduler {
	if opts.MaxRetries < 1 {
		opts.MaxRetries = 3
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 300 * time.Millisecond
	}
	return &Scheduler{
		sampler:   smp,
		sinks:     sinks,
		collector: collector,
		opts:      opts,
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// OnAlert registers a hook invoked after an event has been recorded to the
// sinks. Must be called before Start.
func (s *Scheduler) OnAlert(fn func(alerting.AlertEvent)) {
	s.onAlert = fn
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastSnapshot returns the most recent successful sample, if any. Snapshots
// are not retained beyond this single cache entry.
func (s *Scheduler) LastSnapshot() (alerting.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSnap == nil {
		return alerting.Snapshot{}, false
	}
	return *s.lastSnap, true
}

// Start transitions Idle -> Running and begins the tick loop. The loop runs
// until Stop is called or ctx is cancelled; either way the in-flight tick
// completes before the loop exits.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateIdle {
		return fmt.Errorf("%w: %s", ErrNotIdle, s.state)
	}
	s.state = StateRunning

	logrus.WithFields(logrus.Fields{
		"interval": s.opts.Interval,
		"disk":     s.opts.Thresholds.Disk,
		"mem":      s.opts.Thresholds.Mem,
		"cpu":      s.opts.Thresholds.CPU,
	}).Info("Starting scheduler")

	go s.run(ctx)
	return nil
}

// Stop requests shutdown and blocks until the loop has drained. Safe to
// call more than once. After Stop returns, no further samples occur.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.state == StateIdle || s.state == StateStopped {
		s.state = StateStopped
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	s.quitOnce.Do(func() { close(s.quit) })
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		s.mu.Lock()
		s.state = StateStopped
		s.mu.Unlock()
		close(s.done)
		logrus.Info("Scheduler stopped")
	}()

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		// The wait is the only suspension point; cancellation takes
		// effect here, never mid-tick.
		select {
		case <-ctx.Done():
			return
		case <-s.quit:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	start := time.Now()

	snap, err := s.sampler.Sample(ctx)
	if err != nil {
		source := "unknown"
		var sampleErr *sampler.SampleError
		if errors.As(err, &sampleErr) {
			source = sampleErr.Source
		}
		logrus.WithError(err).WithField("source", source).Error("Sample failed, skipping tick")
		s.collector.RecordSampleError(source)
		s.collector.RecordTick("sample_error", time.Since(start))
		return
	}

	s.mu.Lock()
	s.lastSnap = &snap
	s.mu.Unlock()
	s.collector.RecordSnapshot(snap)

	events := alerting.Evaluate(snap, s.opts.Thresholds)
	for _, event := range events {
		s.record(event)
		s.collector.RecordAlert(event)
		if s.onAlert != nil {
			s.onAlert(event)
		}
	}

	logrus.WithFields(logrus.Fields{
		"disk":   snap.DiskUsedPct,
		"mem":    snap.MemUsedPct,
		"cpu":    snap.CPUBusyPct,
		"alerts": len(events),
	}).Debug("Tick completed")
	s.collector.RecordTick("ok", time.Since(start))
}

// record delivers one event to every sink, retrying each failed sink up to
// the bounded retry count. Exhaustion is surfaced loudly; silently dropping
// alerts would defeat the point of the system.
func (s *Scheduler) record(event alerting.AlertEvent) {
	for _, sk := range s.sinks {
		var err error
		for attempt := 1; attempt <= s.opts.MaxRetries; attempt++ {
			if err = sk.Record(event); err == nil {
				break
			}
			if attempt < s.opts.MaxRetries {
				s.collector.RecordSinkRetry()
				time.Sleep(time.Duration(attempt) * s.opts.RetryDelay)
			}
		}
		if err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"metric":   event.Metric,
				"observed": event.Observed,
				"attempts": s.opts.MaxRetries,
			}).Error("Alert event lost after exhausting sink retries")
			s.collector.RecordSinkDrop()
		}
	}
}
