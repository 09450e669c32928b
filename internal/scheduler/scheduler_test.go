package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hostguard/internal/alerting"
	"hostguard/internal/metrics"
	"hostguard/internal/sampler"
	"hostguard/internal/sink"
)

type fakeSampler struct {
	mu    sync.Mutex
	calls int
	snap  alerting.Snapshot
	fail  func(call int) bool
}

func (f *fakeSampler) Sample(ctx context.Context) (alerting.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil && f.fail(f.calls) {
		return alerting.Snapshot{}, &sampler.SampleError{Source: "disk", Err: errors.New("statfs failed")}
	}
	snap := f.snap
	snap.Timestamp = time.Now().UTC()
	return snap, nil
}

func (f *fakeSampler) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSink struct {
	mu       sync.Mutex
	events   []alerting.AlertEvent
	attempts int
	failN    int // fail the first N Record calls
}

func (f *fakeSink) Record(event alerting.AlertEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.attempts <= f.failN {
		return &sink.SinkError{Op: "append", Err: errors.New("disk full")}
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) recorded() []alerting.AlertEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]alerting.AlertEvent, len(f.events))
	copy(out, f.events)
	return out
}

func alertingSnap(disk, mem, cpu int) alerting.Snapshot {
	return alerting.Snapshot{HostID: "web-01", DiskUsedPct: disk, MemUsedPct: mem, CPUBusyPct: cpu}
}

func testOpts() Options {
	return Options{
		Interval:   10 * time.Millisecond,
		Thresholds: alerting.Thresholds{Disk: 80, Mem: 80, CPU: 90},
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSchedulerTicksAndRecords(t *testing.T) {
	smp := &fakeSampler{snap: alertingSnap(85, 50, 95)}
	fs := &fakeSink{}
	s := New(smp, []sink.Sink{fs}, metrics.NewCollector(), testOpts())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	// disk and cpu breach each tick; wait for at least one full tick.
	waitFor(t, func() bool { return len(fs.recorded()) >= 2 })

	events := fs.recorded()
	if events[0].Metric != alerting.MetricDisk || events[1].Metric != alerting.MetricCPU {
		t.Errorf("tick event order = [%s, %s], want [disk, cpu]", events[0].Metric, events[1].Metric)
	}
	if events[0].Observed != 85 || events[0].Limit != 80 {
		t.Errorf("disk event = %+v, want observed 85 limit 80", events[0])
	}
}

func TestSchedulerStopDrains(t *testing.T) {
	smp := &fakeSampler{snap: alertingSnap(10, 10, 10)}
	s := New(smp, nil, metrics.NewCollector(), testOpts())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return smp.count() >= 2 })

	s.Stop()
	if s.State() != StateStopped {
		t.Fatalf("state after stop = %s, want stopped", s.State())
	}

	// No further sampler invocations once Stop has returned.
	before := smp.count()
	time.Sleep(60 * time.Millisecond)
	if after := smp.count(); after != before {
		t.Errorf("sampler called %d times after Stop returned", after-before)
	}

	// Stop is idempotent.
	s.Stop()

	// Stopped is terminal: the scheduler cannot be restarted.
	if err := s.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Errorf("restart error = %v, want ErrNotIdle", err)
	}
}

func TestSchedulerStopBeforeStart(t *testing.T) {
	s := New(&fakeSampler{}, nil, metrics.NewCollector(), testOpts())
	s.Stop()
	if s.State() != StateStopped {
		t.Fatalf("state = %s, want stopped", s.State())
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrNotIdle) {
		t.Errorf("start after stop = %v, want ErrNotIdle", err)
	}
}

func TestSchedulerContextCancel(t *testing.T) {
	smp := &fakeSampler{snap: alertingSnap(10, 10, 10)}
	s := New(smp, nil, metrics.NewCollector(), testOpts())

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, func() bool { return smp.count() >= 1 })

	cancel()
	waitFor(t, func() bool { return s.State() == StateStopped })
}

func TestSchedulerSampleErrorContinues(t *testing.T) {
	// First two samples fail; the loop must keep ticking and recover.
	smp := &fakeSampler{
		snap: alertingSnap(85, 10, 10),
		fail: func(call int) bool { return call <= 2 },
	}
	fs := &fakeSink{}
	s := New(smp, []sink.Sink{fs}, metrics.NewCollector(), testOpts())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	waitFor(t, func() bool { return len(fs.recorded()) >= 1 })
	if smp.count() < 3 {
		t.Errorf("sampler calls = %d, want the loop to have outlived the failures", smp.count())
	}
	if fs.recorded()[0].Metric != alerting.MetricDisk {
		t.Errorf("recovered event metric = %s, want disk", fs.recorded()[0].Metric)
	}
}

func TestSchedulerRetriesSink(t *testing.T) {
	smp := &fakeSampler{snap: alertingSnap(85, 10, 10)}
	fs := &fakeSink{failN: 2} // third attempt succeeds
	s := New(smp, []sink.Sink{fs}, metrics.NewCollector(), testOpts())

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}

	waitFor(t, func() bool { return len(fs.recorded()) >= 1 })
	s.Stop()

	if got := fs.recorded()[0]; got.Metric != alerting.MetricDisk || got.Observed != 85 {
		t.Errorf("recorded event = %+v after retries", got)
	}
}

func TestSchedulerLastSnapshot(t *testing.T) {
	smp := &fakeSampler{snap: alertingSnap(42, 43, 44)}
	s := New(smp, nil, metrics.NewCollector(), testOpts())

	if _, ok := s.LastSnapshot(); ok {
		t.Fatal("expected no snapshot before the first tick")
	}

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	waitFor(t, func() bool {
		_, ok := s.LastSnapshot()
		return ok
	})
	snap, _ := s.LastSnapshot()
	if snap.DiskUsedPct != 42 || snap.MemUsedPct != 43 || snap.CPUBusyPct != 44 {
		t.Errorf("last snapshot = %+v", snap)
	}
}
