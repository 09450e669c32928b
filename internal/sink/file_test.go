package sink

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hostguard/internal/alerting"
)

func testEvent(ts time.Time, metric alerting.Metric, observed int) alerting.AlertEvent {
	return alerting.AlertEvent{
		Timestamp: ts,
		HostID:    "web-01",
		Metric:    metric,
		Observed:  observed,
		Limit:     80,
	}
}

func TestFileSinkAppendsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	metrics := []alerting.Metric{alerting.MetricDisk, alerting.MetricMem, alerting.MetricCPU}
	for i, m := range metrics {
		if err := s.Record(testEvent(base.Add(time.Duration(i)*time.Minute), m, 85+i)); err != nil {
			t.Fatalf("record %s: %v", m, err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), lines)
	}
	want := []string{
		"2026-03-14T09:30:00Z | web-01 | disk usage: 85%",
		"2026-03-14T09:31:00Z | web-01 | memory usage: 86%",
		"2026-03-14T09:32:00Z | web-01 | cpu usage: 87%",
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFileSinkAppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	if err := s.Record(testEvent(ts, alerting.MetricDisk, 85)); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	s2, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("reopen sink: %v", err)
	}
	t.Cleanup(func() { _ = s2.Close() })
	if err := s2.Record(testEvent(ts.Add(time.Hour), alerting.MetricCPU, 95)); err != nil {
		t.Fatalf("record after reopen: %v", err)
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines after reopen, got %d", len(lines))
	}
}

func TestFileSinkExclusiveLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, err := NewFileSink(path); err == nil {
		t.Fatal("expected second open of the same log to fail while locked")
	}
}

func TestFileSinkRecordAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.log")
	s, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("open sink: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	err = s.Record(testEvent(time.Now(), alerting.MetricDisk, 85))
	if err == nil {
		t.Fatal("expected error recording to closed sink")
	}
	var sinkErr *SinkError
	if !errors.As(err, &sinkErr) {
		t.Fatalf("expected *SinkError, got %T", err)
	}
}
