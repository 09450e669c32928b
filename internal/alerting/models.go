// internal/alerting/models.go
package alerting

import (
	"fmt"
	"time"
)

// Metric identifies which resource a snapshot field or alert refers to.
type Metric string

const (
	MetricDisk Metric = "disk"
	MetricMem  Metric = "mem"
	MetricCPU  Metric = "cpu"
)

// Label returns the human-readable form used in alert log lines.
func (m Metric) Label() string {
	switch m {
	case MetricDisk:
		return "disk"
	case MetricMem:
		return "memory"
	case MetricCPU:
		return "cpu"
	}
	return string(m)
}

// Snapshot is a single point-in-time resource measurement for one host.
// Percentages are whole numbers in [0,100], truncated not rounded.
// A Snapshot is built fresh each tick and discarded after evaluation.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	HostID      string    `json:"host_id"`
	DiskUsedPct int       `json:"disk_used_pct"`
	MemUsedPct  int       `json:"mem_used_pct"`
	CPUBusyPct  int       `json:"cpu_busy_pct"`
}

// Thresholds are the configured limits, loaded once at startup and
// immutable for the process lifetime.
type Thresholds struct {
	Disk int `json:"disk" yaml:"disk"`
	Mem  int `json:"mem" yaml:"mem"`
	CPU  int `json:"cpu" yaml:"cpu"`
}

// AlertEvent records one threshold breach. Identity is (Timestamp, Metric);
// events for different metrics at the same tick are distinct.
type AlertEvent struct {
	ID        string    `json:"id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	HostID    string    `json:"host_id"`
	Metric    Metric    `json:"metric"`
	Observed  int       `json:"observed"`
	Limit     int       `json:"limit"`
}

// Line renders the event in the pipe-delimited alert log format:
// <ISO8601 timestamp> | <host_id> | <metric label> usage: <value>%
func (e AlertEvent) Line() string {
	return fmt.Sprintf("%s | %s | %s usage: %d%%",
		e.Timestamp.UTC().Format(time.RFC3339), e.HostID, e.Metric.Label(), e.Observed)
}
