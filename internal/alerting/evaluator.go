// internal/alerting/evaluator.go
package alerting

// Evaluate compares one snapshot against the configured limits and returns
// the resulting alert events, ordered disk, memory, cpu. The comparison is
// inclusive: a value exactly at its limit fires. Pure function, no I/O;
// every tick re-evaluates independently with no hysteresis or dedup.
func Evaluate(snap Snapshot, th Thresholds) []AlertEvent {
	var events []AlertEvent

	if snap.DiskUsedPct >= th.Disk {
		events = append(events, AlertEvent{
			Timestamp: snap.Timestamp,
			HostID:    snap.HostID,
			Metric:    MetricDisk,
			Observed:  snap.DiskUsedPct,
			Limit:     th.Disk,
		})
	}
	if snap.MemUsedPct >= th.Mem {
		events = append(events, AlertEvent{
			Timestamp: snap.Timestamp,
			HostID:    snap.HostID,
			Metric:    MetricMem,
			Observed:  snap.MemUsedPct,
			Limit:     th.Mem,
		})
	}
	if snap.CPUBusyPct >= th.CPU {
		events = append(events, AlertEvent{
			Timestamp: snap.Timestamp,
			HostID:    snap.HostID,
			Metric:    MetricCPU,
			Observed:  snap.CPUBusyPct,
			Limit:     th.CPU,
		})
	}

	return events
}
