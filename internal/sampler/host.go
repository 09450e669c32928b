// internal/sampler/host.go
package sampler

import (
	"context"
	"errors"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"hostguard/internal/alerting"
)

// HostSampler measures the local host via gopsutil.
type HostSampler struct {
	hostID     string
	mountPoint string
	cpuWindow  time.Duration
}

func NewHostSampler(hostID, mountPoint string, cpuWindow time.Duration) *HostSampler {
	if cpuWindow <= 0 {
		cpuWindow = time.Second
	}
	return &HostSampler{
		hostID:     hostID,
		mountPoint: mountPoint,
		cpuWindow:  cpuWindow,
	}
}

// Sample reads disk, memory and CPU usage. If any of the three sources
// fails, the call fails entirely. CPU busy is 100 minus the idle percentage
// observed over the sampler's fixed window, so a call blocks for roughly
// that long.
func (s *HostSampler) Sample(ctx context.Context) (alerting.Snapshot, error) {
	du, err := disk.UsageWithContext(ctx, s.mountPoint)
	if err != nil {
		return alerting.Snapshot{}, &SampleError{Source: "disk", Err: err}
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return alerting.Snapshot{}, &SampleError{Source: "memory", Err: err}
	}
	if vm.Total == 0 {
		return alerting.Snapshot{}, &SampleError{Source: "memory", Err: errors.New("total memory reported as zero")}
	}

	busy, err := cpu.PercentWithContext(ctx, s.cpuWindow, false)
	if err != nil {
		return alerting.Snapshot{}, &SampleError{Source: "cpu", Err: err}
	}
	if len(busy) == 0 {
		return alerting.Snapshot{}, &SampleError{Source: "cpu", Err: errors.New("no aggregate cpu sample returned")}
	}

	return alerting.Snapshot{
		Timestamp:   time.Now().UTC(),
		HostID:      s.hostID,
		DiskUsedPct: truncPct(float64(du.Used), float64(du.Total)),
		MemUsedPct:  truncPct(float64(vm.Total-vm.Available), float64(vm.Total)),
		CPUBusyPct:  truncPct(busy[0], 100),
	}, nil
}
