// internal/sampler/sampler.go
package sampler

import (
	"context"
	"fmt"

	"hostguard/internal/alerting"
)

// Sampler reads instantaneous resource metrics from the host. Implementations
// hide the concrete measurement mechanism so the scheduler can run against a
// fake in tests.
type Sampler interface {
	Sample(ctx context.Context) (alerting.Snapshot, error)
}

// SampleError means one of the underlying OS metric sources was unavailable.
// The whole sample fails; callers never see a partially-populated snapshot.
type SampleError struct {
	Source string
	Err    error
}

func (e *SampleError) Error() string {
	return fmt.Sprintf("sample %s: %v", e.Source, e.Err)
}

func (e *SampleError) Unwrap() error {
	return e.Err
}

// truncPct converts used/total to a whole percentage, truncating the
// fractional part the way the shell pipeline this replaces did.
func truncPct(used, total float64) int {
	if total <= 0 {
		return 0
	}
	pct := int(used / total * 100)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
