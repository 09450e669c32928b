// internal/maintenance/exec.go
package maintenance

import (
	"context"
	"fmt"
	"os/exec"
)

// Execer abstracts external command execution so tests can swap in a fake.
type Execer interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type defaultExecer struct{}

func (defaultExecer) CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("command %s not found", name)
	}
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

var execer Execer = defaultExecer{}

// SetExecer swaps the active execer. Returns a restore func.
func SetExecer(e Execer) (restore func()) {
	prev := execer
	execer = e
	return func() { execer = prev }
}
