// internal/sink/file.go
package sink

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"syscall"

	"hostguard/internal/alerting"
)

// FileSink appends one pipe-delimited line per alert event to a log file.
// The file is held open with an exclusive flock so two daemons cannot
// interleave writes to the same log. Rotation is somebody else's job.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	path string
}

func NewFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create alert log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open alert log: %w", err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("alert log %s is locked by another process: %w", path, err)
	}

	return &FileSink{file: f, path: path}, nil
}

// Record appends the event's log line and syncs it to disk before
// returning, so a nil error means the line reached the durable target.
func (s *FileSink) Record(event alerting.AlertEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return &SinkError{Op: "append", Err: os.ErrClosed}
	}

	if _, err := s.file.WriteString(event.Line() + "\n"); err != nil {
		return &SinkError{Op: "append", Err: err}
	}
	if err := s.file.Sync(); err != nil {
		return &SinkError{Op: "sync", Err: err}
	}
	return nil
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *FileSink) Path() string {
	return s.path
}
