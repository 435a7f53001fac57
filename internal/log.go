package internal

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// ActivityLog appends timestamped diagnostic lines to a file. It is
// separate from console output: the console carries operator-facing
// messages, the log carries connection activity. A nil *ActivityLog
// is valid and discards everything.
type ActivityLog struct {
	mu sync.Mutex
	f  *os.File
}

// OpenActivityLog opens (or creates) the log file at path. An empty
// path disables logging and returns nil without error.
func OpenActivityLog(path string) (*ActivityLog, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}
	return &ActivityLog{f: f}, nil
}

func (l *ActivityLog) Printf(format string, args ...interface{}) {
	if l == nil || l.f == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.f, "[%s] %s\n",
		time.Now().Format("2006-01-02 15:04:05"),
		fmt.Sprintf(format, args...))
}

func (l *ActivityLog) Close() {
	if l == nil || l.f == nil {
		return
	}
	l.f.Close()
}
