// Package probe checks that debuggee processes are still alive, so a stop
// can be reported when a debug adapter dies without telling the host.
package probe

import (
	"context"
	"sort"
	"sync"

	proc "github.com/shirou/gopsutil/process"

	"debugtrail/internal/logging"
)

type ExistsFunc func(ctx context.Context, pid int32) (bool, error)

type Watchdog struct {
	mu      sync.Mutex
	watched map[string]int32
	exists  ExistsFunc
	log     *logging.Logger
}

func NewWatchdog(log *logging.Logger) *Watchdog {
	return NewWatchdogWith(proc.PidExistsWithContext, log)
}

func NewWatchdogWith(exists ExistsFunc, log *logging.Logger) *Watchdog {
	if log == nil {
		log = logging.Nop()
	}
	return &Watchdog{watched: make(map[string]int32), exists: exists, log: log}
}

// Watch starts probing pid on behalf of a session. Non-positive pids are ignored.
func (w *Watchdog) Watch(sessionID string, pid int32) {
	if pid <= 0 {
		return
	}
	w.mu.Lock()
	w.watched[sessionID] = pid
	w.mu.Unlock()

	if p, err := proc.NewProcess(pid); err == nil {
		name, _ := p.Name()
		w.log.Info("watching debuggee", "session", sessionID, "pid", pid, "name", name)
	}
}

func (w *Watchdog) Forget(sessionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.watched, sessionID)
}

func (w *Watchdog) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// Check returns, sorted, the sessions whose debuggee is gone and stops watching them.
// Probe errors leave the session watched.
func (w *Watchdog) Check(ctx context.Context) []string {
	w.mu.Lock()
	snapshot := make(map[string]int32, len(w.watched))
	for id, pid := range w.watched {
		snapshot[id] = pid
	}
	w.mu.Unlock()

	var gone []string
	for id, pid := range snapshot {
		ok, err := w.exists(ctx, pid)
		if err != nil {
			w.log.Debug("liveness probe failed", "session", id, "pid", pid, "err", err)
			continue
		}
		if !ok {
			gone = append(gone, id)
		}
	}

	w.mu.Lock()
	for _, id := range gone {
		if w.watched[id] == snapshot[id] {
			delete(w.watched, id)
		}
	}
	w.mu.Unlock()

	sort.Strings(gone)
	return gone
}
