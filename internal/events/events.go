package events

import (
	"sync"
	"time"
)

type Kind string

const (
	KindStarted      Kind = "started"
	KindPaused       Kind = "paused"
	KindStackChanged Kind = "stack_changed"
	KindNoFrame      Kind = "paused_no_frame"
	KindResumed      Kind = "resumed"
	KindStopped      Kind = "stopped"
)

// Event is one emitted log line. Message is the text subscribers receive.
type Event struct {
	Seq     int64     `json:"seq"`
	Time    time.Time `json:"time"`
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
}

// Log is the append-only, ordered event log. It has no delete operation.
type Log struct {
	mu     sync.RWMutex
	events []Event
	now    func() time.Time
}

type Option func(*Log)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

func NewLog(opts ...Option) *Log {
	l := &Log{now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Log) Append(kind Kind, message string) Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	e := Event{
		Seq:     int64(len(l.events)) + 1,
		Time:    l.now(),
		Kind:    kind,
		Message: message,
	}
	l.events = append(l.events, e)
	return e
}

func (l *Log) Snapshot() []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// Messages returns the message of every event in emission order.
func (l *Log) Messages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.events))
	for i, e := range l.events {
		out[i] = e.Message
	}
	return out
}

func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events)
}
