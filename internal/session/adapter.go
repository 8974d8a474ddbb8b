// Package session turns the lifecycle notifications of one debugging context
// into formatted log messages.
package session

import (
	"sync"

	"github.com/google/uuid"

	"debugtrail/internal/classify"
	"debugtrail/internal/events"
	"debugtrail/internal/logging"
	"debugtrail/internal/position"
)

type State int

const (
	NotStarted State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Session is the host's view of a debug session.
type Session interface {
	position.Session
	ID() string
	HasStackFrame() bool
}

// Notifier receives formatted messages; the broadcaster implements it.
type Notifier interface {
	Notify(kind events.Kind, message string) (events.Event, error)
}

// Adapter is the state machine of a single debugging context:
// NotStarted -> Running -> Stopped. Stopped is terminal.
type Adapter struct {
	id       string
	resolver *position.Resolver
	out      Notifier
	log      *logging.Logger

	mu         sync.Mutex
	state      State
	classifier classify.State
}

func NewAdapter(resolver *position.Resolver, out Notifier, log *logging.Logger) *Adapter {
	if resolver == nil {
		resolver = position.NewResolver(nil, nil, log)
	}
	if log == nil {
		log = logging.Nop()
	}
	id := uuid.NewString()
	return &Adapter{
		id:       id,
		resolver: resolver,
		out:      out,
		log:      log.With("context", id),
	}
}

func (a *Adapter) ID() string { return a.id }

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Adapter) ProcessStarted(s Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != NotStarted {
		a.log.Warn("process start ignored", "state", a.state.String())
		return
	}
	a.state = Running
	a.classifier = classify.State{}
	pos := a.resolver.Resolve(s)
	a.emit(events.KindStarted, StartedMessage(pos.File))
}

func (a *Adapter) SessionPaused(s Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Running {
		a.log.Debug("pause ignored", "state", a.state.String())
		return
	}
	if s == nil || !s.HasStackFrame() {
		a.emit(events.KindNoFrame, NoFrameMessage)
		return
	}
	pos := a.resolver.Resolve(s)
	cat, next := classify.Classify(classify.FrameKey{File: pos.File, Line: pos.Line}, a.classifier)
	a.classifier = next
	a.log.Debug("pause classified", "category", cat.String(), "file", pos.File, "line", pos.Line)
	switch cat {
	case classify.StackChanged:
		a.emit(events.KindStackChanged, StackChangedMessage(pos.File, pos.Line))
	default:
		a.emit(events.KindPaused, PausedMessage(pos.File, pos.Line))
	}
}

func (a *Adapter) BeforeSessionResume(s Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state != Running {
		a.log.Debug("resume ignored", "state", a.state.String())
		return
	}
	pos := a.resolver.Resolve(s)
	a.emit(events.KindResumed, ResumedMessage(pos.File, pos.Line))
}

// ProcessStopped ends the context. A stop for a context that never saw its
// start is still reported, since the host only sends it for a real process.
func (a *Adapter) ProcessStopped(s Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state == Stopped {
		a.log.Debug("duplicate stop ignored")
		return
	}
	if a.state == NotStarted {
		a.log.Warn("stop without start")
	}
	a.state = Stopped
	pos := a.resolver.Resolve(s)
	a.emit(events.KindStopped, StoppedMessage(pos.File))
}

func (a *Adapter) emit(kind events.Kind, msg string) {
	if a.out == nil {
		return
	}
	if _, err := a.out.Notify(kind, msg); err != nil {
		a.log.Warn("event dropped", "kind", kind, "err", err)
	}
}
