// Package tracker is the event-capture service for one observed workspace.
// It owns the event log, the broadcaster and one session adapter per running
// debug session, and is created and disposed explicitly by its host.
package tracker

import (
	"errors"
	"strings"
	"sync"

	"debugtrail/internal/broadcast"
	"debugtrail/internal/events"
	"debugtrail/internal/logging"
	"debugtrail/internal/position"
	"debugtrail/internal/session"
)

var ErrClosed = errors.New("tracker: closed")

type options struct {
	deliver   broadcast.Deliver
	workspace position.Workspace
	chain     *position.Chain
	logOpts   []events.Option
}

type Option func(*options)

// WithDeliver sets how subscriber callbacks are scheduled. Defaults to broadcast.Go.
func WithDeliver(d broadcast.Deliver) Option {
	return func(o *options) { o.deliver = d }
}

// WithWorkspace supplies editor state for position fallback.
func WithWorkspace(ws position.Workspace) Option {
	return func(o *options) { o.workspace = ws }
}

func WithChain(c *position.Chain) Option {
	return func(o *options) { o.chain = c }
}

func WithLogOptions(opts ...events.Option) Option {
	return func(o *options) { o.logOpts = append(o.logOpts, opts...) }
}

type Tracker struct {
	log      *logging.Logger
	events   *events.Log
	bc       *broadcast.Broadcaster
	resolver *position.Resolver

	mu       sync.Mutex
	contexts map[string]*entry
	ended    map[string]struct{}
	closed   bool
}

// entry is an open context. ready is closed once its start has been emitted.
type entry struct {
	a     *session.Adapter
	ready chan struct{}
}

func New(logger *logging.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = logging.Nop()
	}
	o := options{deliver: broadcast.Go}
	for _, opt := range opts {
		opt(&o)
	}
	el := events.NewLog(o.logOpts...)
	return &Tracker{
		log:      logger,
		events:   el,
		bc:       broadcast.New(el, o.deliver, logger.With("component", "broadcast")),
		resolver: position.NewResolver(o.chain, o.workspace, logger),
		contexts: make(map[string]*entry),
		ended:    make(map[string]struct{}),
	}
}

// ProcessStarted begins a new debugging context for s, replacing any earlier
// context with the same session id.
func (t *Tracker) ProcessStarted(s session.Session) {
	if s == nil {
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	e := &entry{
		a:     session.NewAdapter(t.resolver, t.bc, t.log.With("session", s.ID())),
		ready: make(chan struct{}),
	}
	t.contexts[s.ID()] = e
	delete(t.ended, s.ID())
	t.mu.Unlock()

	defer close(e.ready)
	t.log.Info("debug process started", "session", s.ID(), "context", e.a.ID())
	e.a.ProcessStarted(s)
}

func (t *Tracker) SessionPaused(s session.Session) {
	if a := t.lookup(s); a != nil {
		a.SessionPaused(s)
	}
}

func (t *Tracker) BeforeSessionResume(s session.Session) {
	if a := t.lookup(s); a != nil {
		a.BeforeSessionResume(s)
	}
}

// ProcessStopped ends the context of s. A session never seen starting gets a
// throwaway context so the stop is still logged. A session that already
// stopped stays stopped until it starts again.
func (t *Tracker) ProcessStopped(s session.Session) {
	if s == nil {
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if _, done := t.ended[s.ID()]; done {
		t.mu.Unlock()
		t.log.Debug("duplicate stop ignored", "session", s.ID())
		return
	}
	t.ended[s.ID()] = struct{}{}
	e, ok := t.contexts[s.ID()]
	delete(t.contexts, s.ID())
	t.mu.Unlock()

	var a *session.Adapter
	if ok {
		<-e.ready
		a = e.a
	} else {
		a = session.NewAdapter(t.resolver, t.bc, t.log.With("session", s.ID()))
	}
	t.log.Info("debug process stopped", "session", s.ID(), "known", ok)
	a.ProcessStopped(s)
}

// lookup returns the open context of s once its start has been emitted.
func (t *Tracker) lookup(s session.Session) *session.Adapter {
	if s == nil {
		return nil
	}
	t.mu.Lock()
	e, ok := t.contexts[s.ID()]
	t.mu.Unlock()
	if !ok {
		t.log.Debug("notification for unknown session", "session", s.ID())
		return nil
	}
	<-e.ready
	return e.a
}

// Running returns the ids of sessions whose context is still open.
func (t *Tracker) Running() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, 0, len(t.contexts))
	for id := range t.contexts {
		out = append(out, id)
	}
	return out
}

// Subscribe registers fn. It first receives the whole log, then every new message.
func (t *Tracker) Subscribe(fn func(message string)) (broadcast.Unsubscribe, error) {
	t.mu.Lock()
	closed := t.closed
	t.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	unsub, err := t.bc.Subscribe(fn)
	if errors.Is(err, broadcast.ErrClosed) {
		return nil, ErrClosed
	}
	return unsub, err
}

func (t *Tracker) ExportLog() []string { return t.events.Messages() }

func (t *Tracker) Events() []events.Event { return t.events.Snapshot() }

// ExportText is the log as one message per line, with no trailing newline.
func (t *Tracker) ExportText() string { return strings.Join(t.ExportLog(), "\n") }

// Close disposes the tracker. The log stays readable; subscriptions and
// notifications are rejected afterwards.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	t.contexts = make(map[string]*entry)
	t.ended = make(map[string]struct{})
	t.mu.Unlock()

	t.bc.Close()
	t.log.Info("tracker closed", "events", t.events.Len())
	return nil
}
