// Package broadcast fans event log messages out to subscribers.
//
// A new subscriber first receives the whole log, then every message notified
// after it registered. Taking the log snapshot and registering happen under the
// same lock that Notify holds while appending, so no message is lost or
// delivered twice. Each subscriber owns a FIFO queue with at most one drain
// task scheduled at a time, so its handler is never run concurrently and sees
// messages in emission order whatever Deliver does.
package broadcast

import (
	"errors"
	"sync"

	"debugtrail/internal/events"
	"debugtrail/internal/logging"
)

var (
	ErrClosed     = errors.New("broadcast: closed")
	ErrNilHandler = errors.New("broadcast: nil handler")
)

type Handler func(message string)

// Unsubscribe removes a subscription. Calling it more than once is a no-op.
type Unsubscribe func()

type Broadcaster struct {
	mu      sync.Mutex
	log     *events.Log
	subs    map[uint64]*subscriber
	nextID  uint64
	closed  bool
	deliver Deliver
	logger  *logging.Logger
}

func New(log *events.Log, deliver Deliver, logger *logging.Logger) *Broadcaster {
	if log == nil {
		log = events.NewLog()
	}
	if deliver == nil {
		deliver = Go
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Broadcaster{
		log:     log,
		subs:    make(map[uint64]*subscriber),
		deliver: deliver,
		logger:  logger,
	}
}

func (b *Broadcaster) Subscribe(h Handler) (Unsubscribe, error) {
	if h == nil {
		return nil, ErrNilHandler
	}
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.nextID++
	id := b.nextID
	sub := &subscriber{id: id, handler: h}
	ready := sub.push(b.log.Messages()...)
	b.subs[id] = sub
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "subscriber", id)
	if ready {
		b.schedule(sub)
	}
	return func() { b.remove(id) }, nil
}

func (b *Broadcaster) remove(id uint64) {
	b.mu.Lock()
	_, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	if ok {
		b.logger.Debug("subscriber removed", "subscriber", id)
	}
}

// Notify appends message to the log and queues it for every current subscriber.
func (b *Broadcaster) Notify(kind events.Kind, message string) (events.Event, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return events.Event{}, ErrClosed
	}
	e := b.log.Append(kind, message)
	var ready []*subscriber
	for _, sub := range b.subs {
		if sub.push(message) {
			ready = append(ready, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range ready {
		b.schedule(sub)
	}
	return e, nil
}

func (b *Broadcaster) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close drops every subscriber. Later Subscribe and Notify calls return ErrClosed.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.subs = make(map[uint64]*subscriber)
}

func (b *Broadcaster) schedule(sub *subscriber) {
	b.deliver(func() { sub.drain(b.logger) })
}

type subscriber struct {
	id      uint64
	handler Handler

	mu      sync.Mutex
	queue   []string
	running bool
}

// push queues msgs and reports whether a drain task must be scheduled.
func (s *subscriber) push(msgs ...string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, msgs...)
	if s.running || len(s.queue) == 0 {
		return false
	}
	s.running = true
	return true
}

func (s *subscriber) drain(logger *logging.Logger) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.running = false
			s.mu.Unlock()
			return
		}
		msg := s.queue[0]
		s.queue[0] = ""
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.invoke(msg, logger)
	}
}

func (s *subscriber) invoke(msg string, logger *logging.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("subscriber panicked", "subscriber", s.id, "panic", r)
		}
	}()
	s.handler(msg)
}
