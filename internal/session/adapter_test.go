package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugtrail/internal/events"
	"debugtrail/internal/position"
)

type fakeSession struct {
	id    string
	file  string
	line  int
	frame bool
}

func (f *fakeSession) ID() string          { return f.id }
func (f *fakeSession) HasStackFrame() bool { return f.frame }
func (f *fakeSession) CurrentPosition() (position.SourcePosition, bool) {
	if f.file == "" {
		return position.SourcePosition{}, false
	}
	return position.SourcePosition{File: f.file, Line: f.line}, true
}

func (f *fakeSession) at(file string, line int) *fakeSession {
	f.file, f.line, f.frame = file, line, true
	return f
}

type captured struct {
	kind events.Kind
	msg  string
}

type captureNotifier struct {
	got []captured
	err error
}

func (c *captureNotifier) Notify(kind events.Kind, msg string) (events.Event, error) {
	if c.err != nil {
		return events.Event{}, c.err
	}
	c.got = append(c.got, captured{kind, msg})
	return events.Event{Kind: kind, Message: msg}, nil
}

func (c *captureNotifier) messages() []string {
	out := []string{}
	for _, g := range c.got {
		out = append(out, g.msg)
	}
	return out
}

func TestAdapter_Scenario(t *testing.T) {
	out := &captureNotifier{}
	a := NewAdapter(nil, out, nil)
	s := &fakeSession{id: "s1"}

	a.ProcessStarted(s.at("/w/a.go", 0))
	a.SessionPaused(s.at("/w/a.go", 10))
	a.SessionPaused(s.at("/w/a.go", 10))
	a.SessionPaused(s.at("/w/b.go", 3))
	a.ProcessStopped(s.at("/w/a.go", 0))

	assert.Equal(t, []string{
		"▶ Debugger started at a.go",
		"⏸ Paused at a.go:11",
		"⏸ Paused at a.go:11",
		"↕ Paused (stack frame changed) at b.go:4",
		"⏹ Debugger stopped at a.go",
	}, out.messages())
	assert.Equal(t, []events.Kind{
		events.KindStarted, events.KindPaused, events.KindPaused, events.KindStackChanged, events.KindStopped,
	}, []events.Kind{out.got[0].kind, out.got[1].kind, out.got[2].kind, out.got[3].kind, out.got[4].kind})
	assert.Equal(t, Stopped, a.State())
}

func TestAdapter_NoStackFrameSkipsClassifier(t *testing.T) {
	out := &captureNotifier{}
	a := NewAdapter(nil, out, nil)
	s := &fakeSession{id: "s1"}

	a.ProcessStarted(s)
	a.SessionPaused(s)
	a.SessionPaused(s.at("a.go", 1))

	assert.Equal(t, []string{
		"▶ Debugger started at NoFile",
		NoFrameMessage,
		"⏸ Paused at a.go:2",
	}, out.messages())
}

func TestAdapter_ResumeDoesNotTouchClassifier(t *testing.T) {
	out := &captureNotifier{}
	a := NewAdapter(nil, out, nil)
	s := &fakeSession{id: "s1"}

	a.ProcessStarted(s.at("a.go", 0))
	a.SessionPaused(s.at("a.go", 4))
	a.BeforeSessionResume(s.at("c.go", 8))
	a.SessionPaused(s.at("a.go", 4))

	assert.Equal(t, []string{
		"▶ Debugger started at a.go",
		"⏸ Paused at a.go:5",
		"⏯ Resumed at c.go:9",
		"⏸ Paused at a.go:5",
	}, out.messages())
}

func TestAdapter_IgnoresEventsOutsideRunning(t *testing.T) {
	out := &captureNotifier{}
	a := NewAdapter(nil, out, nil)
	s := &fakeSession{id: "s1"}

	a.SessionPaused(s.at("a.go", 1))
	a.BeforeSessionResume(s)
	assert.Empty(t, out.got)
	assert.Equal(t, NotStarted, a.State())

	a.ProcessStarted(s)
	a.ProcessStarted(s)
	a.ProcessStopped(s)
	a.ProcessStopped(s)
	a.SessionPaused(s)

	assert.Len(t, out.got, 2)
	assert.Equal(t, Stopped, a.State())
}

func TestAdapter_StopWithoutStartIsReported(t *testing.T) {
	out := &captureNotifier{}
	a := NewAdapter(nil, out, nil)

	a.ProcessStopped(&fakeSession{id: "x", file: "main.go"})

	assert.Equal(t, []string{"⏹ Debugger stopped at main.go"}, out.messages())
}

func TestAdapter_NotifierErrorIsSwallowed(t *testing.T) {
	a := NewAdapter(nil, &captureNotifier{err: errors.New("closed")}, nil)
	s := &fakeSession{id: "s1"}

	assert.NotPanics(t, func() {
		a.ProcessStarted(s)
		a.SessionPaused(s.at("a.go", 1))
	})
	assert.Equal(t, Running, a.State())
}

func TestAdapter_IDsAreUnique(t *testing.T) {
	a, b := NewAdapter(nil, nil, nil), NewAdapter(nil, nil, nil)
	require.NotEmpty(t, a.ID())
	assert.NotEqual(t, a.ID(), b.ID())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "not_started", NotStarted.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "unknown", State(9).String())
}
