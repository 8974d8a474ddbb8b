// Package trace decodes host debugger notifications and applies them to a tracker.
//
// A host (an IDE plugin, a DAP proxy) writes one JSON notification per line to a
// spool file; recorded sessions can also be replayed from a YAML scenario.
package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"debugtrail/internal/position"
	"debugtrail/internal/session"
)

type Kind string

const (
	ProcessStarted      Kind = "processStarted"
	ProcessStopped      Kind = "processStopped"
	SessionPaused       Kind = "sessionPaused"
	BeforeSessionResume Kind = "beforeSessionResume"
)

var ErrUnknownKind = errors.New("trace: unknown notification kind")

// Position is a debugger position. Line is 0-indexed, as debuggers report it.
type Position struct {
	File string `json:"file" yaml:"file"`
	Line int    `json:"line" yaml:"line"`
}

type SessionSnapshot struct {
	SessionID string    `json:"id" yaml:"id"`
	Position  *Position `json:"position,omitempty" yaml:"position,omitempty"`
	// Frame reports whether a stack frame is available. When omitted it
	// follows Position.
	Frame *bool `json:"frame,omitempty" yaml:"frame,omitempty"`
	PID   int32 `json:"pid,omitempty" yaml:"pid,omitempty"`
}

var _ session.Session = SessionSnapshot{}

func (s SessionSnapshot) ID() string { return s.SessionID }

func (s SessionSnapshot) HasStackFrame() bool {
	if s.Frame != nil {
		return *s.Frame
	}
	return s.Position != nil
}

func (s SessionSnapshot) CurrentPosition() (position.SourcePosition, bool) {
	if s.Position == nil || s.Position.File == "" {
		return position.SourcePosition{}, false
	}
	return position.SourcePosition{File: s.Position.File, Line: s.Position.Line}, true
}

type ActiveEditor struct {
	File  string `json:"file" yaml:"file"`
	Caret int    `json:"caret" yaml:"caret"`
}

type OpenFile struct {
	Name  string `json:"name" yaml:"name"`
	Lines int    `json:"lines" yaml:"lines"`
}

type EditorState struct {
	Active    *ActiveEditor `json:"active,omitempty" yaml:"active,omitempty"`
	OpenFiles []OpenFile    `json:"open_files,omitempty" yaml:"open_files,omitempty"`
}

type Notification struct {
	Kind    Kind            `json:"kind" yaml:"kind"`
	Session SessionSnapshot `json:"session" yaml:"session"`
	Editor  *EditorState    `json:"editor,omitempty" yaml:"editor,omitempty"`
}

func (n Notification) Validate() error {
	switch n.Kind {
	case ProcessStarted, ProcessStopped, SessionPaused, BeforeSessionResume:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, n.Kind)
	}
	if n.Session.SessionID == "" {
		return fmt.Errorf("trace: %s without session id", n.Kind)
	}
	return nil
}

// ParseLine decodes one spool line.
func ParseLine(line []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(line, &n); err != nil {
		return Notification{}, fmt.Errorf("trace: decode: %w", err)
	}
	if err := n.Validate(); err != nil {
		return Notification{}, err
	}
	return n, nil
}

// Workspace holds the latest editor state reported by the host.
type Workspace struct {
	mu    sync.RWMutex
	state EditorState
}

var _ position.Workspace = (*Workspace)(nil)

func NewWorkspace() *Workspace { return &Workspace{} }

func (w *Workspace) Update(st EditorState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state = EditorState{OpenFiles: append([]OpenFile(nil), st.OpenFiles...)}
	if st.Active != nil {
		active := *st.Active
		w.state.Active = &active
	}
}

func (w *Workspace) ActiveEditor() (position.Editor, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.state.Active == nil {
		return position.Editor{}, false
	}
	return position.Editor{File: w.state.Active.File, CaretLine: w.state.Active.Caret}, true
}

func (w *Workspace) OpenFiles() []position.OpenFile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]position.OpenFile, 0, len(w.state.OpenFiles))
	for _, f := range w.state.OpenFiles {
		out = append(out, position.OpenFile{Name: f.Name, LineCount: f.Lines})
	}
	return out
}

// Target receives lifecycle notifications; *tracker.Tracker implements it.
type Target interface {
	ProcessStarted(s session.Session)
	ProcessStopped(s session.Session)
	SessionPaused(s session.Session)
	BeforeSessionResume(s session.Session)
}

// Apply records the notification's editor state in ws, then dispatches it to t.
func Apply(n Notification, t Target, ws *Workspace) error {
	if err := n.Validate(); err != nil {
		return err
	}
	if n.Editor != nil && ws != nil {
		ws.Update(*n.Editor)
	}
	switch n.Kind {
	case ProcessStarted:
		t.ProcessStarted(n.Session)
	case ProcessStopped:
		t.ProcessStopped(n.Session)
	case SessionPaused:
		t.SessionPaused(n.Session)
	case BeforeSessionResume:
		t.BeforeSessionResume(n.Session)
	}
	return nil
}
