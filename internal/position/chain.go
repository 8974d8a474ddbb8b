package position

import "sync"

type Strategy interface {
	Name() string
	Resolve(s Session, ws Workspace) Partial
}

// Chain is an ordered list of strategies; earlier strategies win.
type Chain struct {
	mu    sync.RWMutex
	strat []Strategy
}

func NewChain(strategies ...Strategy) *Chain {
	c := &Chain{}
	for _, s := range strategies {
		c.Register(s)
	}
	return c
}

// DefaultChain tries the stack frame, then the active editor, then the first open file.
func DefaultChain() *Chain {
	return NewChain(FrameStrategy{}, EditorStrategy{}, OpenFileStrategy{})
}

func (c *Chain) Register(s Strategy) {
	if s == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strat = append(c.strat, s)
}

func (c *Chain) List() []Strategy {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Strategy, len(c.strat))
	copy(out, c.strat)
	return out
}

type FrameStrategy struct{}

func (FrameStrategy) Name() string { return "frame" }

func (FrameStrategy) Resolve(s Session, _ Workspace) Partial {
	if s == nil {
		return Partial{}
	}
	pos, ok := s.CurrentPosition()
	if !ok {
		return Partial{}
	}
	p := Partial{File: displayName(pos.File)}
	if pos.Line >= 0 {
		p.Line = displayLine(pos.Line)
	}
	return p
}

// EditorStrategy reads the active editor. The caret line resolves even when
// the editor is not backed by a file.
type EditorStrategy struct{}

func (EditorStrategy) Name() string { return "editor" }

func (EditorStrategy) Resolve(_ Session, ws Workspace) Partial {
	if ws == nil {
		return Partial{}
	}
	ed, ok := ws.ActiveEditor()
	if !ok {
		return Partial{}
	}
	p := Partial{File: displayName(ed.File)}
	if ed.CaretLine >= 0 {
		p.Line = displayLine(ed.CaretLine)
	}
	return p
}

type OpenFileStrategy struct{}

func (OpenFileStrategy) Name() string { return "open_files" }

func (OpenFileStrategy) Resolve(_ Session, ws Workspace) Partial {
	if ws == nil {
		return Partial{}
	}
	files := ws.OpenFiles()
	if len(files) == 0 {
		return Partial{}
	}
	p := Partial{File: displayName(files[0].Name)}
	if files[0].LineCount > 0 {
		p.Line = "1"
	}
	return p
}
