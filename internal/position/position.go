// Package position resolves the file and line a debugging session is at,
// falling back through editor state when the session has no position.
package position

import (
	"path/filepath"
	"strconv"

	"debugtrail/internal/logging"
)

const (
	NoFile = "NoFile"
	NoLine = "NoLine"
)

// SourcePosition is a location reported by the debugger. Line is 0-indexed.
type SourcePosition struct {
	File string
	Line int
}

type Session interface {
	CurrentPosition() (SourcePosition, bool)
}

// Editor is the active editor. File is empty when the editor has no backing file.
type Editor struct {
	File      string
	CaretLine int
}

type OpenFile struct {
	Name      string
	LineCount int
}

type Workspace interface {
	ActiveEditor() (Editor, bool)
	OpenFiles() []OpenFile
}

// Partial is what a single strategy could find. Empty fields are unresolved.
type Partial struct {
	File string
	Line string
}

type Result struct {
	File string
	Line string
}

type Resolver struct {
	chain *Chain
	ws    Workspace
	log   *logging.Logger
}

// NewResolver resolves over chain, or the default chain when nil. ws may be nil.
func NewResolver(chain *Chain, ws Workspace, log *logging.Logger) *Resolver {
	if chain == nil {
		chain = DefaultChain()
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{chain: chain, ws: ws, log: log}
}

// Resolve fills file and line independently from the first strategy that
// supplies each. It never fails; unresolved fields become NoFile/NoLine.
func (r *Resolver) Resolve(s Session) Result {
	var res Result
	for _, st := range r.chain.List() {
		p := r.try(st, s)
		if res.File == "" {
			res.File = p.File
		}
		if res.Line == "" {
			res.Line = p.Line
		}
		if res.File != "" && res.Line != "" {
			return res
		}
	}
	if res.File == "" {
		res.File = NoFile
	}
	if res.Line == "" {
		res.Line = NoLine
	}
	return res
}

func (r *Resolver) try(st Strategy, s Session) (p Partial) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Debug("position strategy panicked", "strategy", st.Name(), "panic", rec)
			p = Partial{}
		}
	}()
	return st.Resolve(s, r.ws)
}

func displayName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}

func displayLine(zeroBased int) string {
	return strconv.Itoa(zeroBased + 1)
}
