// Package present renders the event log in a terminal. It is a subscriber of
// the tracker like any other and owns no part of the log.
package present

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"debugtrail/internal/broadcast"
	"debugtrail/internal/export"
	"debugtrail/internal/session"
)

const Placeholder = "Start debugger first"

type Source interface {
	Subscribe(fn func(message string)) (broadcast.Unsubscribe, error)
}

// Panel keeps the rendered nodes. Reset clears the nodes only; the tracker's
// log keeps its history and still replays it to new subscribers.
type Panel struct {
	out    io.Writer
	styles map[string]*color.Color

	mu       sync.Mutex
	nodes    []string
	onChange func(count int)
	unsub    broadcast.Unsubscribe
}

func NewPanel(out io.Writer, useColor bool) *Panel {
	p := &Panel{out: out, styles: map[string]*color.Color{
		session.PrefixStarted:      color.New(color.FgGreen, color.Bold),
		session.PrefixPaused:       color.New(color.FgYellow),
		session.PrefixStackChanged: color.New(color.FgMagenta, color.Bold),
		session.PrefixResumed:      color.New(color.FgCyan),
		session.PrefixStopped:      color.New(color.FgRed, color.Bold),
	}}
	for _, c := range p.styles {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Attach subscribes the panel to src. History arrives first.
func (p *Panel) Attach(src Source) error {
	unsub, err := src.Subscribe(p.AddNode)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.unsub = unsub
	p.mu.Unlock()
	return nil
}

func (p *Panel) Detach() {
	p.mu.Lock()
	unsub := p.unsub
	p.unsub = nil
	p.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// SetOnChange registers a callback run with the node count after each change.
func (p *Panel) SetOnChange(fn func(count int)) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

func (p *Panel) AddNode(text string) {
	p.mu.Lock()
	first := len(p.nodes) == 0
	p.nodes = append(p.nodes, text)
	count := len(p.nodes)
	fn := p.onChange
	p.mu.Unlock()

	if p.out != nil {
		if !first {
			fmt.Fprintln(p.out, "  │")
		}
		fmt.Fprintln(p.out, p.style(text))
	}
	if fn != nil {
		fn(count)
	}
}

func (p *Panel) Reset() {
	p.mu.Lock()
	p.nodes = nil
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn(0)
	}
}

func (p *Panel) IsEmpty() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.nodes) == 0
}

func (p *Panel) Nodes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.nodes...)
}

// Render writes every node, or the placeholder when there are none.
func (p *Panel) Render(w io.Writer) {
	nodes := p.Nodes()
	if len(nodes) == 0 {
		fmt.Fprintln(w, Placeholder)
		return
	}
	for i, n := range nodes {
		if i > 0 {
			fmt.Fprintln(w, "  │")
		}
		fmt.Fprintln(w, p.style(n))
	}
}

// Export writes the panel's nodes as text and returns the path written.
func (p *Panel) Export(path string) (string, error) {
	return export.WriteText(path, p.Nodes())
}

func (p *Panel) style(text string) string {
	prefix, rest, ok := strings.Cut(text, " ")
	if !ok {
		return text
	}
	c, ok := p.styles[prefix]
	if !ok {
		return text
	}
	return c.Sprint(prefix) + " " + rest
}
