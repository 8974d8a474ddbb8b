package trace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugtrail/internal/broadcast"
	"debugtrail/internal/position"
	"debugtrail/internal/tracker"
)

func TestParseLine(t *testing.T) {
	n, err := ParseLine([]byte(`{"kind":"sessionPaused","session":{"id":"s1","position":{"file":"/w/a.go","line":10}}}`))
	require.NoError(t, err)

	assert.Equal(t, SessionPaused, n.Kind)
	assert.Equal(t, "s1", n.Session.ID())
	assert.True(t, n.Session.HasStackFrame())
	pos, ok := n.Session.CurrentPosition()
	require.True(t, ok)
	assert.Equal(t, position.SourcePosition{File: "/w/a.go", Line: 10}, pos)
}

func TestParseLine_Errors(t *testing.T) {
	_, err := ParseLine([]byte(`{"kind":"exploded","session":{"id":"s1"}}`))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = ParseLine([]byte(`{"kind":"processStarted","session":{}}`))
	assert.Error(t, err)

	_, err = ParseLine([]byte(`{not json`))
	assert.Error(t, err)
}

func TestSessionSnapshot_ExplicitFrame(t *testing.T) {
	no := false
	s := SessionSnapshot{SessionID: "s", Position: &Position{File: "a.go"}, Frame: &no}
	assert.False(t, s.HasStackFrame())
	assert.False(t, SessionSnapshot{SessionID: "s"}.HasStackFrame())
}

func TestWorkspace(t *testing.T) {
	ws := NewWorkspace()
	_, ok := ws.ActiveEditor()
	assert.False(t, ok)
	assert.Empty(t, ws.OpenFiles())

	ws.Update(EditorState{
		Active:    &ActiveEditor{File: "/w/e.go", Caret: 4},
		OpenFiles: []OpenFile{{Name: "o.go", Lines: 12}},
	})
	ed, ok := ws.ActiveEditor()
	require.True(t, ok)
	assert.Equal(t, position.Editor{File: "/w/e.go", CaretLine: 4}, ed)
	assert.Equal(t, []position.OpenFile{{Name: "o.go", LineCount: 12}}, ws.OpenFiles())
}

func TestFollower_PartialLinesAndTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.jsonl")
	f := NewFollower(path)

	got, err := f.Poll()
	require.NoError(t, err)
	assert.Empty(t, got)

	first := `{"kind":"processStarted","session":{"id":"s1"}}` + "\n"
	half := `{"kind":"sessionPaused","session":{"id":"s1",`
	require.NoError(t, os.WriteFile(path, []byte(first+half), 0o644))

	got, err = f.Poll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ProcessStarted, got[0].Kind)

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = fh.WriteString(`"position":{"file":"a.go","line":1}}}` + "\n" + "garbage\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	got, err = f.Poll()
	assert.ErrorContains(t, err, "line 3:")
	require.Len(t, got, 1)
	assert.Equal(t, SessionPaused, got[0].Kind)

	require.NoError(t, os.WriteFile(path, []byte(first), 0o644))
	got, err = f.Poll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(len(first)), f.Offset())
}

func TestDecode(t *testing.T) {
	in := strings.Join([]string{
		`{"kind":"processStarted","session":{"id":"s1"}}`,
		``,
		`{"kind":"processStopped","session":{"id":"s1"}}`,
	}, "\n")
	got, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

const scenarioYAML = `
name: two files
editor:
  open_files:
    - name: main.go
      lines: 40
notifications:
  - kind: processStarted
    session: {id: s1}
  - kind: sessionPaused
    session: {id: s1, position: {file: /w/a.go, line: 10}}
  - kind: sessionPaused
    session: {id: s1, position: {file: /w/a.go, line: 10}}
  - kind: sessionPaused
    session: {id: s1, position: {file: /w/b.go, line: 3}}
  - kind: beforeSessionResume
    session: {id: s1, position: {file: /w/b.go, line: 3}}
  - kind: sessionPaused
    session: {id: s1, frame: false}
  - kind: processStopped
    session: {id: s1, position: {file: /w/a.go, line: 0}}
`

func TestScenario_ReplayThroughTracker(t *testing.T) {
	sc, err := ParseYAML([]byte(scenarioYAML))
	require.NoError(t, err)
	assert.Equal(t, "two files", sc.Name)

	ws := NewWorkspace()
	tr := tracker.New(nil, tracker.WithDeliver(broadcast.Inline), tracker.WithWorkspace(ws))
	defer tr.Close()
	require.NoError(t, sc.Replay(tr, ws))

	assert.Equal(t, []string{
		"▶ Debugger started at main.go",
		"⏸ Paused at a.go:11",
		"⏸ Paused at a.go:11",
		"↕ Paused (stack frame changed) at b.go:4",
		"⏯ Resumed at b.go:4",
		"⏸ Paused at breakpoint (no stack frame)",
		"⏹ Debugger stopped at a.go",
	}, tr.ExportLog())
}

func TestParseYAML_InvalidNotification(t *testing.T) {
	_, err := ParseYAML([]byte("notifications:\n  - kind: bogus\n    session: {id: s}\n"))
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o644))

	sc, err := LoadYAML(path)
	require.NoError(t, err)
	assert.Len(t, sc.Notifications, 7)

	_, err = LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFollower_SkipToEnd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.jsonl")
	f := NewFollower(path)
	require.NoError(t, f.SkipToEnd())

	old := `{"kind":"processStarted","session":{"id":"old"}}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(old), 0o644))
	require.NoError(t, f.SkipToEnd())
	assert.Equal(t, int64(len(old)), f.Offset())

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = fh.WriteString(`{"kind":"processStarted","session":{"id":"new"}}` + "\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	got, err := f.Poll()
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Session.ID())
}

func TestFollower_ErrorLinesCountFromFileStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.jsonl")
	old := `{"kind":"processStarted","session":{"id":"old"}}` + "\n" + "junk\n"
	require.NoError(t, os.WriteFile(path, []byte(old), 0o644))

	f := NewFollower(path)
	require.NoError(t, f.SkipToEnd())

	fh, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = fh.WriteString(`{"kind":"processStopped","session":{"id":"old"}}` + "\n" + "{broken\n")
	require.NoError(t, err)
	require.NoError(t, fh.Close())

	got, err := f.Poll()
	assert.ErrorContains(t, err, "line 4:")
	assert.Len(t, got, 1)
}

func TestFollower_WatchFiresOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "spool.jsonl")
	f := NewFollower(path)

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- f.Watch(ctx, 0, func() { fired.Add(1) }, nil)
	}()

	line := `{"kind":"processStarted","session":{"id":"s1"}}` + "\n"
	require.Eventually(t, func() bool {
		fh, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return false
		}
		_, _ = fh.WriteString(line)
		_ = fh.Close()
		return fired.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	got, err := f.Poll()
	require.NoError(t, err)
	assert.NotEmpty(t, got)

	cancel()
	assert.NoError(t, <-errCh)
}
