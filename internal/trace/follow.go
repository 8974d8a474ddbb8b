package trace

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// Follower reads notifications appended to a spool file since the last Poll.
// An incomplete trailing line is kept until its newline arrives.
type Follower struct {
	path    string
	offset  int64
	line    int
	partial []byte
}

func NewFollower(path string) *Follower {
	return &Follower{path: path}
}

func (f *Follower) Offset() int64 { return f.offset }

// Poll returns the complete notifications written since the previous call.
// A missing file yields nothing. A file that shrank is read again from the
// start. Malformed lines are skipped and reported in the joined error.
func (f *Follower) Poll() ([]Notification, error) {
	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open spool: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat spool: %w", err)
	}
	if info.Size() < f.offset {
		f.offset = 0
		f.line = 0
		f.partial = nil
	}
	if info.Size() == f.offset {
		return nil, nil
	}
	if _, err := file.Seek(f.offset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek spool: %w", err)
	}
	chunk, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read spool: %w", err)
	}
	f.offset += int64(len(chunk))

	data := append(f.partial, chunk...)
	last := bytes.LastIndexByte(data, '\n')
	if last < 0 {
		f.partial = data
		return nil, nil
	}
	f.partial = append([]byte(nil), data[last+1:]...)
	first := f.line
	f.line += bytes.Count(data[:last+1], []byte{'\n'})
	return parseLines(data[:last+1], first)
}

// Decode reads every notification from a JSON-lines stream.
func Decode(r io.Reader) ([]Notification, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseLines(data, 0)
}

// parseLines numbers errors from first, the count of lines before data.
func parseLines(data []byte, first int) ([]Notification, error) {
	var out []Notification
	var errs []error
	for i, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		n, err := ParseLine(line)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", first+i+1, err))
			continue
		}
		out = append(out, n)
	}
	return out, errors.Join(errs...)
}

// SkipToEnd makes the next Poll start after the file's current content.
func (f *Follower) SkipToEnd() error {
	data, err := os.ReadFile(f.path)
	f.partial = nil
	if errors.Is(err, os.ErrNotExist) {
		f.offset = 0
		f.line = 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("read spool: %w", err)
	}
	f.offset = int64(len(data))
	f.line = bytes.Count(data, []byte{'\n'})
	return nil
}
