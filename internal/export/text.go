// Package export writes the event log out of the process: as plain text, one
// message per line, or as snapshots in a sqlite archive.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Text joins lines with "\n" and adds nothing else.
func Text(lines []string) string {
	return strings.Join(lines, "\n")
}

// TextPath appends ".txt" unless path already ends with it (case-insensitive).
func TextPath(path string) string {
	if strings.HasSuffix(strings.ToLower(path), ".txt") {
		return path
	}
	return path + ".txt"
}

// WriteText writes lines to TextPath(path) and returns the path written.
func WriteText(path string, lines []string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("export: empty path")
	}
	path = TextPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("export dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Text(lines)), 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
