// internal/harness/appender.go
// Package: harness
package harness

import (
	"errors"
	"io/fs"
	"os"
	"strings"
)

// Appender is the output sink for CSV lines.
type Appender interface {
	// Empty reports whether path is missing or has no content yet.
	Empty(path string) (bool, error)
	// Append writes line, newline-terminated, creating path if absent.
	Append(path, line string) error
}

// FileAppender opens the file for every line so partial sweeps survive a crash.
type FileAppender struct{}

func (FileAppender) Empty(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return info.Size() == 0, nil
}

func (FileAppender) Append(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
