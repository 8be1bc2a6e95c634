// Package sink provides incident destinations: console, the append-only
// incident log, and the SQLite archive.
package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/Hasintha01/logwatcher/internal/incident"
)

// Sink receives incidents. Record must be safe for concurrent use from
// multiple tail engines and must never interleave the bytes of two incidents
// within its destination.
type Sink interface {
	Record(*incident.Incident) error
	Name() string
}

// Console writes one line per incident to a writer, stdout by default.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console sink writing to out (os.Stdout if nil).
func NewConsole(out io.Writer) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Record(in *incident.Incident) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.out, in.ConsoleLine()+"\n")
	return err
}

// File appends incidents to the durable incident log, one line per incident.
// The handle is opened with O_APPEND and each incident is a single Write call,
// so concurrent engines never interleave within a line.
type File struct {
	path string
	f    *os.File
}

// NewFile opens (creating if needed) the incident log at path, including its
// parent directory.
func NewFile(path string) (*File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating incident log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening incident log: %w", err)
	}
	return &File{path: path, f: f}, nil
}

func (s *File) Name() string { return "file" }

func (s *File) Record(in *incident.Incident) error {
	if _, err := s.f.WriteString(in.LogLine()); err != nil {
		return fmt.Errorf("appending incident to %s: %w", s.path, err)
	}
	return nil
}

func (s *File) Close() error {
	return s.f.Close()
}
