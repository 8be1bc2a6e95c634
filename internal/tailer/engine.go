package tailer

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Hasintha01/logwatcher/internal/classifier"
	"github.com/Hasintha01/logwatcher/internal/incident"
	"github.com/Hasintha01/logwatcher/internal/sink"
)

// Engine owns one monitored path: it polls the file's identity, reopens on
// rotation or truncation, reads newly appended lines, classifies them, and
// fans matched incidents out to every sink. An Engine is used by exactly one
// goroutine; none of its state is shared.
type Engine struct {
	path  string
	rules classifier.Rules
	sinks []sink.Sink

	// pollInterval is the wait before re-checking a path that does not
	// resolve; readInterval is the wait after a read returned no new data.
	pollInterval time.Duration
	readInterval time.Duration

	file    *os.File
	reader  *bufio.Reader
	ident   *Identity
	lineNo  int
	partial string
}

// NewEngine creates an engine for one path. The rule table is shared and
// immutable; sinks must be safe for concurrent use.
func NewEngine(path string, rules classifier.Rules, sinks []sink.Sink, poll, read time.Duration) *Engine {
	return &Engine{
		path:         path,
		rules:        rules,
		sinks:        sinks,
		pollInterval: poll,
		readInterval: read,
	}
}

// Run monitors the path until ctx is cancelled. Per-file errors are logged and
// retried; Run only returns on cancellation.
func (e *Engine) Run(ctx context.Context) {
	slog.Info("monitoring started", "path", e.path)
	defer func() {
		e.closeFile()
		slog.Info("monitoring stopped", "path", e.path)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cur, ok := Stat(e.path)
		verdict := Compare(e.ident, cur, ok)

		switch verdict {
		case VerdictUnavailable:
			if e.file != nil {
				slog.Warn("log file disappeared, waiting for it to reappear", "path", e.path)
				e.closeFile()
			}
			if !sleep(ctx, e.pollInterval) {
				return
			}
			continue

		case VerdictFirstOpen, VerdictRotated, VerdictTruncated:
			if err := e.reopen(cur, verdict); err != nil {
				slog.Error("error opening log file", "path", e.path, "verdict", verdict.String(), "error", err)
				if !sleep(ctx, e.pollInterval) {
					return
				}
				continue
			}

		case VerdictUnchanged:
			e.ident = &cur
		}

		line, ok := e.readLine()
		if !ok {
			if !sleep(ctx, e.readInterval) {
				return
			}
			continue
		}

		e.lineNo++
		e.classify(line)
	}
}

// reopen replaces the current handle according to the verdict's seek policy:
// a first-open or rotated file is assumed already seen, so the cursor moves to
// end-of-file and the line counter to the file's current total; a truncated
// file starts over from offset zero, line zero.
func (e *Engine) reopen(cur Identity, verdict Verdict) error {
	e.closeFile()

	f, err := os.Open(e.path)
	if err != nil {
		return err
	}

	if verdict == VerdictTruncated {
		slog.Info("log truncation detected, reopening", "path", e.path)
		e.lineNo = 0
	} else {
		if verdict == VerdictRotated {
			slog.Info("log rotation detected, reopening", "path", e.path)
		} else {
			slog.Info("opening log file", "path", e.path)
		}
		if _, err := f.Seek(0, io.SeekEnd); err != nil {
			f.Close()
			return err
		}
		e.lineNo = countLines(e.path)
	}

	e.file = f
	e.reader = bufio.NewReader(f)
	e.ident = &cur
	e.partial = ""
	slog.Debug("cursor positioned", "path", e.path, "line", e.lineNo, "verdict", verdict.String())
	return nil
}

// readLine attempts to read one complete line. A chunk without a trailing
// newline is buffered until the rest of the line arrives, so a line is only
// delivered (and counted) once it is terminated. Invalid UTF-8 is replaced so
// undecodable bytes never stall the cursor.
func (e *Engine) readLine() (string, bool) {
	chunk, err := e.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		slog.Error("error reading log file", "path", e.path, "line", e.lineNo, "error", err)
		e.closeFile()
		return "", false
	}

	e.partial += chunk
	if !strings.HasSuffix(e.partial, "\n") {
		return "", false
	}

	line := strings.ToValidUTF8(e.partial, "\uFFFD")
	e.partial = ""
	return line, true
}

// classify matches the line against the rule table and, on the first matching
// keyword, emits exactly one incident to every sink.
func (e *Engine) classify(line string) {
	rule, ok := e.rules.Classify(line)
	if !ok {
		return
	}

	in := incident.New(time.Now(), rule.Severity, e.path, e.lineNo, line)
	for _, s := range e.sinks {
		if err := s.Record(in); err != nil {
			slog.Error("failed to record incident",
				"sink", s.Name(), "path", e.path, "line", e.lineNo, "error", err)
		}
	}
}

func (e *Engine) closeFile() {
	if e.file != nil {
		e.file.Close()
		e.file = nil
	}
	e.reader = nil
	e.ident = nil
	e.partial = ""
}

// countLines rescans the file to establish the true current line count after
// an open or rotation. An unterminated final chunk counts as a line.
func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		slog.Warn("error counting lines", "path", path, "error", err)
		return 0
	}
	defer f.Close()

	count := 0
	r := bufio.NewReader(f)
	for {
		chunk, err := r.ReadString('\n')
		if chunk != "" {
			count++
		}
		if err != nil {
			if err != io.EOF {
				slog.Warn("error counting lines", "path", path, "error", err)
			}
			return count
		}
	}
}

// sleep waits for d or until ctx is cancelled, reporting whether the caller
// should keep running.
func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
