// Package monitor runs one tail engine per configured path and owns their
// shared lifetime.
package monitor

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Hasintha01/logwatcher/internal/classifier"
	"github.com/Hasintha01/logwatcher/internal/sink"
	"github.com/Hasintha01/logwatcher/internal/tailer"
)

// Supervisor starts an independent tail engine per path and waits for all of
// them to stop. Engines never communicate; they share only the immutable rule
// table and the sinks.
type Supervisor struct {
	paths []string
	rules classifier.Rules
	sinks []sink.Sink
	poll  time.Duration
	read  time.Duration
}

// New creates a Supervisor for the given paths.
func New(paths []string, rules classifier.Rules, sinks []sink.Sink, poll, read time.Duration) *Supervisor {
	return &Supervisor{
		paths: paths,
		rules: rules,
		sinks: sinks,
		poll:  poll,
		read:  read,
	}
}

// Run starts one engine goroutine per path and blocks until every engine has
// shut down after ctx is cancelled. A path that does not resolve at startup
// is a warning, not an error: its engine keeps searching until it appears.
func (s *Supervisor) Run(ctx context.Context) {
	var wg sync.WaitGroup

	for _, path := range s.paths {
		if _, err := os.Stat(path); err != nil {
			slog.Warn("log file not found at startup, will watch for it", "path", path)
		}

		eng := tailer.NewEngine(path, s.rules, s.sinks, s.poll, s.read)
		wg.Add(1)
		go func() {
			defer wg.Done()
			eng.Run(ctx)
		}()
	}

	slog.Info("supervisor started", "files", len(s.paths))
	wg.Wait()
	slog.Info("all monitors stopped")
}
