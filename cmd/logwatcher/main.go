// logwatcher tails configured log files, classifies newly appended lines
// against a keyword severity table, and records matches as incidents in an
// append-only incident log (plus optional console and SQLite sinks). The
// serve subcommand exposes recorded incidents over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Hasintha01/logwatcher/internal/config"
	"github.com/Hasintha01/logwatcher/internal/incident"
	"github.com/Hasintha01/logwatcher/internal/monitor"
	"github.com/Hasintha01/logwatcher/internal/server"
	"github.com/Hasintha01/logwatcher/internal/sink"
	"github.com/Hasintha01/logwatcher/internal/store"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "serve":
			runServe(os.Args[2:])
			return
		case "query":
			runQuery(os.Args[2:])
			return
		case "version":
			fmt.Println("logwatcher", version)
			return
		}
	}

	// Default: run the monitoring daemon.
	runDaemon(os.Args[1:])
}

func runDaemon(args []string) {
	fs := flag.NewFlagSet("logwatcher", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	showVersion := fs.Bool("version", false, "print version and exit")
	fs.Parse(args)

	if *showVersion {
		fmt.Println("logwatcher", version)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log.Level)

	slog.Info("logwatcher starting",
		"version", version,
		"files", len(cfg.LogFiles),
		"keywords", len(cfg.Keywords),
		"alert_methods", strings.Join(cfg.AlertMethods, ","),
	)

	if err := run(cfg); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	rules := cfg.Rules()

	sinks, closeSinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer closeSinks()

	sup := monitor.New(cfg.LogFiles, rules, sinks, cfg.PollInterval.Duration, cfg.ReadInterval.Duration)

	done := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(done)
	}()

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
		cancel()
		<-done
	case <-done:
	}

	slog.Info("logwatcher shut down complete")
	return nil
}

// buildSinks assembles the sink set from config. The incident log file sink is
// always active; alert_methods selects notification channels on top of it.
func buildSinks(cfg *config.Config) ([]sink.Sink, func(), error) {
	fileSink, err := sink.NewFile(cfg.IncidentLog)
	if err != nil {
		return nil, nil, fmt.Errorf("opening incident log: %w", err)
	}

	sinks := []sink.Sink{fileSink}
	closers := []func(){func() { fileSink.Close() }}

	for _, method := range cfg.AlertMethods {
		switch strings.ToLower(method) {
		case "console":
			sinks = append(sinks, sink.NewConsole(nil))
		case "sqlite":
			db, err := store.Open(cfg.DBPath)
			if err != nil {
				for _, c := range closers {
					c()
				}
				return nil, nil, fmt.Errorf("opening incident database: %w", err)
			}
			slog.Info("incident database opened", "path", cfg.DBPath)
			sinks = append(sinks, sink.NewSqlite(db))
			closers = append(closers, func() { db.Close() })
		default:
			slog.Warn("unknown alert method, skipping", "method", method)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return sinks, closeAll, nil
}

// --- serve subcommand ---

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	listen := fs.String("listen", "", "listen address (overrides config)")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(cfg.Log.Level)

	addr := cfg.Listen
	if *listen != "" {
		addr = *listen
	}

	srv := server.New(cfg.IncidentLog, addr)
	slog.Info("status server starting", "addr", addr, "incident_log", cfg.IncidentLog)

	if err := srv.Start(); err != nil {
		slog.Error("status server failed", "error", err)
		os.Exit(1)
	}
}

// --- query subcommand ---

func runQuery(args []string) {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "", "path to config file")
	last := fs.String("last", "24h", "time window (e.g. 30m, 24h, 7d)")
	severity := fs.String("severity", "", "filter by severity (Info, Warning, Critical)")
	source := fs.String("source", "", "filter by source path")
	limit := fs.Int("limit", 50, "max incidents to show")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging("error") // quiet for CLI output

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	window, err := parseDuration(*last)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --last value %q: %v\n", *last, err)
		os.Exit(1)
	}

	incidents, err := db.Query(store.QueryFilter{
		Since:    time.Now().Add(-window),
		Severity: *severity,
		Source:   *source,
		Limit:    *limit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "query error: %v\n", err)
		os.Exit(1)
	}

	if len(incidents) == 0 {
		fmt.Println("No incidents found.")
		return
	}

	printIncidents(incidents)
}

func printIncidents(incidents []*incident.Incident) {
	for _, in := range incidents {
		ts := in.Timestamp.Local().Format("2006-01-02 15:04:05")
		fmt.Printf("%s  [%s] %s:%d %s\n", ts, in.Severity, in.Source, in.Line, strings.TrimSpace(in.Text))
	}
	fmt.Printf("Total: %d incident(s)\n", len(incidents))
}

// parseDuration extends time.ParseDuration with support for "d" (days) suffix.
func parseDuration(s string) (time.Duration, error) {
	if strings.HasSuffix(s, "d") {
		s = strings.TrimSuffix(s, "d")
		var days int
		if _, err := fmt.Sscanf(s, "%d", &days); err != nil {
			return 0, fmt.Errorf("invalid days format: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

// --- utilities ---

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
