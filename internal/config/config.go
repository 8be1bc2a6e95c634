// Package config handles configuration loading with sensible defaults.
//
// The primary config format is a JSON object (the format external tooling
// writes); files ending in .toml are decoded as TOML instead.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Hasintha01/logwatcher/internal/classifier"
)

// DefaultPath is where Load looks when no explicit path is given.
const DefaultPath = "config/config.json"

// Config is the top-level configuration for logwatcher.
type Config struct {
	// LogFiles are the paths to monitor. A path that does not exist yet is
	// watched until it appears.
	LogFiles []string `json:"log_files" toml:"log_files"`

	// Keywords maps a case-sensitive substring to the severity recorded when
	// it appears in a monitored line.
	Keywords map[string]string `json:"keywords" toml:"keywords"`

	// AlertMethods selects notification sinks ("console", "sqlite"). The
	// incident log file is always written regardless.
	AlertMethods []string `json:"alert_methods" toml:"alert_methods"`

	IncidentLog string `json:"incident_log" toml:"incident_log"`
	DBPath      string `json:"db_path" toml:"db_path"`

	// PollInterval is how long a tail engine waits before re-checking a path
	// that does not currently resolve; ReadInterval is how long it waits
	// after reading no new data. The two are independent.
	PollInterval Duration `json:"poll_interval" toml:"poll_interval"`
	ReadInterval Duration `json:"read_interval" toml:"read_interval"`

	// Listen is the status API bind address.
	Listen string `json:"listen" toml:"listen"`

	Log LogConfig `json:"log" toml:"log"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `json:"level" toml:"level"`
}

// Duration wraps time.Duration for string parsing in config files
// (e.g. "500ms", "1s").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		LogFiles: []string{"logs/system.log"},
		Keywords: map[string]string{
			"ERROR":    "Critical",
			"CRITICAL": "Critical",
			"WARNING":  "Warning",
		},
		AlertMethods: []string{"console"},
		IncidentLog:  filepath.Join("alerts", "alerts.log"),
		DBPath:       filepath.Join("alerts", "incidents.db"),
		PollInterval: Duration{time.Second},
		ReadInterval: Duration{500 * time.Millisecond},
		Listen:       ":8080",
		Log:          LogConfig{Level: "info"},
	}
}

// Load reads configuration from the given path (DefaultPath if empty). A
// missing or malformed file is an error: the caller is expected to treat it as
// fatal. Empty or missing fields fall back to the defaults, with a warning
// logged for each fallback.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills empty fields from Default, logging the field-level
// fallbacks that matter operationally.
func (c *Config) applyDefaults() {
	def := Default()

	if len(c.LogFiles) == 0 {
		slog.Warn("no log_files configured, using default", "path", def.LogFiles[0])
		c.LogFiles = def.LogFiles
	}
	if len(c.Keywords) == 0 {
		slog.Warn("no keywords configured, using defaults")
		c.Keywords = def.Keywords
	}
	if len(c.AlertMethods) == 0 {
		slog.Warn("no alert_methods configured, using default", "method", "console")
		c.AlertMethods = def.AlertMethods
	}
	if c.IncidentLog == "" {
		c.IncidentLog = def.IncidentLog
	}
	if c.DBPath == "" {
		c.DBPath = def.DBPath
	}
	if c.PollInterval.Duration <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.ReadInterval.Duration <= 0 {
		c.ReadInterval = def.ReadInterval
	}
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// Rules compiles the keyword table into the ordered classifier rule set,
// logging a warning for every severity coerced to Warning.
func (c *Config) Rules() classifier.Rules {
	rules, coerced := classifier.Compile(c.Keywords)
	for _, kw := range coerced {
		slog.Warn("invalid severity for keyword, coerced to Warning",
			"keyword", kw, "severity", c.Keywords[kw])
	}
	return rules
}

// HasAlertMethod reports whether the given sink identifier is configured.
func (c *Config) HasAlertMethod(name string) bool {
	for _, m := range c.AlertMethods {
		if strings.EqualFold(m, name) {
			return true
		}
	}
	return false
}
