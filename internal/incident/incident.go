// Package incident defines the core data model for recorded keyword matches.
package incident

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Severity indicates the urgency assigned to a matched line.
type Severity string

const (
	SevInfo     Severity = "Info"
	SevWarning  Severity = "Warning"
	SevCritical Severity = "Critical"
)

// ParseSeverity maps a config string to a Severity. Unknown values coerce to
// Warning; the second return reports whether the input was valid.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SevInfo, SevWarning, SevCritical:
		return Severity(s), true
	}
	return SevWarning, false
}

func (s Severity) String() string {
	return string(s)
}

// Incident is one recorded keyword match. Immutable once constructed: it is
// written to each sink exactly once and never mutated afterwards.
type Incident struct {
	ID        string
	Timestamp time.Time
	Severity  Severity
	Source    string
	Line      int
	Text      string
}

// New creates an Incident with a generated UUID for the given match.
func New(ts time.Time, sev Severity, source string, line int, text string) *Incident {
	return &Incident{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Severity:  sev,
		Source:    source,
		Line:      line,
		Text:      text,
	}
}

// timeLayout is the human-readable timestamp format used in both the incident
// log and console output.
const timeLayout = "2006-01-02 15:04:05"

// LogLine renders the incident in the append-only incident log format:
//
//	[2026-02-19 14:32:05] [Critical] /var/log/app.log:42 raw line text
//
// A trailing newline is always present so one incident occupies exactly one
// line of the log.
func (in *Incident) LogLine() string {
	line := fmt.Sprintf("[%s] [%s] %s:%d %s",
		in.Timestamp.Format(timeLayout), in.Severity, in.Source, in.Line, in.Text)
	if !strings.HasSuffix(line, "\n") {
		line += "\n"
	}
	return line
}

// ConsoleLine renders the incident for the console sink, with the raw line
// trimmed of surrounding whitespace.
func (in *Incident) ConsoleLine() string {
	return fmt.Sprintf("[%s] [%s] %s",
		in.Timestamp.Format(timeLayout), in.Severity, strings.TrimSpace(in.Text))
}
