// Package store provides SQLite-backed incident archiving and querying.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Hasintha01/logwatcher/internal/incident"
)

// DB wraps an SQLite connection for incident storage.
type DB struct {
	db *sql.DB
}

// Open opens or creates an SQLite database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Insert stores a new incident in the database.
func (d *DB) Insert(in *incident.Incident) error {
	_, err := d.db.Exec(`
		INSERT INTO incidents (id, timestamp, severity, source, line_no, text)
		VALUES (?, ?, ?, ?, ?, ?)`,
		in.ID,
		in.Timestamp.UTC().Format(time.RFC3339Nano),
		string(in.Severity),
		in.Source,
		in.Line,
		in.Text,
	)
	if err != nil {
		return fmt.Errorf("inserting incident: %w", err)
	}
	return nil
}

// QueryFilter controls which incidents are returned by Query.
type QueryFilter struct {
	Since    time.Time
	Until    time.Time
	Severity string
	Source   string
	Limit    int
}

// Query returns incidents matching the filter, ordered by timestamp descending.
func (d *DB) Query(f QueryFilter) ([]*incident.Incident, error) {
	query := `SELECT id, timestamp, severity, source, line_no, text
		FROM incidents WHERE 1=1`
	var args []interface{}

	if !f.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, f.Since.UTC().Format(time.RFC3339Nano))
	}
	if !f.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, f.Until.UTC().Format(time.RFC3339Nano))
	}
	if f.Severity != "" {
		query += " AND severity = ?"
		args = append(args, f.Severity)
	}
	if f.Source != "" {
		query += " AND source = ?"
		args = append(args, f.Source)
	}

	query += " ORDER BY timestamp DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*incident.Incident
	for rows.Next() {
		in, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, in)
	}
	return incidents, rows.Err()
}

// Count returns the total number of stored incidents.
func (d *DB) Count() (int, error) {
	var n int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM incidents`).Scan(&n)
	return n, err
}

// Purge deletes incidents older than the given retention duration.
func (d *DB) Purge(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).UTC().Format(time.RFC3339Nano)
	result, err := d.db.Exec(`DELETE FROM incidents WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purging old incidents: %w", err)
	}
	return result.RowsAffected()
}

func scanIncident(rows *sql.Rows) (*incident.Incident, error) {
	var in incident.Incident
	var tsStr string

	err := rows.Scan(&in.ID, &tsStr, &in.Severity, &in.Source, &in.Line, &in.Text)
	if err != nil {
		return nil, fmt.Errorf("scanning incident row: %w", err)
	}

	in.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
	return &in, nil
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS incidents (
			id        TEXT PRIMARY KEY,
			timestamp TEXT NOT NULL,
			severity  TEXT NOT NULL,
			source    TEXT NOT NULL,
			line_no   INTEGER NOT NULL,
			text      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_ts ON incidents(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_severity ON incidents(severity, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_source ON incidents(source, timestamp)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Debug("database schema up to date")
	return nil
}
