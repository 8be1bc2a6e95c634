package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/Hasintha01/logwatcher/internal/incident"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestInsertAndQuery(t *testing.T) {
	db := testDB(t)

	in := incident.New(time.Now(), incident.SevCritical, "/var/log/app.log", 42, "2024 FAIL disk full\n")
	if err := db.Insert(in); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	incidents, err := db.Query(QueryFilter{
		Since: time.Now().Add(-time.Hour),
		Limit: 10,
	})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(incidents) != 1 {
		t.Fatalf("expected 1 incident, got %d", len(incidents))
	}

	got := incidents[0]
	if got.ID != in.ID {
		t.Errorf("ID = %q, want %q", got.ID, in.ID)
	}
	if got.Severity != incident.SevCritical {
		t.Errorf("Severity = %q", got.Severity)
	}
	if got.Source != "/var/log/app.log" {
		t.Errorf("Source = %q", got.Source)
	}
	if got.Line != 42 {
		t.Errorf("Line = %d, want 42", got.Line)
	}
	if got.Text != "2024 FAIL disk full\n" {
		t.Errorf("Text = %q", got.Text)
	}
}

func TestQueryFilters(t *testing.T) {
	db := testDB(t)
	now := time.Now()

	seed := []*incident.Incident{
		incident.New(now.Add(-2*time.Hour), incident.SevCritical, "a.log", 1, "ERROR one\n"),
		incident.New(now.Add(-time.Minute), incident.SevWarning, "a.log", 2, "WARNING two\n"),
		incident.New(now.Add(-time.Minute), incident.SevCritical, "b.log", 1, "ERROR three\n"),
	}
	for _, in := range seed {
		if err := db.Insert(in); err != nil {
			t.Fatalf("Insert: %v", err)
		}
	}

	bySev, err := db.Query(QueryFilter{Severity: "Critical"})
	if err != nil {
		t.Fatalf("Query by severity: %v", err)
	}
	if len(bySev) != 2 {
		t.Errorf("Critical incidents = %d, want 2", len(bySev))
	}

	bySource, err := db.Query(QueryFilter{Source: "a.log"})
	if err != nil {
		t.Fatalf("Query by source: %v", err)
	}
	if len(bySource) != 2 {
		t.Errorf("a.log incidents = %d, want 2", len(bySource))
	}

	recent, err := db.Query(QueryFilter{Since: now.Add(-10 * time.Minute)})
	if err != nil {
		t.Fatalf("Query by since: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("recent incidents = %d, want 2", len(recent))
	}

	limited, err := db.Query(QueryFilter{Limit: 1})
	if err != nil {
		t.Fatalf("Query with limit: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("limited incidents = %d, want 1", len(limited))
	}
}

func TestQueryOrdersNewestFirst(t *testing.T) {
	db := testDB(t)
	now := time.Now()

	older := incident.New(now.Add(-time.Hour), incident.SevInfo, "a.log", 1, "older\n")
	newer := incident.New(now, incident.SevInfo, "a.log", 2, "newer\n")
	for _, in := range []*incident.Incident{older, newer} {
		if err := db.Insert(in); err != nil {
			t.Fatal(err)
		}
	}

	incidents, err := db.Query(QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(incidents) != 2 {
		t.Fatalf("incidents = %d, want 2", len(incidents))
	}
	if incidents[0].ID != newer.ID {
		t.Errorf("first result = %q, want newest incident %q", incidents[0].ID, newer.ID)
	}
}

func TestCount(t *testing.T) {
	db := testDB(t)

	for i := 1; i <= 3; i++ {
		in := incident.New(time.Now(), incident.SevWarning, "a.log", i, "WARNING n\n")
		if err := db.Insert(in); err != nil {
			t.Fatal(err)
		}
	}

	n, err := db.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count = %d, want 3", n)
	}
}

func TestPurge(t *testing.T) {
	db := testDB(t)
	now := time.Now()

	old := incident.New(now.Add(-48*time.Hour), incident.SevCritical, "a.log", 1, "ERROR old\n")
	fresh := incident.New(now, incident.SevCritical, "a.log", 2, "ERROR fresh\n")
	for _, in := range []*incident.Incident{old, fresh} {
		if err := db.Insert(in); err != nil {
			t.Fatal(err)
		}
	}

	purged, err := db.Purge(24 * time.Hour)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if purged != 1 {
		t.Errorf("purged = %d, want 1", purged)
	}

	remaining, err := db.Query(QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 || remaining[0].ID != fresh.ID {
		t.Errorf("remaining = %v, want only the fresh incident", remaining)
	}
}
