package sink

import (
	"github.com/Hasintha01/logwatcher/internal/incident"
	"github.com/Hasintha01/logwatcher/internal/store"
)

// Sqlite archives incidents in the SQLite store so they can be queried later.
type Sqlite struct {
	db *store.DB
}

// NewSqlite creates a sink backed by the given store.
func NewSqlite(db *store.DB) *Sqlite {
	return &Sqlite{db: db}
}

func (s *Sqlite) Name() string { return "sqlite" }

func (s *Sqlite) Record(in *incident.Incident) error {
	return s.db.Insert(in)
}
