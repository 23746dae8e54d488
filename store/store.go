// Package store keeps the history of optimization runs in a SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	// tell sql to use sqlite
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a run is not in the store.
var ErrNotFound = errors.New("run not found")

// Memory is the path of an in-memory database.
const Memory = ":memory:"

// Run is a stored optimization run.
type Run struct {
	ID      string
	Created time.Time
	Period  string // "single" or "multi"
	Sampler string
	Solver  string
	Budget  float64
	Status  string
	Payload string // serialized result
}

// Store is a SQLite run history.
type Store struct {
	db *sql.DB
}

// Open opens, and creates if needed, the run history at 'path'.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if path == Memory {
		// every connection to :memory: is a different database
		db.SetMaxOpenConns(1)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS runs (id TEXT NOT NULL PRIMARY KEY,
				created INT,
				period TEXT,
				sampler TEXT,
				solver TEXT,
				budget REAL,
				status TEXT,
				payload TEXT)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating runs table: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Save inserts or replaces a run.
func (s *Store) Save(r Run) error {
	_, err := s.db.Exec(`INSERT INTO runs(id, created, period, sampler, solver, budget, status, payload)
		 VALUES(?1, ?2, ?3, ?4, ?5, ?6, ?7, ?8)
		 ON CONFLICT(id) DO UPDATE SET
		 status = ?7,
		 payload = ?8`,
		r.ID, r.Created.UnixNano(), r.Period, r.Sampler, r.Solver, r.Budget, r.Status, r.Payload)
	if err != nil {
		return fmt.Errorf("error saving run %s: %w", r.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Run, error) {
	var r Run
	var created int64
	err := row.Scan(&r.ID, &created, &r.Period, &r.Sampler, &r.Solver, &r.Budget, &r.Status, &r.Payload)
	r.Created = time.Unix(0, created)
	return r, err
}

// Get returns the run 'id'.
func (s *Store) Get(id string) (Run, error) {
	row := s.db.QueryRow(`SELECT id, created, period, sampler, solver, budget, status, payload
		FROM runs WHERE id = ?`, id)
	r, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("error reading run %s: %w", id, err)
	}
	return r, nil
}

// List returns the 'limit' most recent runs, most recent first.
// A limit <= 0 returns all runs.
func (s *Store) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // no limit in sqlite
	}
	rows, err := s.db.Query(`SELECT id, created, period, sampler, solver, budget, status, payload
		FROM runs ORDER BY created DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
