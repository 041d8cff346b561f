// Package runstore persists training run records in a SQLite database,
// so experiments remain comparable across invocations.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/seqvec/helix/internal/hdc"
)

// Run is one recorded training invocation. Metrics and the config
// snapshot travel as a JSON payload; the indexed columns cover what
// listing and comparison need.
type Run struct {
	ID         string     `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	Dataset    string     `json:"dataset"`
	Config     hdc.Config `json:"config"`
	Pretrain   []float32  `json:"pretrain_loss,omitempty"`
	TrainLoss  []float32  `json:"train_loss,omitempty"`
	ValAcc     []float32  `json:"val_acc,omitempty"`
	BestValAcc float32    `json:"best_val_acc"`
	BestEpoch  int        `json:"best_epoch"`
	TestAcc    float32    `json:"test_acc"`
}

// NewRun creates a run record with a fresh id and timestamp.
func NewRun(dataset string, cfg hdc.Config) Run {
	return Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Dataset:   dataset,
		Config:    cfg,
	}
}

// Store is a SQLite-backed run registry. Init must be called before use.
type Store struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("runstore: path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// SaveRun inserts or replaces a run record by id.
func (s *Store) SaveRun(ctx context.Context, run Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, dataset, best_val_acc, test_acc, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			dataset = excluded.dataset,
			best_val_acc = excluded.best_val_acc,
			test_acc = excluded.test_acc,
			payload = excluded.payload
	`, run.ID, run.CreatedAt.Format(time.RFC3339Nano), run.Dataset, run.BestValAcc, run.TestAcc, payload)
	return err
}

// GetRun fetches a run by id; the second return is false when no such
// run exists.
func (s *Store) GetRun(ctx context.Context, id string) (Run, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Run{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}

	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return Run{}, false, fmt.Errorf("runstore: decode run %s: %w", id, err)
	}
	return run, true, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var run Run
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("runstore: decode run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("runstore: store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			dataset TEXT NOT NULL,
			best_val_acc REAL NOT NULL,
			test_acc REAL NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
