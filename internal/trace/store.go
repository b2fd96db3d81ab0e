// Package trace records the positions of every agent at every tick of a run
// in a SQLite database and exports them for analysis.
package trace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robertpaananen/llpp/internal/constants"
	"github.com/robertpaananen/llpp/internal/models"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrRunNotFound is returned when a run id matches no recorded run.
var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Run describes a recorded run.
type Run struct {
	ID        string    `json:"id"`
	Scenario  string    `json:"scenario"`
	Strategy  string    `json:"strategy"`
	Mode      string    `json:"mode"`
	Agents    int       `json:"agents"`
	Ticks     int       `json:"ticks"`
	CreatedAt time.Time `json:"created_at"`
}

// Store is the trace database.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// Open opens (or creates) dir/trace.db.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create trace directory: %w", err)
	}

	dbPath := filepath.Join(dir, constants.TraceDBName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ListRuns returns every run, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.scenario, r.strategy, r.mode, r.agents, r.created_at,
		       COALESCE((SELECT MAX(tick) FROM positions p WHERE p.run_id = r.id), 0)
		FROM runs r
		ORDER BY r.created_at DESC, r.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with id. A unique id prefix is accepted and is
// matched literally.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty run id", ErrRunNotFound)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.scenario, r.strategy, r.mode, r.agents, r.created_at,
		       COALESCE((SELECT MAX(tick) FROM positions p WHERE p.run_id = r.id), 0)
		FROM runs r
		WHERE substr(r.id, 1, length(?)) = ?
		ORDER BY r.id = ? DESC
		LIMIT 2`, id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	defer rows.Close()

	var found []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == id {
			return &run, nil
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return &found[0], nil
	}
	return nil, fmt.Errorf("ambiguous run id prefix %q", id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var created string
	if err := row.Scan(&run.ID, &run.Scenario, &run.Strategy, &run.Mode, &run.Agents, &created, &run.Ticks); err != nil {
		return Run{}, fmt.Errorf("failed to scan run: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Run{}, fmt.Errorf("failed to parse created_at for run %s: %w", run.ID, err)
	}
	run.CreatedAt = t
	return run, nil
}

// Positions returns the positions of every agent at tick, ordered by agent index.
func (s *Store) Positions(ctx context.Context, runID string, tick int) ([]models.Position, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT x, y FROM positions WHERE run_id = ? AND tick = ? ORDER BY agent`, runID, tick)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var out []models.Position
	for rows.Next() {
		var p models.Position
		if err := rows.Scan(&p.X, &p.Y); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate positions: %w", err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: no tick %d in run %s", ErrRunNotFound, tick, runID)
	}
	return out, nil
}

// DeleteRun removes a run and its positions.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// createRun inserts the run row and its tick 0 positions.
func (s *Store) createRun(ctx context.Context, scenario, strategy, mode string, initial []models.Position) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(timeLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, scenario, strategy, mode, agents, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, scenario, strategy, mode, len(initial), now); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	if err := insertPositions(ctx, tx, id, 0, initial); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

// appendTick stores one tick in its own transaction.
func (s *Store) appendTick(ctx context.Context, runID string, tick int, positions []models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertPositions(ctx, tx, runID, tick, positions); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tick %d: %w", tick, err)
	}
	return nil
}

func insertPositions(ctx context.Context, tx *sql.Tx, runID string, tick int, positions []models.Position) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO positions (run_id, tick, agent, x, y) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range positions {
		if _, err := stmt.ExecContext(ctx, runID, tick, i, p.X, p.Y); err != nil {
			return fmt.Errorf("failed to insert position of agent %d at tick %d: %w", i, tick, err)
		}
	}
	return nil
}
