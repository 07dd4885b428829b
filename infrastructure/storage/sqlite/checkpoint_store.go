package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

// CheckpointStore is a SQLite-backed implementation of checkpoint.Store.
type CheckpointStore struct {
	db *sql.DB
}

// NewCheckpointStore creates a new SQLite checkpoint store with the given
// configuration.
func NewCheckpointStore(cfg Config, opts ...Option) (*CheckpointStore, error) {
	for _, opt := range opts {
		opt(&cfg)
	}

	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	s := &CheckpointStore{db: db}
	if cfg.AutoMigrate {
		if err := s.migrate(); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return s, nil
}

// NewCheckpointStoreFromDB creates a store from an existing database
// connection.
func NewCheckpointStoreFromDB(db *sql.DB) (*CheckpointStore, error) {
	s := &CheckpointStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CheckpointStore) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS checkpoints (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			data BLOB NOT NULL,
			created_at INTEGER NOT NULL,
			PRIMARY KEY (run_id, step)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return errors.Join(ErrMigrationFailed, err)
	}
	return nil
}

// Save persists a checkpoint, replacing one of the same run and step.
func (s *CheckpointStore) Save(ctx context.Context, c *checkpoint.Checkpoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	cp := *c
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(&cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (run_id, step, data, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (run_id, step) DO UPDATE SET
			data = excluded.data,
			created_at = excluded.created_at
	`, cp.RunID, cp.Step, data, cp.CreatedAt.UnixNano())
	return s.wrapError(err)
}

// Load retrieves the checkpoint of a run at step.
func (s *CheckpointStore) Load(ctx context.Context, runID string, step int) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM checkpoints WHERE run_id = ? AND step = ?`, runID, step)
	return s.scan(row, runID)
}

// Latest retrieves the checkpoint with the highest step of a run.
func (s *CheckpointStore) Latest(ctx context.Context, runID string) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT data FROM checkpoints WHERE run_id = ? ORDER BY step DESC LIMIT 1`, runID)
	return s.scan(row, runID)
}

// List describes the checkpoints of a run in step order.
func (s *CheckpointStore) List(ctx context.Context, runID string) ([]checkpoint.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT step, created_at FROM checkpoints WHERE run_id = ? ORDER BY step`, runID)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	infos := []checkpoint.Info{}
	for rows.Next() {
		var (
			step    int
			created int64
		)
		if err := rows.Scan(&step, &created); err != nil {
			return nil, s.wrapError(err)
		}
		infos = append(infos, checkpoint.Info{
			RunID:     runID,
			Step:      step,
			CreatedAt: time.Unix(0, created).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, s.wrapError(err)
	}
	return infos, nil
}

// Delete removes every checkpoint of a run.
func (s *CheckpointStore) Delete(ctx context.Context, runID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if runID == "" {
		return checkpoint.ErrInvalidRunID
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE run_id = ?`, runID)
	if err != nil {
		return s.wrapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return s.wrapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
	}
	return nil
}

// Close closes the database connection.
func (s *CheckpointStore) Close() error {
	return s.db.Close()
}

func (s *CheckpointStore) scan(row *sql.Row, runID string) (*checkpoint.Checkpoint, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
		}
		return nil, s.wrapError(err)
	}
	var c checkpoint.Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", checkpoint.ErrInvalidCheckpoint, err)
	}
	return &c, nil
}

// wrapError wraps database errors with domain errors.
func (s *CheckpointStore) wrapError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return errors.Join(checkpoint.ErrConnectionFailed, err)
}

var _ checkpoint.Store = (*CheckpointStore)(nil)
