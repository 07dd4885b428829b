package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/felixgeelhaar/heatshift/domain/checkpoint"
)

// CheckpointStore is a PostgreSQL-backed implementation of checkpoint.Store.
type CheckpointStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewCheckpointStore creates a store on pool. An empty schema means public.
func NewCheckpointStore(pool *pgxpool.Pool, schema string) *CheckpointStore {
	if schema == "" {
		schema = "public"
	}
	return &CheckpointStore{
		pool:   pool,
		schema: schema,
	}
}

func (s *CheckpointStore) tableName() string {
	return pgx.Identifier{s.schema, "checkpoints"}.Sanitize()
}

// Migrate creates the checkpoints table if it does not exist.
func (s *CheckpointStore) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id TEXT NOT NULL,
			step INTEGER NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (run_id, step)
		)
	`, s.tableName())
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return s.wrapError(err)
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

	query := fmt.Sprintf(`
		INSERT INTO %s (run_id, step, data, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (run_id, step) DO UPDATE SET
			data = EXCLUDED.data,
			created_at = EXCLUDED.created_at
	`, s.tableName())
	if _, err := s.pool.Exec(ctx, query, cp.RunID, cp.Step, data, cp.CreatedAt); err != nil {
		return s.wrapError(err)
	}
	return nil
}

// Load retrieves the checkpoint of a run at step.
func (s *CheckpointStore) Load(ctx context.Context, runID string, step int) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE run_id = $1 AND step = $2`, s.tableName())
	return s.scan(s.pool.QueryRow(ctx, query, runID, step), runID)
}

// Latest retrieves the checkpoint with the highest step of a run.
func (s *CheckpointStore) Latest(ctx context.Context, runID string) (*checkpoint.Checkpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	query := fmt.Sprintf(`SELECT data FROM %s WHERE run_id = $1 ORDER BY step DESC LIMIT 1`, s.tableName())
	return s.scan(s.pool.QueryRow(ctx, query, runID), runID)
}

// List describes the checkpoints of a run in step order.
func (s *CheckpointStore) List(ctx context.Context, runID string) ([]checkpoint.Info, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, checkpoint.ErrInvalidRunID
	}

	query := fmt.Sprintf(`SELECT step, created_at FROM %s WHERE run_id = $1 ORDER BY step`, s.tableName())
	rows, err := s.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, s.wrapError(err)
	}
	defer rows.Close()

	infos := []checkpoint.Info{}
	for rows.Next() {
		info := checkpoint.Info{RunID: runID}
		if err := rows.Scan(&info.Step, &info.CreatedAt); err != nil {
			return nil, s.wrapError(err)
		}
		info.CreatedAt = info.CreatedAt.UTC()
		infos = append(infos, info)
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

	query := fmt.Sprintf(`DELETE FROM %s WHERE run_id = $1`, s.tableName())
	result, err := s.pool.Exec(ctx, query, runID)
	if err != nil {
		return s.wrapError(err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", checkpoint.ErrCheckpointNotFound, runID)
	}
	return nil
}

func (s *CheckpointStore) scan(row pgx.Row, runID string) (*checkpoint.Checkpoint, error) {
	var data []byte
	if err := row.Scan(&data); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
